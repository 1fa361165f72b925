package collector

import (
	"context"
	"time"

	"coinsage/sources/metrics"
	"coinsage/sources/platform"
	"coinsage/sources/repository"
	"coinsage/sources/tracing"

	"go.uber.org/fx"
)

type StatsCollector struct {
	log     *tracing.Logger
	metrics *metrics.MetricsService
	usage   *repository.UsageRepository
}

func NewStatsCollector(
	lc fx.Lifecycle,
	log *tracing.Logger,
	metrics *metrics.MetricsService,
	usage *repository.UsageRepository,
) *StatsCollector {
	s := &StatsCollector{
		log:     log,
		metrics: metrics,
		usage:   usage,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go s.start()
			return nil
		},
	})

	return s
}

func (s *StatsCollector) start() {
	interval := time.Duration(platform.GetAsInt("STATS_COLLECT_INTERVAL", 300)) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.collectStats()

	for range ticker.C {
		s.collectStats()
	}
}

func (s *StatsCollector) collectStats() {
	if cost, err := s.usage.GetTotalCost(s.log); err == nil {
		s.metrics.SetTotalCost(cost.InexactFloat64())
	} else {
		s.log.E("Failed to collect total cost stats", tracing.InnerError, err)
	}
}
