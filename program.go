package main

import (
	"context"

	"coinsage/sources/artificial"
	"coinsage/sources/external"
	"coinsage/sources/features"
	"coinsage/sources/gateway"
	"coinsage/sources/metrics"
	"coinsage/sources/metrics/collector"
	"coinsage/sources/network"
	"coinsage/sources/persistence"
	"coinsage/sources/repository"
	"coinsage/sources/tracing"

	"go.uber.org/fx"
)

var (
	version   = "0.0.0"
	buildTime = "1970-01-01"
)

func main() {
	fx.New(
		tracing.Module,
		network.Module,
		persistence.Module,
		repository.Module,
		external.Module,
		features.Module,
		metrics.Module,
		collector.Module,
		artificial.Module,
		gateway.Module,

		fx.Invoke(func(lc fx.Lifecycle, log *tracing.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					log.I("Coinsage started successfully", "version", version, "build_time", buildTime)
					return nil
				},
				OnStop: func(ctx context.Context) error {
					log.I("Coinsage stopped", "version", version, "build_time", buildTime)
					return nil
				},
			})
		}),
	).Run()
}
