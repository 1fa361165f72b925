package gateway

import (
	"fmt"
	"net/http"

	"coinsage/sources/platform"
	"coinsage/sources/repository"
	"coinsage/sources/tracing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outsiders owns the operational HTTP surfaces: the startup/health server and
// the prometheus metrics server.
type Outsiders struct {
	log    *tracing.Logger
	config *GatewayConfig
	health *repository.HealthRepository
	ss     *http.Server
	ms     *http.Server
}

func NewOutsiders(log *tracing.Logger, config *GatewayConfig, health *repository.HealthRepository) *Outsiders {
	x := &Outsiders{log: log, config: config, health: health}

	x.ss = &http.Server{
		Addr: fmt.Sprintf(":%d", config.StartupPort),
		Handler: platform.Curry(http.NewServeMux, func(m *http.ServeMux) {
			m.HandleFunc("/health", x.healthHandler)
		}),
	}
	x.ms = &http.Server{
		Addr: fmt.Sprintf(":%d", config.MetricsPort),
		Handler: platform.Curry(http.NewServeMux, func(m *http.ServeMux) {
			m.Handle("/metrics", promhttp.Handler())
		}),
	}

	return x
}

func (x *Outsiders) startup() {
	x.log.I("Startup server is starting", tracing.OutsiderKind, "startup", "port", x.config.StartupPort)

	if err := x.ss.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		x.log.F("Failed to start startup server", tracing.OutsiderKind, "startup", tracing.InnerError, err)
	}
}

func (x *Outsiders) metrics() {
	x.log.I("Metrics server is starting", tracing.OutsiderKind, "metrics", "port", x.config.MetricsPort)

	if err := x.ms.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		x.log.F("Failed to start metrics server", tracing.OutsiderKind, "metrics", tracing.InnerError, err)
	}
}

func (x *Outsiders) healthHandler(w http.ResponseWriter, r *http.Request) {
	x.log.I("Outsider service got a ping", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)

	w.Header().Set("Content-Type", "application/json")

	if err := x.health.CheckDatabaseHealth(x.log); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"degraded","component":"database"}`))
		return
	}
	if err := x.health.CheckRedisHealth(x.log); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"degraded","component":"redis"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","service":"coinsage"}`))
}
