package gateway

import (
	"context"
	"net/http"

	"coinsage/sources/tracing"

	"go.uber.org/fx"
)

var Module = fx.Module("gateway",
	fx.Provide(
		NewGatewayConfig,
		NewAPIServer,
		NewOutsiders,
	),

	fx.Invoke(func(api *APIServer, outsiders *Outsiders, lc fx.Lifecycle) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				api.log.I("Starting gateway services")
				go func() {
					api.log.I("API server is starting", tracing.OutsiderKind, "api", "port", api.config.APIPort)
					if err := api.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						api.log.F("Failed to start api server", tracing.OutsiderKind, "api", tracing.InnerError, err)
					}
				}()
				go outsiders.startup()
				go outsiders.metrics()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				api.log.I("Stopping gateway services")
				if err := api.server.Shutdown(ctx); err != nil {
					api.log.E("Failed to shutdown api server", tracing.OutsiderKind, "api", tracing.InnerError, err)
				}
				if err := outsiders.ss.Shutdown(ctx); err != nil {
					api.log.E("Failed to shutdown startup server", tracing.OutsiderKind, "startup", tracing.InnerError, err)
				}
				if err := outsiders.ms.Shutdown(ctx); err != nil {
					api.log.E("Failed to shutdown metrics server", tracing.OutsiderKind, "metrics", tracing.InnerError, err)
				}
				return nil
			},
		})
	}),
)
