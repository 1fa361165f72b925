package external

import "go.uber.org/fx"

var Module = fx.Module("external",
	fx.Provide(NewProvidersConfig),
	fx.Provide(NewMarketClient),
	fx.Provide(NewNewsClient),
)
