package artificial

import "go.uber.org/fx"

var Module = fx.Module("artificial",
	fx.Provide(
		NewAdvisorConfig,
		NewOpenRouterClient,
		NewCompleter,
		NewBriefer,
		NewAdvisor,
	),
)
