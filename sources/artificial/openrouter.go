package artificial

import (
	"net/http"

	openrouter "github.com/revrost/go-openrouter"
)

func NewOpenRouterClient(config *AdvisorConfig, client *http.Client) *openrouter.Client {
	clientConfig := openrouter.DefaultConfig(config.OpenRouterToken)
	clientConfig.HTTPClient = client
	clientConfig.XTitle = "Coinsage"
	clientConfig.HttpReferer = "https://github.com/coinsage/coinsage"

	return openrouter.NewClientWithConfig(*clientConfig)
}
