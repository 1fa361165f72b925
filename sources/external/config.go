package external

import (
	"coinsage/sources/platform"
)

type ProvidersConfig struct {
	CoinGeckoBaseURL   string
	CoinGeckoAPIKey    string
	CryptoPanicBaseURL string
	CryptoPanicToken   string
	StaticNewsPath     string
}

func NewProvidersConfig() *ProvidersConfig {
	return &ProvidersConfig{
		CoinGeckoBaseURL:   platform.Get("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoAPIKey:    platform.Get("COINGECKO_API_KEY", ""),
		CryptoPanicBaseURL: platform.Get("CRYPTOPANIC_BASE_URL", "https://cryptopanic.com/api/developer/v2/posts/"),
		CryptoPanicToken:   platform.Get("CRYPTOPANIC_AUTH_TOKEN", ""),
		StaticNewsPath:     platform.Get("NEWS_STATIC_PATH", "public/cryptopanic_news.json"),
	}
}
