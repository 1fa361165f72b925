package artificial

import (
	"time"

	"coinsage/sources/platform"

	"github.com/shopspring/decimal"
)

type AdvisorConfig struct {
	OpenRouterToken string
	DailySpendCap   decimal.Decimal

	AdvisorModel   string
	InsightModel   string
	FallbackModels []string

	InsightMaxTokens    int
	StructuredMaxTokens int

	InsightTemperature    float32
	StructuredTemperature float32

	CoinsCacheTTL      time.Duration
	NewsFilterCacheTTL time.Duration

	CoinsClipLimit int
	NewsClipLimit  int
}

func NewAdvisorConfig() *AdvisorConfig {
	return &AdvisorConfig{
		OpenRouterToken: platform.Get("OPENROUTER_API_KEY", ""),
		DailySpendCap:   platform.GetDecimal("ADVISOR_DAILY_SPEND_CAP", "0"),

		AdvisorModel:   platform.Get("ADVISOR_MODEL", "meta-llama/llama-3.3-70b-instruct:free"),
		InsightModel:   platform.Get("ADVISOR_INSIGHT_MODEL", "deepseek/deepseek-r1-0528:free"),
		FallbackModels: platform.GetAsSlice("ADVISOR_FALLBACK_MODELS", []string{"mistralai/mistral-small-3.1:free"}),

		InsightMaxTokens:    platform.GetAsInt("ADVISOR_INSIGHT_MAX_TOKENS", 180),
		StructuredMaxTokens: platform.GetAsInt("ADVISOR_STRUCTURED_MAX_TOKENS", 220),

		InsightTemperature:    platform.GetAsFloat("ADVISOR_INSIGHT_TEMPERATURE", 0.3),
		StructuredTemperature: platform.GetAsFloat("ADVISOR_STRUCTURED_TEMPERATURE", 0.1),

		CoinsCacheTTL:      platform.GetAsDuration("ADVISOR_COINS_CACHE_TTL", "2h"),
		NewsFilterCacheTTL: platform.GetAsDuration("ADVISOR_NEWS_FILTER_CACHE_TTL", "2h"),

		CoinsClipLimit: platform.GetAsInt("ADVISOR_COINS_CLIP_LIMIT", 50),
		NewsClipLimit:  platform.GetAsInt("ADVISOR_NEWS_CLIP_LIMIT", 30),
	}
}
