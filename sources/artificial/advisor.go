package artificial

import (
	"context"
	"errors"
	"sort"
	"time"

	"coinsage/sources/external"
	"coinsage/sources/features"
	"coinsage/sources/metrics"
	"coinsage/sources/persistence/entities"
	"coinsage/sources/platform"
	"coinsage/sources/repository"
	"coinsage/sources/tracing"

	"github.com/google/uuid"
	openrouter "github.com/revrost/go-openrouter"
	"github.com/revrost/go-openrouter/jsonschema"
	"github.com/shopspring/decimal"
)

const (
	TaskDailyInsight = "daily-insight"
	TaskSortCoins    = "sort-coins"
	TaskSortNews     = "sort-news"
)

var defaultNewsFilter = external.NewsFilterParams{Filter: "rising", Currencies: []string{}, Kind: "all"}

var relevantCoinsSchema = &jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"coins": {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}},
	},
	Required:             []string{"coins"},
	AdditionalProperties: false,
}

var newsFilterSchema = &jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"filter":     {Type: jsonschema.String, Enum: external.NewsFilters},
		"currencies": {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}},
		"kind":       {Type: jsonschema.String, Enum: external.NewsKinds},
	},
	Required:             []string{"filter", "currencies", "kind"},
	AdditionalProperties: false,
}

type completionProvider interface {
	Complete(ctx context.Context, log *tracing.Logger, messages []openrouter.ChatCompletionMessage, opts CompletionOptions) (*Completion, error)
}

type briefingSource interface {
	BuildDailyBriefing(ctx context.Context, log *tracing.Logger) string
}

type profileStore interface {
	GetByID(logger *tracing.Logger, userID uuid.UUID) (*entities.User, error)
}

type insightStore interface {
	GetInsight(logger *tracing.Logger, userID uuid.UUID, dateKey string) (*entities.DailyContent, error)
	UpsertInsight(logger *tracing.Logger, userID uuid.UUID, dateKey, insight string, model *string) error
}

type resultCache interface {
	Get(logger *tracing.Logger, task string, userID uuid.UUID, ttl time.Duration, out any) bool
	Set(logger *tracing.Logger, task string, userID uuid.UUID, ttl time.Duration, data any) error
}

type usageSink interface {
	SaveUsage(logger *tracing.Logger, userID uuid.UUID, task, model string, tokens int, cost decimal.Decimal) error
	GetTotalCostSince(logger *tracing.Logger, since time.Time) (decimal.Decimal, error)
}

type featureGate interface {
	IsEnabledDefault(featureName string, defaultValue bool) bool
}

// Advisor orchestrates the personalization pipeline: profile context, prompt,
// completion with model fallback, extraction, caching and daily persistence.
// Every AI-path failure degrades to deterministic heuristics; only a profile
// lookup failure is a hard error.
type Advisor struct {
	ai       completionProvider
	config   *AdvisorConfig
	briefer  briefingSource
	users    profileStore
	daily    insightStore
	cache    resultCache
	usage    usageSink
	features featureGate
	metrics  *metrics.MetricsService
}

func NewAdvisor(
	config *AdvisorConfig,
	completer *Completer,
	briefer *Briefer,
	users *repository.UsersRepository,
	daily *repository.DailyContentRepository,
	cache *repository.AICacheRepository,
	usage *repository.UsageRepository,
	featureManager *features.FeatureManager,
	metricsService *metrics.MetricsService,
) *Advisor {
	return &Advisor{
		ai:       completer,
		config:   config,
		briefer:  briefer,
		users:    users,
		daily:    daily,
		cache:    cache,
		usage:    usage,
		features: featureManager,
		metrics:  metricsService,
	}
}

// DateKey is the UTC calendar day used as the daily-content idempotency partition.
func DateKey(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// GetDailyInsight returns today's insight for the user, generating and storing
// it when absent or when force is set. A stored insight short-circuits the
// model call; a storage write failure degrades persistence, not the response.
func (x *Advisor) GetDailyInsight(ctx context.Context, log *tracing.Logger, userID uuid.UUID, force bool) (string, error) {
	defer tracing.ProfilePoint(log, "Daily insight completed", "artificial.advisor.daily.insight", tracing.UserId, userID)()

	user, err := x.users.GetByID(log, userID)
	if err != nil {
		return "", err
	}

	dateKey := DateKey(time.Now())

	if !force {
		existing, err := x.daily.GetInsight(log, userID, dateKey)
		if err != nil {
			log.E("Failed to read stored insight, regenerating", tracing.InnerError, err)
		} else if existing != nil && existing.Insight != "" {
			x.metrics.RecordInsightServed("stored")
			return existing.Insight, nil
		}
	}

	insight, model := x.generateInsight(ctx, log, user)
	if insight == "" {
		insight = FallbackInsight(user)
		model = nil
	}

	if err := x.daily.UpsertInsight(log, userID, dateKey, insight, model); err != nil {
		log.E("Failed to store daily insight, returning it anyway", tracing.InnerError, err, tracing.DateKey, dateKey)
	}

	return insight, nil
}

func (x *Advisor) generateInsight(ctx context.Context, log *tracing.Logger, user *entities.User) (string, *string) {
	if !x.features.IsEnabledDefault(features.FeatureInsightGeneration, true) {
		log.I("Insight generation disabled, using fallback", tracing.AiTask, TaskDailyInsight)
		x.metrics.RecordFallback(TaskDailyInsight, "disabled")
		x.metrics.RecordInsightServed("fallback")
		return FallbackInsight(user), nil
	}
	if !x.withinSpendCap(log) {
		x.metrics.RecordFallback(TaskDailyInsight, "spend-cap")
		x.metrics.RecordInsightServed("fallback")
		return FallbackInsight(user), nil
	}

	briefing := x.briefer.BuildDailyBriefing(ctx, log)
	messages := InsightPrompt(BuildCompactContext(user), briefing)

	completion, err := x.ai.Complete(ctx, log, messages, CompletionOptions{
		Task:           TaskDailyInsight,
		Model:          x.config.InsightModel,
		FallbackModels: x.config.FallbackModels,
		MaxTokens:      x.config.InsightMaxTokens,
		Temperature:    x.config.InsightTemperature,
	})
	if err != nil {
		x.metrics.RecordFallback(TaskDailyInsight, fallbackReason(err))
		x.metrics.RecordInsightServed("fallback")
		return FallbackInsight(user), nil
	}

	insight := NormalizeInsight(completion.Text)
	if insight == "" {
		x.metrics.RecordFallback(TaskDailyInsight, "empty")
		x.metrics.RecordInsightServed("fallback")
		return FallbackInsight(user), nil
	}

	x.recordUsage(log, user.ID, TaskDailyInsight, completion)
	x.metrics.RecordInsightServed("ai")
	return insight, platform.StringPtr(completion.Model)
}

// GetRelevantCoins returns up to 10 ticker symbols relevant to the user.
// Failures return an empty list and are never cached.
func (x *Advisor) GetRelevantCoins(ctx context.Context, log *tracing.Logger, userID uuid.UUID) ([]string, error) {
	defer tracing.ProfilePoint(log, "Relevant coins completed", "artificial.advisor.relevant.coins", tracing.UserId, userID)()

	user, err := x.users.GetByID(log, userID)
	if err != nil {
		return nil, err
	}

	var cached []string
	if x.cache.Get(log, repository.TaskRelevantCoins, userID, x.config.CoinsCacheTTL, &cached) {
		x.metrics.RecordCacheEvent(repository.TaskRelevantCoins, "hit")
		return cached, nil
	}
	x.metrics.RecordCacheEvent(repository.TaskRelevantCoins, "miss")

	if !x.features.IsEnabledDefault(features.FeatureAIScoring, true) || !x.withinSpendCap(log) {
		x.metrics.RecordFallback(repository.TaskRelevantCoins, "disabled")
		return []string{}, nil
	}

	completion, err := x.ai.Complete(ctx, log, RelevantCoinsPrompt(BuildCompactContext(user)), CompletionOptions{
		Task:           repository.TaskRelevantCoins,
		Model:          x.config.AdvisorModel,
		FallbackModels: x.config.FallbackModels,
		MaxTokens:      x.config.StructuredMaxTokens,
		Temperature:    x.config.StructuredTemperature,
		SchemaName:     "relevant_coins",
		Schema:         relevantCoinsSchema,
	})
	if err != nil {
		x.metrics.RecordFallback(repository.TaskRelevantCoins, fallbackReason(err))
		return []string{}, nil
	}

	var payload struct {
		Coins []any `json:"coins"`
	}
	if err := ExtractJSON(completion.Text, &payload); err != nil {
		x.metrics.RecordFallback(repository.TaskRelevantCoins, "parse-failure")
		return []string{}, nil
	}

	symbols := NormalizeSymbolList(payload.Coins)
	x.recordUsage(log, user.ID, repository.TaskRelevantCoins, completion)

	if err := x.cache.Set(log, repository.TaskRelevantCoins, userID, x.config.CoinsCacheTTL, symbols); err != nil {
		log.E("Failed to cache relevant coins", tracing.InnerError, err)
	}

	return symbols, nil
}

// GetRelevantNewsFilter returns personalized news feed settings. Failures
// return the built-in default and are never cached.
func (x *Advisor) GetRelevantNewsFilter(ctx context.Context, log *tracing.Logger, userID uuid.UUID) (external.NewsFilterParams, error) {
	defer tracing.ProfilePoint(log, "News filter completed", "artificial.advisor.news.filter", tracing.UserId, userID)()

	user, err := x.users.GetByID(log, userID)
	if err != nil {
		return defaultNewsFilter, err
	}

	var cached external.NewsFilterParams
	if x.cache.Get(log, repository.TaskNewsFilter, userID, x.config.NewsFilterCacheTTL, &cached) {
		x.metrics.RecordCacheEvent(repository.TaskNewsFilter, "hit")
		return cached, nil
	}
	x.metrics.RecordCacheEvent(repository.TaskNewsFilter, "miss")

	if !x.features.IsEnabledDefault(features.FeatureNewsFiltering, true) || !x.withinSpendCap(log) {
		x.metrics.RecordFallback(repository.TaskNewsFilter, "disabled")
		return defaultNewsFilter, nil
	}

	completion, err := x.ai.Complete(ctx, log, NewsFilterPrompt(BuildCompactContext(user)), CompletionOptions{
		Task:           repository.TaskNewsFilter,
		Model:          x.config.AdvisorModel,
		FallbackModels: x.config.FallbackModels,
		MaxTokens:      x.config.StructuredMaxTokens,
		Temperature:    x.config.StructuredTemperature,
		SchemaName:     "news_filter",
		Schema:         newsFilterSchema,
	})
	if err != nil {
		x.metrics.RecordFallback(repository.TaskNewsFilter, fallbackReason(err))
		return defaultNewsFilter, nil
	}

	var payload struct {
		Filter     string `json:"filter"`
		Currencies []any  `json:"currencies"`
		Kind       string `json:"kind"`
	}
	if err := ExtractJSON(completion.Text, &payload); err != nil {
		x.metrics.RecordFallback(repository.TaskNewsFilter, "parse-failure")
		return defaultNewsFilter, nil
	}

	params := external.NewsFilterParams{
		Filter:     NormalizeEnum(payload.Filter, external.NewsFilters, defaultNewsFilter.Filter),
		Currencies: NormalizeSymbolList(payload.Currencies),
		Kind:       NormalizeEnum(payload.Kind, external.NewsKinds, defaultNewsFilter.Kind),
	}

	x.recordUsage(log, user.ID, repository.TaskNewsFilter, completion)

	if err := x.cache.Set(log, repository.TaskNewsFilter, userID, x.config.NewsFilterCacheTTL, params); err != nil {
		log.E("Failed to cache news filter", tracing.InnerError, err)
	}

	return params, nil
}

// SortCoins returns a relevance-ordered permutation of coins: AI scores over
// the heuristic base order when available, pure heuristics otherwise. Never
// drops items.
func (x *Advisor) SortCoins(ctx context.Context, log *tracing.Logger, user *entities.User, coins []external.CoinMarketEntry) []external.CoinMarketEntry {
	if len(coins) == 0 {
		return coins
	}

	ranked := RankCoins(user, coins)

	if !x.features.IsEnabledDefault(features.FeatureAIScoring, true) || !x.withinSpendCap(log) {
		return ranked
	}

	clipped := coins
	if len(clipped) > x.config.CoinsClipLimit {
		clipped = clipped[:x.config.CoinsClipLimit]
	}

	completion, err := x.ai.Complete(ctx, log, SortCoinsPrompt(BuildCompactContext(user), clipped), CompletionOptions{
		Task:           TaskSortCoins,
		Model:          x.config.AdvisorModel,
		FallbackModels: x.config.FallbackModels,
		MaxTokens:      x.config.StructuredMaxTokens,
		Temperature:    x.config.StructuredTemperature,
		JSONMode:       true,
	})
	if err != nil {
		x.metrics.RecordFallback(TaskSortCoins, fallbackReason(err))
		return ranked
	}

	var payload struct {
		Scores map[string]float64 `json:"scores"`
	}
	if err := ExtractJSON(completion.Text, &payload); err != nil || len(payload.Scores) == 0 {
		x.metrics.RecordFallback(TaskSortCoins, "parse-failure")
		return ranked
	}

	if user != nil {
		x.recordUsage(log, user.ID, TaskSortCoins, completion)
	}

	return sortByScore(ranked, func(coin external.CoinMarketEntry) float64 {
		return payload.Scores[coin.ID]
	})
}

// SortNews is SortCoins for headlines, keyed by title.
func (x *Advisor) SortNews(ctx context.Context, log *tracing.Logger, user *entities.User, items []external.NewsItem) []external.NewsItem {
	if len(items) == 0 {
		return items
	}

	ranked := RankNews(user, items)

	if !x.features.IsEnabledDefault(features.FeatureAIScoring, true) || !x.withinSpendCap(log) {
		return ranked
	}

	clipped := items
	if len(clipped) > x.config.NewsClipLimit {
		clipped = clipped[:x.config.NewsClipLimit]
	}

	completion, err := x.ai.Complete(ctx, log, SortNewsPrompt(BuildCompactContext(user), clipped), CompletionOptions{
		Task:           TaskSortNews,
		Model:          x.config.AdvisorModel,
		FallbackModels: x.config.FallbackModels,
		MaxTokens:      x.config.StructuredMaxTokens,
		Temperature:    x.config.StructuredTemperature,
		JSONMode:       true,
	})
	if err != nil {
		x.metrics.RecordFallback(TaskSortNews, fallbackReason(err))
		return ranked
	}

	var payload struct {
		Scores map[string]float64 `json:"scores"`
	}
	if err := ExtractJSON(completion.Text, &payload); err != nil || len(payload.Scores) == 0 {
		x.metrics.RecordFallback(TaskSortNews, "parse-failure")
		return ranked
	}

	if user != nil {
		x.recordUsage(log, user.ID, TaskSortNews, completion)
	}

	return sortByScore(ranked, func(item external.NewsItem) float64 {
		if score, ok := payload.Scores[item.Title]; ok {
			return score
		}
		return payload.Scores[item.ID]
	})
}

// sortByScore stable-sorts descending by AI score; items the model did not
// score keep their heuristic order at score 0.
func sortByScore[T any](ranked []T, score func(T) float64) []T {
	sorted := make([]T, len(ranked))
	copy(sorted, ranked)

	sort.SliceStable(sorted, func(i, j int) bool {
		return score(sorted[i]) > score(sorted[j])
	})

	return sorted
}

// withinSpendCap bounds daily provider cost; an unset cap or an unreadable
// usage total never blocks a request.
func (x *Advisor) withinSpendCap(log *tracing.Logger) bool {
	if x.config.DailySpendCap.IsZero() {
		return true
	}

	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	spent, err := x.usage.GetTotalCostSince(log, midnight)
	if err != nil {
		return true
	}

	if spent.GreaterThanOrEqual(x.config.DailySpendCap) {
		log.W("Daily spend cap reached, degrading to heuristics", tracing.AiCost, spent.String())
		return false
	}
	return true
}

func (x *Advisor) recordUsage(log *tracing.Logger, userID uuid.UUID, task string, completion *Completion) {
	if err := x.usage.SaveUsage(log, userID, task, completion.Model, completion.Tokens, completion.Cost); err != nil {
		log.E("Failed to record advisor usage", tracing.InnerError, err, tracing.AiTask, task)
	}
}

func fallbackReason(err error) string {
	var providerErr *ProviderError
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "not-configured"
	case errors.Is(err, ErrEmptyCompletion):
		return "empty"
	case errors.Is(err, ErrParseFailure):
		return "parse-failure"
	case errors.As(err, &providerErr):
		return "provider-error"
	default:
		return "error"
	}
}
