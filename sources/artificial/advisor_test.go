package artificial

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"coinsage/sources/external"
	"coinsage/sources/metrics"
	"coinsage/sources/persistence/entities"
	"coinsage/sources/repository"
	"coinsage/sources/tracing"

	"github.com/google/uuid"
	openrouter "github.com/revrost/go-openrouter"
	"github.com/shopspring/decimal"
)

type stubCompleter struct {
	completion *Completion
	err        error
	calls      int
	lastOpts   CompletionOptions
}

func (s *stubCompleter) Complete(ctx context.Context, log *tracing.Logger, messages []openrouter.ChatCompletionMessage, opts CompletionOptions) (*Completion, error) {
	s.calls++
	s.lastOpts = opts
	return s.completion, s.err
}

type stubBriefer struct{}

func (stubBriefer) BuildDailyBriefing(ctx context.Context, log *tracing.Logger) string {
	return "Top movers: Bitcoin (BTC) +2.0%"
}

type stubProfiles struct {
	user *entities.User
	err  error
}

func (s *stubProfiles) GetByID(logger *tracing.Logger, userID uuid.UUID) (*entities.User, error) {
	return s.user, s.err
}

type stubDaily struct {
	stored    map[string]*entities.DailyContent
	upserts   int
	upsertErr error
}

func newStubDaily() *stubDaily {
	return &stubDaily{stored: map[string]*entities.DailyContent{}}
}

func (s *stubDaily) GetInsight(logger *tracing.Logger, userID uuid.UUID, dateKey string) (*entities.DailyContent, error) {
	return s.stored[dateKey], nil
}

func (s *stubDaily) UpsertInsight(logger *tracing.Logger, userID uuid.UUID, dateKey, insight string, model *string) error {
	s.upserts++
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.stored[dateKey] = &entities.DailyContent{UserID: userID, Date: dateKey, Insight: insight, Model: model}
	return nil
}

type stubCache struct {
	data map[string][]byte
	sets int
}

func newStubCache() *stubCache {
	return &stubCache{data: map[string][]byte{}}
}

func (s *stubCache) Get(logger *tracing.Logger, task string, userID uuid.UUID, ttl time.Duration, out any) bool {
	raw, ok := s.data[task]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (s *stubCache) Set(logger *tracing.Logger, task string, userID uuid.UUID, ttl time.Duration, data any) error {
	s.sets++
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	s.data[task] = raw
	return nil
}

type stubUsage struct {
	saves int
	spent decimal.Decimal
}

func (s *stubUsage) SaveUsage(logger *tracing.Logger, userID uuid.UUID, task, model string, tokens int, cost decimal.Decimal) error {
	s.saves++
	return nil
}

func (s *stubUsage) GetTotalCostSince(logger *tracing.Logger, since time.Time) (decimal.Decimal, error) {
	return s.spent, nil
}

type stubGate struct {
	disabled map[string]bool
}

func (s *stubGate) IsEnabledDefault(featureName string, defaultValue bool) bool {
	if s.disabled[featureName] {
		return false
	}
	return defaultValue
}

type advisorFixture struct {
	advisor   *Advisor
	completer *stubCompleter
	profiles  *stubProfiles
	daily     *stubDaily
	cache     *stubCache
	usage     *stubUsage
	gate      *stubGate
	log       *tracing.Logger
}

func newAdvisorFixture(user *entities.User) *advisorFixture {
	f := &advisorFixture{
		completer: &stubCompleter{},
		profiles:  &stubProfiles{user: user},
		daily:     newStubDaily(),
		cache:     newStubCache(),
		usage:     &stubUsage{},
		gate:      &stubGate{disabled: map[string]bool{}},
		log:       tracing.NewConsoleLogger(),
	}

	f.advisor = &Advisor{
		ai:       f.completer,
		config:   NewAdvisorConfig(),
		briefer:  stubBriefer{},
		users:    f.profiles,
		daily:    f.daily,
		cache:    f.cache,
		usage:    f.usage,
		features: f.gate,
		metrics:  metrics.NewMetricsService(f.log),
	}

	return f
}

func TestGetDailyInsight(t *testing.T) {
	userID := uuid.New()
	user := &entities.User{ID: userID, FavCoins: []string{"bitcoin"}}

	t.Run("Stored insight short-circuits generation", func(t *testing.T) {
		f := newAdvisorFixture(user)
		f.daily.stored[DateKey(time.Now())] = &entities.DailyContent{Insight: "yesterday's take"}

		got, err := f.advisor.GetDailyInsight(context.Background(), f.log, userID, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "yesterday's take" {
			t.Fatalf("got %q", got)
		}
		if f.completer.calls != 0 {
			t.Fatalf("expected no completion calls, got %d", f.completer.calls)
		}
		if f.daily.upserts != 0 {
			t.Fatalf("expected no writes, got %d", f.daily.upserts)
		}
	})

	t.Run("Generates stores and reuses", func(t *testing.T) {
		f := newAdvisorFixture(user)
		f.completer.completion = &Completion{Text: "Rotate gains into stables before the weekend.", Model: "model-a", Tokens: 30}

		first, err := f.advisor.GetDailyInsight(context.Background(), f.log, userID, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first != "Rotate gains into stables before the weekend." {
			t.Fatalf("got %q", first)
		}
		if f.daily.upserts != 1 {
			t.Fatalf("expected 1 write, got %d", f.daily.upserts)
		}
		stored := f.daily.stored[DateKey(time.Now())]
		if stored == nil || stored.Model == nil || *stored.Model != "model-a" {
			t.Fatalf("model not persisted: %+v", stored)
		}

		second, err := f.advisor.GetDailyInsight(context.Background(), f.log, userID, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if second != first {
			t.Fatalf("expected %q, got %q", first, second)
		}
		if f.completer.calls != 1 || f.daily.upserts != 1 {
			t.Fatalf("second read should not regenerate: calls=%d writes=%d", f.completer.calls, f.daily.upserts)
		}
	})

	t.Run("Forced refresh overwrites", func(t *testing.T) {
		f := newAdvisorFixture(user)
		f.daily.stored[DateKey(time.Now())] = &entities.DailyContent{Insight: "stale"}
		f.completer.completion = &Completion{Text: "Fresh take on the market.", Model: "model-a"}

		got, err := f.advisor.GetDailyInsight(context.Background(), f.log, userID, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "Fresh take on the market." {
			t.Fatalf("got %q", got)
		}

		after, err := f.advisor.GetDailyInsight(context.Background(), f.log, userID, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if after != "Fresh take on the market." {
			t.Fatalf("refresh not persisted, got %q", after)
		}
	})

	t.Run("Provider failure falls back and persists fallback", func(t *testing.T) {
		f := newAdvisorFixture(user)
		f.completer.err = &ProviderError{Message: "upstream down"}

		got, err := f.advisor.GetDailyInsight(context.Background(), f.log, userID, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != FallbackInsight(user) {
			t.Fatalf("got %q", got)
		}
		stored := f.daily.stored[DateKey(time.Now())]
		if stored == nil || stored.Model != nil {
			t.Fatalf("fallback should be stored without a model: %+v", stored)
		}
	})

	t.Run("Not configured falls back", func(t *testing.T) {
		f := newAdvisorFixture(user)
		f.completer.err = ErrNotConfigured

		got, err := f.advisor.GetDailyInsight(context.Background(), f.log, userID, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != FallbackInsight(user) {
			t.Fatalf("got %q", got)
		}
		if got2, _ := f.advisor.GetDailyInsight(context.Background(), f.log, userID, true); got2 != got {
			t.Fatal("fallback insight not deterministic")
		}
	})

	t.Run("Write failure still returns the insight", func(t *testing.T) {
		f := newAdvisorFixture(user)
		f.completer.completion = &Completion{Text: "Hold the line.", Model: "model-a"}
		f.daily.upsertErr = errors.New("db down")

		got, err := f.advisor.GetDailyInsight(context.Background(), f.log, userID, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "Hold the line." {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("Unknown user propagates", func(t *testing.T) {
		f := newAdvisorFixture(nil)
		f.profiles.err = repository.ErrUserNotFound

		if _, err := f.advisor.GetDailyInsight(context.Background(), f.log, userID, false); !errors.Is(err, repository.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("Spend cap reached uses fallback without a call", func(t *testing.T) {
		f := newAdvisorFixture(user)
		f.advisor.config.DailySpendCap = decimal.NewFromFloat(1.0)
		f.usage.spent = decimal.NewFromFloat(1.5)
		f.completer.completion = &Completion{Text: "should not happen", Model: "model-a"}

		got, err := f.advisor.GetDailyInsight(context.Background(), f.log, userID, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != FallbackInsight(user) {
			t.Fatalf("got %q", got)
		}
		if f.completer.calls != 0 {
			t.Fatalf("expected no completion calls, got %d", f.completer.calls)
		}
	})

	t.Run("Generation disabled uses fallback without a call", func(t *testing.T) {
		f := newAdvisorFixture(user)
		f.gate.disabled["advisor/insight/generation"] = true

		got, err := f.advisor.GetDailyInsight(context.Background(), f.log, userID, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != FallbackInsight(user) {
			t.Fatalf("got %q", got)
		}
		if f.completer.calls != 0 {
			t.Fatalf("expected no completion calls, got %d", f.completer.calls)
		}
	})
}

func TestGetRelevantCoins(t *testing.T) {
	userID := uuid.New()
	user := &entities.User{ID: userID}

	t.Run("Cache hit skips the model", func(t *testing.T) {
		f := newAdvisorFixture(user)
		f.cache.data[repository.TaskRelevantCoins] = []byte(`["BTC","SOL"]`)

		got, err := f.advisor.GetRelevantCoins(context.Background(), f.log, userID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertOrder(t, got, []string{"BTC", "SOL"})
		if f.completer.calls != 0 {
			t.Fatalf("expected no completion calls, got %d", f.completer.calls)
		}
	})

	t.Run("Miss extracts normalizes and caches", func(t *testing.T) {
		f := newAdvisorFixture(user)
		f.completer.completion = &Completion{Text: "```json\n{\"coins\":[\"btc\",\"BTC\",\"eth\"]}\n```", Model: "model-a", Tokens: 12}

		got, err := f.advisor.GetRelevantCoins(context.Background(), f.log, userID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertOrder(t, got, []string{"BTC", "ETH"})
		if f.cache.sets != 1 {
			t.Fatalf("expected 1 cache write, got %d", f.cache.sets)
		}
		if f.usage.saves != 1 {
			t.Fatalf("expected 1 usage row, got %d", f.usage.saves)
		}
		if f.completer.lastOpts.Schema == nil {
			t.Fatal("expected a strict schema on the request")
		}
	})

	t.Run("Provider failure returns empty and is not cached", func(t *testing.T) {
		f := newAdvisorFixture(user)
		f.completer.err = &ProviderError{Message: "boom"}

		got, err := f.advisor.GetRelevantCoins(context.Background(), f.log, userID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty, got %v", got)
		}
		if f.cache.sets != 0 {
			t.Fatalf("failure must not be cached, got %d writes", f.cache.sets)
		}
	})

	t.Run("Unextractable reply returns empty and is not cached", func(t *testing.T) {
		f := newAdvisorFixture(user)
		f.completer.completion = &Completion{Text: "no json here", Model: "model-a"}

		got, _ := f.advisor.GetRelevantCoins(context.Background(), f.log, userID)
		if len(got) != 0 {
			t.Fatalf("expected empty, got %v", got)
		}
		if f.cache.sets != 0 {
			t.Fatalf("failure must not be cached, got %d writes", f.cache.sets)
		}
	})
}

func TestGetRelevantNewsFilter(t *testing.T) {
	userID := uuid.New()
	user := &entities.User{ID: userID}

	t.Run("Valid reply normalized and cached", func(t *testing.T) {
		f := newAdvisorFixture(user)
		f.completer.completion = &Completion{Text: `{"filter":"Bullish","currencies":["btc"],"kind":"news"}`, Model: "model-a"}

		got, err := f.advisor.GetRelevantNewsFilter(context.Background(), f.log, userID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Filter != "bullish" || got.Kind != "news" {
			t.Fatalf("got %+v", got)
		}
		assertOrder(t, got.Currencies, []string{"BTC"})
		if f.cache.sets != 1 {
			t.Fatalf("expected 1 cache write, got %d", f.cache.sets)
		}
	})

	t.Run("Invalid enums keep defaults", func(t *testing.T) {
		f := newAdvisorFixture(user)
		f.completer.completion = &Completion{Text: `{"filter":"spicy","currencies":[],"kind":"video"}`, Model: "model-a"}

		got, _ := f.advisor.GetRelevantNewsFilter(context.Background(), f.log, userID)
		if got.Filter != "rising" || got.Kind != "all" {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("Failure returns default and is not cached", func(t *testing.T) {
		f := newAdvisorFixture(user)
		f.completer.err = ErrEmptyCompletion

		got, err := f.advisor.GetRelevantNewsFilter(context.Background(), f.log, userID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Filter != "rising" || got.Kind != "all" || len(got.Currencies) != 0 {
			t.Fatalf("got %+v", got)
		}
		if f.cache.sets != 0 {
			t.Fatalf("failure must not be cached, got %d writes", f.cache.sets)
		}
	})
}

func TestSortCoins(t *testing.T) {
	coins := []external.CoinMarketEntry{
		{ID: "bitcoin", MarketCap: 900},
		{ID: "ethereum", MarketCap: 500},
		{ID: "solana", MarketCap: 80},
	}

	t.Run("AI scores reorder", func(t *testing.T) {
		f := newAdvisorFixture(nil)
		f.completer.completion = &Completion{Text: `{"scores":{"solana":90,"ethereum":10}}`, Model: "model-a"}

		got := f.advisor.SortCoins(context.Background(), f.log, nil, coins)
		assertOrder(t, ids(got), []string{"solana", "ethereum", "bitcoin"})
	})

	t.Run("Unscored items keep heuristic order at zero", func(t *testing.T) {
		f := newAdvisorFixture(nil)
		f.completer.completion = &Completion{Text: `{"scores":{"solana":5}}`, Model: "model-a"}

		got := f.advisor.SortCoins(context.Background(), f.log, nil, coins)
		assertOrder(t, ids(got), []string{"solana", "bitcoin", "ethereum"})
	})

	t.Run("AI failure falls back to heuristics", func(t *testing.T) {
		f := newAdvisorFixture(nil)
		f.completer.err = &ProviderError{Message: "boom"}

		got := f.advisor.SortCoins(context.Background(), f.log, nil, coins)
		assertOrder(t, ids(got), []string{"bitcoin", "ethereum", "solana"})
	})

	t.Run("Permutation preserved on both paths", func(t *testing.T) {
		f := newAdvisorFixture(nil)
		f.completer.completion = &Completion{Text: `{"scores":{"ethereum":100}}`, Model: "model-a"}

		got := f.advisor.SortCoins(context.Background(), f.log, nil, coins)
		if len(got) != len(coins) {
			t.Fatalf("expected %d items, got %d", len(coins), len(got))
		}
	})

	t.Run("Empty input", func(t *testing.T) {
		f := newAdvisorFixture(nil)
		if got := f.advisor.SortCoins(context.Background(), f.log, nil, nil); len(got) != 0 {
			t.Fatalf("expected empty, got %v", got)
		}
		if f.completer.calls != 0 {
			t.Fatal("empty input should not call the model")
		}
	})

	t.Run("Scoring disabled uses heuristics only", func(t *testing.T) {
		f := newAdvisorFixture(nil)
		f.gate.disabled["advisor/ranking/ai-scoring"] = true

		got := f.advisor.SortCoins(context.Background(), f.log, nil, coins)
		assertOrder(t, ids(got), []string{"bitcoin", "ethereum", "solana"})
		if f.completer.calls != 0 {
			t.Fatal("disabled scoring should not call the model")
		}
	})
}

func TestSortNews(t *testing.T) {
	now := time.Now()
	items := []external.NewsItem{
		{ID: "1", Title: "Markets flat", PublishedAt: now.Add(-2 * time.Hour)},
		{ID: "2", Title: "Solana rallies", PublishedAt: now.Add(-4 * time.Hour)},
	}

	t.Run("Scores keyed by title", func(t *testing.T) {
		f := newAdvisorFixture(nil)
		f.completer.completion = &Completion{Text: `{"scores":{"Solana rallies":80}}`, Model: "model-a"}

		got := f.advisor.SortNews(context.Background(), f.log, nil, items)
		assertOrder(t, newsIDs(got), []string{"2", "1"})
	})

	t.Run("Parse failure keeps heuristic recency order", func(t *testing.T) {
		f := newAdvisorFixture(nil)
		f.completer.completion = &Completion{Text: "nope", Model: "model-a"}

		got := f.advisor.SortNews(context.Background(), f.log, nil, items)
		assertOrder(t, newsIDs(got), []string{"1", "2"})
	})
}
