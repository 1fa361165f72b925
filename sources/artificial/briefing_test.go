package artificial

import (
	"strings"
	"testing"

	"coinsage/sources/external"
)

func TestTopMovers(t *testing.T) {
	snapshot := []external.CoinMarketEntry{
		{ID: "bitcoin", PriceChangePct24h: 2.0},
		{ID: "ethereum", PriceChangePct24h: -8.5},
		{ID: "solana", PriceChangePct24h: 12.1},
		{ID: "cardano", PriceChangePct24h: 0.3},
	}

	t.Run("Largest absolute change first", func(t *testing.T) {
		got := TopMovers(snapshot, 2)
		if len(got) != 2 {
			t.Fatalf("expected 2 movers, got %d", len(got))
		}
		if got[0].ID != "solana" || got[1].ID != "ethereum" {
			t.Fatalf("wrong order: %s, %s", got[0].ID, got[1].ID)
		}
	})

	t.Run("Limit beyond input length", func(t *testing.T) {
		if got := TopMovers(snapshot, 10); len(got) != 4 {
			t.Fatalf("expected 4 movers, got %d", len(got))
		}
	})

	t.Run("Input untouched", func(t *testing.T) {
		TopMovers(snapshot, 2)
		if snapshot[0].ID != "bitcoin" {
			t.Fatal("input slice mutated")
		}
	})

	t.Run("Empty snapshot", func(t *testing.T) {
		if got := TopMovers(nil, 5); len(got) != 0 {
			t.Fatalf("expected empty, got %v", got)
		}
	})
}

func TestFormatMajors(t *testing.T) {
	t.Run("Both majors present", func(t *testing.T) {
		snapshot := []external.CoinMarketEntry{
			{ID: "bitcoin", Symbol: "btc", PriceChangePct24h: 1.5},
			{ID: "ethereum", Symbol: "eth", PriceChangePct24h: -2.25},
		}
		got := formatMajors(snapshot)
		if !strings.Contains(got, "BTC 24h +1.5%") || !strings.Contains(got, "ETH 24h -2.2%") {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("Majors missing", func(t *testing.T) {
		if got := formatMajors([]external.CoinMarketEntry{{ID: "solana"}}); got != "" {
			t.Fatalf("expected empty, got %q", got)
		}
	})
}

func TestFormatHeadlines(t *testing.T) {
	t.Run("Caps at five", func(t *testing.T) {
		items := make([]external.NewsItem, 8)
		for i := range items {
			items[i] = external.NewsItem{Title: "headline"}
		}
		got := formatHeadlines(items)
		if count := strings.Count(got, "- headline"); count != 5 {
			t.Fatalf("expected 5 headlines, got %d", count)
		}
	})

	t.Run("Empty list", func(t *testing.T) {
		if got := formatHeadlines(nil); got != "" {
			t.Fatalf("expected empty, got %q", got)
		}
	})
}
