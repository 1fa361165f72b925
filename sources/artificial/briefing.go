package artificial

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"coinsage/sources/external"
	"coinsage/sources/texting/transform"
	"coinsage/sources/tracing"
)

const (
	maxTopMovers      = 5
	maxBriefHeadlines = 5
	maxBriefingLen    = 1200
)

type Briefer struct {
	market *external.MarketClient
	news   *external.NewsClient
}

func NewBriefer(market *external.MarketClient, news *external.NewsClient) *Briefer {
	return &Briefer{market: market, news: news}
}

// BuildDailyBriefing assembles the market/news context for the insight prompt.
// Every section is best-effort: a failed fetch makes the briefing thinner,
// never absent.
func (x *Briefer) BuildDailyBriefing(ctx context.Context, log *tracing.Logger) string {
	return tracing.ReportExecutionForR(log,
		func() string { return transform.SmartTruncate(x.assemble(ctx, log), maxBriefingLen) },
		func(l *tracing.Logger) { l.I("Daily briefing assembled") },
	)
}

func (x *Briefer) assemble(ctx context.Context, log *tracing.Logger) string {
	var sections []string

	snapshot, err := x.market.GetMarketSnapshot(ctx, log, external.MarketQuery{
		VsCurrency: "usd",
		Order:      "market_cap_desc",
		PerPage:    100,
		Page:       1,
	})
	if err != nil {
		log.W("Market snapshot unavailable for briefing", tracing.InnerError, err)
	} else {
		if movers := formatTopMovers(TopMovers(snapshot, maxTopMovers)); movers != "" {
			sections = append(sections, movers)
		}
		if majors := formatMajors(snapshot); majors != "" {
			sections = append(sections, majors)
		}
	}

	headlines, err := x.news.GetHeadlines(ctx, log, external.NewsQuery{Filter: "rising", Kind: "news"})
	if err != nil {
		log.W("Headlines unavailable for briefing", tracing.InnerError, err)
	} else if formatted := formatHeadlines(headlines); formatted != "" {
		sections = append(sections, formatted)
	}

	return strings.Join(sections, "\n")
}

// TopMovers returns the limit entries with the largest absolute 24h change,
// without mutating the input order.
func TopMovers(snapshot []external.CoinMarketEntry, limit int) []external.CoinMarketEntry {
	movers := make([]external.CoinMarketEntry, len(snapshot))
	copy(movers, snapshot)

	sort.SliceStable(movers, func(i, j int) bool {
		return math.Abs(movers[i].PriceChangePct24h) > math.Abs(movers[j].PriceChangePct24h)
	})

	if len(movers) > limit {
		movers = movers[:limit]
	}
	return movers
}

func formatTopMovers(movers []external.CoinMarketEntry) string {
	if len(movers) == 0 {
		return ""
	}

	parts := make([]string, 0, len(movers))
	for _, coin := range movers {
		parts = append(parts, fmt.Sprintf("%s (%s) %+.1f%%", coin.Name, strings.ToUpper(coin.Symbol), coin.PriceChangePct24h))
	}
	return "Top movers: " + strings.Join(parts, ", ")
}

func formatMajors(snapshot []external.CoinMarketEntry) string {
	var parts []string
	for _, id := range []string{"bitcoin", "ethereum"} {
		for _, coin := range snapshot {
			if coin.ID == id {
				parts = append(parts, fmt.Sprintf("%s 24h %+.1f%%", strings.ToUpper(coin.Symbol), coin.PriceChangePct24h))
				break
			}
		}
	}
	return strings.Join(parts, " | ")
}

func formatHeadlines(headlines []external.NewsItem) string {
	if len(headlines) == 0 {
		return ""
	}
	if len(headlines) > maxBriefHeadlines {
		headlines = headlines[:maxBriefHeadlines]
	}

	lines := make([]string, 0, len(headlines)+1)
	lines = append(lines, "Headlines:")
	for _, item := range headlines {
		lines = append(lines, "- "+item.Title)
	}
	return strings.Join(lines, "\n")
}
