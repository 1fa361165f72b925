package artificial

import (
	"sort"
	"strings"

	"coinsage/sources/external"
	"coinsage/sources/persistence/entities"
	"coinsage/sources/platform"
)

const genericFallbackInsight = "Add a few favorite coins to unlock a sharper daily insight."

type insightRule struct {
	applies  func(*entities.User) bool
	template func(*entities.User) string
}

// Ordered fallback rules; the first matching predicate wins.
var fallbackInsightRules = []insightRule{
	{
		applies: func(u *entities.User) bool { return len(u.FavCoins) > 0 },
		template: func(u *entities.User) string {
			coins := u.FavCoins
			if len(coins) > 3 {
				coins = coins[:3]
			}
			return "Keep an eye on " + strings.Join(coins, ", ") + " today. Markets reward the attentive."
		},
	},
	{
		applies: func(u *entities.User) bool { return len(u.ContentTypes) > 0 },
		template: func(u *entities.User) string {
			return "Fresh " + u.ContentTypes[0] + " picks are waiting on your dashboard. Check what moved overnight."
		},
	},
	{
		applies: func(u *entities.User) bool { return len(u.InvestorTypes) > 0 },
		template: func(u *entities.User) string {
			return "A quiet day is a good day for a " + u.InvestorTypes[0] + " to review positions and plans."
		},
	},
}

// FallbackInsight produces the deterministic insight used whenever generation
// is unavailable. Exactly one branch fires.
func FallbackInsight(user *entities.User) string {
	if user == nil {
		return genericFallbackInsight
	}

	for _, rule := range fallbackInsightRules {
		if rule.applies(user) {
			return rule.template(user)
		}
	}
	return genericFallbackInsight
}

// RankCoins re-ranks without dropping: up-voted coins first, then favorites,
// then market capitalization descending. Stable for equal scores.
func RankCoins(user *entities.User, coins []external.CoinMarketEntry) []external.CoinMarketEntry {
	upvoted := upvotedIDs(user, platform.VoteTypeCoin)
	favorites := favoriteSet(user)

	ranked := make([]external.CoinMarketEntry, len(coins))
	copy(ranked, coins)

	score := func(coin external.CoinMarketEntry) int {
		switch {
		case upvoted[strings.ToLower(coin.ID)]:
			return 2
		case favorites[strings.ToLower(coin.ID)] || favorites[strings.ToLower(coin.Symbol)]:
			return 1
		default:
			return 0
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := score(ranked[i]), score(ranked[j])
		if si != sj {
			return si > sj
		}
		return ranked[i].MarketCap > ranked[j].MarketCap
	})

	return ranked
}

// RankNews re-ranks without dropping: up-voted items first, then headlines
// mentioning a favorite coin, then recency descending.
func RankNews(user *entities.User, items []external.NewsItem) []external.NewsItem {
	upvoted := upvotedNews(user)
	favorites := favoriteSet(user)

	ranked := make([]external.NewsItem, len(items))
	copy(ranked, items)

	score := func(item external.NewsItem) int {
		if upvoted[strings.ToLower(item.Title)] || upvoted[strings.ToLower(item.ID)] {
			return 2
		}
		title := strings.ToLower(item.Title)
		for favorite := range favorites {
			if favorite != "" && strings.Contains(title, favorite) {
				return 1
			}
		}
		return 0
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := score(ranked[i]), score(ranked[j])
		if si != sj {
			return si > sj
		}
		return ranked[i].PublishedAt.After(ranked[j].PublishedAt)
	})

	return ranked
}

func favoriteSet(user *entities.User) map[string]bool {
	favorites := map[string]bool{}
	if user == nil {
		return favorites
	}
	for _, coin := range user.FavCoins {
		if coin = strings.ToLower(strings.TrimSpace(coin)); coin != "" {
			favorites[coin] = true
		}
	}
	return favorites
}

func upvotedIDs(user *entities.User, voteType platform.VoteType) map[string]bool {
	upvoted := map[string]bool{}
	if user == nil {
		return upvoted
	}
	for _, vote := range user.Votes {
		if vote.Type != voteType || vote.Polarity != platform.VoteUp {
			continue
		}
		if vote.ContentID != nil && *vote.ContentID != "" {
			upvoted[strings.ToLower(*vote.ContentID)] = true
		}
	}
	return upvoted
}

func upvotedNews(user *entities.User) map[string]bool {
	upvoted := map[string]bool{}
	if user == nil {
		return upvoted
	}
	for _, vote := range user.Votes {
		if vote.Type != platform.VoteTypeNews || vote.Polarity != platform.VoteUp {
			continue
		}
		if vote.ContentTitle != nil && *vote.ContentTitle != "" {
			upvoted[strings.ToLower(*vote.ContentTitle)] = true
		}
		if vote.ContentID != nil && *vote.ContentID != "" {
			upvoted[strings.ToLower(*vote.ContentID)] = true
		}
	}
	return upvoted
}
