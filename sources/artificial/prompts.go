package artificial

import (
	"fmt"
	"strings"

	"coinsage/sources/external"

	openrouter "github.com/revrost/go-openrouter"
)

const (
	insightSystemPrompt = `You are a crypto dashboard assistant writing one short daily insight for a retail investor.
Rules:
- At most 40 words, plain text, no markdown, no emojis, no disclaimers.
- Ground the insight in the user's profile and today's market briefing when available.
- Be specific and actionable in tone, never financial advice phrasing like "you should buy".`

	insightUserTemplate = `User profile: %s

Today's briefing:
%s

Write today's insight.`

	relevantCoinsSystemPrompt = `You select cryptocurrency ticker symbols relevant to a user.
Reply with JSON only, exactly this shape: {"coins": ["BTC", "ETH"]}.
Rules:
- Up to 10 uppercase ticker symbols, most relevant first.
- Derive relevance from favorites, investor types and liked content; no commentary.`

	relevantCoinsUserTemplate = `User profile: %s

Return the relevant coins.`

	newsFilterSystemTemplate = `You pick the best news feed settings for a user.
Reply with JSON only, exactly this shape: {"filter": "...", "currencies": ["BTC"], "kind": "..."}.
Rules:
- "filter" must be one of: %s.
- "kind" must be one of: %s.
- "currencies" is up to 10 uppercase ticker symbols, may be empty.`

	newsFilterUserTemplate = `User profile: %s

Return the news feed settings.`

	sortSystemTemplate = `You score %s by relevance to a user.
Reply with JSON only, exactly this shape: {"scores": {"<%s>": 0}}.
Rules:
- Score every candidate from 0 (irrelevant) to 100 (highly relevant).
- Use the candidate %s as the key, unchanged.
- No commentary outside the JSON object.`

	sortUserTemplate = `User profile: %s

Candidates:
%s

Return the scores.`
)

func InsightPrompt(profile, briefing string) []openrouter.ChatCompletionMessage {
	if briefing == "" {
		briefing = "unavailable"
	}
	return promptPair(insightSystemPrompt, fmt.Sprintf(insightUserTemplate, profile, briefing))
}

func RelevantCoinsPrompt(profile string) []openrouter.ChatCompletionMessage {
	return promptPair(relevantCoinsSystemPrompt, fmt.Sprintf(relevantCoinsUserTemplate, profile))
}

// NewsFilterPrompt splices the allowed enumerations into the system message
// from the same constants the validator checks against.
func NewsFilterPrompt(profile string) []openrouter.ChatCompletionMessage {
	system := fmt.Sprintf(newsFilterSystemTemplate,
		strings.Join(external.NewsFilters, ", "),
		strings.Join(external.NewsKinds, ", "),
	)
	return promptPair(system, fmt.Sprintf(newsFilterUserTemplate, profile))
}

func SortCoinsPrompt(profile string, candidates []external.CoinMarketEntry) []openrouter.ChatCompletionMessage {
	lines := make([]string, 0, len(candidates))
	for _, coin := range candidates {
		lines = append(lines, fmt.Sprintf("%s | %s (%s) | market cap %.0f", coin.ID, coin.Name, strings.ToUpper(coin.Symbol), coin.MarketCap))
	}

	system := fmt.Sprintf(sortSystemTemplate, "cryptocurrencies", "id", "id")
	return promptPair(system, fmt.Sprintf(sortUserTemplate, profile, strings.Join(lines, "\n")))
}

func SortNewsPrompt(profile string, candidates []external.NewsItem) []openrouter.ChatCompletionMessage {
	lines := make([]string, 0, len(candidates))
	for _, item := range candidates {
		lines = append(lines, item.Title)
	}

	system := fmt.Sprintf(sortSystemTemplate, "news headlines", "title", "title")
	return promptPair(system, fmt.Sprintf(sortUserTemplate, profile, strings.Join(lines, "\n")))
}

func promptPair(system, user string) []openrouter.ChatCompletionMessage {
	return []openrouter.ChatCompletionMessage{
		{
			Role:    openrouter.ChatMessageRoleSystem,
			Content: openrouter.Content{Text: system},
		},
		{
			Role:    openrouter.ChatMessageRoleUser,
			Content: openrouter.Content{Text: user},
		},
	}
}
