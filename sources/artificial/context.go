package artificial

import (
	"strings"

	"coinsage/sources/persistence/entities"
	"coinsage/sources/platform"
)

const (
	noProfileContext = "no profile"
	maxVoteLabels    = 10
)

// BuildCompactContext reduces a user record into the short textual profile
// embedded in every advisor prompt. Pure; a nil user degrades to "no profile".
func BuildCompactContext(user *entities.User) string {
	if user == nil {
		return noProfileContext
	}

	liked, disliked := voteLabels(user.Votes)

	parts := []string{
		"Investor types: " + joinOrNone(user.InvestorTypes),
		"Favorite coins: " + joinOrNone(user.FavCoins),
		"Content preferences: " + joinOrNone(user.ContentTypes),
		"Liked: " + joinOrNone(liked),
		"Disliked: " + joinOrNone(disliked),
	}

	return strings.Join(parts, " | ")
}

func voteLabels(votes []entities.Vote) (liked, disliked []string) {
	for _, vote := range votes {
		label := voteLabel(vote)
		if label == "" {
			continue
		}
		switch vote.Polarity {
		case platform.VoteUp:
			if len(liked) < maxVoteLabels {
				liked = append(liked, label)
			}
		case platform.VoteDown:
			if len(disliked) < maxVoteLabels {
				disliked = append(disliked, label)
			}
		}
	}
	return liked, disliked
}

func voteLabel(vote entities.Vote) string {
	switch vote.Type {
	case platform.VoteTypeCoin:
		return firstNonEmpty(vote.ContentName, vote.ContentID)
	case platform.VoteTypeNews:
		return firstNonEmpty(vote.ContentTitle, vote.ContentID)
	case platform.VoteTypeInsight:
		return firstNonEmpty(vote.ContentID, vote.ContentText)
	case platform.VoteTypeMeme:
		return firstNonEmpty(vote.ContentTitle, vote.ContentID, vote.ContentImageURL)
	default:
		return firstNonEmpty(vote.ContentID, vote.ContentTitle)
	}
}

func firstNonEmpty(values ...*string) string {
	for _, value := range values {
		if value != nil && *value != "" {
			return *value
		}
	}
	return ""
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
