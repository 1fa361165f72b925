package platform

type VoteType = string

const (
	VoteTypeCoin    VoteType = "coin"
	VoteTypeNews    VoteType = "news"
	VoteTypeInsight VoteType = "insight"
	VoteTypeMeme    VoteType = "meme"
)

type VotePolarity = string

const (
	VoteUp   VotePolarity = "up"
	VoteDown VotePolarity = "down"
)
