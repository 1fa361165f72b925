package entities

const (
	DailyContentKindInsight = "insight"
)
