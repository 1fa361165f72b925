package texting

import (
	"coinsage/sources/tracing"

	"github.com/pkoukk/tiktoken-go"
)

var tkm, _ = tiktoken.GetEncoding("o200k_base")

func Tokens(log *tracing.Logger, text string) int {
	return tracing.ReportExecutionForRIn(log,
		func() int { return len(tkm.Encode(text, nil, nil)) },
		func(l *tracing.Logger, tokens int) { l.I("Tokens counted", tracing.AiTokens, tokens) },
	)
}

// TokensInfer estimates token usage when the provider response carries no
// usage block, counting both sides of the exchange.
func TokensInfer(log *tracing.Logger, prompt, completion string) int {
	return Tokens(log, prompt) + Tokens(log, completion)
}
