package diagnose

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const approxCharsPerToken = 4

var (
	tokenEncoderOnce sync.Once
	tokenEncoder     *tiktoken.Tiktoken
)

func estimateTokens(text string) int {
	enc := getTokenEncoder()
	if enc != nil {
		tokens := enc.Encode(text, nil, nil)
		if len(tokens) > 0 {
			return len(tokens)
		}
	}
	if len(text) == 0 {
		return 0
	}
	return maxInt(1, len(text)/approxCharsPerToken)
}

// truncateToBudget trims text so its token estimate fits the budget. The cut
// lands on a line boundary where possible and is marked.
func truncateToBudget(text string, budget int) string {
	if budget <= 0 || estimateTokens(text) <= budget {
		return text
	}
	limit := budget * approxCharsPerToken
	if limit >= len(text) {
		return text
	}
	cut := text[:limit]
	if idx := strings.LastIndexByte(cut, '\n'); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "\n[truncated]"
}

func getTokenEncoder() *tiktoken.Tiktoken {
	tokenEncoderOnce.Do(func() {
		enc, err := tiktoken.EncodingForModel("gpt-4o-mini")
		if err != nil {
			enc, _ = tiktoken.GetEncoding("cl100k_base")
		}
		tokenEncoder = enc
	})
	return tokenEncoder
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
