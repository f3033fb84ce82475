package chat

import (
	"unicode/utf8"

	"github.com/tleai/thomas/ai"
	"github.com/tleai/thomas/store"
)

const (
	// MaxHistoryMessages bounds how many messages one model call may carry.
	MaxHistoryMessages = 10
	// HistoryCharBudget bounds cumulative history size in characters,
	// approximating a token budget at roughly 4 characters per token.
	HistoryCharBudget = 16000
)

// BuildHistory assembles the bounded model context from a newest-first message
// log. It walks newest to oldest, stopping at MaxHistoryMessages, and stops
// adding older messages once the running character total would exceed
// HistoryCharBudget. The newest message is always included even when it alone
// exceeds the budget. The result is chronological (oldest first). The second
// return reports whether any message was left out.
func BuildHistory(newestFirst []*store.Message) ([]ai.Message, bool) {
	history := []ai.Message{}
	total := 0
	for _, msg := range newestFirst {
		if len(history) >= MaxHistoryMessages {
			break
		}
		size := utf8.RuneCountInString(msg.Content)
		if len(history) > 0 && total+size > HistoryCharBudget {
			break
		}
		history = append(history, ai.Message{Role: string(msg.Role), Content: msg.Content})
		total += size
	}

	truncated := len(history) < len(newestFirst)

	// Reverse into chronological order.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, truncated
}
