package chat

import (
	"context"
	"time"

	"github.com/tleai/thomas/server/metrics"
	"github.com/tleai/thomas/store"
)

// Query-text markers for internally triggered model calls. User text is only
// snapshotted for interactive turns.
const (
	UsageMarkerSummary = "[summarization]"
	UsageMarkerTitle   = "[title_generation]"
)

// Ledger converts token counts into monetary cost and appends immutable usage
// rows, one per billable model invocation. Rates are per million tokens.
type Ledger struct {
	store      ConversationStore
	inputRate  float64
	outputRate float64
}

func NewLedger(s ConversationStore, inputRate, outputRate float64) *Ledger {
	return &Ledger{
		store:      s,
		inputRate:  inputRate,
		outputRate: outputRate,
	}
}

// Cost is the exact billing arithmetic:
// inputTokens*inputRate/1e6 + outputTokens*outputRate/1e6.
func (l *Ledger) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*l.inputRate/1e6 + float64(outputTokens)*l.outputRate/1e6
}

// Record appends one usage row. conversationID may be nil for calls not tied
// to a surviving conversation.
func (l *Ledger) Record(ctx context.Context, userID int32, conversationID *int32, queryText string, inputTokens, outputTokens int) (*store.UsageLog, error) {
	metrics.LLMTokens.WithLabelValues("input").Add(float64(inputTokens))
	metrics.LLMTokens.WithLabelValues("output").Add(float64(outputTokens))
	return l.store.CreateUsageLog(ctx, &store.CreateUsageLog{
		UserID:         userID,
		ConversationID: conversationID,
		QueryText:      queryText,
		InputTokens:    inputTokens,
		OutputTokens:   outputTokens,
		Cost:           l.Cost(inputTokens, outputTokens),
		CreatedTs:      time.Now().UnixMilli(),
	})
}
