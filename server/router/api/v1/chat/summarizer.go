package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/tleai/thomas/ai"
	"github.com/tleai/thomas/server/service/dispatch"
	"github.com/tleai/thomas/store"
)

const (
	// SummaryMessageFloor guards against duplicate or late-firing triggers:
	// at or below this count the summarizer is a no-op.
	SummaryMessageFloor = 20
	// SummaryKeepRecent messages are left out of the summary so the model
	// still sees them verbatim through the history builder.
	SummaryKeepRecent = 10

	// Per-message clamp on transcript lines fed to the summarization call.
	summaryMessageClamp = 500
)

// Summarizer compresses older turns into a rolling natural-language summary
// so model context stays bounded as conversations grow. It runs as a
// background task dispatched by the orchestrator.
type Summarizer struct {
	store  ConversationStore
	llm    ai.LLMService
	ledger *Ledger
}

func NewSummarizer(s ConversationStore, llm ai.LLMService, ledger *Ledger) *Summarizer {
	return &Summarizer{store: s, llm: llm, ledger: ledger}
}

// Summarize condenses all but the last SummaryKeepRecent messages of the
// conversation into a new summary row. A vanished conversation is a permanent
// failure; model-call failures are transient and left to the dispatcher's
// retry policy.
func (s *Summarizer) Summarize(ctx context.Context, conversationID int32) error {
	conversation, err := s.store.GetConversation(ctx, &store.FindConversation{ID: &conversationID})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dispatch.Permanent(err)
		}
		return fmt.Errorf("find conversation %d: %w", conversationID, err)
	}

	messages, err := s.store.ListMessages(ctx, &store.FindMessage{ConversationID: &conversationID})
	if err != nil {
		return fmt.Errorf("list messages for conversation %d: %w", conversationID, err)
	}
	if len(messages) <= SummaryMessageFloor {
		slog.Debug("chat: skipping summarization below message floor",
			"conversation_id", conversationID,
			"message_count", len(messages),
		)
		return nil
	}

	older := messages[:len(messages)-SummaryKeepRecent]
	summaryText, stats, err := s.llm.Chat(ctx, []ai.Message{
		ai.SystemMessage(ai.SummaryPrompt),
		ai.UserMessage(buildTranscript(older)),
	})
	if err != nil {
		return fmt.Errorf("summarize conversation %d: %w", conversationID, err)
	}

	coveredUntil := older[len(older)-1].CreatedTs
	if _, err := s.store.CreateConversationSummary(ctx, &store.CreateConversationSummary{
		ConversationID: conversationID,
		SummaryText:    strings.TrimSpace(summaryText),
		CoveredUntilTs: coveredUntil,
		CreatedTs:      time.Now().UnixMilli(),
	}); err != nil {
		return fmt.Errorf("persist summary for conversation %d: %w", conversationID, err)
	}

	if stats != nil {
		if _, err := s.ledger.Record(ctx, conversation.CreatorID, &conversationID, UsageMarkerSummary, stats.PromptTokens, stats.CompletionTokens); err != nil {
			slog.Error("chat: failed to record summarization usage",
				"conversation_id", conversationID,
				"error", err,
			)
		}
	}

	slog.Info("chat: conversation summarized",
		"conversation_id", conversationID,
		"summarized_messages", len(older),
		"covered_until_ts", coveredUntil,
	)
	return nil
}

func buildTranscript(messages []*store.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		b.WriteString(string(msg.Role))
		b.WriteString(": ")
		b.WriteString(clampRunes(msg.Content, summaryMessageClamp))
		b.WriteString("\n")
	}
	return b.String()
}
