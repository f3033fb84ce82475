// Package chat implements the conversation turn pipeline: bounded history
// construction, grounded streaming orchestration, citation resolution, usage
// accounting, and the background summarization and title-generation tasks.
package chat

import (
	"context"

	"github.com/tleai/thomas/store"
)

// ConversationStore is the persistence surface the chat pipeline consumes.
// *store.Store satisfies it; tests substitute hand-rolled fakes.
type ConversationStore interface {
	GetConversation(ctx context.Context, find *store.FindConversation) (*store.Conversation, error)
	UpdateConversation(ctx context.Context, update *store.UpdateConversation) (*store.Conversation, error)
	CreateMessage(ctx context.Context, create *store.CreateMessage) (*store.Message, error)
	ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error)
	CountMessages(ctx context.Context, conversationID int32) (int, error)
	CreateConversationSummary(ctx context.Context, create *store.CreateConversationSummary) (*store.ConversationSummary, error)
	GetLatestConversationSummary(ctx context.Context, conversationID int32) (*store.ConversationSummary, error)
	CreateUsageLog(ctx context.Context, create *store.CreateUsageLog) (*store.UsageLog, error)
	GetDocumentByFileID(ctx context.Context, fileID string) (*store.Document, error)
}

// Background task names understood by the dispatcher.
const (
	TaskSummarizeConversation = "summarize_conversation"
	TaskGenerateTitle         = "generate_title"
)

// clampRunes truncates s to at most limit runes. Prompt and title bounds are
// character bounds, not byte bounds.
func clampRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
