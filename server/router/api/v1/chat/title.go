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

// Prefix bound on the first-exchange excerpts fed to the title call.
const titlePromptPrefix = 200

// TitleGenerator derives a short conversation label from the first full
// exchange. It runs as a background task fired when the second message is
// persisted; a retried dispatch simply reassigns the title.
type TitleGenerator struct {
	store  ConversationStore
	llm    ai.LLMService
	ledger *Ledger
}

func NewTitleGenerator(s ConversationStore, llm ai.LLMService, ledger *Ledger) *TitleGenerator {
	return &TitleGenerator{store: s, llm: llm, ledger: ledger}
}

// Generate produces and persists the conversation title. A conversation with
// fewer than one full user/assistant exchange is a silent no-op.
func (g *TitleGenerator) Generate(ctx context.Context, conversationID int32) error {
	conversation, err := g.store.GetConversation(ctx, &store.FindConversation{ID: &conversationID})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dispatch.Permanent(err)
		}
		return fmt.Errorf("find conversation %d: %w", conversationID, err)
	}

	messages, err := g.store.ListMessages(ctx, &store.FindMessage{ConversationID: &conversationID})
	if err != nil {
		return fmt.Errorf("list messages for conversation %d: %w", conversationID, err)
	}
	if len(messages) < 2 {
		return nil
	}

	var firstUser, firstAssistant *store.Message
	for _, msg := range messages {
		if firstUser == nil && msg.Role == store.RoleUser {
			firstUser = msg
		}
		if firstAssistant == nil && msg.Role == store.RoleAssistant {
			firstAssistant = msg
		}
		if firstUser != nil && firstAssistant != nil {
			break
		}
	}
	if firstUser == nil || firstAssistant == nil {
		return nil
	}

	exchange := fmt.Sprintf("User: %s\nAssistant: %s",
		clampRunes(firstUser.Content, titlePromptPrefix),
		clampRunes(firstAssistant.Content, titlePromptPrefix),
	)
	title, stats, err := g.llm.Chat(ctx, []ai.Message{
		ai.SystemMessage(ai.TitlePrompt),
		ai.UserMessage(exchange),
	})
	if err != nil {
		return fmt.Errorf("generate title for conversation %d: %w", conversationID, err)
	}

	title = strings.TrimSpace(title)
	title = strings.Trim(title, `"'`)
	title = clampRunes(strings.TrimSpace(title), store.TitleMaxLength)
	if title == "" {
		slog.Warn("chat: title call returned empty text", "conversation_id", conversationID)
		return nil
	}

	titleSource := store.TitleSourceAuto
	updatedTs := time.Now().UnixMilli()
	if _, err := g.store.UpdateConversation(ctx, &store.UpdateConversation{
		ID:          conversationID,
		Title:       &title,
		TitleSource: &titleSource,
		UpdatedTs:   &updatedTs,
	}); err != nil {
		return fmt.Errorf("persist title for conversation %d: %w", conversationID, err)
	}

	if stats != nil {
		if _, err := g.ledger.Record(ctx, conversation.CreatorID, &conversationID, UsageMarkerTitle, stats.PromptTokens, stats.CompletionTokens); err != nil {
			slog.Error("chat: failed to record title usage",
				"conversation_id", conversationID,
				"error", err,
			)
		}
	}

	slog.Info("chat: conversation title generated",
		"conversation_id", conversationID,
		"title", title,
	)
	return nil
}
