package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tleai/thomas/ai"
	"github.com/tleai/thomas/server/metrics"
	"github.com/tleai/thomas/store"
)

// Sampling temperature for grounded turns. Low for determinism-leaning output.
const groundedTemperature = 0.3

// Background trigger thresholds evaluated after each persisted assistant turn.
const (
	titleTriggerCount           = 2
	summarizeMessageThreshold   = 10
	summarizeTruncatedThreshold = 6
)

// turnState labels orchestrator progress in logs.
type turnState string

const (
	stateIdle           turnState = "IDLE"
	stateHistoryBuilt   turnState = "HISTORY_BUILT"
	stateModelStreaming turnState = "MODEL_STREAMING"
	stateCompleted      turnState = "COMPLETED"
	stateErrored        turnState = "ERRORED"
)

// TurnWriter is the client-facing side of one streamed turn. Implementations
// own the wire framing; the orchestrator only decides what to send and when.
type TurnWriter interface {
	Token(text string) error
	Citations(citations []store.Citation) error
	Error(message string) error
	Done() error
}

// GroundedStreamer is the grounded generation surface the orchestrator
// consumes. *ai.Assistant satisfies it.
type GroundedStreamer interface {
	StreamGrounded(ctx context.Context, req *ai.GroundedRequest) (<-chan ai.StreamEvent, <-chan error)
}

// TaskDispatcher enqueues fire-and-forget background work.
type TaskDispatcher interface {
	Enqueue(name string, conversationID int32) error
}

// OrchestratorConfig carries the grounding parameters for model calls.
type OrchestratorConfig struct {
	VectorStoreID string
	MaxSnippets   int
}

// Orchestrator drives a single assistant turn end-to-end: pending-message
// detection, bounded history, grounded streaming, persistence, accounting,
// and background trigger evaluation.
type Orchestrator struct {
	store      ConversationStore
	streamer   GroundedStreamer
	ledger     *Ledger
	dispatcher TaskDispatcher
	config     OrchestratorConfig
}

func NewOrchestrator(s ConversationStore, streamer GroundedStreamer, ledger *Ledger, dispatcher TaskDispatcher, config OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		store:      s,
		streamer:   streamer,
		ledger:     ledger,
		dispatcher: dispatcher,
		config:     config,
	}
}

// StreamTurn answers the conversation's pending user message over w. Every
// failure after the stream opens is relayed as one error event followed by the
// done sentinel; the client never hangs. When no user message is pending the
// turn is an idempotent no-op that emits only the sentinel.
func (o *Orchestrator) StreamTurn(ctx context.Context, conversation *store.Conversation, w TurnWriter) error {
	pending, err := o.pendingUserMessage(ctx, conversation.ID)
	if err != nil {
		return o.fail(w, stateIdle, conversation.ID, err)
	}
	if pending == nil {
		// Turn already answered, likely a client reconnect.
		return w.Done()
	}

	newestFirst, err := o.store.ListMessages(ctx, &store.FindMessage{
		ConversationID: &conversation.ID,
		OrderDesc:      true,
	})
	if err != nil {
		return o.fail(w, stateIdle, conversation.ID, err)
	}
	history, truncated := BuildHistory(newestFirst)

	instructions := ai.PersonaPrompt
	summary, err := o.store.GetLatestConversationSummary(ctx, conversation.ID)
	if err != nil {
		return o.fail(w, stateHistoryBuilt, conversation.ID, err)
	}
	if summary != nil {
		instructions += "\n\nSUMMARY OF THE EARLIER PART OF THIS CONVERSATION:\n" + summary.SummaryText
	}

	events, errs := o.streamer.StreamGrounded(ctx, &ai.GroundedRequest{
		Instructions:  instructions,
		History:       history,
		VectorStoreID: o.config.VectorStoreID,
		MaxSnippets:   o.config.MaxSnippets,
		Temperature:   groundedTemperature,
	})
	slog.Debug("chat: turn streaming",
		"state", string(stateModelStreaming),
		"conversation_id", conversation.ID,
		"history_len", len(history),
		"truncated", truncated,
	)

	var (
		text        strings.Builder
		annotations []ai.FileAnnotation
		seen        = map[string]bool{}
		usage       *ai.UsageFinal
		clientGone  bool
	)
	for event := range events {
		switch ev := event.(type) {
		case ai.TextDelta:
			text.WriteString(ev.Text)
			if clientGone {
				continue
			}
			if err := w.Token(ev.Text); err != nil {
				// Client disconnected; keep draining so the final
				// usage event still arrives for accounting.
				clientGone = true
				slog.Debug("chat: client went away mid-stream", "conversation_id", conversation.ID)
				continue
			}
			metrics.StreamedTokens.Inc()
		case ai.FileAnnotation:
			// First occurrence wins for metadata.
			if !seen[ev.FileID] {
				seen[ev.FileID] = true
				annotations = append(annotations, ev)
			}
		case ai.UsageFinal:
			u := ev
			usage = &u
		case ai.OtherEvent:
			// Ignorable by contract.
		}
	}
	if err := <-errs; err != nil {
		// Partial text is discarded, never persisted as a complete answer.
		return o.fail(w, stateModelStreaming, conversation.ID, err)
	}

	citations := ResolveCitations(ctx, o.store, annotations)
	if _, err := o.store.CreateMessage(ctx, &store.CreateMessage{
		ConversationID: conversation.ID,
		Role:           store.RoleAssistant,
		Content:        text.String(),
		Citations:      citations,
		CreatedTs:      time.Now().UnixMilli(),
	}); err != nil {
		return o.fail(w, stateModelStreaming, conversation.ID, fmt.Errorf("persist assistant message: %w", err))
	}

	if usage != nil {
		if _, err := o.ledger.Record(ctx, conversation.CreatorID, &conversation.ID, pending.Content, usage.InputTokens, usage.OutputTokens); err != nil {
			slog.Error("chat: failed to record turn usage",
				"conversation_id", conversation.ID,
				"error", err,
			)
		}
	}

	o.evaluateTriggers(ctx, conversation.ID, truncated)

	if !clientGone {
		if len(citations) > 0 {
			if err := w.Citations(citations); err != nil {
				clientGone = true
			}
		}
		if !clientGone {
			_ = w.Done()
		}
	}
	metrics.ChatTurns.WithLabelValues("completed").Inc()
	slog.Debug("chat: turn completed",
		"state", string(stateCompleted),
		"conversation_id", conversation.ID,
		"citations", len(citations),
	)
	return nil
}

// pendingUserMessage returns the newest message when it is a user message with
// no later assistant reply, nil otherwise.
func (o *Orchestrator) pendingUserMessage(ctx context.Context, conversationID int32) (*store.Message, error) {
	limit := 1
	messages, err := o.store.ListMessages(ctx, &store.FindMessage{
		ConversationID: &conversationID,
		OrderDesc:      true,
		Limit:          &limit,
	})
	if err != nil {
		return nil, fmt.Errorf("find pending message: %w", err)
	}
	if len(messages) == 0 || messages[0].Role != store.RoleUser {
		return nil, nil
	}
	return messages[0], nil
}

func (o *Orchestrator) evaluateTriggers(ctx context.Context, conversationID int32, truncated bool) {
	count, err := o.store.CountMessages(ctx, conversationID)
	if err != nil {
		slog.Error("chat: trigger evaluation failed",
			"conversation_id", conversationID,
			"error", err,
		)
		return
	}
	if count == titleTriggerCount {
		if err := o.dispatcher.Enqueue(TaskGenerateTitle, conversationID); err != nil {
			slog.Warn("chat: failed to enqueue title task", "conversation_id", conversationID, "error", err)
		}
	}
	if count >= summarizeMessageThreshold || (count >= summarizeTruncatedThreshold && truncated) {
		if err := o.dispatcher.Enqueue(TaskSummarizeConversation, conversationID); err != nil {
			slog.Warn("chat: failed to enqueue summarize task", "conversation_id", conversationID, "error", err)
		}
	}
}

// fail relays the failure to the client as one error event plus the done
// sentinel, then returns the error for request logging.
func (o *Orchestrator) fail(w TurnWriter, state turnState, conversationID int32, err error) error {
	metrics.ChatTurns.WithLabelValues("error").Inc()
	slog.Error("chat: turn failed",
		"state", string(state),
		"next_state", string(stateErrored),
		"conversation_id", conversationID,
		"error", err,
	)
	_ = w.Error(err.Error())
	_ = w.Done()
	return err
}
