package chat

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tleai/thomas/ai"
	"github.com/tleai/thomas/store"
)

type orchestratorFixture struct {
	store      *mockStore
	streamer   *fakeStreamer
	dispatcher *mockDispatcher
	writer     *recordWriter
	conv       *store.Conversation

	orchestrator *Orchestrator
}

func newOrchestratorFixture(events []ai.StreamEvent, streamErr error) *orchestratorFixture {
	conv := &store.Conversation{ID: 1, UID: "conv-1", CreatorID: 9, Title: "New Conversation"}
	ms := &mockStore{conversations: []*store.Conversation{conv}}
	streamer := &fakeStreamer{events: events, err: streamErr}
	dispatcher := &mockDispatcher{}
	orchestrator := NewOrchestrator(ms, streamer, NewLedger(ms, 0.15, 0.60), dispatcher, OrchestratorConfig{
		VectorStoreID: "vs-test",
		MaxSnippets:   5,
	})
	return &orchestratorFixture{
		store:        ms,
		streamer:     streamer,
		dispatcher:   dispatcher,
		writer:       &recordWriter{},
		conv:         conv,
		orchestrator: orchestrator,
	}
}

func (f *orchestratorFixture) addMessage(role store.MessageRole, content string, ts int64) {
	f.store.nextMessageID++
	f.store.messages = append(f.store.messages, &store.Message{
		ID:             f.store.nextMessageID,
		ConversationID: 1,
		Role:           role,
		Content:        content,
		CreatedTs:      ts,
	})
}

func TestStreamTurnEndToEnd(t *testing.T) {
	f := newOrchestratorFixture([]ai.StreamEvent{
		ai.TextDelta{Text: "The"},
		ai.TextDelta{Text: " limitations period is"},
		ai.FileAnnotation{FileID: "file-123", Filename: "tcpc.pdf"},
		ai.FileAnnotation{FileID: "file-123", Filename: "ignored-duplicate.pdf"},
		ai.TextDelta{Text: " two years."},
		ai.UsageFinal{InputTokens: 1000, OutputTokens: 500},
	}, nil)
	f.store.documents = []*store.Document{
		{ID: 1, Title: "Tex. Civ. Prac. Code", Filename: "tcpc.pdf", ExternalFileID: "file-123"},
	}
	f.addMessage(store.RoleUser, "What is the statute of limitations for X", 1000)

	require.NoError(t, f.orchestrator.StreamTurn(context.Background(), f.conv, f.writer))

	// Deltas relayed in order, then the citations event, then the sentinel.
	assert.Equal(t, []string{"The", " limitations period is", " two years."}, f.writer.tokens)
	require.Len(t, f.writer.citations, 1)
	require.Len(t, f.writer.citations[0], 1)
	assert.Equal(t, "file-123", f.writer.citations[0][0].FileID)
	assert.Equal(t, "Tex. Civ. Prac. Code", f.writer.citations[0][0].DocumentTitle)
	assert.Equal(t, 1, f.writer.doneCount)
	assert.Empty(t, f.writer.errors)

	// Assistant message persisted with full text and the deduplicated
	// citation list, first-seen metadata winning.
	require.Len(t, f.store.messages, 2)
	assistant := f.store.messages[1]
	assert.Equal(t, store.RoleAssistant, assistant.Role)
	assert.Equal(t, "The limitations period is two years.", assistant.Content)
	require.Len(t, assistant.Citations, 1)
	assert.Equal(t, "tcpc.pdf", assistant.Citations[0].Filename)

	// One usage row snapshotting the user query.
	require.Len(t, f.store.usageLogs, 1)
	usage := f.store.usageLogs[0]
	assert.Equal(t, "What is the statute of limitations for X", usage.QueryText)
	assert.Equal(t, 1000, usage.InputTokens)
	assert.Equal(t, 500, usage.OutputTokens)
	assert.InDelta(t, 0.00045, usage.Cost, 1e-12)

	// Count reached 2, so the title task fires.
	assert.Equal(t, []string{TaskGenerateTitle}, f.dispatcher.enqueued)
}

func TestStreamTurnGroundingParameters(t *testing.T) {
	f := newOrchestratorFixture([]ai.StreamEvent{
		ai.TextDelta{Text: "ok"},
		ai.UsageFinal{InputTokens: 10, OutputTokens: 2},
	}, nil)
	f.addMessage(store.RoleUser, "hello", 1000)
	f.store.summaries = []*store.ConversationSummary{
		{ID: 1, ConversationID: 1, SummaryText: "Earlier they discussed custody.", CoveredUntilTs: 500},
	}

	require.NoError(t, f.orchestrator.StreamTurn(context.Background(), f.conv, f.writer))

	req := f.streamer.lastRequest
	require.NotNil(t, req)
	assert.Equal(t, "vs-test", req.VectorStoreID)
	assert.Equal(t, 5, req.MaxSnippets)
	assert.InDelta(t, 0.3, float64(req.Temperature), 1e-6)
	// The persona instruction stays fixed; the summary is appended to it.
	assert.Contains(t, req.Instructions, `You are "Thomas"`)
	assert.Contains(t, req.Instructions, "Earlier they discussed custody.")
	require.Len(t, req.History, 1)
	assert.Equal(t, "hello", req.History[0].Content)
}

func TestStreamTurnIdempotentReconnect(t *testing.T) {
	f := newOrchestratorFixture(nil, nil)
	f.addMessage(store.RoleUser, "question", 1000)
	f.addMessage(store.RoleAssistant, "answer", 2000)

	require.NoError(t, f.orchestrator.StreamTurn(context.Background(), f.conv, f.writer))

	// Only the sentinel: no tokens, no new rows, no model call.
	assert.Empty(t, f.writer.tokens)
	assert.Empty(t, f.writer.errors)
	assert.Equal(t, 1, f.writer.doneCount)
	assert.Len(t, f.store.messages, 2)
	assert.Empty(t, f.store.usageLogs)
	assert.Nil(t, f.streamer.lastRequest)
}

func TestStreamTurnEmptyConversation(t *testing.T) {
	f := newOrchestratorFixture(nil, nil)

	require.NoError(t, f.orchestrator.StreamTurn(context.Background(), f.conv, f.writer))
	assert.Empty(t, f.writer.tokens)
	assert.Equal(t, 1, f.writer.doneCount)
	assert.Nil(t, f.streamer.lastRequest)
}

func TestStreamTurnErrorFraming(t *testing.T) {
	f := newOrchestratorFixture([]ai.StreamEvent{
		ai.TextDelta{Text: "partial"},
	}, errors.New("upstream 503"))
	f.addMessage(store.RoleUser, "question", 1000)

	err := f.orchestrator.StreamTurn(context.Background(), f.conv, f.writer)
	require.Error(t, err)

	// One error event followed by the sentinel; the client never hangs.
	require.Len(t, f.writer.errors, 1)
	assert.Contains(t, f.writer.errors[0], "upstream 503")
	assert.Equal(t, 1, f.writer.doneCount)

	// Partial text is discarded: no assistant message, no usage row.
	assert.Len(t, f.store.messages, 1)
	assert.Empty(t, f.store.usageLogs)
	assert.Empty(t, f.dispatcher.enqueued)
}

func TestStreamTurnNoAnnotationsNoCitationsEvent(t *testing.T) {
	f := newOrchestratorFixture([]ai.StreamEvent{
		ai.TextDelta{Text: "plain answer"},
		ai.UsageFinal{InputTokens: 5, OutputTokens: 3},
	}, nil)
	f.addMessage(store.RoleUser, "question", 1000)

	require.NoError(t, f.orchestrator.StreamTurn(context.Background(), f.conv, f.writer))
	assert.Empty(t, f.writer.citations)
	assert.Equal(t, 1, f.writer.doneCount)

	// Persisted with an empty citation list, which is not an error.
	require.Len(t, f.store.messages, 2)
	assert.Empty(t, f.store.messages[1].Citations)
}

func TestStreamTurnSummarizeTrigger(t *testing.T) {
	f := newOrchestratorFixture([]ai.StreamEvent{
		ai.TextDelta{Text: "answer"},
		ai.UsageFinal{InputTokens: 5, OutputTokens: 3},
	}, nil)
	for i := 1; i <= 9; i++ {
		role := store.RoleUser
		if i%2 == 0 {
			role = store.RoleAssistant
		}
		f.addMessage(role, "message", int64(i*1000))
	}

	require.NoError(t, f.orchestrator.StreamTurn(context.Background(), f.conv, f.writer))

	// Ten messages after the assistant turn persisted.
	assert.Equal(t, []string{TaskSummarizeConversation}, f.dispatcher.enqueued)
}

func TestStreamTurnIgnoresUnknownEvents(t *testing.T) {
	f := newOrchestratorFixture([]ai.StreamEvent{
		ai.OtherEvent{Type: "response.created"},
		ai.TextDelta{Text: "answer"},
		ai.OtherEvent{Type: "response.output_item.done"},
		ai.UsageFinal{InputTokens: 5, OutputTokens: 3},
	}, nil)
	f.addMessage(store.RoleUser, "question", 1000)

	require.NoError(t, f.orchestrator.StreamTurn(context.Background(), f.conv, f.writer))
	assert.Equal(t, []string{"answer"}, f.writer.tokens)
}

func TestStreamTurnClientDisconnectBestEffort(t *testing.T) {
	f := newOrchestratorFixture([]ai.StreamEvent{
		ai.TextDelta{Text: "answer"},
		ai.UsageFinal{InputTokens: 5, OutputTokens: 3},
	}, nil)
	f.addMessage(store.RoleUser, "question", 1000)
	f.writer.tokenErr = errors.New("client gone")

	require.NoError(t, f.orchestrator.StreamTurn(context.Background(), f.conv, f.writer))

	// The stream keeps draining: the turn still persists and accounts.
	require.Len(t, f.store.messages, 2)
	assert.Equal(t, "answer", f.store.messages[1].Content)
	require.Len(t, f.store.usageLogs, 1)
	// Nothing more is written to a dead client.
	assert.Empty(t, f.writer.tokens)
	assert.Zero(t, f.writer.doneCount)
}
