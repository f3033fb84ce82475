package chat

import (
	"context"

	"github.com/tleai/thomas/ai"
	"github.com/tleai/thomas/store"
)

// mockStore is an in-memory ConversationStore. Messages are held in
// chronological order.
type mockStore struct {
	conversations []*store.Conversation
	messages      []*store.Message
	summaries     []*store.ConversationSummary
	usageLogs     []*store.UsageLog
	documents     []*store.Document

	conversationUpdates []*store.UpdateConversation

	listMessagesErr error

	nextMessageID int64
}

func (m *mockStore) GetConversation(_ context.Context, find *store.FindConversation) (*store.Conversation, error) {
	for _, c := range m.conversations {
		if find.ID != nil && c.ID != *find.ID {
			continue
		}
		if find.UID != nil && c.UID != *find.UID {
			continue
		}
		return c, nil
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) UpdateConversation(_ context.Context, update *store.UpdateConversation) (*store.Conversation, error) {
	m.conversationUpdates = append(m.conversationUpdates, update)
	for _, c := range m.conversations {
		if c.ID != update.ID {
			continue
		}
		if update.Title != nil {
			c.Title = *update.Title
		}
		if update.TitleSource != nil {
			c.TitleSource = *update.TitleSource
		}
		if update.Pinned != nil {
			c.Pinned = *update.Pinned
		}
		if update.RowStatus != nil {
			c.RowStatus = *update.RowStatus
		}
		if update.UpdatedTs != nil {
			c.UpdatedTs = *update.UpdatedTs
		}
		return c, nil
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) CreateMessage(_ context.Context, create *store.CreateMessage) (*store.Message, error) {
	m.nextMessageID++
	message := &store.Message{
		ID:             m.nextMessageID,
		ConversationID: create.ConversationID,
		Role:           create.Role,
		Content:        create.Content,
		Citations:      create.Citations,
		CreatedTs:      create.CreatedTs,
	}
	m.messages = append(m.messages, message)
	return message, nil
}

func (m *mockStore) ListMessages(_ context.Context, find *store.FindMessage) ([]*store.Message, error) {
	if m.listMessagesErr != nil {
		return nil, m.listMessagesErr
	}
	var list []*store.Message
	for _, msg := range m.messages {
		if find.ConversationID != nil && msg.ConversationID != *find.ConversationID {
			continue
		}
		if find.Role != nil && msg.Role != *find.Role {
			continue
		}
		list = append(list, msg)
	}
	if find.OrderDesc {
		reversed := make([]*store.Message, len(list))
		for i, msg := range list {
			reversed[len(list)-1-i] = msg
		}
		list = reversed
	}
	if find.Limit != nil && len(list) > *find.Limit {
		list = list[:*find.Limit]
	}
	return list, nil
}

func (m *mockStore) CountMessages(_ context.Context, conversationID int32) (int, error) {
	count := 0
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			count++
		}
	}
	return count, nil
}

func (m *mockStore) CreateConversationSummary(_ context.Context, create *store.CreateConversationSummary) (*store.ConversationSummary, error) {
	summary := &store.ConversationSummary{
		ID:             int64(len(m.summaries) + 1),
		ConversationID: create.ConversationID,
		SummaryText:    create.SummaryText,
		CoveredUntilTs: create.CoveredUntilTs,
		CreatedTs:      create.CreatedTs,
	}
	m.summaries = append(m.summaries, summary)
	return summary, nil
}

func (m *mockStore) GetLatestConversationSummary(_ context.Context, conversationID int32) (*store.ConversationSummary, error) {
	var latest *store.ConversationSummary
	for _, s := range m.summaries {
		if s.ConversationID == conversationID {
			latest = s
		}
	}
	return latest, nil
}

func (m *mockStore) CreateUsageLog(_ context.Context, create *store.CreateUsageLog) (*store.UsageLog, error) {
	usageLog := &store.UsageLog{
		ID:             int64(len(m.usageLogs) + 1),
		UserID:         create.UserID,
		ConversationID: create.ConversationID,
		QueryText:      create.QueryText,
		InputTokens:    create.InputTokens,
		OutputTokens:   create.OutputTokens,
		Cost:           create.Cost,
		CreatedTs:      create.CreatedTs,
	}
	m.usageLogs = append(m.usageLogs, usageLog)
	return usageLog, nil
}

func (m *mockStore) GetDocumentByFileID(_ context.Context, fileID string) (*store.Document, error) {
	for _, d := range m.documents {
		if d.ExternalFileID == fileID {
			return d, nil
		}
	}
	return nil, store.ErrNotFound
}

// mockLLM is a canned non-grounded model path.
type mockLLM struct {
	response string
	stats    *ai.LLMCallStats
	err      error

	calls    int
	received [][]ai.Message
}

func (m *mockLLM) Chat(_ context.Context, messages []ai.Message) (string, *ai.LLMCallStats, error) {
	m.calls++
	m.received = append(m.received, messages)
	if m.err != nil {
		return "", nil, m.err
	}
	return m.response, m.stats, nil
}

// fakeStreamer replays a fixed event sequence.
type fakeStreamer struct {
	events []ai.StreamEvent
	err    error

	lastRequest *ai.GroundedRequest
}

func (f *fakeStreamer) StreamGrounded(_ context.Context, req *ai.GroundedRequest) (<-chan ai.StreamEvent, <-chan error) {
	f.lastRequest = req
	events := make(chan ai.StreamEvent, len(f.events))
	for _, ev := range f.events {
		events <- ev
	}
	close(events)
	errs := make(chan error, 1)
	if f.err != nil {
		errs <- f.err
	}
	close(errs)
	return events, errs
}

// recordWriter captures everything the orchestrator emits.
type recordWriter struct {
	tokens    []string
	citations [][]store.Citation
	errors    []string
	doneCount int

	tokenErr error
}

func (w *recordWriter) Token(text string) error {
	if w.tokenErr != nil {
		return w.tokenErr
	}
	w.tokens = append(w.tokens, text)
	return nil
}

func (w *recordWriter) Citations(citations []store.Citation) error {
	w.citations = append(w.citations, citations)
	return nil
}

func (w *recordWriter) Error(message string) error {
	w.errors = append(w.errors, message)
	return nil
}

func (w *recordWriter) Done() error {
	w.doneCount++
	return nil
}

// mockDispatcher records enqueued tasks.
type mockDispatcher struct {
	enqueued []string
	ids      []int32
}

func (d *mockDispatcher) Enqueue(name string, conversationID int32) error {
	d.enqueued = append(d.enqueued, name)
	d.ids = append(d.ids, conversationID)
	return nil
}
