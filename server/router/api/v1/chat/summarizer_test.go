package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tleai/thomas/ai"
	"github.com/tleai/thomas/server/service/dispatch"
	"github.com/tleai/thomas/store"
)

func summarizerFixture(messageCount int) (*mockStore, *mockLLM, *Summarizer) {
	ms := &mockStore{
		conversations: []*store.Conversation{
			{ID: 1, UID: "conv-1", CreatorID: 9, Title: "New Conversation"},
		},
	}
	for i := 1; i <= messageCount; i++ {
		role := store.RoleUser
		if i%2 == 0 {
			role = store.RoleAssistant
		}
		ms.messages = append(ms.messages, &store.Message{
			ID:             int64(i),
			ConversationID: 1,
			Role:           role,
			Content:        fmt.Sprintf("message %d", i),
			CreatedTs:      int64(i * 1000),
		})
	}
	llm := &mockLLM{
		response: "They discussed limitations periods for property claims.",
		stats:    &ai.LLMCallStats{PromptTokens: 300, CompletionTokens: 40, TotalTokens: 340},
	}
	return ms, llm, NewSummarizer(ms, llm, NewLedger(ms, 0.15, 0.60))
}

func TestSummarizeNoOpAtFloor(t *testing.T) {
	ms, llm, summarizer := summarizerFixture(SummaryMessageFloor)

	require.NoError(t, summarizer.Summarize(context.Background(), 1))
	assert.Empty(t, ms.summaries)
	assert.Zero(t, llm.calls)
	assert.Empty(t, ms.usageLogs)
}

func TestSummarizeCoversAllButLastTen(t *testing.T) {
	ms, llm, summarizer := summarizerFixture(25)

	require.NoError(t, summarizer.Summarize(context.Background(), 1))
	require.Len(t, ms.summaries, 1)

	summary := ms.summaries[0]
	assert.Equal(t, "They discussed limitations periods for property claims.", summary.SummaryText)
	// covered_until is the timestamp of the (count-10)th message.
	assert.EqualValues(t, 15*1000, summary.CoveredUntilTs)

	// The transcript carries only the older messages.
	require.Equal(t, 1, llm.calls)
	transcript := llm.received[0][1].Content
	assert.Contains(t, transcript, "message 15")
	assert.NotContains(t, transcript, "message 16")

	// One usage row with the internal marker, not user text.
	require.Len(t, ms.usageLogs, 1)
	assert.Equal(t, UsageMarkerSummary, ms.usageLogs[0].QueryText)
	assert.Equal(t, 300, ms.usageLogs[0].InputTokens)
	assert.Equal(t, 40, ms.usageLogs[0].OutputTokens)
	assert.EqualValues(t, 9, ms.usageLogs[0].UserID)
}

func TestSummarizeClampsLongMessages(t *testing.T) {
	ms, llm, summarizer := summarizerFixture(25)
	long := strings.Repeat("z", 600)
	ms.messages[0].Content = long

	require.NoError(t, summarizer.Summarize(context.Background(), 1))
	transcript := llm.received[0][1].Content
	assert.Contains(t, transcript, strings.Repeat("z", 500))
	assert.NotContains(t, transcript, long)
}

func TestSummarizeMissingConversationIsPermanent(t *testing.T) {
	_, _, summarizer := summarizerFixture(25)

	err := summarizer.Summarize(context.Background(), 404)
	require.Error(t, err)
	assert.ErrorIs(t, err, dispatch.ErrPermanent)
}

func TestSummarizeModelFailureIsTransient(t *testing.T) {
	ms, llm, summarizer := summarizerFixture(25)
	llm.err = errors.New("model timeout")

	err := summarizer.Summarize(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, dispatch.ErrPermanent)
	assert.Empty(t, ms.summaries)
}
