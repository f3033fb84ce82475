package chat

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tleai/thomas/store"
)

// newestFirstMessages builds n messages newest-first, the newest carrying the
// highest sequence number.
func newestFirstMessages(n int) []*store.Message {
	messages := make([]*store.Message, 0, n)
	for i := n; i >= 1; i-- {
		role := store.RoleUser
		if i%2 == 0 {
			role = store.RoleAssistant
		}
		messages = append(messages, &store.Message{
			ID:        int64(i),
			Role:      role,
			Content:   fmt.Sprintf("message %d", i),
			CreatedTs: int64(i * 1000),
		})
	}
	return messages
}

func TestBuildHistoryEmpty(t *testing.T) {
	history, truncated := BuildHistory(nil)
	assert.Empty(t, history)
	assert.False(t, truncated)
}

func TestBuildHistoryMessageCountBound(t *testing.T) {
	history, truncated := BuildHistory(newestFirstMessages(15))
	require.Len(t, history, MaxHistoryMessages)
	assert.True(t, truncated)

	// Chronological order, newest MaxHistoryMessages kept.
	assert.Equal(t, "message 6", history[0].Content)
	assert.Equal(t, "message 15", history[len(history)-1].Content)
}

func TestBuildHistoryChronologicalOrder(t *testing.T) {
	history, truncated := BuildHistory(newestFirstMessages(4))
	require.Len(t, history, 4)
	assert.False(t, truncated)
	for i, msg := range history {
		assert.Equal(t, fmt.Sprintf("message %d", i+1), msg.Content)
	}
}

func TestBuildHistoryCharBudget(t *testing.T) {
	big := strings.Repeat("x", 9000)
	messages := []*store.Message{
		{ID: 3, Role: store.RoleUser, Content: big, CreatedTs: 3000},
		{ID: 2, Role: store.RoleAssistant, Content: big, CreatedTs: 2000},
		{ID: 1, Role: store.RoleUser, Content: "short", CreatedTs: 1000},
	}
	history, truncated := BuildHistory(messages)
	// Second 9000-char message would push the total past the budget.
	require.Len(t, history, 1)
	assert.True(t, truncated)
	assert.Equal(t, big, history[0].Content)
}

func TestBuildHistoryAlwaysKeepsNewestMessage(t *testing.T) {
	oversized := strings.Repeat("y", HistoryCharBudget+1)
	messages := []*store.Message{
		{ID: 1, Role: store.RoleUser, Content: oversized, CreatedTs: 1000},
	}
	history, truncated := BuildHistory(messages)
	require.Len(t, history, 1)
	assert.False(t, truncated)
	assert.Equal(t, oversized, history[0].Content)
}

func TestBuildHistoryRoles(t *testing.T) {
	messages := []*store.Message{
		{ID: 2, Role: store.RoleAssistant, Content: "answer", CreatedTs: 2000},
		{ID: 1, Role: store.RoleUser, Content: "question", CreatedTs: 1000},
	}
	history, _ := BuildHistory(messages)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "assistant", history[1].Role)
}
