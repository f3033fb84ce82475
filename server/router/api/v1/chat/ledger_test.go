package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerCost(t *testing.T) {
	ledger := NewLedger(&mockStore{}, 0.15, 0.60)

	cost := ledger.Cost(1000, 500)
	expected := float64(1000)*0.15/1e6 + float64(500)*0.60/1e6
	assert.Equal(t, expected, cost)
	assert.InDelta(t, 0.00045, cost, 1e-12)

	assert.Zero(t, ledger.Cost(0, 0))
}

func TestLedgerRecord(t *testing.T) {
	ctx := context.Background()
	ms := &mockStore{}
	ledger := NewLedger(ms, 0.15, 0.60)

	conversationID := int32(7)
	row, err := ledger.Record(ctx, 3, &conversationID, "what is adverse possession", 1000, 500)
	require.NoError(t, err)

	require.Len(t, ms.usageLogs, 1)
	assert.EqualValues(t, 3, row.UserID)
	require.NotNil(t, row.ConversationID)
	assert.EqualValues(t, 7, *row.ConversationID)
	assert.Equal(t, "what is adverse possession", row.QueryText)
	assert.Equal(t, 1000, row.InputTokens)
	assert.Equal(t, 500, row.OutputTokens)
	assert.InDelta(t, 0.00045, row.Cost, 1e-12)
	assert.NotZero(t, row.CreatedTs)
}

func TestLedgerRecordWithoutConversation(t *testing.T) {
	ms := &mockStore{}
	ledger := NewLedger(ms, 0.15, 0.60)

	row, err := ledger.Record(context.Background(), 3, nil, UsageMarkerSummary, 10, 20)
	require.NoError(t, err)
	assert.Nil(t, row.ConversationID)
	assert.Equal(t, UsageMarkerSummary, row.QueryText)
}
