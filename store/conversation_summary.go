package store

// ConversationSummary is a rolling summary of older turns. Multiple summaries
// may exist per conversation; the most recently created one is authoritative.
// CoveredUntilTs marks the newest original message folded into the summary and
// is monotonically non-decreasing across successive summaries.
type ConversationSummary struct {
	ID             int64
	ConversationID int32
	SummaryText    string
	CoveredUntilTs int64
	CreatedTs      int64
}

type CreateConversationSummary struct {
	ConversationID int32
	SummaryText    string
	CoveredUntilTs int64
	CreatedTs      int64
}

type FindConversationSummary struct {
	ConversationID *int32
	Limit          *int
}
