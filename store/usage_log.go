package store

// UsageLog is one append-only row per billable model invocation (chat turn,
// summarization call, title-generation call). The conversation reference is
// nullable so usage survives conversation deletion.
type UsageLog struct {
	ID             int64
	UserID         int32
	ConversationID *int32
	QueryText      string
	InputTokens    int
	OutputTokens   int
	Cost           float64
	CreatedTs      int64
}

type CreateUsageLog struct {
	UserID         int32
	ConversationID *int32
	QueryText      string
	InputTokens    int
	OutputTokens   int
	Cost           float64
	CreatedTs      int64
}

type FindUsageLog struct {
	UserID         *int32
	ConversationID *int32
	Limit          *int
}
