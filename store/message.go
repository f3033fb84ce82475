package store

// MessageRole is the author of a message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Citation is a resolved grounding reference embedded in an assistant message.
// It is stored as part of the message's citations JSON, never as its own row.
type Citation struct {
	FileID        string `json:"file_id"`
	DocumentTitle string `json:"document_title"`
	Filename      string `json:"filename,omitempty"`
}

// Message is one turn half in a conversation. Messages form a strict
// chronological append log; rows are never edited after creation.
type Message struct {
	ID             int64
	ConversationID int32
	Role           MessageRole
	Content        string
	Citations      []Citation
	CreatedTs      int64
}

type CreateMessage struct {
	ConversationID int32
	Role           MessageRole
	Content        string
	Citations      []Citation
	CreatedTs      int64
}

type FindMessage struct {
	ConversationID *int32
	Role           *MessageRole
	Limit          *int
	// OrderDesc returns newest-first ordering; default is chronological.
	OrderDesc bool
}
