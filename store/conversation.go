package store

// RowStatus is the archival state of a row.
type RowStatus string

const (
	Normal   RowStatus = "NORMAL"
	Archived RowStatus = "ARCHIVED"
)

// TitleSource indicates how the conversation title was created.
// - "default": System default ("New Conversation")
// - "auto": AI-generated title based on the first exchange
// - "user": User-provided title (manual rename)
type TitleSource string

const (
	TitleSourceDefault TitleSource = "default"
	TitleSourceAuto    TitleSource = "auto"
	TitleSourceUser    TitleSource = "user"
)

// TitleMaxLength is the persisted title column size.
const TitleMaxLength = 200

type Conversation struct {
	UID          string
	Title        string
	TitleSource  TitleSource
	RowStatus    RowStatus
	CreatedTs    int64
	UpdatedTs    int64
	ID           int32
	CreatorID    int32
	Pinned       bool
	MessageCount int32 // populated by ListConversations with a JOIN
}

type FindConversation struct {
	ID        *int32
	UID       *string
	CreatorID *int32
	Pinned    *bool
	RowStatus *RowStatus
}

type UpdateConversation struct {
	Title       *string
	TitleSource *TitleSource
	Pinned      *bool
	RowStatus   *RowStatus
	UpdatedTs   *int64
	ID          int32
}

type DeleteConversation struct {
	ID int32
}
