package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a single-row lookup matches nothing.
// Background tasks treat it as terminal (no retry).
var ErrNotFound = errors.New("not found")

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)
	Migrate(ctx context.Context) error

	CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error)
	ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error)
	UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error)
	DeleteConversation(ctx context.Context, delete *DeleteConversation) error

	CreateMessage(ctx context.Context, create *CreateMessage) (*Message, error)
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)
	CountMessages(ctx context.Context, conversationID int32) (int, error)

	CreateConversationSummary(ctx context.Context, create *CreateConversationSummary) (*ConversationSummary, error)
	ListConversationSummaries(ctx context.Context, find *FindConversationSummary) ([]*ConversationSummary, error)

	CreateUsageLog(ctx context.Context, create *CreateUsageLog) (*UsageLog, error)
	ListUsageLogs(ctx context.Context, find *FindUsageLog) ([]*UsageLog, error)

	CreateDocument(ctx context.Context, create *CreateDocument) (*Document, error)
	ListDocuments(ctx context.Context, find *FindDocument) ([]*Document, error)
	UpdateDocument(ctx context.Context, update *UpdateDocument) (*Document, error)
}
