package store

import (
	"context"

	"github.com/tleai/thomas/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	return s.driver.CreateConversation(ctx, create)
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

// GetConversation returns the single conversation matching find, or ErrNotFound.
func (s *Store) GetConversation(ctx context.Context, find *FindConversation) (*Conversation, error) {
	list, err := s.driver.ListConversations(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

func (s *Store) UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error) {
	return s.driver.UpdateConversation(ctx, update)
}

func (s *Store) DeleteConversation(ctx context.Context, delete *DeleteConversation) error {
	return s.driver.DeleteConversation(ctx, delete)
}

func (s *Store) CreateMessage(ctx context.Context, create *CreateMessage) (*Message, error) {
	return s.driver.CreateMessage(ctx, create)
}

func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}

func (s *Store) CountMessages(ctx context.Context, conversationID int32) (int, error) {
	return s.driver.CountMessages(ctx, conversationID)
}

func (s *Store) CreateConversationSummary(ctx context.Context, create *CreateConversationSummary) (*ConversationSummary, error) {
	return s.driver.CreateConversationSummary(ctx, create)
}

func (s *Store) ListConversationSummaries(ctx context.Context, find *FindConversationSummary) ([]*ConversationSummary, error) {
	return s.driver.ListConversationSummaries(ctx, find)
}

// GetLatestConversationSummary returns the newest summary for a conversation,
// or nil when the conversation has never been summarized.
func (s *Store) GetLatestConversationSummary(ctx context.Context, conversationID int32) (*ConversationSummary, error) {
	limit := 1
	list, err := s.driver.ListConversationSummaries(ctx, &FindConversationSummary{
		ConversationID: &conversationID,
		Limit:          &limit,
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) CreateUsageLog(ctx context.Context, create *CreateUsageLog) (*UsageLog, error) {
	return s.driver.CreateUsageLog(ctx, create)
}

func (s *Store) ListUsageLogs(ctx context.Context, find *FindUsageLog) ([]*UsageLog, error) {
	return s.driver.ListUsageLogs(ctx, find)
}

func (s *Store) CreateDocument(ctx context.Context, create *CreateDocument) (*Document, error) {
	return s.driver.CreateDocument(ctx, create)
}

func (s *Store) ListDocuments(ctx context.Context, find *FindDocument) ([]*Document, error) {
	return s.driver.ListDocuments(ctx, find)
}

// GetDocumentByFileID looks a document up by its external grounding-store id.
func (s *Store) GetDocumentByFileID(ctx context.Context, fileID string) (*Document, error) {
	limit := 1
	list, err := s.driver.ListDocuments(ctx, &FindDocument{
		ExternalFileID: &fileID,
		Limit:          &limit,
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

func (s *Store) UpdateDocument(ctx context.Context, update *UpdateDocument) (*Document, error) {
	return s.driver.UpdateDocument(ctx, update)
}
