package store

// DocumentStatus tracks the external grounding-store registration lifecycle.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document is a catalog entry for a locally registered grounding document.
// ExternalFileID is the identifier assigned by the external grounding store;
// the citation resolver looks documents up by it.
type Document struct {
	ID             int32
	Title          string
	Filename       string
	ExternalFileID string
	Status         DocumentStatus
	CreatedTs      int64
	UpdatedTs      int64
}

type CreateDocument struct {
	Title          string
	Filename       string
	ExternalFileID string
	Status         DocumentStatus
	CreatedTs      int64
}

type FindDocument struct {
	ID             *int32
	ExternalFileID *string
	Status         *DocumentStatus
	Limit          *int
}

type UpdateDocument struct {
	Title          *string
	Status         *DocumentStatus
	ExternalFileID *string
	UpdatedTs      *int64
	ID             int32
}
