package documents

import (
	"context"
	"time"
)

// Repo defines persistence operations for documents, their version history
// and metadata.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	Search(ctx context.Context, filter SearchFilter) ([]Document, error)
	ListByApplication(ctx context.Context, applicationID string) ([]Document, error)
	// Update rewrites the mutable fields of the live record. The write only
	// applies when the stored updated_at equals expectedUpdatedAt; a stale
	// precondition returns ErrStale.
	Update(ctx context.Context, doc Document, expectedUpdatedAt time.Time) error
	Delete(ctx context.Context, documentID string) error

	CreateVersion(ctx context.Context, v DocumentVersion) error
	ListVersions(ctx context.Context, documentID string) ([]DocumentVersion, error)
	GetVersion(ctx context.Context, documentID string, versionNumber int) (DocumentVersion, error)

	GetMetadata(ctx context.Context, documentID string) (Metadata, error)
	UpsertMetadata(ctx context.Context, meta Metadata) error
}
