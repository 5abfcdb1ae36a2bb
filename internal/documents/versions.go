package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"claimdocs-backend/internal/shared/metrics"
)

// snapshotVersion writes an immutable copy of the document's current
// processing state, tagged with its current version number. Called before
// every mutation that bumps the version.
func (s *Service) snapshotVersion(ctx context.Context, doc Document) error {
	v := DocumentVersion{
		ID:                uuid.NewString(),
		DocumentID:        doc.ID,
		VersionNumber:     doc.Version,
		StorageKey:        doc.StorageKey,
		FileSize:          doc.FileSize,
		Status:            doc.Status,
		OCRData:           doc.OCRData,
		ValidationResults: doc.ValidationResults,
		ConfidenceScore:   doc.ConfidenceScore,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.Repo.CreateVersion(ctx, v); err != nil {
		return fmt.Errorf("snapshot version %d: %w", doc.Version, err)
	}
	return nil
}

// UploadVersion snapshots the current state, stores the new file at the next
// version number, resets the processing fields, and re-enqueues extraction.
func (s *Service) UploadVersion(ctx context.Context, documentID, fileName string, file io.Reader) (Document, error) {
	if fileName == "" || file == nil {
		return Document{}, fmt.Errorf("%w: fileName and file are required", ErrInvalidInput)
	}

	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, err
	}

	data, err := readBounded(file)
	if err != nil {
		return Document{}, err
	}

	if err := s.snapshotVersion(ctx, doc); err != nil {
		return Document{}, err
	}

	newVersion := doc.Version + 1
	storageKey, size, mimeType, err := s.Store.Save(ctx, doc.ID, newVersion, fileName, bytes.NewReader(data))
	if err != nil {
		return Document{}, fmt.Errorf("store version %d: %w", newVersion, err)
	}

	expected := doc.UpdatedAt
	doc.FileName = fileName
	doc.MimeType = mimeType
	doc.FileSize = size
	doc.StorageKey = storageKey
	doc.Version = newVersion
	doc.Status = StatusProcessing
	doc.OCRData = nil
	doc.ValidationResults = nil
	doc.ConfidenceScore = nil
	doc.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Update(ctx, doc, expected); err != nil {
		return Document{}, err
	}

	s.recordFileMetadata(ctx, doc.ID, mimeType, data, doc.UpdatedAt)

	if err := s.enqueueExtraction(ctx, doc); err != nil {
		return Document{}, fmt.Errorf("enqueue extraction: %w", err)
	}
	metrics.IncExtractionQueued()
	return doc, nil
}

// ListVersions returns a document's snapshots, newest version first.
func (s *Service) ListVersions(ctx context.Context, documentID string) ([]DocumentVersion, error) {
	if _, err := s.Repo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.Repo.ListVersions(ctx, documentID)
}

// Restore overwrites the live document with the state of an older snapshot.
// The current state is preserved as a new snapshot first, and the version
// counter always moves forward, so restoring never discards history.
func (s *Service) Restore(ctx context.Context, documentID string, targetVersion int) (Document, error) {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, err
	}

	target, err := s.Repo.GetVersion(ctx, documentID, targetVersion)
	if err != nil {
		return Document{}, err
	}

	if err := s.snapshotVersion(ctx, doc); err != nil {
		return Document{}, err
	}

	expected := doc.UpdatedAt
	doc.StorageKey = target.StorageKey
	doc.FileSize = target.FileSize
	doc.Status = target.Status
	doc.OCRData = target.OCRData
	doc.ValidationResults = target.ValidationResults
	doc.ConfidenceScore = target.ConfidenceScore
	doc.Version = doc.Version + 1
	doc.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Update(ctx, doc, expected); err != nil {
		return Document{}, err
	}
	return doc, nil
}
