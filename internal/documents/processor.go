package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"claimdocs-backend/internal/shared/metrics"
	"claimdocs-backend/internal/shared/telemetry"
	"claimdocs-backend/internal/validation"
)

// ProcessExtraction runs OCR for a queued document and records the outcome
// on the record itself. There is no synchronous caller: a failed extraction
// leaves the document failed with a structured error entry, and the caller
// can retry via Reprocess.
func (s *Service) ProcessExtraction(ctx context.Context, documentID string) error {
	started := time.Now()

	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("load document %s: %w", documentID, err)
	}

	data, err := s.readStored(ctx, doc.StorageKey)
	if err != nil {
		s.recordExtractionFailure(ctx, doc, fmt.Sprintf("read stored file: %v", err))
		return fmt.Errorf("read stored file for %s: %w", documentID, err)
	}

	result := s.OCR.Extract(ctx, data, doc.DocumentType)
	if !result.Success {
		s.recordExtractionFailure(ctx, doc, result.Error)
		metrics.IncExtractionFailed()
		telemetry.Error("extraction failed", map[string]any{
			"document_id":   doc.ID,
			"document_type": doc.DocumentType,
			"err":           result.Error,
		})
		return nil
	}

	confidence := result.Confidence
	update := func(doc Document) (Document, error) {
		expected := doc.UpdatedAt
		doc.OCRData = &result
		doc.ConfidenceScore = &confidence
		doc.Status = StatusPending
		doc.UpdatedAt = time.Now().UTC()
		return doc, s.Repo.Update(ctx, doc, expected)
	}
	if err := s.updateWithRetry(ctx, doc, update); err != nil {
		return fmt.Errorf("persist extraction for %s: %w", documentID, err)
	}

	metrics.IncExtractionCompleted()
	metrics.ObserveExtractionDurationMs(float64(time.Since(started).Milliseconds()))
	telemetry.Info("extraction completed", map[string]any{
		"document_id":   doc.ID,
		"document_type": doc.DocumentType,
		"confidence":    confidence,
		"fields":        len(result.Fields),
	})
	return nil
}

func (s *Service) readStored(ctx context.Context, storageKey string) ([]byte, error) {
	rc, err := s.Store.Open(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// recordExtractionFailure marks the document failed with an error entry the
// caller can read back.
func (s *Service) recordExtractionFailure(ctx context.Context, doc Document, cause string) {
	results := validation.Results{
		IsValid: false,
		Errors: []validation.Error{{
			Field:   "document",
			Message: "OCR extraction failed: " + cause,
			Code:    validation.CodeExtractionFailed,
		}},
	}
	update := func(doc Document) (Document, error) {
		expected := doc.UpdatedAt
		doc.Status = StatusFailed
		doc.ValidationResults = &results
		doc.UpdatedAt = time.Now().UTC()
		return doc, s.Repo.Update(ctx, doc, expected)
	}
	if err := s.updateWithRetry(ctx, doc, update); err != nil {
		telemetry.Error("record extraction failure failed", map[string]any{
			"document_id": doc.ID,
			"err":         err.Error(),
		})
	}
}

// updateWithRetry reapplies an update once after a stale precondition, so a
// concurrent writer does not lose this extraction outcome.
func (s *Service) updateWithRetry(ctx context.Context, doc Document, apply func(Document) (Document, error)) error {
	_, err := apply(doc)
	if !errors.Is(err, ErrStale) {
		return err
	}
	fresh, getErr := s.Repo.GetByID(ctx, doc.ID)
	if getErr != nil {
		return getErr
	}
	// A new version arrived while we were extracting; the queue will carry a
	// fresh job for it, so this result is obsolete.
	if fresh.Version != doc.Version {
		return nil
	}
	_, err = apply(fresh)
	return err
}
