package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"claimdocs-backend/internal/ocr"
	"claimdocs-backend/internal/queue"
	"claimdocs-backend/internal/shared/metrics"
	"claimdocs-backend/internal/shared/storage/object"
	"claimdocs-backend/internal/shared/telemetry"
	"claimdocs-backend/internal/validation"
)

const lowConfidenceCutoff = 0.8

// Service contains business logic for claim-support documents.
type Service struct {
	Repo      Repo
	Store     object.ObjectStore
	Queue     queue.Client
	OCR       *ocr.Engine
	Validator *validation.Engine
	// BulkLimit bounds concurrent validations in BulkValidate.
	BulkLimit int
}

// UploadInput carries a new document upload.
type UploadInput struct {
	ApplicationID string
	DocumentType  string
	FileName      string
	UploadedBy    string
	File          io.Reader
}

// Upload stores the file at version 1, persists the record with status
// processing, and enqueues extraction.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Document, error) {
	if in.ApplicationID == "" || in.DocumentType == "" || in.FileName == "" {
		return Document{}, fmt.Errorf("%w: applicationId, documentType and fileName are required", ErrInvalidInput)
	}
	if in.File == nil {
		return Document{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}

	data, err := readBounded(in.File)
	if err != nil {
		return Document{}, err
	}

	documentID := uuid.NewString()
	storageKey, size, mimeType, err := s.Store.Save(ctx, documentID, 1, in.FileName, bytes.NewReader(data))
	if err != nil {
		return Document{}, fmt.Errorf("store upload: %w", err)
	}

	now := time.Now().UTC()
	doc := Document{
		ID:            documentID,
		ApplicationID: in.ApplicationID,
		DocumentType:  in.DocumentType,
		FileName:      in.FileName,
		MimeType:      mimeType,
		FileSize:      size,
		StorageKey:    storageKey,
		Version:       1,
		Status:        StatusProcessing,
		UploadedBy:    in.UploadedBy,
		UploadedAt:    now,
		UpdatedAt:     now,
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		// Best effort: don't leave orphaned bytes behind.
		_ = s.Store.Delete(ctx, storageKey)
		return Document{}, fmt.Errorf("persist document: %w", err)
	}

	s.recordFileMetadata(ctx, documentID, mimeType, data, now)

	if err := s.enqueueExtraction(ctx, doc); err != nil {
		telemetry.Error("enqueue extraction failed", map[string]any{
			"document_id": doc.ID,
			"err":         err.Error(),
		})
		return doc, fmt.Errorf("enqueue extraction: %w", err)
	}
	metrics.IncExtractionQueued()
	return doc, nil
}

// Get fetches a document by id.
func (s *Service) Get(ctx context.Context, documentID string) (Document, error) {
	if documentID == "" {
		return Document{}, fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, documentID)
}

// Search lists documents matching the filter.
func (s *Service) Search(ctx context.Context, filter SearchFilter) ([]Document, error) {
	return s.Repo.Search(ctx, filter)
}

// Delete removes a document, its stored bytes, and its version history.
func (s *Service) Delete(ctx context.Context, documentID string) error {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	versions, err := s.Repo.ListVersions(ctx, documentID)
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}

	keys := map[string]struct{}{doc.StorageKey: {}}
	for _, v := range versions {
		if v.StorageKey != "" {
			keys[v.StorageKey] = struct{}{}
		}
	}
	for key := range keys {
		if err := s.Store.Delete(ctx, key); err != nil {
			telemetry.Error("delete stored object failed", map[string]any{
				"document_id": documentID,
				"storage_key": key,
				"err":         err.Error(),
			})
		}
	}

	return s.Repo.Delete(ctx, documentID)
}

// Validate runs the validation engine against the stored OCR data and the
// given claim, then persists the verdict and the resulting status.
func (s *Service) Validate(ctx context.Context, documentID string, claim *validation.ClaimData, rules []validation.Rule) (validation.Results, error) {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return validation.Results{}, err
	}

	results := s.Validator.Validate(s.validationInput(ctx, doc), claim, rules)

	status := StatusValidated
	if !results.IsValid {
		status = StatusFailed
	}

	expected := doc.UpdatedAt
	doc.ValidationResults = &results
	doc.Status = status
	doc.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Update(ctx, doc, expected); err != nil {
		return validation.Results{}, fmt.Errorf("persist validation verdict: %w", err)
	}

	s.persistResultMetadata(ctx, documentID, results.Metadata)

	if results.IsValid {
		metrics.IncValidationPassed()
	} else {
		metrics.IncValidationFailed()
	}
	return results, nil
}

// Reprocess resets a document to processing and re-enqueues extraction.
// The stored bytes are reused; no re-upload is required.
func (s *Service) Reprocess(ctx context.Context, documentID string) (Document, error) {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, err
	}

	expected := doc.UpdatedAt
	doc.OCRData = nil
	doc.ValidationResults = nil
	doc.ConfidenceScore = nil
	doc.Status = StatusProcessing
	doc.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Update(ctx, doc, expected); err != nil {
		return Document{}, err
	}

	if err := s.enqueueExtraction(ctx, doc); err != nil {
		return Document{}, fmt.Errorf("enqueue extraction: %w", err)
	}
	metrics.IncExtractionQueued()
	return doc, nil
}

// BulkValidate validates every document attached to an application that
// already carries OCR data. Documents still awaiting extraction are skipped,
// not errored on. Validations run with bounded parallelism.
func (s *Service) BulkValidate(ctx context.Context, applicationID string, claim *validation.ClaimData) (map[string]validation.Results, error) {
	docs, err := s.Repo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	limit := s.BulkLimit
	if limit <= 0 {
		limit = 4
	}

	var (
		mu  sync.Mutex
		out = make(map[string]validation.Results)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, doc := range docs {
		if doc.OCRData == nil {
			continue
		}
		doc := doc
		g.Go(func() error {
			results, err := s.Validate(gctx, doc.ID, claim, nil)
			if err != nil {
				return fmt.Errorf("validate %s: %w", doc.ID, err)
			}
			mu.Lock()
			out[doc.ID] = results
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ConfidenceSummary aggregates extraction confidence for an application.
// The average covers only documents with a defined score; ids below the
// cutoff are listed separately.
func (s *Service) ConfidenceSummary(ctx context.Context, applicationID string) (ConfidenceSummary, error) {
	docs, err := s.Repo.ListByApplication(ctx, applicationID)
	if err != nil {
		return ConfidenceSummary{}, err
	}

	summary := ConfidenceSummary{
		ApplicationID:    applicationID,
		LowConfidenceIDs: []string{},
		TotalDocuments:   len(docs),
	}
	var sum float64
	for _, doc := range docs {
		if doc.ConfidenceScore == nil {
			continue
		}
		summary.ProcessedCount++
		sum += *doc.ConfidenceScore
		if *doc.ConfidenceScore < lowConfidenceCutoff {
			summary.LowConfidenceIDs = append(summary.LowConfidenceIDs, doc.ID)
		}
	}
	if summary.ProcessedCount > 0 {
		summary.AverageConfidence = sum / float64(summary.ProcessedCount)
	}
	return summary, nil
}

// SignedDownloadURL returns a time-limited URL for the current file.
func (s *Service) SignedDownloadURL(ctx context.Context, documentID string, ttl time.Duration) (string, error) {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return "", err
	}
	url, err := s.Store.SignedURL(ctx, doc.StorageKey, ttl)
	if err != nil {
		return "", fmt.Errorf("sign url: %w", err)
	}
	return url, nil
}

// GetMetadata fetches the metadata row for a document.
func (s *Service) GetMetadata(ctx context.Context, documentID string) (Metadata, error) {
	if _, err := s.Repo.GetByID(ctx, documentID); err != nil {
		return Metadata{}, err
	}
	meta, err := s.Repo.GetMetadata(ctx, documentID)
	if errors.Is(err, ErrNotFound) {
		return Metadata{DocumentID: documentID}, nil
	}
	return meta, err
}

// UpdateMetadata replaces the metadata row for a document.
func (s *Service) UpdateMetadata(ctx context.Context, meta Metadata) (Metadata, error) {
	if meta.DocumentID == "" {
		return Metadata{}, fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	if _, err := s.Repo.GetByID(ctx, meta.DocumentID); err != nil {
		return Metadata{}, err
	}
	meta.UpdatedAt = time.Now().UTC()
	if err := s.Repo.UpsertMetadata(ctx, meta); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

func (s *Service) enqueueExtraction(ctx context.Context, doc Document) error {
	return s.Queue.Send(ctx, queue.Message{
		DocumentID: doc.ID,
		RequestID:  uuid.NewString(),
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    doc.Version,
	})
}

func (s *Service) validationInput(ctx context.Context, doc Document) validation.DocumentInput {
	in := validation.DocumentInput{
		DocumentType:    doc.DocumentType,
		MimeType:        doc.MimeType,
		FileSize:        doc.FileSize,
		ConfidenceScore: doc.ConfidenceScore,
		OCR:             doc.OCRData,
	}
	meta, err := s.Repo.GetMetadata(ctx, doc.ID)
	if err != nil {
		return in
	}
	in.PageCount = meta.PageCount
	if meta.Width != nil && meta.Height != nil {
		in.Dimensions = &validation.Dimensions{Width: *meta.Width, Height: *meta.Height}
	}
	return in
}

func (s *Service) recordFileMetadata(ctx context.Context, documentID, mimeType string, data []byte, now time.Time) {
	meta := Metadata{DocumentID: documentID, UpdatedAt: now}
	if mimeType == "application/pdf" {
		if n, err := pdfPageCount(data); err == nil {
			meta.PageCount = &n
		}
	}
	if err := s.Repo.UpsertMetadata(ctx, meta); err != nil {
		telemetry.Error("record file metadata failed", map[string]any{
			"document_id": documentID,
			"err":         err.Error(),
		})
	}
}

func (s *Service) persistResultMetadata(ctx context.Context, documentID string, m validation.Metadata) {
	meta, err := s.Repo.GetMetadata(ctx, documentID)
	if err != nil {
		meta = Metadata{DocumentID: documentID}
	}
	if m.PageCount != nil {
		meta.PageCount = m.PageCount
	}
	if m.Dimensions != nil {
		meta.Width = &m.Dimensions.Width
		meta.Height = &m.Dimensions.Height
	}
	meta.Quality = m.Quality
	meta.IsReadable = m.IsReadable
	meta.HasText = m.HasText
	meta.UpdatedAt = time.Now().UTC()
	if err := s.Repo.UpsertMetadata(ctx, meta); err != nil {
		telemetry.Error("persist result metadata failed", map[string]any{
			"document_id": documentID,
			"err":         err.Error(),
		})
	}
}

// readBounded reads the upload fully, rejecting anything over MaxFileSize.
func readBounded(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}
	if len(data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

func pdfPageCount(data []byte) (int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	n := reader.NumPage()
	if n <= 0 {
		return 0, fmt.Errorf("no pages")
	}
	return n, nil
}
