package documents

import (
	"time"

	"claimdocs-backend/internal/ocr"
	"claimdocs-backend/internal/validation"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusValidated  = "validated"
	StatusFailed     = "failed"
)

// MaxFileSize is the largest accepted upload in bytes (5 MiB).
const MaxFileSize = 5 * 1024 * 1024

// Document is the current state of an uploaded claim-support document.
// Exactly one row is current per document id; prior states live in
// DocumentVersion snapshots.
type Document struct {
	ID                string
	ApplicationID     string
	DocumentType      string
	FileName          string
	MimeType          string
	FileSize          int64
	StorageKey        string
	Version           int
	Status            string
	OCRData           *ocr.Result
	ValidationResults *validation.Results
	ConfidenceScore   *float64
	UploadedBy        string
	UploadedAt        time.Time
	UpdatedAt         time.Time
}

// DocumentVersion is an immutable snapshot of a document's processing state,
// written before the live record is overwritten.
type DocumentVersion struct {
	ID                string
	DocumentID        string
	VersionNumber     int
	StorageKey        string
	FileSize          int64
	Status            string
	OCRData           *ocr.Result
	ValidationResults *validation.Results
	ConfidenceScore   *float64
	CreatedAt         time.Time
}

// Metadata holds per-document physical characteristics.
type Metadata struct {
	DocumentID string
	PageCount  *int
	Width      *int
	Height     *int
	Quality    string
	IsReadable bool
	HasText    bool
	UpdatedAt  time.Time
}

// SearchFilter narrows document searches. Zero-value fields are ignored.
type SearchFilter struct {
	ApplicationID string
	DocumentType  string
	Status        string
	UploadedBy    string
	Limit         int
	Offset        int
}

// ConfidenceSummary aggregates extraction confidence across an application's
// documents.
type ConfidenceSummary struct {
	ApplicationID     string   `json:"applicationId"`
	AverageConfidence float64  `json:"averageConfidence"`
	LowConfidenceIDs  []string `json:"lowConfidenceIds"`
	TotalDocuments    int      `json:"totalDocuments"`
	ProcessedCount    int      `json:"processedCount"`
}
