package documents

import (
	"time"

	"claimdocs-backend/internal/validation"
)

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID        string              `json:"documentId"`
	ApplicationID     string              `json:"applicationId"`
	DocumentType      string              `json:"documentType"`
	FileName          string              `json:"fileName"`
	MimeType          string              `json:"mimeType"`
	FileSize          int64               `json:"fileSize"`
	Version           int                 `json:"version"`
	Status            string              `json:"status"`
	ConfidenceScore   *float64            `json:"confidenceScore,omitempty"`
	ValidationResults *validation.Results `json:"validationResults,omitempty"`
	UploadedBy        string              `json:"uploadedBy,omitempty"`
	UploadedAt        time.Time           `json:"uploadedAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:        doc.ID,
		ApplicationID:     doc.ApplicationID,
		DocumentType:      doc.DocumentType,
		FileName:          doc.FileName,
		MimeType:          doc.MimeType,
		FileSize:          doc.FileSize,
		Version:           doc.Version,
		Status:            doc.Status,
		ConfidenceScore:   doc.ConfidenceScore,
		ValidationResults: doc.ValidationResults,
		UploadedBy:        doc.UploadedBy,
		UploadedAt:        doc.UploadedAt,
		UpdatedAt:         doc.UpdatedAt,
	}
}

// VersionResponse is the outward-facing representation of a snapshot.
type VersionResponse struct {
	VersionNumber   int       `json:"versionNumber"`
	FileSize        int64     `json:"fileSize"`
	Status          string    `json:"status"`
	ConfidenceScore *float64  `json:"confidenceScore,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toVersionResponse(v DocumentVersion) VersionResponse {
	return VersionResponse{
		VersionNumber:   v.VersionNumber,
		FileSize:        v.FileSize,
		Status:          v.Status,
		ConfidenceScore: v.ConfidenceScore,
		CreatedAt:       v.CreatedAt,
	}
}

// MetadataResponse is the outward-facing representation of metadata.
type MetadataResponse struct {
	DocumentID string `json:"documentId"`
	PageCount  *int   `json:"pageCount,omitempty"`
	Width      *int   `json:"width,omitempty"`
	Height     *int   `json:"height,omitempty"`
	Quality    string `json:"quality,omitempty"`
	IsReadable bool   `json:"isReadable"`
	HasText    bool   `json:"hasText"`
}

func toMetadataResponse(meta Metadata) MetadataResponse {
	return MetadataResponse{
		DocumentID: meta.DocumentID,
		PageCount:  meta.PageCount,
		Width:      meta.Width,
		Height:     meta.Height,
		Quality:    meta.Quality,
		IsReadable: meta.IsReadable,
		HasText:    meta.HasText,
	}
}

type validateRequest struct {
	Claim *validation.ClaimData `json:"claim,omitempty"`
	Rules []validation.Rule     `json:"rules,omitempty"`
}

type bulkValidateRequest struct {
	Claim *validation.ClaimData `json:"claim,omitempty"`
}

type updateMetadataRequest struct {
	PageCount  *int   `json:"pageCount,omitempty"`
	Width      *int   `json:"width,omitempty"`
	Height     *int   `json:"height,omitempty"`
	Quality    string `json:"quality,omitempty"`
	IsReadable bool   `json:"isReadable"`
	HasText    bool   `json:"hasText"`
}
