package validation

import (
	"claimdocs-backend/internal/ocr"
)

// Quality buckets for document metadata.
const (
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"
)

// DocumentInput carries the processing-relevant view of a document into the
// engine. ConfidenceScore is nil when extraction has not completed.
type DocumentInput struct {
	DocumentType    string
	MimeType        string
	FileSize        int64
	ConfidenceScore *float64
	PageCount       *int
	Dimensions      *Dimensions
	OCR             *ocr.Result
}

// ClaimData is the applicant-submitted claim the extracted fields are
// reconciled against. Empty strings and nil numbers mean "not claimed".
type ClaimData struct {
	EmployeeID   string   `json:"employeeId,omitempty"`
	EmployeeName string   `json:"employeeName,omitempty"`
	ClaimAmount  *float64 `json:"claimAmount,omitempty"`
	BankAccount  string   `json:"bankAccount,omitempty"`
	IFSCCode     string   `json:"ifscCode,omitempty"`
	PatientName  string   `json:"patientName,omitempty"`
	StudentName  string   `json:"studentName,omitempty"`
	MinimumGrade *float64 `json:"minimumGrade,omitempty"`
}

// Rule is a caller-supplied, field-level expectation checked against the
// extracted fields. Tolerance, when set, overrides the default numeric
// tolerance for ExpectedValue comparison.
type Rule struct {
	FieldName       string       `json:"fieldName"`
	ExpectedValue   string       `json:"expectedValue,omitempty"`
	ExpectedPattern string       `json:"expectedPattern,omitempty"`
	Required        bool         `json:"required"`
	DataType        ocr.DataType `json:"dataType,omitempty"`
	Tolerance       *float64     `json:"tolerance,omitempty"`
}

// Error is one hard validation failure.
type Error struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Warning is a soft finding that does not fail validation.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Dimensions are page dimensions in pixels or points, provider-dependent.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Metadata summarizes document readability and quality. Quality is empty
// when the document carries no confidence score.
type Metadata struct {
	PageCount  *int        `json:"pageCount,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	Quality    string      `json:"quality,omitempty"`
	IsReadable bool        `json:"isReadable"`
	HasText    bool        `json:"hasText"`
}

// Results is the structured validation verdict. IsValid is true iff Errors
// is empty.
type Results struct {
	IsValid  bool      `json:"isValid"`
	Errors   []Error   `json:"errors"`
	Warnings []Warning `json:"warnings"`
	Metadata Metadata  `json:"metadata"`
}

func (r *Results) addError(field, message, code string) {
	r.Errors = append(r.Errors, Error{Field: field, Message: message, Code: code})
}

func (r *Results) addWarning(field, message, code string) {
	r.Warnings = append(r.Warnings, Warning{Field: field, Message: message, Code: code})
}
