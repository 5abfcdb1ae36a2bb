package documents

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionNotFound = errors.New("version not found")
	ErrConflict        = errors.New("duplicate version")
	ErrStale           = errors.New("stale update")
	ErrInvalidInput    = errors.New("invalid input")
	ErrFileTooLarge    = errors.New("file too large")
	ErrNoOCRData       = errors.New("no ocr data")
)
