package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"claimdocs-backend/internal/ocr"
	"claimdocs-backend/internal/validation"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `document_id, application_id, document_type, file_name, mime_type, file_size, storage_key, version, validation_status, ocr_data, validation_results, confidence_score, uploaded_by, uploaded_at, updated_at`

// Create inserts a new document record.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
	document_id, application_id, document_type, file_name, mime_type, file_size,
	storage_key, version, validation_status, ocr_data, validation_results,
	confidence_score, uploaded_by, uploaded_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	ocrPayload, err := marshalJSONB(doc.OCRData)
	if err != nil {
		return fmt.Errorf("marshal ocr data: %w", err)
	}
	resultsPayload, err := marshalJSONB(doc.ValidationResults)
	if err != nil {
		return fmt.Errorf("marshal validation results: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.ApplicationID,
		doc.DocumentType,
		doc.FileName,
		doc.MimeType,
		doc.FileSize,
		doc.StorageKey,
		doc.Version,
		doc.Status,
		ocrPayload,
		resultsPayload,
		nullFloat(doc.ConfidenceScore),
		doc.UploadedBy,
		doc.UploadedAt,
		doc.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// GetByID fetches a document by id.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE document_id = $1 LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// Search lists documents matching the filter, newest-first.
func (r *PGRepo) Search(ctx context.Context, filter SearchFilter) ([]Document, error) {
	var (
		conds []string
		args  []any
	)
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		conds = append(conds, col+" = $"+strconv.Itoa(len(args)))
	}
	add("application_id", filter.ApplicationID)
	add("document_type", filter.DocumentType)
	add("validation_status", filter.Status)
	add("uploaded_by", filter.UploadedBy)

	query := `SELECT ` + documentColumns + ` FROM documents`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY uploaded_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit)
	query += " LIMIT $" + strconv.Itoa(len(args))
	args = append(args, offset)
	query += " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// ListByApplication returns every document attached to an application.
func (r *PGRepo) ListByApplication(ctx context.Context, applicationID string) ([]Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE application_id = $1 ORDER BY uploaded_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of the live record, guarded by the
// updated_at precondition.
func (r *PGRepo) Update(ctx context.Context, doc Document, expectedUpdatedAt time.Time) error {
	const query = `
UPDATE documents
SET file_name = $1,
    mime_type = $2,
    file_size = $3,
    storage_key = $4,
    version = $5,
    validation_status = $6,
    ocr_data = $7,
    validation_results = $8,
    confidence_score = $9,
    updated_at = $10
WHERE document_id = $11 AND updated_at = $12`

	ocrPayload, err := marshalJSONB(doc.OCRData)
	if err != nil {
		return fmt.Errorf("marshal ocr data: %w", err)
	}
	resultsPayload, err := marshalJSONB(doc.ValidationResults)
	if err != nil {
		return fmt.Errorf("marshal validation results: %w", err)
	}

	res, err := r.DB.ExecContext(ctx, query,
		doc.FileName,
		doc.MimeType,
		doc.FileSize,
		doc.StorageKey,
		doc.Version,
		doc.Status,
		ocrPayload,
		resultsPayload,
		nullFloat(doc.ConfidenceScore),
		doc.UpdatedAt,
		doc.ID,
		expectedUpdatedAt,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := r.DB.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM documents WHERE document_id = $1)`, doc.ID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrStale
	}
	return nil
}

// Delete removes a document. Versions and metadata cascade at the schema level.
func (r *PGRepo) Delete(ctx context.Context, documentID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE document_id = $1`, documentID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateVersion inserts an immutable snapshot row. A duplicate
// (document_id, version_number) pair is a conflict, never silently ignored.
func (r *PGRepo) CreateVersion(ctx context.Context, v DocumentVersion) error {
	const query = `
INSERT INTO document_versions (
	id, document_id, version_number, storage_key, file_size, validation_status,
	ocr_data, validation_results, confidence_score, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	ocrPayload, err := marshalJSONB(v.OCRData)
	if err != nil {
		return fmt.Errorf("marshal ocr data: %w", err)
	}
	resultsPayload, err := marshalJSONB(v.ValidationResults)
	if err != nil {
		return fmt.Errorf("marshal validation results: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, query,
		v.ID,
		v.DocumentID,
		v.VersionNumber,
		v.StorageKey,
		v.FileSize,
		v.Status,
		ocrPayload,
		resultsPayload,
		nullFloat(v.ConfidenceScore),
		v.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// ListVersions returns a document's snapshots, newest version first.
func (r *PGRepo) ListVersions(ctx context.Context, documentID string) ([]DocumentVersion, error) {
	const query = `
SELECT id, document_id, version_number, storage_key, file_size, validation_status, ocr_data, validation_results, confidence_score, created_at
FROM document_versions
WHERE document_id = $1
ORDER BY version_number DESC`

	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DocumentVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetVersion fetches one snapshot by version number.
func (r *PGRepo) GetVersion(ctx context.Context, documentID string, versionNumber int) (DocumentVersion, error) {
	const query = `
SELECT id, document_id, version_number, storage_key, file_size, validation_status, ocr_data, validation_results, confidence_score, created_at
FROM document_versions
WHERE document_id = $1 AND version_number = $2
LIMIT 1`

	v, err := scanVersion(r.DB.QueryRowContext(ctx, query, documentID, versionNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DocumentVersion{}, ErrVersionNotFound
		}
		return DocumentVersion{}, err
	}
	return v, nil
}

// GetMetadata fetches the metadata row for a document.
func (r *PGRepo) GetMetadata(ctx context.Context, documentID string) (Metadata, error) {
	const query = `
SELECT document_id, page_count, width, height, quality, is_readable, has_text, updated_at
FROM document_metadata
WHERE document_id = $1
LIMIT 1`

	var (
		meta      Metadata
		pageCount sql.NullInt64
		width     sql.NullInt64
		height    sql.NullInt64
		quality   sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, documentID).Scan(
		&meta.DocumentID,
		&pageCount,
		&width,
		&height,
		&quality,
		&meta.IsReadable,
		&meta.HasText,
		&meta.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Metadata{}, ErrNotFound
		}
		return Metadata{}, err
	}
	if pageCount.Valid {
		n := int(pageCount.Int64)
		meta.PageCount = &n
	}
	if width.Valid {
		n := int(width.Int64)
		meta.Width = &n
	}
	if height.Valid {
		n := int(height.Int64)
		meta.Height = &n
	}
	if quality.Valid {
		meta.Quality = quality.String
	}
	return meta, nil
}

// UpsertMetadata inserts or replaces the metadata row for a document.
func (r *PGRepo) UpsertMetadata(ctx context.Context, meta Metadata) error {
	const query = `
INSERT INTO document_metadata (document_id, page_count, width, height, quality, is_readable, has_text, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (document_id) DO UPDATE SET
	page_count = EXCLUDED.page_count,
	width = EXCLUDED.width,
	height = EXCLUDED.height,
	quality = EXCLUDED.quality,
	is_readable = EXCLUDED.is_readable,
	has_text = EXCLUDED.has_text,
	updated_at = EXCLUDED.updated_at`

	_, err := r.DB.ExecContext(ctx, query,
		meta.DocumentID,
		nullInt(meta.PageCount),
		nullInt(meta.Width),
		nullInt(meta.Height),
		nullString(meta.Quality),
		meta.IsReadable,
		meta.HasText,
		meta.UpdatedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		doc            Document
		ocrPayload     []byte
		resultsPayload []byte
		confidence     sql.NullFloat64
	)
	if err := row.Scan(
		&doc.ID,
		&doc.ApplicationID,
		&doc.DocumentType,
		&doc.FileName,
		&doc.MimeType,
		&doc.FileSize,
		&doc.StorageKey,
		&doc.Version,
		&doc.Status,
		&ocrPayload,
		&resultsPayload,
		&confidence,
		&doc.UploadedBy,
		&doc.UploadedAt,
		&doc.UpdatedAt,
	); err != nil {
		return Document{}, err
	}
	if confidence.Valid {
		v := confidence.Float64
		doc.ConfidenceScore = &v
	}
	if len(ocrPayload) > 0 {
		var data ocr.Result
		if err := json.Unmarshal(ocrPayload, &data); err != nil {
			return Document{}, fmt.Errorf("unmarshal ocr data: %w", err)
		}
		doc.OCRData = &data
	}
	if len(resultsPayload) > 0 {
		var results validation.Results
		if err := json.Unmarshal(resultsPayload, &results); err != nil {
			return Document{}, fmt.Errorf("unmarshal validation results: %w", err)
		}
		doc.ValidationResults = &results
	}
	return doc, nil
}

func scanVersion(row rowScanner) (DocumentVersion, error) {
	var (
		v              DocumentVersion
		ocrPayload     []byte
		resultsPayload []byte
		confidence     sql.NullFloat64
	)
	if err := row.Scan(
		&v.ID,
		&v.DocumentID,
		&v.VersionNumber,
		&v.StorageKey,
		&v.FileSize,
		&v.Status,
		&ocrPayload,
		&resultsPayload,
		&confidence,
		&v.CreatedAt,
	); err != nil {
		return DocumentVersion{}, err
	}
	if confidence.Valid {
		f := confidence.Float64
		v.ConfidenceScore = &f
	}
	if len(ocrPayload) > 0 {
		var data ocr.Result
		if err := json.Unmarshal(ocrPayload, &data); err != nil {
			return DocumentVersion{}, fmt.Errorf("unmarshal ocr data: %w", err)
		}
		v.OCRData = &data
	}
	if len(resultsPayload) > 0 {
		var results validation.Results
		if err := json.Unmarshal(resultsPayload, &results); err != nil {
			return DocumentVersion{}, fmt.Errorf("unmarshal validation results: %w", err)
		}
		v.ValidationResults = &results
	}
	return v, nil
}

func marshalJSONB(v any) (any, error) {
	switch t := v.(type) {
	case *ocr.Result:
		if t == nil {
			return nil, nil
		}
	case *validation.Results:
		if t == nil {
			return nil, nil
		}
	case nil:
		return nil, nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repo = (*PGRepo)(nil)
