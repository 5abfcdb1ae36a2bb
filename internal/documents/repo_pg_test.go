package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreate(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	doc := Document{
		ID:            "doc-1",
		ApplicationID: "app-1",
		DocumentType:  "payslip",
		FileName:      "payslip.pdf",
		MimeType:      "application/pdf",
		FileSize:      2048,
		StorageKey:    "s3/doc-1/v1_payslip.pdf",
		Version:       1,
		Status:        StatusProcessing,
		UploadedBy:    "hr-portal",
		UploadedAt:    now,
		UpdatedAt:     now,
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(
			doc.ID,
			doc.ApplicationID,
			doc.DocumentType,
			doc.FileName,
			doc.MimeType,
			doc.FileSize,
			doc.StorageKey,
			doc.Version,
			doc.Status,
			nil, // ocr_data
			nil, // validation_results
			nil, // confidence_score
			doc.UploadedBy,
			doc.UploadedAt,
			doc.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO documents").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), Document{ID: "doc-1"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM documents WHERE document_id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"document_id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoGetByIDDecodesPayloads(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"document_id", "application_id", "document_type", "file_name", "mime_type",
		"file_size", "storage_key", "version", "validation_status", "ocr_data",
		"validation_results", "confidence_score", "uploaded_by", "uploaded_at", "updated_at",
	}).AddRow(
		"doc-1", "app-1", "payslip", "payslip.pdf", "application/pdf",
		int64(2048), "s3/doc-1/v1_payslip.pdf", 1, StatusValidated,
		[]byte(`{"success":true,"extractedText":"Employee ID: EMP123","confidence":0.92}`),
		[]byte(`{"isValid":true}`),
		0.92, "hr-portal", now, now,
	)

	mock.ExpectQuery("SELECT (.+) FROM documents WHERE document_id").
		WithArgs("doc-1").
		WillReturnRows(rows)

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.OCRData == nil || !doc.OCRData.Success || doc.OCRData.Confidence != 0.92 {
		t.Fatalf("OCR data = %+v", doc.OCRData)
	}
	if doc.ValidationResults == nil || !doc.ValidationResults.IsValid {
		t.Fatalf("validation results = %+v", doc.ValidationResults)
	}
	if doc.ConfidenceScore == nil || *doc.ConfidenceScore != 0.92 {
		t.Fatalf("confidence = %v", doc.ConfidenceScore)
	}
}

func TestPGRepoUpdateStale(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	expected := now.Add(-time.Minute)
	doc := Document{ID: "doc-1", Status: StatusValidated, UpdatedAt: now}

	mock.ExpectExec("UPDATE documents").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(doc.ID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.Update(context.Background(), doc, expected)
	if !errors.Is(err, ErrStale) {
		t.Fatalf("err = %v, want ErrStale", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateMissingDocument(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE documents").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.Update(context.Background(), Document{ID: "doc-1"}, time.Now().UTC())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoUpdateSuccess(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE documents").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Update(context.Background(), Document{ID: "doc-1"}, time.Now().UTC()); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func TestPGRepoDeleteNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoCreateVersionDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO document_versions").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.CreateVersion(context.Background(), DocumentVersion{
		ID:            "v-1",
		DocumentID:    "doc-1",
		VersionNumber: 1,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestPGRepoGetVersionNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM document_versions").
		WithArgs("doc-1", 4).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetVersion(context.Background(), "doc-1", 4)
	if !errors.Is(err, ErrVersionNotFound) {
		t.Fatalf("err = %v, want ErrVersionNotFound", err)
	}
}

func TestPGRepoSearchAppliesFilters(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"document_id", "application_id", "document_type", "file_name", "mime_type",
		"file_size", "storage_key", "version", "validation_status", "ocr_data",
		"validation_results", "confidence_score", "uploaded_by", "uploaded_at", "updated_at",
	}).AddRow(
		"doc-1", "app-1", "payslip", "payslip.pdf", "application/pdf",
		int64(2048), "s3/doc-1/v1_payslip.pdf", 1, StatusPending,
		nil, nil, nil, "", now, now,
	)

	mock.ExpectQuery(`SELECT (.+) FROM documents WHERE application_id = \$1 AND validation_status = \$2 ORDER BY uploaded_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("app-1", StatusPending, 20, 0).
		WillReturnRows(rows)

	docs, err := repo.Search(context.Background(), SearchFilter{
		ApplicationID: "app-1",
		Status:        StatusPending,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "doc-1" {
		t.Fatalf("docs = %+v", docs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetMetadataNulls(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"document_id", "page_count", "width", "height", "quality", "is_readable", "has_text", "updated_at",
	}).AddRow("doc-1", nil, nil, nil, nil, false, false, now)

	mock.ExpectQuery("SELECT (.+) FROM document_metadata").
		WithArgs("doc-1").
		WillReturnRows(rows)

	meta, err := repo.GetMetadata(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if meta.PageCount != nil || meta.Width != nil || meta.Height != nil || meta.Quality != "" {
		t.Fatalf("meta = %+v, want null fields unset", meta)
	}
}
