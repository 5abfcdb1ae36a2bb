package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service, *MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, repo, _ := newTestService(t, nil)
	router := gin.New()
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router, svc, repo
}

func multipartBody(t *testing.T, fields map[string]string, fileName, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.WriteString(fw, content); err != nil {
			t.Fatalf("write file content: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func doRequest(router *gin.Engine, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp.Error.Code
}

func TestHandlerUpload(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body, contentType := multipartBody(t, map[string]string{
		"applicationId": "app-1",
		"documentType":  "payslip",
		"uploadedBy":    "hr-portal",
	}, "payslip.pdf", "%PDF-1.4 payslip body")

	rec := doRequest(router, http.MethodPost, "/api/v1/documents", body, contentType)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp DocumentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.DocumentID == "" || resp.Version != 1 || resp.Status != StatusProcessing {
		t.Fatalf("response = %+v", resp)
	}
	if resp.ApplicationID != "app-1" || resp.UploadedBy != "hr-portal" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestHandlerUploadSizeBoundary(t *testing.T) {
	router, _, _ := newTestRouter(t)

	// Exactly at the limit passes; the multipart framing around it must not
	// count against the file.
	content := make([]byte, MaxFileSize)
	copy(content, "%PDF-1.4 ")
	body, contentType := multipartBody(t, map[string]string{
		"applicationId": "app-1",
		"documentType":  "payslip",
	}, "payslip.pdf", string(content))

	rec := doRequest(router, http.MethodPost, "/api/v1/documents", body, contentType)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status at limit = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp DocumentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.FileSize != MaxFileSize {
		t.Fatalf("file size = %d, want %d", resp.FileSize, MaxFileSize)
	}

	over := make([]byte, MaxFileSize+1)
	copy(over, "%PDF-1.4 ")
	body, contentType = multipartBody(t, map[string]string{
		"applicationId": "app-1",
		"documentType":  "payslip",
	}, "payslip.pdf", string(over))

	rec = doRequest(router, http.MethodPost, "/api/v1/documents", body, contentType)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status one over limit = %d, want 413", rec.Code)
	}
}

func TestHandlerUploadMissingFields(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body, contentType := multipartBody(t, map[string]string{
		"applicationId": "app-1",
	}, "payslip.pdf", "%PDF-1.4 payslip body")

	rec := doRequest(router, http.MethodPost, "/api/v1/documents", body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "validation_error" {
		t.Fatalf("error code = %q", code)
	}
}

func TestHandlerUploadMissingFile(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body, contentType := multipartBody(t, map[string]string{
		"applicationId": "app-1",
		"documentType":  "payslip",
	}, "", "")

	rec := doRequest(router, http.MethodPost, "/api/v1/documents", body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerGetNotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(router, http.MethodGet, "/api/v1/documents/missing", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "not_found" {
		t.Fatalf("error code = %q", code)
	}
}

func TestHandlerSearchFilters(t *testing.T) {
	router, _, repo := newTestRouter(t)
	seedProcessedDoc(t, repo, "doc-1", "app-1", nil, 0.9)
	seedProcessedDoc(t, repo, "doc-2", "app-2", nil, 0.9)

	rec := doRequest(router, http.MethodGet, "/api/v1/documents?applicationId=app-1", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Documents []DocumentResponse `json:"documents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Documents) != 1 || resp.Documents[0].DocumentID != "doc-1" {
		t.Fatalf("documents = %+v", resp.Documents)
	}
}

func TestHandlerValidate(t *testing.T) {
	router, _, repo := newTestRouter(t)
	seedProcessedDoc(t, repo, "doc-1", "app-1", nil, 0.9)

	payload := strings.NewReader(`{"claim":{"employeeId":"EMP123"}}`)
	rec := doRequest(router, http.MethodPost, "/api/v1/documents/doc-1/validate", payload, "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		IsValid bool `json:"isValid"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.IsValid {
		t.Fatalf("body = %s, want valid verdict", rec.Body.String())
	}
}

func TestHandlerValidateWithoutBody(t *testing.T) {
	router, _, repo := newTestRouter(t)
	seedProcessedDoc(t, repo, "doc-1", "app-1", nil, 0.9)

	rec := doRequest(router, http.MethodPost, "/api/v1/documents/doc-1/validate", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerRestoreBadVersionParam(t *testing.T) {
	router, _, repo := newTestRouter(t)
	seedProcessedDoc(t, repo, "doc-1", "app-1", nil, 0.9)

	for _, version := range []string{"abc", "0", "-1"} {
		rec := doRequest(router, http.MethodPost, "/api/v1/documents/doc-1/versions/"+version+"/restore", nil, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("version %q: status = %d, want 400", version, rec.Code)
		}
	}
}

func TestHandlerRestoreUnknownVersion(t *testing.T) {
	router, _, repo := newTestRouter(t)
	seedProcessedDoc(t, repo, "doc-1", "app-1", nil, 0.9)

	rec := doRequest(router, http.MethodPost, "/api/v1/documents/doc-1/versions/7/restore", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

type staleRepo struct {
	*MemoryRepo
}

func (r staleRepo) Update(ctx context.Context, doc Document, expectedUpdatedAt time.Time) error {
	_ = ctx
	_ = doc
	_ = expectedUpdatedAt
	return ErrStale
}

func TestHandlerStaleUpdateConflicts(t *testing.T) {
	router, svc, repo := newTestRouter(t)
	seedProcessedDoc(t, repo, "doc-1", "app-1", nil, 0.9)
	svc.Repo = staleRepo{repo}

	rec := doRequest(router, http.MethodPost, "/api/v1/documents/doc-1/reprocess", nil, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "stale_update" {
		t.Fatalf("error code = %q", code)
	}
}

func TestHandlerDownloadURL(t *testing.T) {
	router, svc, _ := newTestRouter(t)
	doc := uploadTestDoc(t, svc, "%PDF-1.4 payslip body")

	rec := doRequest(router, http.MethodGet, "/api/v1/documents/"+doc.ID+"/download-url", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		URL       string `json:"url"`
		ExpiresIn int    `json:"expiresIn"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.URL == "" || resp.ExpiresIn != int(signedURLTTL.Seconds()) {
		t.Fatalf("response = %+v", resp)
	}
}

func TestHandlerConfidenceSummary(t *testing.T) {
	router, _, repo := newTestRouter(t)
	seedProcessedDoc(t, repo, "doc-1", "app-1", nil, 0.9)
	seedProcessedDoc(t, repo, "doc-2", "app-1", nil, 0.5)

	rec := doRequest(router, http.MethodGet, "/api/v1/applications/app-1/documents/confidence-summary", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ConfidenceSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalDocuments != 2 || resp.ProcessedCount != 2 {
		t.Fatalf("summary = %+v", resp)
	}
	if len(resp.LowConfidenceIDs) != 1 || resp.LowConfidenceIDs[0] != "doc-2" {
		t.Fatalf("low confidence ids = %v", resp.LowConfidenceIDs)
	}
}

func TestHandlerUpdateMetadata(t *testing.T) {
	router, _, repo := newTestRouter(t)
	seedProcessedDoc(t, repo, "doc-1", "app-1", nil, 0.9)

	payload := strings.NewReader(`{"pageCount":2,"quality":"medium","isReadable":true,"hasText":true}`)
	rec := doRequest(router, http.MethodPut, "/api/v1/documents/doc-1/metadata", payload, "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp MetadataResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PageCount == nil || *resp.PageCount != 2 || resp.Quality != "medium" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestHandlerDelete(t *testing.T) {
	router, svc, _ := newTestRouter(t)
	doc := uploadTestDoc(t, svc, "%PDF-1.4 payslip body")

	rec := doRequest(router, http.MethodDelete, "/api/v1/documents/"+doc.ID, nil, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	rec = doRequest(router, http.MethodGet, "/api/v1/documents/"+doc.ID, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status after delete = %d, want 404", rec.Code)
	}
}
