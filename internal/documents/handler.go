package documents

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"claimdocs-backend/internal/shared/server/respond"
)

const signedURLTTL = 15 * time.Minute

// maxUploadBody caps the whole multipart request. The exact per-file limit is
// enforced when the file is read; this only needs headroom for form fields
// and multipart framing around a MaxFileSize file.
const maxUploadBody = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.search)
	rg.GET("/documents/:id", h.get)
	rg.DELETE("/documents/:id", h.remove)
	rg.POST("/documents/:id/validate", h.validate)
	rg.POST("/documents/:id/reprocess", h.reprocess)
	rg.GET("/documents/:id/download-url", h.downloadURL)
	rg.POST("/documents/:id/versions", h.uploadVersion)
	rg.GET("/documents/:id/versions", h.listVersions)
	rg.POST("/documents/:id/versions/:version/restore", h.restore)
	rg.GET("/documents/:id/metadata", h.getMetadata)
	rg.PUT("/documents/:id/metadata", h.updateMetadata)
	rg.POST("/applications/:applicationId/documents/validate", h.bulkValidate)
	rg.GET("/applications/:applicationId/documents/confidence-summary", h.confidenceSummary)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)

	applicationID := strings.TrimSpace(c.PostForm("applicationId"))
	documentType := strings.TrimSpace(c.PostForm("documentType"))
	uploadedBy := strings.TrimSpace(c.PostForm("uploadedBy"))
	if applicationID == "" || documentType == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "applicationId and documentType are required", nil)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), UploadInput{
		ApplicationID: applicationID,
		DocumentType:  documentType,
		FileName:      fileHeader.Filename,
		UploadedBy:    uploadedBy,
		File:          file,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrFileTooLarge):
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the 5 MiB limit", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload document", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(doc))
}

func (h *Handler) get(c *gin.Context) {
	doc, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to fetch document")
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	docs, err := h.Svc.Search(c.Request.Context(), SearchFilter{
		ApplicationID: c.Query("applicationId"),
		DocumentType:  c.Query("documentType"),
		Status:        c.Query("status"),
		UploadedBy:    c.Query("uploadedBy"),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to search documents", nil)
		return
	}

	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toResponse(doc))
	}
	respond.OK(c, gin.H{"documents": out})
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "failed to delete document")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) validate(c *gin.Context) {
	var req validateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	results, err := h.Svc.Validate(c.Request.Context(), c.Param("id"), req.Claim, req.Rules)
	if err != nil {
		h.respondError(c, err, "failed to validate document")
		return
	}
	respond.OK(c, results)
}

func (h *Handler) reprocess(c *gin.Context) {
	doc, err := h.Svc.Reprocess(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to reprocess document")
		return
	}
	respond.JSON(c, http.StatusAccepted, toResponse(doc))
}

func (h *Handler) downloadURL(c *gin.Context) {
	url, err := h.Svc.SignedDownloadURL(c.Request.Context(), c.Param("id"), signedURLTTL)
	if err != nil {
		h.respondError(c, err, "failed to sign download url")
		return
	}
	respond.OK(c, gin.H{"url": url, "expiresIn": int(signedURLTTL.Seconds())})
}

func (h *Handler) uploadVersion(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.UploadVersion(c.Request.Context(), c.Param("id"), fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrFileTooLarge):
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the 5 MiB limit", nil)
		default:
			h.respondError(c, err, "failed to upload version")
		}
		return
	}
	respond.JSON(c, http.StatusCreated, toResponse(doc))
}

func (h *Handler) listVersions(c *gin.Context) {
	versions, err := h.Svc.ListVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to list versions")
		return
	}
	out := make([]VersionResponse, 0, len(versions))
	for _, v := range versions {
		out = append(out, toVersionResponse(v))
	}
	respond.OK(c, gin.H{"versions": out})
}

func (h *Handler) restore(c *gin.Context) {
	versionNumber, err := strconv.Atoi(c.Param("version"))
	if err != nil || versionNumber <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "version must be a positive integer", nil)
		return
	}

	doc, err := h.Svc.Restore(c.Request.Context(), c.Param("id"), versionNumber)
	if err != nil {
		h.respondError(c, err, "failed to restore version")
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) getMetadata(c *gin.Context) {
	meta, err := h.Svc.GetMetadata(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to fetch metadata")
		return
	}
	respond.OK(c, toMetadataResponse(meta))
}

func (h *Handler) updateMetadata(c *gin.Context) {
	var req updateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	meta, err := h.Svc.UpdateMetadata(c.Request.Context(), Metadata{
		DocumentID: c.Param("id"),
		PageCount:  req.PageCount,
		Width:      req.Width,
		Height:     req.Height,
		Quality:    req.Quality,
		IsReadable: req.IsReadable,
		HasText:    req.HasText,
	})
	if err != nil {
		h.respondError(c, err, "failed to update metadata")
		return
	}
	respond.OK(c, toMetadataResponse(meta))
}

func (h *Handler) bulkValidate(c *gin.Context) {
	var req bulkValidateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	results, err := h.Svc.BulkValidate(c.Request.Context(), c.Param("applicationId"), req.Claim)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to bulk validate", nil)
		return
	}
	respond.OK(c, gin.H{"results": results})
}

func (h *Handler) confidenceSummary(c *gin.Context) {
	summary, err := h.Svc.ConfidenceSummary(c.Request.Context(), c.Param("applicationId"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to compute summary", nil)
		return
	}
	respond.OK(c, summary)
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrVersionNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "version not found", nil)
	case errors.Is(err, ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", "version conflict", nil)
	case errors.Is(err, ErrStale):
		respond.Error(c, http.StatusConflict, "stale_update", "document was modified concurrently, retry", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
