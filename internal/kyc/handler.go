package kyc

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agriconnect/admin-backend/internal/middleware"
	"github.com/agriconnect/admin-backend/pkg/response"
)

// Handler handles KYC document endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a KYC handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Upload handles POST /kyc/documents (multipart: file, document_type).
func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}
	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	doc, err := h.svc.Submit(c.Request.Context(), middleware.Session(c), Upload{
		DocumentType: c.PostForm("document_type"),
		FileName:     file.Filename,
		ContentType:  file.Header.Get("Content-Type"),
		Size:         file.Size,
		Body:         rc,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// ListMine handles GET /kyc/documents.
func (h *Handler) ListMine(c *gin.Context) {
	docs, err := h.svc.ListMine(c.Request.Context(), middleware.Session(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, docs)
}

// Delete handles DELETE /kyc/documents/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid document id")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.Session(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListForUser handles GET /admin/users/:id/kyc.
func (h *Handler) ListForUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	docs, err := h.svc.ListForUser(c.Request.Context(), middleware.Session(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, docs)
}
