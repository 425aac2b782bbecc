package invitations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agriconnect/admin-backend/internal/middleware"
	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/pkg/response"
)

// Handler handles invitation endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an invitations handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// InviteRequest is the body for POST /organizations/:id/invitations.
type InviteRequest struct {
	Email string            `json:"email" binding:"required,email"`
	Role  models.MemberRole `json:"role"`
}

// Invite handles POST /organizations/:id/invitations.
func (h *Handler) Invite(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	var body InviteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "valid email required")
		return
	}
	inv, err := h.svc.Invite(c.Request.Context(), middleware.Session(c), orgID, body.Email, body.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, inv)
}

// List handles GET /organizations/:id/invitations.
func (h *Handler) List(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	out, err := h.svc.List(c.Request.Context(), middleware.Session(c), orgID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// Accept handles POST /invitations/:id/accept.
func (h *Handler) Accept(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid invitation id")
		return
	}
	m, err := h.svc.Accept(c.Request.Context(), middleware.Session(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, m)
}

// Revoke handles POST /invitations/:id/revoke.
func (h *Handler) Revoke(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid invitation id")
		return
	}
	if err := h.svc.Revoke(c.Request.Context(), middleware.Session(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
