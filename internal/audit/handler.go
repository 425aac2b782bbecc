package audit

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agriconnect/admin-backend/internal/middleware"
	"github.com/agriconnect/admin-backend/pkg/response"
)

// Handler serves the audit trail.
type Handler struct {
	svc *Service
}

// NewHandler creates an audit handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /admin/audit?action=&actor_id=&target_id=&since=&limit=&offset=.
func (h *Handler) List(c *gin.Context) {
	var f Filter
	f.Action = c.Query("action")
	if v := c.Query("actor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(c, "invalid actor_id")
			return
		}
		f.ActorID = id
	}
	if v := c.Query("target_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(c, "invalid target_id")
			return
		}
		f.TargetID = id
	}
	if v := c.Query("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(c, "since must be RFC3339")
			return
		}
		f.Since = t
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			response.BadRequest(c, "invalid limit")
			return
		}
		f.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			response.BadRequest(c, "invalid offset")
			return
		}
		f.Offset = n
	}
	events, err := h.svc.List(c.Request.Context(), middleware.Session(c), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}
