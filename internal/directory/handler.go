package directory

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agriconnect/admin-backend/internal/middleware"
	"github.com/agriconnect/admin-backend/pkg/response"
)

// Handler serves the admin directory views.
type Handler struct {
	svc *Service
}

// NewHandler creates a directory handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ListOrganizations handles GET /admin/organizations.
func (h *Handler) ListOrganizations(c *gin.Context) {
	var f OrganizationFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		response.BadRequest(c, "invalid query: "+err.Error())
		return
	}
	page, err := h.svc.ListOrganizations(c.Request.Context(), middleware.Session(c), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}

// GetOrganization handles GET /admin/organizations/:id.
func (h *Handler) GetOrganization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	d, err := h.svc.GetOrganization(c.Request.Context(), middleware.Session(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, d)
}

// ListUsers handles GET /admin/users.
func (h *Handler) ListUsers(c *gin.Context) {
	var f UserFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		response.BadRequest(c, "invalid query: "+err.Error())
		return
	}
	page, err := h.svc.ListUsers(c.Request.Context(), middleware.Session(c), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}

// SearchUsers handles GET /admin/users/search?query=&limit=.
func (h *Handler) SearchUsers(c *gin.Context) {
	var limit uint64
	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			response.BadRequest(c, "invalid limit")
			return
		}
		limit = n
	}
	out, err := h.svc.SearchUsers(c.Request.Context(), middleware.Session(c), c.Query("query"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// Stats handles GET /admin/users/stats.
func (h *Handler) Stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context(), middleware.Session(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, st)
}

// GetUser handles GET /admin/users/:id.
func (h *Handler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	d, err := h.svc.GetUser(c.Request.Context(), middleware.Session(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, d)
}
