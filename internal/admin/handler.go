package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agriconnect/admin-backend/internal/middleware"
	"github.com/agriconnect/admin-backend/internal/users"
	"github.com/agriconnect/admin-backend/pkg/response"
)

// Handler handles admin lifecycle endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an admin handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// UserIDsRequest is the body of the bulk user actions.
type UserIDsRequest struct {
	UserIDs []uuid.UUID `json:"user_ids" binding:"required,min=1"`
	Reason  string      `json:"reason"`
}

// OrganizationIDsRequest is the body of the bulk organization actions.
type OrganizationIDsRequest struct {
	OrganizationIDs []uuid.UUID `json:"organization_ids" binding:"required,min=1"`
}

// UpdatedResponse reports rows changed by a bulk update.
type UpdatedResponse struct {
	Updated int64 `json:"updated"`
}

// DeletedResponse reports rows removed, or banned for users, by a bulk delete.
type DeletedResponse struct {
	Deleted int64 `json:"deleted"`
}

// ApproveUsers handles POST /admin/users/approve.
func (h *Handler) ApproveUsers(c *gin.Context) {
	var body UserIDsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := h.svc.ApproveUsers(c.Request.Context(), middleware.Session(c), body.UserIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, UpdatedResponse{Updated: n})
}

// SuspendUsers handles POST /admin/users/suspend.
func (h *Handler) SuspendUsers(c *gin.Context) {
	var body UserIDsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := h.svc.SuspendUsers(c.Request.Context(), middleware.Session(c), body.UserIDs, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, UpdatedResponse{Updated: n})
}

// DeleteUsers handles POST /admin/users/delete. Users are banned, not removed.
func (h *Handler) DeleteUsers(c *gin.Context) {
	var body UserIDsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := h.svc.DeleteUsers(c.Request.Context(), middleware.Session(c), body.UserIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, DeletedResponse{Deleted: n})
}

// UpdateUser handles PATCH /admin/users/:id.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var body users.Patch
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	u, err := h.svc.UpdateUser(c.Request.Context(), middleware.Session(c), id, body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, u)
}

// ApproveOrganizations handles POST /admin/organizations/approve.
func (h *Handler) ApproveOrganizations(c *gin.Context) {
	var body OrganizationIDsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := h.svc.ApproveOrganizations(c.Request.Context(), middleware.Session(c), body.OrganizationIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, UpdatedResponse{Updated: n})
}

// SuspendOrganizations handles POST /admin/organizations/suspend.
func (h *Handler) SuspendOrganizations(c *gin.Context) {
	var body OrganizationIDsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := h.svc.SuspendOrganizations(c.Request.Context(), middleware.Session(c), body.OrganizationIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, UpdatedResponse{Updated: n})
}

// DeleteOrganizations handles POST /admin/organizations/delete.
func (h *Handler) DeleteOrganizations(c *gin.Context) {
	var body OrganizationIDsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := h.svc.DeleteOrganizations(c.Request.Context(), middleware.Session(c), body.OrganizationIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, DeletedResponse{Deleted: n})
}

// ApproveOrganization handles POST /admin/organizations/:id/approve.
func (h *Handler) ApproveOrganization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	res, err := h.svc.ApproveOrganization(c.Request.Context(), middleware.Session(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
