package organizations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agriconnect/admin-backend/internal/middleware"
	"github.com/agriconnect/admin-backend/pkg/response"
)

// Handler handles organization HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an organizations handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CreateOrganization handles POST /organizations. Creates an org owned by the current user.
func (h *Handler) CreateOrganization(c *gin.Context) {
	var body Metadata
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	res, err := h.svc.CreateForCaller(c.Request.Context(), middleware.Session(c), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Provision handles POST /admin/organizations, the admin provisioning wizard.
func (h *Handler) Provision(c *gin.Context) {
	var body ProvisionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	res, err := h.svc.AdminProvision(c.Request.Context(), middleware.Session(c), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// ListMyOrganizations handles GET /organizations. Returns orgs the current user is a member of.
func (h *Handler) ListMyOrganizations(c *gin.Context) {
	orgs, err := h.svc.ListMine(c.Request.Context(), middleware.Session(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, orgs)
}

// ListMembers handles GET /organizations/:id/members. Members and platform admins only.
func (h *Handler) ListMembers(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	members, err := h.svc.Members(c.Request.Context(), middleware.Session(c), orgID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, members)
}
