package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/pkg/apperr"
	"github.com/agriconnect/admin-backend/pkg/response"
)

// AccountLookup loads the caller's current account row. *users.Repository satisfies it.
type AccountLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RequireActiveAccount re-reads the caller on write requests and refuses banned or
// suspended accounts, so a token issued before the ban stops mutating state at once.
// Reads pass through until the token expires.
func RequireActiveAccount(accounts AccountLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		id := UserID(c)
		if id == uuid.Nil {
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}
		u, err := accounts.GetByID(c.Request.Context(), id)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				response.Unauthorized(c, "account not found")
			} else {
				response.Error(c, apperr.Internal("failed to load account", err))
			}
			c.Abort()
			return
		}
		if u.Banned {
			response.Forbidden(c, "account is banned")
			c.Abort()
			return
		}
		if u.Status == models.UserStatusSuspended {
			response.Forbidden(c, "account is suspended")
			c.Abort()
			return
		}
		c.Next()
	}
}
