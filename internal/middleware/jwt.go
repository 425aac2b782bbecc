package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agriconnect/admin-backend/internal/authz"
	"github.com/agriconnect/admin-backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextSession is the key for the *authz.SessionUser in gin context.
	ContextSession = "session_user"
)

// SessionValidator turns a bearer token into the caller. *auth.JWTService satisfies it.
type SessionValidator interface {
	ValidateSession(token string) (*authz.SessionUser, error)
}

// JWT returns a middleware that validates JWT and sets the session user in context.
func JWT(validator SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		session, err := validator.ValidateSession(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, session.ID)
		c.Set(ContextSession, session)
		c.Next()
	}
}

// Session returns the caller set by JWT, or nil on unauthenticated routes.
func Session(c *gin.Context) *authz.SessionUser {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil
	}
	u, _ := v.(*authz.SessionUser)
	return u
}

// UserID returns the caller's id, or uuid.Nil.
func UserID(c *gin.Context) uuid.UUID {
	if u := Session(c); u != nil {
		return u.ID
	}
	return uuid.Nil
}
