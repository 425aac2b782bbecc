package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/agriconnect/admin-backend/internal/authz"
	"github.com/agriconnect/admin-backend/pkg/response"
)

// RequirePlatformAdmin rejects callers without a platform admin role before the handler runs.
// Services repeat the check; this only saves a round trip for obvious rejections.
func RequirePlatformAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := Session(c)
		if err := authz.EnsureAuthenticated(u); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if err := authz.EnsurePlatformAdmin(u); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
