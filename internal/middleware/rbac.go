package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/food-rescue-api/internal/models"
	appErrors "github.com/noah-isme/food-rescue-api/pkg/errors"
	"github.com/noah-isme/food-rescue-api/pkg/response"
)

// RequireRoles lets the request through only when the caller holds one of roles.
// Ownership checks stay in the services; this is the coarse role gate.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok || claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
