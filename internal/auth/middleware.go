package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/crm-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/crm-backend/internal/pkg/response"
)

// ErrUnauthenticated is returned by loaders for missing or inactive users.
var ErrUnauthenticated = apperror.Unauthorized("Token is not valid or user is inactive")

// IdentityLoader resolves a token subject into the current identity. It
// must fail for users that no longer exist or are inactive.
type IdentityLoader interface {
	LoadIdentity(ctx context.Context, userID int64) (Identity, error)
}

// AuthRequired is a Gin middleware that validates JWT from Authorization: Bearer <token>
// and loads the caller's identity from the store on every request.
func AuthRequired(jwtManager *JWTManager, loader IdentityLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Access denied. No token provided.",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid Authorization header format",
			})
			return
		}

		claims, err := jwtManager.ParseAndValidate(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		identity, err := loader.LoadIdentity(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrUnauthenticated.Message})
				return
			}
			response.Error(c, err)
			c.Abort()
			return
		}

		SetIdentity(c, identity)
		c.Next()
	}
}

// RequireRole allows the request through only when the caller holds one of
// roles. It MUST be used after AuthRequired.
func RequireRole(roles ...Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !identity.HasRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": ErrForbidden.Message})
			return
		}
		c.Next()
	}
}
