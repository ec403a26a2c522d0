package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers organization-related routes.
func RegisterRoutes(g *gin.RouterGroup, h *OrganizationHandler, authMiddleware, deleteMiddleware gin.HandlerFunc) {
	orgGroup := g.Group("/organizations")

	// === Authenticated Routes ===
	orgGroup.Use(authMiddleware)
	{
		orgGroup.GET("", h.List)
		orgGroup.GET("/:id", h.Get)
		orgGroup.POST("", h.Create)
		orgGroup.PUT("/:id", h.Update)
	}

	// === Admin / Manager Routes ===
	orgGroup.DELETE("/:id", deleteMiddleware, h.Delete)
}
