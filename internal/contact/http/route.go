package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers contact routes.
func RegisterRoutes(g *gin.RouterGroup, h *ContactHandler, authMiddleware, deleteMiddleware gin.HandlerFunc) {
	contactGroup := g.Group("/contacts")
	contactGroup.Use(authMiddleware)
	{
		contactGroup.GET("", h.List)
		contactGroup.GET("/:id", h.Get)
		contactGroup.POST("", h.Create)
		contactGroup.PUT("/:id", h.Update)
		contactGroup.DELETE("/:id", deleteMiddleware, h.Delete)
	}
}
