package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers deal routes.
func RegisterRoutes(g *gin.RouterGroup, h *DealHandler, authMiddleware, deleteMiddleware gin.HandlerFunc) {
	dealGroup := g.Group("/deals")
	dealGroup.Use(authMiddleware)
	{
		dealGroup.GET("", h.List)
		dealGroup.GET("/pipeline", h.Pipeline)
		dealGroup.GET("/:id", h.Get)
		dealGroup.POST("", h.Create)
		dealGroup.PUT("/:id", h.Update)
		dealGroup.DELETE("/:id", deleteMiddleware, h.Delete)
	}
}
