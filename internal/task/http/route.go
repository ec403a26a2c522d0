package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers task routes.
func RegisterRoutes(g *gin.RouterGroup, h *TaskHandler, authMiddleware, deleteMiddleware gin.HandlerFunc) {
	taskGroup := g.Group("/tasks")
	taskGroup.Use(authMiddleware)
	{
		taskGroup.GET("", h.List)
		taskGroup.GET("/dashboard", h.Dashboard)
		taskGroup.GET("/:id", h.Get)
		taskGroup.POST("", h.Create)
		taskGroup.PUT("/:id", h.Update)
		taskGroup.DELETE("/:id", deleteMiddleware, h.Delete)
	}
}
