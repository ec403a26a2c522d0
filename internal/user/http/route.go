package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the /auth routes. rateLimit guards the
// unauthenticated endpoints.
func RegisterRoutes(g *gin.RouterGroup, h *UserHandler, authMiddleware, rateLimit gin.HandlerFunc) {
	authGroup := g.Group("/auth")

	// === Public Routes ===
	public := authGroup.Group("")
	public.Use(rateLimit)
	{
		public.POST("/register", h.Register)
		public.POST("/login", h.Login)
		public.POST("/forgot-password", h.ForgotPassword)
		public.POST("/reset-password/:token", h.ResetPassword)
	}

	// === Authenticated Routes ===
	private := authGroup.Group("")
	private.Use(authMiddleware)
	{
		private.GET("/me", h.Me)
		private.PUT("/profile", h.UpdateProfile)
		private.PUT("/change-password", h.ChangePassword)
	}
}
