package auth

import (
	"github.com/julikubo/timesupa/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	public := r.Group("/auth")
	// 5 req/s with a small burst keeps credential stuffing slow without
	// bothering a single office IP.
	public.Use(middleware.RateLimitByIP(5, 10))
	{
		public.POST("/register", h.Register)
		public.POST("/login", h.Login)
		public.POST("/face-login", h.FaceLogin)
		public.POST("/refresh", h.RefreshToken)
	}

	private := r.Group("/auth")
	private.Use(middleware.AuthMiddleware(), middleware.ExtractUserID())
	{
		private.GET("/me", h.Me)
		private.PATCH("/profile", h.UpdateProfile)
		private.PUT("/password", h.UpdatePassword)
	}
}
