package settings

import (
	"github.com/julikubo/timesupa/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	group := r.Group("/settings")
	group.Use(middleware.AuthMiddleware(), middleware.ExtractUserID())
	{
		group.GET("", h.Get)
		group.PUT("", h.Save)
	}
}
