package timecard

import (
	"github.com/julikubo/timesupa/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rdb *redis.Client) {
	group := r.Group("/timecards")
	group.Use(middleware.AuthMiddleware(), middleware.ExtractUserID())
	{
		group.GET("/current", h.Current)
		group.GET("", h.List)
		group.GET("/statistics", h.Statistics)
		group.POST("", h.SaveManual)
		group.PATCH("/:id", h.Update)
		group.DELETE("/:id", h.Delete)

		clock := group.Group("")
		if rdb != nil {
			clock.Use(middleware.Idempotency(rdb))
		}
		clock.POST("/clock-in", h.ClockIn)
		clock.POST("/clock-out", h.ClockOut)
	}
}
