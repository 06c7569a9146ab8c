package app

import (
	"database/sql"

	"github.com/julikubo/timesupa/internal/auth"
	"github.com/julikubo/timesupa/internal/messaging/kafka"
	"github.com/julikubo/timesupa/internal/settings"
	"github.com/julikubo/timesupa/internal/timecard"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	api *gin.RouterGroup,
	db *gorm.DB,
	sqlDB *sql.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	outboxRepo := kafka.NewOutboxRepository(sqlDB)

	var settingsCache settings.Cache
	if rdb != nil {
		settingsCache = settings.NewRedisCache(rdb)
	}
	settingsRepo := settings.NewRepository(db)
	settingsService := settings.NewService(settingsRepo, settingsCache, logger)
	settingsHandler := settings.NewHandler(settingsService)
	settings.RegisterRoutes(api, settingsHandler)

	timecardRepo := timecard.NewRepository(db)
	timecardService := timecard.NewServiceWithOutbox(sqlDB, timecardRepo, settingsService, outboxRepo, logger)
	timecardHandler := timecard.NewHandler(timecardService, rdb)
	timecard.RegisterRoutes(api, timecardHandler, rdb)

	authRepo := auth.NewRepository(db)
	authService := auth.NewService(sqlDB, authRepo, outboxRepo, logger)
	authHandler := auth.NewHandler(authService)
	auth.RegisterRoutes(api, authHandler)
}
