package app

import (
	"database/sql"

	"github.com/julikubo/timesupa/internal/config"
	"github.com/julikubo/timesupa/internal/middleware"
	"github.com/julikubo/timesupa/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Router *gin.Engine
	Config config.Config
	DB     *gorm.DB
	SQLDB  *sql.DB
	Redis  *redis.Client
}

// BuildApp connects the backing stores and assembles the HTTP router. Redis
// is optional; without it the service runs with in-process caching and no
// idempotency replay.
func BuildApp(cfg config.Config, logger *zap.Logger) (*App, error) {
	db, err := connection.ConnectGORMWithRetry(
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
		5,
	)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 3)
	if err != nil {
		logger.Warn("redis unavailable, continuing without it", zap.Error(err))
		rdb = nil
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.ContextLogger(logger),
	)

	api := router.Group("/api/v1")
	registerModules(api, db, sqlDB, rdb, logger)

	return &App{
		Router: router,
		Config: cfg,
		DB:     db,
		SQLDB:  sqlDB,
		Redis:  rdb,
	}, nil
}
