package app

import (
	"context"

	"github.com/julikubo/timesupa/internal/config"
	"github.com/julikubo/timesupa/internal/events"
	"github.com/julikubo/timesupa/internal/messaging/kafka/consumer"
	"github.com/julikubo/timesupa/internal/settings"
	"github.com/julikubo/timesupa/internal/shared/connection"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer processes user lifecycle events until ctx is cancelled.
func RunConsumer(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	db, err := connection.ConnectGORMWithRetry(
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
		5,
	)
	if err != nil {
		return err
	}

	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 3)
	var cache settings.Cache
	if err != nil {
		logger.Warn("redis unavailable, consumer uses in-process cache", zap.Error(err))
	} else {
		cache = settings.NewRedisCache(rdb)
	}

	settingsRepo := settings.NewRepository(db)
	settingsService := settings.NewService(settingsRepo, cache, logger)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: []string{cfg.KafkaBroker},
		GroupID: "timesupa-settings",
		Topic:   events.UserRegisteredTopic,
	})
	defer reader.Close()

	consumer.ConsumeUserLifecycle(ctx, reader, settingsService, logger)
	return nil
}
