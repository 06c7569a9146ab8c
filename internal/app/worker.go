package app

import (
	"context"
	"time"

	"github.com/julikubo/timesupa/internal/config"
	"github.com/julikubo/timesupa/internal/messaging/kafka"
	"github.com/julikubo/timesupa/internal/messaging/kafka/producer"
	"github.com/julikubo/timesupa/internal/shared/connection"

	"go.uber.org/zap"
)

// RunWorker drains the outbox table into Kafka until ctx is cancelled.
func RunWorker(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	db, err := connection.ConnectGORMWithRetry(
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	writer, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, 5)
	if err != nil {
		return err
	}
	defer writer.Close()

	outboxRepo := kafka.NewOutboxRepository(sqlDB)
	producer.ProcessOutboxEvents(ctx, outboxRepo, writer, logger, 3*time.Second)
	return nil
}
