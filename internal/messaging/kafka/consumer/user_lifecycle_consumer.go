package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/julikubo/timesupa/internal/events"
	"github.com/julikubo/timesupa/internal/settings"

	"github.com/jackc/pgx/v5/pgconn"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeUserLifecycle seeds default work settings for freshly registered
// users so their first clock-in does not have to create them inline.
func ConsumeUserLifecycle(
	ctx context.Context,
	reader *kafkago.Reader,
	settingsService settings.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.user_lifecycle")
	log.Info("user lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("user lifecycle consumer stopped")
				return
			}
			log.Error("fetch user lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.UserRegisteredEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode user_registered event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := settingsService.EnsureDefaults(ctx, event.UserID); err != nil {
			if isUniqueSettingsViolation(err) {
				log.Warn("work settings already exist for event, skipping",
					zap.String("user_id", event.UserID),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}

			log.Error("create default work settings failed",
				zap.String("user_id", event.UserID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit user lifecycle message failed", zap.Error(err))
			continue
		}

		log.Info("work settings ensured from user_registered event",
			zap.String("user_id", event.UserID),
		)
	}
}

func isUniqueSettingsViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
