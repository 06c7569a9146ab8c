package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/julikubo/timesupa/internal/app"
	"github.com/julikubo/timesupa/internal/config"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunConsumer(ctx, cfg, logger); err != nil {
		logger.Fatal("user lifecycle consumer failed", zap.Error(err))
	}
}
