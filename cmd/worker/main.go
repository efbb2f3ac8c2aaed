// Command worker consumes booking events from RabbitMQ and appends them to
// the booking audit log.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/logger"
	"github.com/iliyamo/table-reservation/internal/queue"
)

func main() {
	cfg := config.LoadWorker()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.AMQPURL == "" {
		log.Fatal().Msg("RABBITMQ_URL or AMQP_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &queue.Consumer{URL: cfg.AMQPURL, LogPath: cfg.LogPath, Log: log}
	log.Info().Str("log_path", cfg.LogPath).Msg("worker started")
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("worker stopped")
	}
	log.Info().Msg("worker stopped")
}
