// Command notifier drains the notification queue and delivers each message
// over its channel. Email goes through SMTP when a relay is configured;
// everything else is logged.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/eatmeetclub/api/internal/config"
	"github.com/eatmeetclub/api/internal/messaging"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if !cfg.Messaging.Enabled {
		slog.Error("RABBIT_ENABLED must be true to run the notifier")
		os.Exit(1)
	}

	fallback := messaging.NewLogNotifier(logger)
	router := &messaging.ChannelRouter{Default: fallback}
	if cfg.Mail.MailConfigured() {
		router.Email = messaging.NewSMTPNotifier(messaging.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
	} else {
		slog.Warn("SMTP_HOST not set, email notifications will only be logged")
	}

	hostname, _ := os.Hostname()
	consumer := messaging.NewConsumer(messaging.ConsumerConfig{
		URL:      cfg.Messaging.URL,
		Exchange: cfg.Messaging.Exchange,
		Queue:    cfg.Messaging.Queue,
		Bindings: cfg.Messaging.Bindings,
		Prefetch: cfg.Messaging.Prefetch,
		DLX:      cfg.Messaging.DLX,
		Name:     "notifier-" + hostname,
	}, router, logger)

	if err := consumer.Connect(); err != nil {
		slog.Error("failed to connect to message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("notifier started",
		slog.String("queue", cfg.Messaging.Queue),
		slog.Bool("smtp", cfg.Mail.MailConfigured()),
	)
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("consumer stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("notifier exited")
}
