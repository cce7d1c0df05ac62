package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/docpoint/platform/cmd/mainconfig"
	appconfig "github.com/docpoint/platform/internal/config"
	"github.com/docpoint/platform/internal/events"
	"github.com/docpoint/platform/internal/notify"
	"github.com/docpoint/platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting docpoint notify worker",
		"env", cfg.Env,
		"workers", cfg.NotifyWorkerCount,
	)

	if cfg.NotifyQueueURL == "" {
		logger.Error("NOTIFY_QUEUE_URL is required for the notify worker")
		os.Exit(1)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	queue := events.NewSQSQueue(mainconfig.NewSQSClient(awsCfg, cfg), cfg.NotifyQueueURL)

	var sender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		sender = sg
		logger.Info("sendgrid email sender initialized")
	} else {
		sender = notify.NewStubEmailSender(logger)
		logger.Warn("email delivery disabled (SENDGRID_API_KEY not set); logging instead")
	}

	worker := notify.NewWorker(queue, sender, cfg.NotifyWorkerCount, cfg.NotifyPollWait, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker.Run(ctx)
	logger.Info("notify worker stopped")
}
