package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/docpoint/platform/cmd/mainconfig"
	"github.com/docpoint/platform/internal/api/router"
	"github.com/docpoint/platform/internal/appointments"
	appconfig "github.com/docpoint/platform/internal/config"
	"github.com/docpoint/platform/internal/doctors"
	"github.com/docpoint/platform/internal/events"
	"github.com/docpoint/platform/internal/observability/metrics"
	"github.com/docpoint/platform/internal/patients"
	"github.com/docpoint/platform/internal/payments"
	"github.com/docpoint/platform/internal/slots"
	"github.com/docpoint/platform/pkg/logging"
)

func main() {
	// Local development convenience; production reads real env vars.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting docpoint API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	dynamoClient := mainconfig.NewDynamoDBClient(awsCfg, cfg)

	ledger := slots.NewDynamoLedger(dynamoClient, cfg.SlotsTable, logger)
	patientRepo := patients.NewDynamoRepository(dynamoClient, cfg.PatientsTable, logger)

	var doctorRepo doctors.Repository = doctors.NewDynamoRepository(dynamoClient, cfg.DoctorsTable, logger)
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		doctorRepo = doctors.NewCachedRepository(doctorRepo, redis.NewClient(opts), cfg.DoctorCacheTTL, logger)
		logger.Info("doctor roster cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.DoctorCacheTTL)
	}

	var publisher *events.Publisher
	if cfg.NotifyQueueURL != "" {
		sqsClient := mainconfig.NewSQSClient(awsCfg, cfg)
		publisher = events.NewPublisher(events.NewSQSQueue(sqsClient, cfg.NotifyQueueURL), logger)
	} else {
		logger.Warn("notify queue not configured; booking events disabled")
	}

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)

	bookingService := appointments.NewService(
		appointments.NewDynamoRepository(dynamoClient, cfg.AppointmentsTable, logger),
		doctorRepo, patientRepo, ledger, publisher, bookingMetrics, logger)

	var paymentsHandler *payments.Handler
	if cfg.PaymentKeyID != "" && cfg.PaymentKeySecret != "" {
		gateway := payments.NewRazorpayGateway(cfg.PaymentBaseURL, cfg.PaymentKeyID, cfg.PaymentKeySecret, logger)
		paymentService := payments.NewService(gateway, bookingService, cfg.PaymentKeySecret, cfg.PaymentCurrency, bookingMetrics, logger)
		paymentsHandler = payments.NewHandler(paymentService, logger)
	} else {
		logger.Warn("payment gateway not configured; online payment routes disabled")
	}

	r := router.New(&router.Config{
		Logger:              logger,
		DoctorsHandler:      doctors.NewHandler(doctorRepo, ledger, logger),
		PatientsHandler:     patients.NewHandler(patientRepo, logger),
		AppointmentsHandler: appointments.NewHandler(bookingService, doctorRepo, logger),
		PaymentsHandler:     paymentsHandler,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		JWTSecret:           cfg.JWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
