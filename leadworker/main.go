package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orderflow/pipeline/common/config"
	"github.com/orderflow/pipeline/common/logger"
	"github.com/orderflow/pipeline/common/tracing"
)

func main() {
	cfg := Config{
		ServiceName:   config.GetEnv("SERVICE_NAME", "leadworker"),
		InstanceID:    config.GetEnv("INSTANCE_ID", "leadworker-1"),
		MetricsAddr:   config.GetEnv("METRICS_ADDR", ":9102"),
		ConsulAddr:    config.GetEnv("CONSUL_ADDR", ""),
		AMQPUser:      config.GetEnv("AMQP_USER", "guest"),
		AMQPPass:      config.GetEnv("AMQP_PASS", "guest"),
		AMQPHost:      config.GetEnv("AMQP_HOST", "localhost"),
		AMQPPort:      config.GetEnv("AMQP_PORT", "5672"),
		MongoURI:      config.MustGetEnv("MONGO_URI"),
		MongoDatabase: config.GetEnv("MONGO_DATABASE", "orderflow"),
		LeadCollection: config.GetEnv("LEAD_COLLECTION", "leads"),
	}

	log := logger.NewLogger(cfg.ServiceName)
	log.Info("starting service", slog.String("instance_id", cfg.InstanceID))

	shutdown, err := tracing.InitTracer(cfg.ServiceName)
	if err != nil {
		log.Error("failed to initialize tracer", slog.Any("error", err))
		os.Exit(1)
	}
	defer shutdown()

	app, err := NewApp(cfg)
	if err != nil {
		log.Error("failed to create app", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("received shutdown signal")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Error("error during shutdown", slog.Any("error", err))
		}
		cancel()
	}()

	if err := app.Start(ctx); err != nil {
		log.Error("failed to start app", slog.Any("error", err))
		os.Exit(1)
	}
}
