package main

import (
	"context"
	"log/slog"
	"net/http"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/orderflow/pipeline/common/broker"
	"github.com/orderflow/pipeline/common/leadstore"
	"github.com/orderflow/pipeline/common/logger"
	"github.com/orderflow/pipeline/common/metrics"
	"github.com/orderflow/pipeline/common/mongostore"
	"github.com/orderflow/pipeline/common/svcreg"
	"github.com/orderflow/pipeline/common/topology"
	"github.com/orderflow/pipeline/discovery"
	"go.mongodb.org/mongo-driver/mongo"
)

type Config struct {
	ServiceName    string
	InstanceID     string
	MetricsAddr    string
	ConsulAddr     string
	AMQPUser       string
	AMQPPass       string
	AMQPHost       string
	AMQPPort       string
	MongoURI       string
	MongoDatabase  string
	LeadCollection string
}

type App struct {
	registry      discovery.Registry
	registration  *svcreg.Registration
	channel       *amqp.Channel
	closeRabbitMQ func() error
	mongoClient   *mongo.Client
	metricsServer *http.Server
	config        Config
	logger        *slog.Logger
	queueMetrics  *metrics.QueueMetrics
	business      *metrics.BusinessMetrics
}

func NewApp(config Config) (*App, error) {
	log := logger.NewLogger(config.ServiceName)

	registry, err := svcreg.NewRegistry(config.ConsulAddr, log)
	if err != nil {
		return nil, err
	}

	mongoClient, err := mongostore.Connect(context.Background(), config.MongoURI)
	if err != nil {
		return nil, err
	}

	ch, close, err := broker.Connect(config.AMQPUser, config.AMQPPass, config.AMQPHost, config.AMQPPort, topology.Full())
	if err != nil {
		return nil, err
	}

	return &App{
		registry:      registry,
		channel:       ch,
		closeRabbitMQ: close,
		mongoClient:   mongoClient,
		config:        config,
		logger:        log,
		queueMetrics:  metrics.NewQueueMetrics(config.ServiceName),
		business:      metrics.NewBusinessMetrics(config.ServiceName),
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	registration, err := svcreg.Register(ctx, a.registry, a.config.InstanceID, a.config.ServiceName, a.config.MetricsAddr)
	if err != nil {
		return err
	}
	a.registration = registration

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	a.metricsServer = &http.Server{Addr: a.config.MetricsAddr, Handler: mux}
	go func() {
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	leads := leadstore.NewStore(a.mongoClient, a.config.MongoDatabase, a.config.LeadCollection)
	consumer := NewConsumer(leads, a.channel, a.logger, a.queueMetrics, a.business)

	return consumer.Listen(ctx)
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down gracefully")

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Error("error shutting down metrics server", slog.Any("error", err))
		}
	}
	if a.closeRabbitMQ != nil {
		if err := a.closeRabbitMQ(); err != nil {
			a.logger.Error("error closing rabbitmq", slog.Any("error", err))
		}
	}
	if err := a.mongoClient.Disconnect(ctx); err != nil {
		a.logger.Error("error disconnecting mongo", slog.Any("error", err))
	}
	if a.registration != nil {
		return a.registration.Deregister(ctx)
	}
	return nil
}
