package main

import (
	"context"

	"autoquote/internal/quotes/handler"
	"autoquote/internal/quotes/repository"
	"autoquote/internal/quotes/service"
	"autoquote/internal/quotes/validator"
	"autoquote/pkg/app"
	"autoquote/pkg/config"
	"autoquote/pkg/kafka"
	kafka_middleware "autoquote/pkg/kafka/middleware"
	"autoquote/pkg/whatsapp"
)

const ServiceName = "quotes"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetStore()

	cfg.Log.Info("Starting Quotes service", "store", cfg.StoreDriver)
	serverApp := app.NewApplication()

	repo := initRepository(cfg)
	sender := initSender(cfg)
	publisher := initPublisher(cfg, serverApp)

	quoteService := service.NewQuoteService(
		repo,
		validator.NewQuoteValidator(cfg.Log),
		sender,
		publisher,
		cfg,
	)

	serverApp.SetApp(
		cfg,
		handler.NewHealthHandler(repo, cfg.Log),
		handler.NewQuoteHandler(quoteService, cfg.Log),
		handler.NewWebhookHandler(quoteService, cfg.WhatsApp.VerifyToken, cfg.Log),
	)
	serverApp.OnShutdown(cfg.Client.GracefulShutdown)
	serverApp.Run()
}

func initRepository(cfg *config.Config) repository.QuoteRepository {
	if cfg.StoreDriver == config.StorePostgres {
		cfg.Log.Info("Quote repository initialized", "driver", config.StorePostgres)
		return repository.NewPostgresQuoteRepository(cfg.Client.Postgres)
	}
	cfg.Log.Info("Quote repository initialized", "driver", config.StoreMongo, "database", cfg.MongoDatabaseName)
	return repository.NewMongoQuoteRepository(cfg)
}

// initSender returns nil when the credentials are not configured; quotes are
// then stored with a disabled notification.
func initSender(cfg *config.Config) service.Sender {
	if !cfg.WhatsApp.Enabled() {
		cfg.Log.Warn("WhatsApp credentials not configured, owner notifications disabled")
		return nil
	}

	c, err := whatsapp.NewClient(whatsapp.Config{
		BaseURL:           cfg.WhatsApp.BaseURL,
		APIVersion:        cfg.WhatsApp.APIVersion,
		PhoneNumberID:     cfg.WhatsApp.PhoneNumberID,
		Token:             cfg.WhatsApp.Token,
		Timeout:           cfg.WhatsApp.Timeout,
		RequestsPerSecond: cfg.WhatsApp.RequestsPerSecond,
	}, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create WhatsApp client", "error", err)
	}
	return c
}

func initPublisher(cfg *config.Config, serverApp *app.Application) service.EventPublisher {
	if !cfg.Kafka.Enabled {
		return nil
	}

	producer, err := kafka.NewProducer(&cfg.Kafka, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	serverApp.OnShutdown(func(context.Context) error { return producer.Close() })

	cfg.Log.Info("Kafka producer initialized", "topic", cfg.Kafka.Topic)
	return producer
}
