package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SergeyBogomolovv/orders-ms/internal/app"
	"github.com/SergeyBogomolovv/orders-ms/internal/config"
	"github.com/SergeyBogomolovv/orders-ms/internal/events"
	"github.com/SergeyBogomolovv/orders-ms/internal/handler"
	"github.com/SergeyBogomolovv/orders-ms/internal/postgres"
	"github.com/SergeyBogomolovv/orders-ms/internal/products"
	"github.com/SergeyBogomolovv/orders-ms/internal/repo"
	"github.com/SergeyBogomolovv/orders-ms/internal/service"
	"github.com/SergeyBogomolovv/orders-ms/pkg/trm"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	amqpConn, err := amqp.Dial(conf.AMQP.URL)
	panicIfErr("failed to connect to rabbitmq", err)
	defer amqpConn.Close()
	logger.Info("rabbitmq connected")

	orderRepo := repo.NewPostgresRepo(db)
	txManager := trm.NewManager(db)
	productsClient := products.NewAMQPClient(logger, amqpConn, conf.AMQP)
	publisher := events.NewKafkaPublisher(conf.Kafka)
	defer publisher.Close()

	orderService := service.NewOrderService(logger, txManager, orderRepo, productsClient, publisher)

	rpcHandler := handler.NewAMQPHandler(logger, amqpConn, conf.AMQP, orderService)
	handler.RegisterMetrics()

	app := app.New(logger, conf)
	app.SetConsumers(rpcHandler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app.Start(ctx)
	<-ctx.Done()
	app.Stop()
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}
