package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/XiovV/selly-relay/hub"
	"github.com/XiovV/selly-relay/rabbitmq"
	"github.com/XiovV/selly-relay/server"
	"go.uber.org/zap"
)

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}

func main() {
	checkEnvVars()

	logger, err := newLogger(os.Getenv("ENV"))
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.New(sugar.Named("hub"))
	s := server.New(ctx, h, sugar.Named("server"))

	if url := os.Getenv("AMQP_URL"); url != "" {
		mq, err := rabbitmq.New(url)
		if err != nil {
			sugar.Fatal("failed to connect to rabbitmq:", err)
		}
		defer mq.Close()

		deliveries, err := mq.Consume()
		if err != nil {
			sugar.Fatal("failed to consume:", err)
		}

		go s.ConsumeQueue(deliveries)
	}

	if err := s.Serve(":"+os.Getenv("PORT"), os.Getenv("ENV")); err != nil {
		sugar.Fatal(err)
	}
}
