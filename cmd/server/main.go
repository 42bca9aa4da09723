package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/anikv/roomledger/internal/auth"
	"github.com/anikv/roomledger/internal/events"
	eventskafka "github.com/anikv/roomledger/internal/events/kafka"
	"github.com/anikv/roomledger/internal/server"
	"github.com/anikv/roomledger/internal/service"
	"github.com/anikv/roomledger/internal/storage"
	"github.com/anikv/roomledger/internal/storage/postgres"
	"github.com/anikv/roomledger/internal/storage/sqlite"
	"github.com/anikv/roomledger/pkg/logging"
)

const defaultTokenDuration = "24h"

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func newStore() (storage.Store, error) {
	switch driver := getEnv("DB_DRIVER", "sqlite"); driver {
	case "sqlite":
		return sqlite.New(getEnv("DB_PATH", "./data/roomledger.db"))
	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return nil, fmt.Errorf("DATABASE_URL required for postgres driver")
		}
		return postgres.New(dsn)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", driver)
	}
}

func newPublisher() events.Publisher {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return events.NopPublisher{}
	}
	slog.Info("Kafka publisher enabled", "brokers", brokers)
	return eventskafka.NewPublisher(strings.Split(brokers, ","))
}

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	logging.Setup()

	store, err := newStore()
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", getEnv("DB_DRIVER", "sqlite"))

	publisher := newPublisher()
	defer publisher.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}
	tokenDuration, err := time.ParseDuration(getEnv("TOKEN_DURATION", defaultTokenDuration))
	if err != nil {
		slog.Error("Invalid TOKEN_DURATION", "error", err)
		os.Exit(1)
	}
	jwtManager := auth.NewJWTManager(jwtSecret, tokenDuration)

	srv := server.New(
		service.NewExpenseService(store),
		service.NewSettlementService(store, publisher),
		jwtManager,
	)

	// h2c lets HTTP/2 clients talk cleartext to the service behind a proxy.
	handler := h2c.NewHandler(srv.Handler(), &http2.Server{})

	addr := ":" + getEnv("PORT", "8080")
	slog.Info("Server starting", "address", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
