package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servly/internal/domain/listings"
	"servly/internal/domain/messaging"
	"servly/internal/domain/user"
	"servly/internal/infra/broker/kafka"
	"servly/internal/infra/config"
	mongodb "servly/internal/infra/db/mongo"
	ginserver "servly/internal/infra/http/gin"
	"servly/internal/infra/obs"
	"servly/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using fallback configuration", "error", err)
		cfg.Env = env
		cfg.HTTPAddr = getenv("HTTP_ADDR", ":8080")
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	deps, cleanup, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("dependency setup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	inbox := messaging.Service{
		Store:        deps.store,
		Users:        deps.users,
		Listings:     deps.listings,
		FetchTimeout: cfg.FetchTimeout,
	}
	handler := ginserver.MessagingHandler{
		Inbox:    inbox,
		Store:    deps.store,
		Notifier: deps.notifier,
		Logger:   logger,
	}
	auth := ginserver.AuthMiddleware{Verifier: deps.verifier, Logger: logger}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: deps.ready,
	}, ginserver.Handlers{
		Messaging:      handler,
		AuthMiddleware: auth.Handle,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type dependencies struct {
	store    messaging.Store
	users    user.Resolver
	listings listings.Resolver
	verifier ginserver.SessionVerifier
	notifier messaging.Notifier
	ready    func() error
}

func buildDependencies(ctx context.Context, cfg config.Config, logger *slog.Logger) (dependencies, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	deps := dependencies{ready: func() error { return nil }}

	if cfg.MongoURI != "" {
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return deps, cleanup, err
		}
		store := mongodb.NewMessageStore(client.DB)
		if err := store.EnsureIndexes(ctx); err != nil {
			logger.Warn("message index setup failed", "error", err)
		}
		deps.store = store
		deps.users = mongodb.NewProfileResolver(client.DB)
		deps.listings = mongodb.NewListingResolver(client.DB)
		deps.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
	} else {
		logger.Warn("MONGO_URI not set, using in-memory message store")
		deps.store = memory.NewMessageStore()
		directory := memory.NewDirectory()
		deps.users = directory
		deps.listings = directory
	}

	tokens := memory.NewTokenStore()
	if cfg.Env == "dev" || cfg.Env == "local" {
		grantDevToken(tokens, logger)
	}
	deps.verifier = tokens

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicPrefix, nil)
		if err != nil {
			logger.Warn("kafka unavailable, notifications disabled", "error", err)
		} else {
			deps.notifier = kafka.Notifier{Producer: producer}
			cleanups = append(cleanups, func() {
				if err := producer.Close(); err != nil {
					logger.Error("kafka producer close failed", "error", err)
				}
			})
		}
	}

	return deps, cleanup, nil
}

// grantDevToken seeds one bearer token so a local instance is usable without
// the session service.
func grantDevToken(tokens *memory.TokenStore, logger *slog.Logger) {
	token := getenv("DEV_TOKEN", "dev-token")
	profile := user.Profile{
		ID:   user.ID(getenv("DEV_USER_ID", "dev-user")),
		Name: getenv("DEV_USER_NAME", "Dev User"),
	}
	tokens.Grant(token, profile)
	logger.Info("dev token granted", "token", token, "user_id", string(profile.ID))
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
