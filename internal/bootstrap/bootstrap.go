package bootstrap

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/quackchatNotification/internal/auth"
	"github.com/quackchatNotification/internal/callable"
	"github.com/quackchatNotification/internal/config"
	"github.com/quackchatNotification/internal/dedup"
	"github.com/quackchatNotification/internal/fanout"
	"github.com/quackchatNotification/internal/logging"
	"github.com/quackchatNotification/internal/push"
	"github.com/quackchatNotification/internal/registrar"
	"github.com/quackchatNotification/internal/store"
	"github.com/quackchatNotification/internal/subscription"
	"github.com/quackchatNotification/internal/trigger"
)

const serviceName = "quackchat-notifications"

// App holds every wired component of the notification service.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Store    store.DocumentStore
	Gateway  push.Gateway
	Fanout   *fanout.Service
	Router   *gin.Engine
	Consumer *trigger.PubSubConsumer

	closers []func() error
}

// New connects to Firebase and the optional Redis and Pub/Sub backends and
// wires the services on top of them.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logging.Configure(cfg.App.LogLevel)
	logger := log.StandardLogger()

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	app := &App{Config: cfg, Logger: logger}

	var opts []option.ClientOption
	if cfg.Firebase.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsPath))
	}

	firebaseApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Firebase.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing auth client: %w", err)
	}

	var messagingClient *messaging.Client
	if cfg.Push.Driver != config.PushExpo {
		messagingClient, err = firebaseApp.Messaging(ctx)
		if err != nil {
			return nil, fmt.Errorf("initializing messaging client: %w", err)
		}
	}

	switch cfg.Firebase.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory document store")
		app.Store = store.NewMemory()
	default:
		firestoreClient, err := firebaseApp.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("initializing firestore client: %w", err)
		}
		app.closers = append(app.closers, firestoreClient.Close)
		app.Store = store.NewFirestore(firestoreClient)
	}

	app.Gateway = NewGateway(cfg.Push, messagingClient)

	app.Fanout = fanout.New(app.Store, app.Gateway, fanout.OptionsFromConfig(cfg.Fanout), logger)
	if guard := app.newGuard(ctx); guard != nil {
		app.Fanout.WithGuard(guard)
	}

	handler := callable.NewHandler(
		registrar.New(app.Store, logger),
		subscription.New(app.Store, logger),
		app.Store,
		app.Gateway,
		logger,
	)
	app.Router = callable.BuildRouter(callable.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		Handler:     handler,
		Verifier:    auth.NewFirebaseVerifier(authClient),
		Logger:      logger,
	})

	if cfg.PubSub.Subscription != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.Firebase.ProjectID, opts...)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to create pubsub client: %w", err)
		}
		app.closers = append(app.closers, pubsubClient.Close)
		app.Consumer = trigger.NewPubSubConsumer(pubsubClient, cfg.PubSub.Subscription, app.Fanout, logger)
	}

	return app, nil
}

// NewGateway picks the push gateway for the configured driver.
func NewGateway(cfg config.PushConfig, messagingClient *messaging.Client) push.Gateway {
	switch cfg.Driver {
	case config.PushFCM:
		return push.NewFCM(messagingClient, cfg.AndroidChannelID)
	case config.PushExpo:
		return push.NewExpo(cfg.ExpoHost)
	default:
		return &push.Router{
			FCM:  push.NewFCM(messagingClient, cfg.AndroidChannelID),
			Expo: push.NewExpo(cfg.ExpoHost),
		}
	}
}

func (a *App) newGuard(ctx context.Context) fanout.Guard {
	if !a.Config.DedupEnabled() {
		return nil
	}

	rdb, err := NewRedis(ctx, a.Config.Redis)
	if err != nil {
		a.Logger.Warnf("redis unavailable, trigger de-duplication disabled: %s", err)
		return nil
	}
	a.closers = append(a.closers, rdb.Close)

	return dedup.NewRedisGuard(rdb, a.Config.Redis.DedupTTL)
}

// NewRedis connects and pings the configured Redis.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// Close releases backend clients in reverse order of creation.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
