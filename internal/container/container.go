package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"etsy/lister/internal/client"
	"etsy/lister/internal/config"
	"etsy/lister/internal/domain"
	"etsy/lister/internal/handler"
	"etsy/lister/internal/proxy"
	"etsy/lister/internal/queue"
	"etsy/lister/internal/repository"
	"etsy/lister/internal/resolver"
	"etsy/lister/internal/service"
	"etsy/lister/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Container holds all initialized components
type Container struct {
	Config      *config.Config
	Client      client.EtsyClient
	Settings    repository.SettingsRepository
	Templates   repository.TemplateRepository
	Queue       queue.Queue
	Connections state.ConnectionStore

	Service *service.Service
	Handler *handler.Handler

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	// Initialize ProxySupplier
	proxySupplier := proxy.NewProxySupplier(ctx, cfg.Etsy.Proxies,
		cfg.Etsy.APIBaseURL+"/v3/application/openapi-ping", cfg.Etsy.APIKey)

	// Initialize repositories
	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	container.db = db

	if err := repository.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("✅ Connected to PostgreSQL successfully")

	container.Settings = repository.NewSettingsRepository(db)
	container.Templates = repository.NewTemplateRepository(db)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})
	container.redis = rdb

	// Test connection
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("✅ Connected to Redis successfully")

	redisQueue, err := queue.NewRedisQueue(ctx, rdb, cfg.Redis)
	if err != nil {
		container.Close()
		return nil, err
	}
	container.Queue = redisQueue
	container.Connections = state.NewRedisConnectionStore(rdb)

	container.Client = client.NewEtsyClient(cfg.Etsy, proxySupplier)

	loader := resolver.NewLoader(
		resolver.WithFetchTimeout(cfg.Listing.FetchTimeoutDuration()),
		resolver.WithPhaseHook(func(p domain.LoadPhase) {
			log.Tracef("Listing options load: %s", p)
		}),
	)

	container.Service = service.NewService(
		container.Settings,
		container.Templates,
		container.Connections,
		container.Client,
		redisQueue,
		loader,
	)
	container.Handler = handler.New(container.Service)

	return container, nil
}

// Run serves the HTTP API until ctx is cancelled
func (c *Container) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              c.Config.Server.Addr(),
		Handler:           c.Handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("🚀 Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Warnf("⚠️ Failed to close Redis client: %v", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
