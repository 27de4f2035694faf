// Command admin-console serves the admin dashboard's list views: it keeps
// the pagination state of every mounted list and fetches pages from the
// admin backend on behalf of the signed-in operator.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/threedollars/admin-console/internal/config"
	"github.com/threedollars/admin-console/internal/console"
	"github.com/threedollars/admin-console/pkg/cache"
	"github.com/threedollars/admin-console/pkg/client"
	"github.com/threedollars/admin-console/pkg/logging"
	"github.com/threedollars/admin-console/pkg/session"
)

const janitorInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.LogLevel),
		Pretty:  cfg.LogPretty,
		Service: "admin-console",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Admin console stopped")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	redisClient := newRedis(cfg)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")

	srv, err := buildServer(cfg, redisClient)
	if err != nil {
		return err
	}
	httpServer := srv.HTTPServer()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("addr", cfg.HTTPAddr).
			Str("backend", cfg.BackendURL).
			Bool("cache", cfg.CacheEnabled).
			Msg("Starting admin console")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return srv.RunJanitor(gctx, janitorInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down admin console")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func newRedis(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// buildServer wires the console from configuration. Nothing is contacted.
func buildServer(cfg config.Config, redisClient *redis.Client) (*console.Server, error) {
	controller, err := cfg.Controller()
	if err != nil {
		return nil, err
	}

	// every request is re-bound to the operator's session token
	clientCfg := client.DefaultConfig(cfg.BackendURL, client.TokenFunc(func(context.Context) (string, error) {
		return "", client.ErrNoToken
	}))
	clientCfg.Timeout = cfg.BackendTimeout

	deps := console.Deps{
		Sessions: session.NewStore(redisClient, logging.NewLogger("session"), cfg.SessionTTL),
		Ready: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}
	if cfg.CacheEnabled {
		clientCfg.Cache = cache.NewManager(redisClient)
	}

	backend, err := client.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}
	deps.Backend = backend
	// a nil *cache.Manager must not become a non-nil Evictor
	if manager := backend.Cache(); manager != nil {
		deps.Cache = manager
	}

	return console.New(console.Config{
		Env:             cfg.Env,
		Addr:            cfg.HTTPAddr,
		CORSOrigins:     cfg.CORSOrigins,
		PageSize:        cfg.PageSize,
		Controller:      controller,
		ViewIdleTimeout: cfg.ViewIdleTimeout,
	}, deps), nil
}
