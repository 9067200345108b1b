package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/atelier"
	"github.com/dmitrymomot/atelier/internal/handlers"
	"github.com/dmitrymomot/atelier/internal/repository"
	"github.com/dmitrymomot/atelier/middlewares"
	"github.com/dmitrymomot/atelier/pkg/cache"
	"github.com/dmitrymomot/atelier/pkg/cas"
	"github.com/dmitrymomot/atelier/pkg/db"
	"github.com/dmitrymomot/atelier/pkg/logger"
	"github.com/dmitrymomot/atelier/pkg/opaque"
	"github.com/dmitrymomot/atelier/pkg/redis"
	"github.com/dmitrymomot/atelier/pkg/schema"
	"github.com/dmitrymomot/atelier/pkg/storage"
	"github.com/dmitrymomot/atelier/pkg/token"
)

func newServeCommand() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig[ServeConfig]()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "Apply pending migrations before serving")
	return cmd
}

// serve wires every dependency and blocks until the server stops.
func serve(ctx context.Context, cfg ServeConfig, migrate bool) error {
	log := logger.NewWithSentry(cfg.Log, cfg.Sentry,
		middlewares.RequestIDExtractor(),
		middlewares.UserIDExtractor(),
	)

	database, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	if migrate {
		if err := repository.Migrate(ctx, database, cfg.DB.MigrationsTable, log); err != nil {
			_ = database.Close()
			return err
		}
	}

	hasher, err := opaque.New(cfg.HashSalt)
	if err != nil {
		_ = database.Close()
		return err
	}
	repo := repository.New(database, hasher)

	signer, err := token.New(cfg.Token)
	if err != nil {
		_ = database.Close()
		return err
	}

	var mirrorOpts []cas.Option
	if cfg.Storage.Enabled() {
		s3, err := storage.New(cfg.Storage)
		if err != nil {
			_ = database.Close()
			return err
		}
		mirrorOpts = append(mirrorOpts, cas.WithMirror(s3))
	}
	store, err := cas.New(cfg.Uploads, repo.Assets(), append(mirrorOpts, cas.WithLogger(log))...)
	if err != nil {
		_ = database.Close()
		return err
	}
	sweeper, err := cas.NewSweeper(store, cfg.Uploads.SweepSchedule, cfg.Uploads.SweepAge)
	if err != nil {
		_ = database.Close()
		return err
	}

	readiness := []atelier.HealthOption{
		atelier.WithReadinessCheck("db", db.Healthcheck(database)),
	}
	shutdown := []atelier.RunOption{
		atelier.ShutdownHook(sweeper.Shutdown()),
	}

	var backend cache.Cache[json.RawMessage]
	if cfg.Redis.Enabled() {
		client, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			_ = database.Close()
			return err
		}
		readiness = append(readiness, atelier.WithReadinessCheck("redis", redis.Healthcheck(client)))
		shutdown = append(shutdown, atelier.ShutdownHook(redis.Shutdown(client)))
		backend = cache.NewRedis[json.RawMessage](client, cfg.Cache.Prefix, cfg.Cache.TTL)
	} else {
		memory := cache.NewMemory[json.RawMessage](cfg.Cache.TTL, cfg.Cache.MaxEntries, cfg.Cache.TTL)
		shutdown = append(shutdown, atelier.ShutdownHook(func(context.Context) error { return memory.Close() }))
		backend = memory
	}
	shutdown = append(shutdown, atelier.ShutdownHook(db.Shutdown(database)))

	metrics := middlewares.NewMetrics("atelier")
	limiter := middlewares.NewRateLimiter(cfg.LoginRate, cfg.LoginBurst)
	schemas := schema.NewCompiler()
	opts := []handlers.Option{handlers.WithSearchLimit(cfg.SearchLimit)}

	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		metricsHandler = metrics.Handler()
	}

	app := atelier.New(
		atelier.WithLogger(log),
		atelier.WithMiddleware(
			middlewares.RequestID(),
			middlewares.Logging(middlewares.WithLoggingSkipPaths("/health", "/health/*", "/metrics")),
			metrics.Middleware(),
			middlewares.Recover(),
		),
		atelier.WithDB(database),
		atelier.WithTokens(signer),
		atelier.WithSchemas(schemas),
		atelier.WithCache(cache.NewLoader(backend, cfg.Cache.TTL)),
		atelier.WithAssets(store),
		atelier.WithMaxBodySize(cfg.MaxBodySize),
		atelier.WithCookies(cfg.Cookie),
		atelier.WithHealthChecks(readiness...),
		atelier.WithMount("/files", http.StripPrefix("/files", store.Handler())),
		atelier.WithHandlers(
			handlers.NewSystem(metricsHandler),
			handlers.NewAuth(repo, schemas, limiter, opts...),
			handlers.NewUsers(repo, schemas, opts...),
			handlers.NewLabels(repo, schemas, opts...),
			handlers.NewImages(repo, schemas, opts...),
			handlers.NewTasks(repo, schemas, opts...),
			handlers.NewPrograms(repo, schemas, opts...),
			handlers.NewPublic(repo),
		),
	)

	log.InfoContext(ctx, "routes registered", slog.Int("count", len(app.Routes())))

	return app.Run(append([]atelier.RunOption{
		atelier.WithContext(ctx),
		atelier.Address(cfg.Addr),
		atelier.Logger(log),
		atelier.Timeouts(cfg.Lifecycle),
		atelier.OnConnectionDestroyed(metrics.ConnectionDestroyed),
		atelier.ShutdownTimeout(cfg.ShutdownTimeout),
		atelier.StartupHook(sweeper.Start),
	}, shutdown...)...)
}
