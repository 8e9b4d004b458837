package commands

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/drest/internal/web/auth"
	"github.com/conduit-lang/drest/internal/web/cache"
	"github.com/conduit-lang/drest/internal/web/middleware"
	"github.com/conduit-lang/drest/internal/web/profiling"
	"github.com/conduit-lang/drest/internal/web/server"
	"github.com/conduit-lang/drest/internal/web/websocket"
)

type serveOptions struct {
	*globalOptions
	host string
	port int
}

func newServeCommand(global *globalOptions) *cobra.Command {
	opts := &serveOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve filter translation over HTTP",
		Long: `Serve filter translation over HTTP.

Endpoints:
  GET /health                 liveness
  GET /schemas                registered schemas and fields
  GET /{resource}/filters     translate filter{...} query parameters
  GET /{resource}/filters/live websocket session translating one query per message

Set server.auth.secret to require bearer tokens (see "drest token") and
server.rate_limit.requests to limit requests per client.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "Listen host (overrides server.host)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Listen port (overrides server.port)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *serveOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = opts.host
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = opts.port
	}

	logger, err := newLogger(cfg.Log, opts.verbose)
	if err != nil {
		return configError(err)
	}
	defer logger.Sync()

	registry, err := loadRegistry(cfg, logger)
	if err != nil {
		return err
	}
	namespace, err := schemaNamespace(cfg.Schema.Path)
	if err != nil {
		return err
	}

	store, err := newStore(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	logger.Info("tree cache configured", zap.String("backend", cfg.Cache.Backend))

	trees := cache.NewTreeCache(store, newBuilder(registry, cfg, logger), cache.TreeCacheConfig{
		TTL:       cfg.Cache.TTL,
		Namespace: namespace,
	}, logger.Named("cache"))

	limiter, err := newLimiter(cfg.Server.RateLimit, store)
	if err != nil {
		return err
	}

	handlers := server.NewHandlers(registry, trees, logger.Named("http"))
	if cfg.Server.Auth.Enabled() {
		signer, err := auth.NewSigner(cfg.Server.Auth.Secret, cfg.Server.Auth.Issuer)
		if err != nil {
			return configError(err)
		}
		handlers.Use(middleware.Auth(middleware.AuthConfig{
			Signer:    signer,
			SkipPaths: []string{"/health"},
			Logger:    logger.Named("auth"),
		}))
		logger.Info("token authentication enabled", zap.String("issuer", cfg.Server.Auth.Issuer))
	}
	if limiter != nil {
		handlers.Use(middleware.RateLimitWithConfig(middleware.RateLimitConfig{
			Limiter:   limiter,
			KeyFunc:   limiterKey(cfg.Server.RateLimit),
			SkipPaths: []string{"/health"},
			Logger:    logger.Named("ratelimit"),
		}))
		logger.Info("rate limiting enabled",
			zap.Int("requests", cfg.Server.RateLimit.Requests),
			zap.Duration("window", cfg.Server.RateLimit.Window))
	}

	var live *websocket.Handler
	if cfg.Server.Live.Enabled {
		live = websocket.NewHandler(trees, websocket.Config{
			AllowedOrigins: cfg.Server.Live.AllowedOrigins,
		}, logger.Named("live"))
		handlers.SetLive(live)
	}

	serverConfig := server.DefaultConfig(handlers.Router())
	serverConfig.Address = cfg.Server.Address()

	srv, err := server.New(serverConfig)
	if err != nil {
		return err
	}

	gs := server.NewGracefulShutdown(srv, server.ShutdownConfig{
		Timeout: cfg.Server.ShutdownTimeout,
		Logger:  logger,
	})
	if cfg.Server.Pprof.Addr != "" {
		debug, err := startProfiling(cfg.Server.Pprof.Addr, logger)
		if err != nil {
			return err
		}
		gs.RegisterHook(debug.Shutdown)
	}
	if live != nil {
		gs.RegisterHook(live.Shutdown)
	}
	if limiter != nil {
		gs.RegisterHook(func(context.Context) error {
			return limiter.Close()
		})
	}
	if store != nil {
		gs.RegisterHook(func(context.Context) error {
			return store.Close()
		})
	}

	return gs.Run(ctx)
}

// startProfiling serves pprof on its own listener until shut down
func startProfiling(addr string, logger *zap.Logger) (*server.Server, error) {
	config := server.DefaultConfig(profiling.Handler(profiling.DefaultConfig()))
	config.Address = addr
	// profiles stream for longer than the default write timeout
	config.WriteTimeout = 0

	debug, err := server.New(config)
	if err != nil {
		return nil, err
	}
	if err := debug.Listen(); err != nil {
		return nil, err
	}

	logger.Info("profiling enabled", zap.String("addr", debug.Addr()))
	go func() {
		if err := debug.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("profiling server failed", zap.Error(err))
		}
	}()
	return debug, nil
}
