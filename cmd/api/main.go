// Package main is the entrypoint for the grocery and expense tracker API
// server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Latronboy/smart-grocery-expense-tracker/internal/auth"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/cache"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/config"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/credential"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/docstore"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/handler"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/metrics"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/middleware"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/model"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/namespace"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/server"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	if cfg.JWTSecretDefaulted {
		logger.Warn("JWT_SECRET not set, using the development secret")
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", slog.String("error", sanitizeError(err, cfg.DatabaseURL, cfg.RedisURL)))
		os.Exit(1)
	}

	srv := server.New(a.router, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	for _, c := range a.closers {
		srv.OnShutdown(c.name, c.fn)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"data_dir", cfg.DataDir,
		"api_prefix", cfg.NormalizedAPIPrefix(),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// app is the wired HTTP handler plus the resources to release on shutdown.
type app struct {
	router  http.Handler
	closers []closer
}

type closer struct {
	name string
	fn   server.ShutdownFunc
}

// newApp connects the optional backends and builds the router. Resources
// opened before a failure are released before returning.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (a *app, err error) {
	a = &app{}
	defer func() {
		if err != nil {
			for i := len(a.closers) - 1; i >= 0; i-- {
				_ = a.closers[i].fn(ctx)
			}
		}
	}()

	backend, err := newCredentialBackend(ctx, cfg, logger, a)
	if err != nil {
		return a, err
	}

	hasher, err := auth.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return a, err
	}
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return a, err
	}

	var (
		limiter     cache.Limiter
		redisHealth handler.HealthChecker
	)
	if cfg.RedisURL != "" {
		cacheClient, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to Redis", slog.String("redis_url", redactURL(cfg.RedisURL)))
			return a, fmt.Errorf("redis: %w", err)
		}
		a.closers = append(a.closers, closer{"redis", func(context.Context) error { return cacheClient.Close() }})
		limiter = cache.NewRedisLimiter(cacheClient, cfg.RateLimitAuthRPM, cfg.RateLimitAuthBurst)
		redisHealth = cacheClient
		logger.Info("connected to Redis")
	} else {
		limiter = cache.NewMemoryLimiter(cfg.RateLimitAuthRPM, cfg.RateLimitAuthBurst)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheus(registry)

	creds := credential.NewStore(backend, hasher)
	provisioner := namespace.NewProvisioner(cfg.DataDir, cfg.LegacyDir, logger, recorder)
	authService := service.NewAuthService(creds, tokens, provisioner, logger, recorder)
	recordService := service.NewRecordService(provisioner, docstore.New(), recorder)

	authCfg := middleware.AuthConfig{
		Logger:     logger,
		Tokens:     tokens,
		CookieName: cfg.AuthCookieName,
	}

	a.router = setupRouter(routerDeps{
		cfg:     cfg,
		logger:  logger,
		authCfg: authCfg,
		auth: handler.NewAuthHandler(authService, authCfg, handler.CookieConfig{
			Name:   cfg.AuthCookieName,
			Secure: cfg.IsProduction(),
		}, logger),
		expenses:  handler.NewRecordHandler(recordService, model.KindExpenses, logger),
		groceries: handler.NewRecordHandler(recordService, model.KindGroceries, logger),
		health: handler.NewHealthHandler(map[string]handler.HealthChecker{
			"data_dir":    handler.DirWritable(cfg.DataDir),
			"credentials": creds,
			"redis":       redisHealth,
		}),
		metrics: handler.NewMetricsHandler(registry),
		rateLimit: middleware.RateLimitConfig{
			Logger:  logger,
			Limiter: limiter,
			Enabled: cfg.RateLimitAuthEnabled,
		},
	})
	return a, nil
}

// newCredentialBackend picks Postgres when DATABASE_URL is set and the
// users file under DATA_DIR otherwise.
func newCredentialBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger, a *app) (credential.Backend, error) {
	if cfg.DatabaseURL == "" {
		backend, err := credential.NewFileBackend(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		logger.Info("using file credential store", slog.String("path", backend.Path()))
		return backend, nil
	}

	backend, err := credential.NewPostgresBackend(ctx, cfg.DatabaseURL, cfg.CredentialTable)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return nil, fmt.Errorf("postgres: %w", err)
	}
	a.closers = append(a.closers, closer{"postgres", func(context.Context) error {
		backend.Close()
		return nil
	}})
	logger.Info("connected to database")
	return backend, nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	cfg       *config.Config
	logger    *slog.Logger
	authCfg   middleware.AuthConfig
	auth      *handler.AuthHandler
	expenses  *handler.RecordHandler
	groceries *handler.RecordHandler
	health    *handler.HealthHandler
	metrics   http.Handler
	rateLimit middleware.RateLimitConfig
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	h := handler.New()
	r := chi.NewRouter()

	csp := middleware.APIContentSecurityPolicy
	if d.cfg.StaticDir != "" {
		csp = middleware.FrontendContentSecurityPolicy
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = d.cfg.GetCORSAllowedOrigins()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:         d.cfg.IsDevelopment(),
		ContentSecurityPolicy: csp,
	}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))

	// Probes and metrics stay at the root whatever the API prefix.
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Handle("/metrics", d.metrics)

	api := func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimitIP(d.rateLimit)).Post("/signup", d.auth.Signup)
			r.With(middleware.RateLimitIP(d.rateLimit)).Post("/login", d.auth.Login)
			r.Post("/logout", d.auth.Logout)
			r.Get("/me", d.auth.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.authCfg))
			r.Mount("/expenses", d.expenses.Routes())
			r.Mount("/groceries", d.groceries.Routes())
		})
	}

	if prefix := d.cfg.NormalizedAPIPrefix(); prefix != "" {
		r.Route(prefix, func(r chi.Router) {
			api(r)
			r.NotFound(h.NotFound)
			r.MethodNotAllowed(h.MethodNotAllowed)
		})
	} else {
		api(r)
	}

	if d.cfg.StaticDir != "" {
		r.NotFound(handler.NewStaticHandler(d.cfg.StaticDir).ServeHTTP)
	} else {
		r.NotFound(h.NotFound)
	}
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
