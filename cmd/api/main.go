package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatwidget/internal/config"
	"chatwidget/internal/infra/fetcher"
	"chatwidget/internal/infra/metadata"
	"chatwidget/internal/infra/probe"
	"chatwidget/internal/infra/webhook"
	"chatwidget/internal/observability/logging"
	"chatwidget/internal/observability/tracing"

	chatUC "chatwidget/internal/usecase/chat"
	previewUC "chatwidget/internal/usecase/preview"

	hhttp "chatwidget/internal/handler/http"
	hchat "chatwidget/internal/handler/http/chat"
	"chatwidget/internal/handler/http/middleware"
	hpreview "chatwidget/internal/handler/http/preview"
	"chatwidget/internal/handler/http/requestid"

	"chatwidget/pkg/security/csp"
)

// ServerComponents holds everything runServer needs to start and stop.
type ServerComponents struct {
	Handler  http.Handler
	Limiter  *middleware.RateLimiter
	Closers  []func() error
	Shutdown func(context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.WebhookURL == "" {
		logger.Warn("WEBHOOK_URL is not set; chat requests will fail until it is configured")
	}

	components := setupServer(logger, cfg)
	runServer(logger, components, cfg)
}

// setupServer wires the outbound clients, use cases, routes and middleware.
func setupServer(logger *slog.Logger, cfg *config.Config) *ServerComponents {
	shutdownTracing := tracing.Init(tracing.Config{
		ServiceName: "chatwidget-api",
		Version:     cfg.Version,
		SampleRatio: cfg.TraceSampleRatio,
	})

	fetchCfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		logger.Error("failed to load fetch configuration", slog.Any("error", err))
		os.Exit(1)
	}
	pages := fetcher.New(fetchCfg)

	resolver := setupResolver(logger, cfg, pages, fetchCfg.MaxBodySize)
	prober, closers := setupProber(logger, cfg, pages)

	previewSvc := &previewUC.Service{
		Prober:       prober,
		Resolver:     resolver,
		ProbeTimeout: cfg.ProbeTimeout,
	}

	hook := webhook.NewClient(webhook.Config{URL: cfg.WebhookURL, Timeout: cfg.WebhookTimeout})
	chatSvc := &chatUC.Service{Webhook: hook}

	widget, err := config.LoadWidget(cfg.WidgetConfigPath)
	if err != nil {
		logger.Error("failed to load widget configuration", slog.Any("error", err))
		os.Exit(1)
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Error("failed to parse trusted proxies", slog.Any("error", err))
		os.Exit(1)
	}
	if proxies.Enabled {
		logger.Info("trusted proxy mode enabled",
			slog.Int("trusted_proxies_count", len(proxies.AllowedCIDRs)))
	}

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}, middleware.NewIPExtractor(proxies))
	if limiter.Enabled() {
		logger.Info("rate limiting enabled",
			slog.Float64("rps", cfg.RateLimitRPS),
			slog.Int("burst", cfg.RateLimitBurst))
	} else {
		logger.Warn("rate limiting is disabled")
	}

	mux := http.NewServeMux()
	mux.Handle("GET /health", &hhttp.HealthHandler{
		Version:   cfg.Version,
		Webhook:   hook,
		Fetcher:   pages,
		Limiter:   limiter,
		ProbeMode: cfg.ProbeMode,
	})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{Webhook: hook})
	mux.Handle("GET /live", &hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())
	mux.Handle("GET /api/info", &hhttp.InfoHandler{Widget: widget, Version: cfg.Version})

	hchat.Register(mux, chatSvc, limiter.Middleware)
	hpreview.Register(mux, previewSvc, pages, limiter.Middleware, hhttp.Timeout(cfg.RequestTimeout))

	return &ServerComponents{
		Handler:  applyMiddleware(logger, cfg, mux),
		Limiter:  limiter,
		Closers:  closers,
		Shutdown: shutdownTracing,
	}
}

func setupResolver(logger *slog.Logger, cfg *config.Config, pages *fetcher.Fetcher, maxBody int64) previewUC.MetadataResolver {
	var source metadata.PageSource = metadata.NewDirectSource(pages)
	if cfg.MetadataRelayURL != "" {
		relay, err := metadata.NewRelaySource(cfg.MetadataRelayURL, maxBody)
		if err != nil {
			logger.Error("invalid metadata relay", slog.Any("error", err))
			os.Exit(1)
		}
		source = relay
	}
	logger.Info("metadata resolution configured",
		slog.String("source", source.Name()),
		slog.Int("cache_size", cfg.MetadataCacheSize),
		slog.Duration("cache_ttl", cfg.MetadataCacheTTL))

	return metadata.NewResolver(source, metadata.Config{
		Timeout:             cfg.MetadataTimeout,
		CacheSize:           cfg.MetadataCacheSize,
		CacheTTL:            cfg.MetadataCacheTTL,
		ReadabilityFallback: cfg.MetadataReadability,
	}, logger)
}

func setupProber(logger *slog.Logger, cfg *config.Config, pages *fetcher.Fetcher) (previewUC.Prober, []func() error) {
	headers, err := probe.NewHeaderProber(pages, cfg.EmbedOrigin)
	if err != nil {
		logger.Error("invalid EMBED_ORIGIN", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.ProbeMode != config.ProbeModeBrowser {
		logger.Info("embed probing configured", slog.String("mode", cfg.ProbeMode))
		return headers, nil
	}

	browser := probe.NewBrowserProber(probe.BrowserConfig{
		ControlURL: cfg.ChromeURL,
		Bin:        cfg.ChromeBin,
		Headless:   true,
	}, logger)
	logger.Info("embed probing configured",
		slog.String("mode", cfg.ProbeMode),
		slog.Bool("remote_browser", cfg.ChromeURL != ""))
	return probe.Chain{headers, browser}, []func() error{browser.Close}
}

// applyMiddleware wraps the handler with the middleware chain.
// Order: CORS → Request ID → Tracing → CSP → Recovery → Logging → Input validation →
// Body Limit → Metrics. Rate limiting is applied per route.
func applyMiddleware(logger *slog.Logger, cfg *config.Config, handler http.Handler) http.Handler {
	corsConfig := middleware.DefaultCORSConfig(cfg.CORSAllowedOrigins, logger)
	logger.Info("CORS enabled",
		slog.Any("allowed_origins", corsConfig.Validator.GetAllowedOrigins()),
		slog.Any("allowed_methods", corsConfig.AllowedMethods),
		slog.Any("allowed_headers", corsConfig.AllowedHeaders),
		slog.Int("max_age", corsConfig.MaxAge))

	// Apply in reverse order (innermost to outermost)
	chain := handler
	chain = hhttp.MetricsMiddleware(chain)
	chain = hhttp.LimitRequestBody(1 << 20)(chain) // 1MB limit
	chain = hhttp.InputValidation(hhttp.DefaultMaxQueryLength)(chain)
	chain = hhttp.Logging(logger)(chain)
	chain = hhttp.Recover(logger)(chain)
	chain = middleware.CSP(middleware.CSPConfig{DefaultPolicy: csp.StrictPolicy().ReportOnly(cfg.CSPReportOnly)})(chain)
	chain = tracing.Middleware(chain)
	chain = requestid.Middleware(chain)
	chain = middleware.CORS(corsConfig)(chain)
	return chain
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(logger *slog.Logger, components *ServerComponents, cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if components.Limiter.Enabled() {
		go components.Limiter.RunCleanup(ctx, time.Minute)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           components.Handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}

	// Background work stops after in-flight requests drain
	cancel()

	for _, closeFn := range components.Closers {
		if err := closeFn(); err != nil {
			logger.Warn("failed to release resource", slog.Any("error", err))
		}
	}
	if err := components.Shutdown(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
