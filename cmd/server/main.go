package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/weighbill/internal/api/apiconnect"
	"github.com/mmynk/weighbill/internal/auth"
	"github.com/mmynk/weighbill/internal/calculator"
	"github.com/mmynk/weighbill/internal/catalog"
	"github.com/mmynk/weighbill/internal/config"
	"github.com/mmynk/weighbill/internal/history"
	"github.com/mmynk/weighbill/internal/metrics"
	"github.com/mmynk/weighbill/internal/middleware"
	"github.com/mmynk/weighbill/internal/service"
	"github.com/mmynk/weighbill/internal/settings"
	"github.com/mmynk/weighbill/internal/storage"
	"github.com/mmynk/weighbill/internal/storage/memory"
	redisstore "github.com/mmynk/weighbill/internal/storage/redis"
	"github.com/mmynk/weighbill/internal/storage/sqlite"
	"github.com/mmynk/weighbill/pkg/logging"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.SetupWith(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := run(cfg, logger); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	backend, limiterStore, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	store := storage.NewWriteBehind(backend,
		storage.WithWriteTimeout(cfg.WriteTimeout),
		storage.WithFailureHook(m.WriteFailed),
	)
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Failed to close storage", "error", err)
		}
	}()

	acc := calculator.NewAccumulator(store,
		calculator.WithLogger(logger),
		calculator.WithHooks(m.Hooks()),
	)
	if err := acc.Restore(ctx); err != nil {
		slog.Warn("Starting with an empty bill", "error", err)
	}
	m.RegisterSubscriberGauge(acc.Subscribers)

	cat := catalog.New(store, nil)
	prefs := settings.New(store, nil)
	book := history.NewBook(acc)

	secret := cfg.JWTSecret
	if secret == "" {
		secret = randomSecret()
		slog.Warn("JWT_SECRET not set; unlocked sessions end on restart")
	}
	gate := auth.NewGate(
		auth.NewPasscodeAuthenticator(store),
		auth.NewJWTManager(secret, cfg.SessionTTL),
		auth.NewAttemptLimiter(limiterStore, cfg.UnlockAttemptsPerMinute),
	)

	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.RequireUnlock(gate, service.LockExemptProcedures...),
		middleware.LoggingInterceptor(),
	)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(corsOptions(cfg.CORSAllowedOrigins)))

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}
	r.Get("/healthz", healthHandler(backend))
	r.Route("/export", func(r chi.Router) {
		r.Use(middleware.RequireUnlockHTTP(gate))
		service.NewExportHandler(book, cfg.Timezone).Routes(r)
	})

	mount := func(path string, h http.Handler) { r.Mount(path, h) }
	mount(apiconnect.NewBillServiceHandler(service.NewBillService(acc, cat, prefs), interceptors))
	mount(apiconnect.NewHistoryServiceHandler(service.NewHistoryService(book), interceptors))
	mount(apiconnect.NewCatalogServiceHandler(service.NewCatalogService(cat, prefs), interceptors))
	mount(apiconnect.NewSettingsServiceHandler(service.NewSettingsService(prefs), interceptors))
	mount(apiconnect.NewLockServiceHandler(service.NewLockService(gate), interceptors))

	static, err := staticHandler(cfg.StaticPath)
	if err != nil {
		return err
	}
	r.Handle("/*", static)

	// h2c serves HTTP/2 without TLS for Connect streaming. Request contexts
	// derive from ctx so open WatchMini streams end on shutdown.
	server := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           h2c.NewHandler(r, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", server.Addr, "storage", cfg.StorageBackend)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Forced shutdown", "error", err)
	}
	if err := store.Flush(shutdownCtx); err != nil {
		slog.Warn("Pending writes not flushed", "error", err)
	}
	return nil
}

// openStorage opens the configured backend and picks the matching store for
// unlock attempt counters. A nil limiter store keeps counters in memory.
func openStorage(ctx context.Context, cfg *config.Config) (storage.KV, limiter.Store, error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		rs, err := redisstore.New(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		ls, err := limiterredis.NewStoreWithOptions(rs.Client(), limiter.StoreOptions{
			Prefix: cfg.RedisPrefix + "unlock",
		})
		if err != nil {
			rs.Close()
			return nil, nil, err
		}
		slog.Info("Storage initialized", "backend", "redis")
		return rs, ls, nil
	case config.BackendMemory:
		slog.Warn("Storage initialized in memory; nothing survives a restart")
		return memory.New(), nil, nil
	default:
		db, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Storage initialized", "backend", "sqlite", "database", cfg.DBPath)
		return db, nil, nil
	}
}

func healthHandler(backend storage.KV) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p, ok := backend.(pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				slog.Warn("Health check failed", "error", err)
				http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("ok"))
	}
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "Connect-Protocol-Version", "Connect-Timeout-Ms"},
		ExposedHeaders: []string{"Connect-Protocol-Version", "Connect-Timeout-Ms", "Content-Disposition"},
		MaxAge:         300,
	}
}

// staticHandler serves the web UI, falling back to index.html for unknown
// paths.
func staticHandler(staticPath string) (http.Handler, error) {
	staticDir, err := filepath.Abs(staticPath)
	if err != nil {
		return nil, err
	}
	slog.Info("Serving static files", "path", staticDir)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}
		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}
		http.ServeFile(w, r, filePath)
	}), nil
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
