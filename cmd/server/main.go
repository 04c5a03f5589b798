package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Skufu/symptomdesk/internal/assistant"
	"github.com/Skufu/symptomdesk/internal/geo"
	"github.com/Skufu/symptomdesk/internal/report"
	"github.com/Skufu/symptomdesk/internal/store"
)

var (
	ErrDatabaseURLRequired = errors.New("DATABASE_URL is required when using the postgres store")
	ErrUnknownStoreDriver  = errors.New("STORE_DRIVER must be memory, postgres or sqlite")
	ErrInvalidTimeout      = errors.New("UPSTREAM_TIMEOUT must be a positive duration")
	ErrInvalidReplaceFlag  = errors.New("REPORT_REPLACE_UNSUPPORTED must be a boolean")
)

type Config struct {
	Port               string
	GinMode            string
	LogLevel           string
	GeminiAPIKey       string
	GeminiModel        string
	StoreDriver        string
	DatabaseURL        string
	SQLiteDir          string
	NominatimURL       string
	OverpassURL        string
	UserAgent          string
	UpstreamTimeout    time.Duration
	ReportConfig       string
	// ReplaceUnsupported is nil unless REPORT_REPLACE_UNSUPPORTED is set.
	ReplaceUnsupported *bool
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	gin.SetMode(cfg.GinMode)

	logger, err := newLogger(cfg.GinMode, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	app, cleanup, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer cleanup()

	staticRoot := detectStaticRoot()
	router := setupRouter(app, staticRoot)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("server listening", zap.String("port", cfg.Port), zap.String("store", cfg.StoreDriver))
	waitForShutdown(server, logger)
}

func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", gin.ReleaseMode),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getEnv("GEMINI_MODEL", assistant.DefaultModel),
		StoreDriver:        strings.ToLower(os.Getenv("STORE_DRIVER")),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SQLiteDir:          getEnv("SQLITE_PATH", "data"),
		NominatimURL:       getEnv("NOMINATIM_URL", geo.DefaultNominatimURL),
		OverpassURL:        getEnv("OVERPASS_URL", geo.DefaultOverpassURL),
		UserAgent:          getEnv("USER_AGENT", geo.DefaultUserAgent),
		ReportConfig:       os.Getenv("REPORT_CONFIG"),
	}

	if v := os.Getenv("REPORT_REPLACE_UNSUPPORTED"); v != "" {
		replace, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w, got %q", ErrInvalidReplaceFlag, v)
		}
		cfg.ReplaceUnsupported = &replace
	}

	// ENABLE_DB predates STORE_DRIVER and still selects postgres.
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = store.DriverMemory
		if strings.EqualFold(getEnv("ENABLE_DB", "false"), "true") {
			cfg.StoreDriver = store.DriverPostgres
		}
	}

	switch cfg.StoreDriver {
	case store.DriverMemory, store.DriverSQLite:
	case store.DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, ErrDatabaseURLRequired
		}
	default:
		return nil, fmt.Errorf("%w, got %q", ErrUnknownStoreDriver, cfg.StoreDriver)
	}

	timeout, err := time.ParseDuration(getEnv("UPSTREAM_TIMEOUT", "15s"))
	if err != nil || timeout <= 0 {
		return nil, ErrInvalidTimeout
	}
	cfg.UpstreamTimeout = timeout

	return cfg, nil
}

func newLogger(mode, level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if mode == gin.DebugMode {
		zcfg = zap.NewDevelopmentConfig()
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	zcfg.Level = lvl
	return zcfg.Build()
}

// reportOptions resolves the PDF layout. Substitution of unsupported
// characters defaults to on for the server; a layout file's
// replace_unsupported beats that default and the environment beats both.
func reportOptions(cfg *Config) (report.Options, error) {
	opts := report.DefaultOptions()
	opts.ReplaceUnsupported = true
	if cfg.ReportConfig != "" {
		lf, err := report.ReadLayoutFile(cfg.ReportConfig)
		if err == nil {
			opts, err = lf.Apply(opts)
		}
		if err != nil {
			return report.Options{}, fmt.Errorf("load report layout %s: %w", cfg.ReportConfig, err)
		}
	}
	if cfg.ReplaceUnsupported != nil {
		opts.ReplaceUnsupported = *cfg.ReplaceUnsupported
	}
	return opts, nil
}

// buildApp wires the collaborators named by cfg. The returned cleanup
// closes the store.
func buildApp(ctx context.Context, cfg *Config, logger *zap.Logger) (*App, func(), error) {
	opts, err := reportOptions(cfg)
	if err != nil {
		return nil, nil, err
	}

	locator, err := geo.NewClient(geo.Options{
		NominatimURL: cfg.NominatimURL,
		OverpassURL:  cfg.OverpassURL,
		UserAgent:    cfg.UserAgent,
		Timeout:      cfg.UpstreamTimeout,
		Logger:       logger.Named("geo"),
	})
	if err != nil {
		return nil, nil, err
	}

	var analyzer Analyzer
	if cfg.GeminiAPIKey != "" {
		gen, err := assistant.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		analyzer = assistant.New(gen, logger.Named("assistant"))
	} else {
		logger.Warn("GEMINI_API_KEY not set; symptom analysis disabled")
	}

	st, err := store.Open(ctx, store.Config{
		Driver:      cfg.StoreDriver,
		DatabaseURL: cfg.DatabaseURL,
		SQLiteDir:   cfg.SQLiteDir,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}

	app := &App{
		Analyzer:   analyzer,
		Locator:    locator,
		Store:      st,
		ReportOpts: opts,
		Timeout:    cfg.UpstreamTimeout,
		Logger:     logger,
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}
	return app, cleanup, nil
}

func waitForShutdown(server *http.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func detectStaticRoot() string {
	startDir, err := os.Getwd()
	if err != nil {
		return "."
	}

	candidates := []string{
		filepath.Join(startDir, "web"),
		startDir,
		filepath.Dir(startDir),
		filepath.Dir(filepath.Dir(startDir)),
	}

	for _, dir := range candidates {
		if fileExists(filepath.Join(dir, "index.html")) {
			return dir
		}
	}

	return startDir
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
