package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"websearch/api"
	"websearch/browser"
	"websearch/config"
	"websearch/search"
)

func main() {
	// Missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	// =========
	// Config
	// =========
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// =========
	// Logging
	// =========
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	// =========
	// Browser
	// =========
	launch := browser.NewLaunchOptions(cfg.Browser)
	factory := browser.NewChromeFactory(launch, logger)
	capture := browser.NewDebugCapture(cfg.Browser.Debug, cfg.Browser.DebugDir, logger)

	// =========
	// Search
	// =========
	dispatcher := search.NewDispatcher(factory, capture, logger)

	// =========
	// HTTP
	// =========
	plugin := api.NewPlugin(dispatcher, logger)
	defer plugin.Exit()

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
	}).Handler(plugin.Mount("/api/plugins/" + plugin.Info().ID))

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.AppPort),
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	engines := make([]string, 0)
	for _, e := range dispatcher.Engines() {
		engines = append(engines, string(e))
	}
	logger.Info("Starting server",
		zap.Int("port", cfg.AppPort),
		zap.String("browser", string(launch.Kind)),
		zap.Bool("headless", launch.Headless),
		zap.Bool("debug", launch.Debug),
		zap.Strings("engines", engines))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}
