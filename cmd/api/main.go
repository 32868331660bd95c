package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"wallpaper/internal/http/handlers"
	httpapi "wallpaper/internal/http/httpapi"
	"wallpaper/internal/infra"
	"wallpaper/internal/metrics"
	"wallpaper/internal/orchestrator"
	"wallpaper/internal/providers/gemini"
	"wallpaper/internal/providers/synthetic"
	"wallpaper/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fallback := infra.NewLogger("production", "")
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var gen orchestrator.Generator
	if cfg.UseSynthetic() {
		logger.Warn().Msg("GEMINI_API_KEY not set, using synthetic generator")
		gen = synthetic.New(synthetic.Options{Latency: cfg.SyntheticLatency, Logger: &logger})
	} else {
		client, err := gemini.NewClient(ctx, gemini.Options{
			APIKey:     cfg.GeminiAPIKey,
			TextModel:  cfg.GeminiTextModel,
			ImageModel: cfg.GeminiImageModel,
			Logger:     &logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create gemini client")
		}
		gen = client
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector, err := metrics.New(reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register metrics")
	}

	opts := orchestrator.Options{Generator: gen, Logger: &logger, Metrics: collector}
	if cfg.SaveDir != "" {
		store, err := storage.NewFileStore(cfg.SaveDir)
		if err != nil {
			logger.Fatal().Err(err).Str("dir", cfg.SaveDir).Msg("failed to open save directory")
		}
		opts.Sink = store
		logger.Info().Str("dir", store.BasePath()).Msg("saving wallpapers")
	}
	orch, err := orchestrator.New(opts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create orchestrator")
	}

	go func() {
		if err := orch.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("orchestrator stopped")
		}
	}()

	app := handlers.NewApp(orch, &logger)
	router := httpapi.NewRouter(app, httpapi.Config{
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Metrics:         metrics.Handler(reg),
		Logger:          logger,
	})

	server := infra.NewHTTPServer(cfg, router)
	logger.Info().Str("addr", server.Addr()).Bool("synthetic", cfg.UseSynthetic()).Msg("API listening")
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server failed")
	}

	stop()
	<-orch.Done()
	logger.Info().Msg("server stopped")
}
