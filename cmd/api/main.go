package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"dreamscape/internal/cache"
	"dreamscape/internal/download"
	"dreamscape/internal/http/handlers"
	httpapi "dreamscape/internal/http/httpapi"
	"dreamscape/internal/imagegen"
	"dreamscape/internal/infra"
	"dreamscape/internal/matcher"
	"dreamscape/internal/metrics"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	cat, err := infra.LoadCatalog(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load catalog")
	}
	m, err := matcher.New(cat, matcher.WithWeights(cfg.MatchWeights))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build matcher")
	}

	store, err := cache.Open(cfg.CacheTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open generation cache")
	}
	defer store.Close()

	rec := metrics.NewPrometheus()
	svc := imagegen.NewService(m, imagegen.Options{
		BaseURL: cfg.ImageBaseURL,
		Latency: cfg.SimulatedLatency,
		Cache:   store,
		Metrics: rec,
		Logger:  logger,
	})
	dl := download.New(download.Options{
		Timeout:      cfg.DownloadTimeout,
		MaxBytes:     cfg.DownloadMaxBytes,
		AllowedHosts: cfg.ImageSourceAllowlist,
		Metrics:      rec,
	})

	router := httpapi.NewRouter(handlers.NewApp(svc, dl, logger), httpapi.RouterOptions{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMin:    cfg.RateLimitPerMin,
		TrustedProxies:     cfg.TrustedProxies,
		Metrics:            rec.Handler(),
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Int("catalog_entries", cat.Len()).
			Dur("simulated_latency", cfg.SimulatedLatency).
			Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
