package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	httpapi "github.com/i474232898/covid-stats-bot/internal/api/http"
	"github.com/i474232898/covid-stats-bot/internal/config"
	"github.com/i474232898/covid-stats-bot/internal/geo"
	"github.com/i474232898/covid-stats-bot/internal/logger"
	"github.com/i474232898/covid-stats-bot/internal/scheduler"
	"github.com/i474232898/covid-stats-bot/internal/stats"
	"github.com/i474232898/covid-stats-bot/internal/stats/sources"
	"github.com/i474232898/covid-stats-bot/internal/store"
	"github.com/i474232898/covid-stats-bot/internal/telegram"
)

func main() {
	_ = godotenv.Load()
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	directory, err := stats.LoadDirectory(cfg.DirectoryPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load region directory")
	}
	log.Info().Int("regions", directory.Len()).Msg("region directory loaded")

	// Shared HTTP client for outbound source calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	httpCfg := sources.HTTPClientConfig{
		Client:    httpClient,
		UserAgent: cfg.UserAgent,
		Backoff: sources.BackoffConfig{
			MaxRetries:      cfg.FetchMaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	}

	regional := sources.NewRegionalProvider(httpCfg, cfg.RegionalAPIURL)
	national := sources.NewEmbeddedProvider(httpCfg, cfg.NationalPageURL)

	var neighbor stats.Source
	switch cfg.NeighborSource {
	case config.NeighborSourceCSSE:
		neighbor = sources.NewCSSEProvider(httpCfg, cfg.CSSEURLTemplate, cfg.CSSECountry, time.Now, cfg.Timezone)
	default:
		neighbor = sources.NewProseProvider(httpCfg, cfg.NeighborPageURL, time.Now, cfg.Timezone)
	}

	fixed := map[string]stats.Binding{
		"Россия":   {Place: stats.Place{Name: "России", Code: "RU"}, Source: national},
		"Беларусь": {Place: stats.Place{Name: "Беларуси", Code: "BY"}, Source: neighbor},
	}

	var opts []stats.Option
	if cfg.GeocoderAPIKey != "" {
		opts = append(opts, stats.WithResolver(geo.NewResolver(cfg.GeocoderAPIKey, cfg.GeocoderCountry)))
	}

	formatter := stats.NewFormatter(time.Now, cfg.Timezone)
	service := stats.NewService(directory, regional, fixed, formatter, opts...)

	// Probe history for the operator endpoints.
	probeStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)
	sched := scheduler.New([]scheduler.Target{
		{Source: regional, Code: cfg.ProbeRegionCode},
		{Source: national},
		{Source: neighbor},
	}, cfg.ProbeInterval, cfg.HTTPTimeout, probeStore)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "covid-stats-bot",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "covid-stats-bot",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpapi.RegisterRoutes(app, service, probeStore)
	httpapi.RegisterWebhook(app, service, cfg.WebhookSecret)

	if cfg.WebhookURL != "" {
		if err := registerWebhook(httpClient, cfg); err != nil {
			log.Error().Err(err).Msg("failed to register telegram webhook")
		} else {
			log.Info().Str("url", cfg.WebhookURL).Msg("telegram webhook registered")
		}
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server starting")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}

func registerWebhook(client *http.Client, cfg *config.AppConfig) error {
	tg, err := telegram.NewClient(client, cfg.TelegramAPIURL, cfg.BotToken)
	if err != nil {
		return err
	}
	log.Info().Str("bot", tg.Username()).Msg("telegram bot authenticated")
	return tg.SetWebhook(cfg.WebhookURL, cfg.WebhookSecret)
}
