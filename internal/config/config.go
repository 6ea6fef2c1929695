package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	NeighborSourceProse = "prose"
	NeighborSourceCSSE  = "csse"
)

type AppConfig struct {
	// Telegram
	BotToken       string
	WebhookURL     string `validate:"omitempty,url"`
	WebhookSecret  string
	TelegramAPIURL string `validate:"required,url"`

	// Upstream sources.
	RegionalAPIURL  string `validate:"required,url"`
	NationalPageURL string `validate:"required,url"`
	NeighborPageURL string `validate:"required,url"`
	CSSEURLTemplate string `validate:"required,contains={date}"`
	CSSECountry     string `validate:"required"`
	// NeighborSource selects the source bound to the neighboring country.
	NeighborSource string `validate:"oneof=prose csse"`
	UserAgent      string

	HTTPTimeout     time.Duration `validate:"gt=0"`
	FetchMaxRetries int           `validate:"gte=0"`

	// DirectoryPath overrides the bundled region directory.
	DirectoryPath string
	Timezone      *time.Location `validate:"-"`

	GeocoderAPIKey  string
	GeocoderCountry string

	// Source probing; a zero ProbeInterval disables it.
	ProbeInterval   time.Duration
	ProbeRegionCode string
	StoreMaxHistory int           // max number of probe results per source (0 = unlimited)
	StoreMaxAge     time.Duration // max age of probe results (0 = unlimited)

	Port string `validate:"required,numeric"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	cfg := &AppConfig{}

	cfg.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if cfg.BotToken == "" {
		cfg.BotToken = os.Getenv("API_KEY")
	}
	cfg.WebhookURL = os.Getenv("WEBHOOK_URL")
	cfg.WebhookSecret = os.Getenv("WEBHOOK_SECRET")
	cfg.TelegramAPIURL = getenvDefault("TELEGRAM_API_URL", "https://api.telegram.org")

	cfg.RegionalAPIURL = getenvDefault("REGIONAL_API_URL", "https://xn--80aesfpebagmfblc0a.xn--p1ai/covid_data.json")
	cfg.NationalPageURL = getenvDefault("NATIONAL_PAGE_URL", "https://xn--80aesfpebagmfblc0a.xn--p1ai/information/")
	cfg.NeighborPageURL = getenvDefault("NEIGHBOR_PAGE_URL", "https://en.wikipedia.org/wiki/COVID-19_pandemic_in_Belarus")
	cfg.CSSEURLTemplate = getenvDefault("CSSE_URL_TEMPLATE",
		"https://raw.githubusercontent.com/CSSEGISandData/COVID-19/master/csse_covid_19_data/csse_covid_19_daily_reports/{date}.csv")
	cfg.CSSECountry = getenvDefault("CSSE_COUNTRY", "Belarus")
	cfg.NeighborSource = strings.ToLower(getenvDefault("NEIGHBOR_SOURCE", NeighborSourceProse))
	cfg.UserAgent = getenvDefault("USER_AGENT", "covid-stats-bot/1.0")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	cfg.FetchMaxRetries = getenvInt("FETCH_MAX_RETRIES", 0)

	cfg.DirectoryPath = os.Getenv("DIRECTORY_PATH")
	tz := getenvDefault("TIMEZONE", "Europe/Moscow")
	cfg.Timezone, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.GeocoderCountry = getenvDefault("GEOCODER_COUNTRY", "Russia")

	if cfg.ProbeInterval, err = getenvDuration("PROBE_INTERVAL", "30m"); err != nil {
		return nil, err
	}
	cfg.ProbeRegionCode = getenvDefault("PROBE_REGION_CODE", "RU-KYA")
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 48) // a day at 30-minute intervals
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
