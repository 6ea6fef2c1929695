package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

var Log zerolog.Logger

func Init() {
	InitWithWriter(os.Stdout)
}

// InitWithWriter configures the global logger from LOG_LEVEL and LOG_FORMAT
// ("json" or "console").
func InitWithWriter(w io.Writer) {
	logLevel := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevel == "" {
		logLevel = "info"
	}
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	format := strings.TrimSpace(os.Getenv("LOG_FORMAT"))
	if format == "" {
		format = "console"
	}

	var l zerolog.Logger
	if format == "json" {
		l = zerolog.New(w).With().Timestamp().Logger().Level(level)
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger().Level(level)
	}

	Log = l
	zlog.Logger = l
}

// WithRequestID returns a logger tagged with a request id.
func WithRequestID(id string) *zerolog.Logger {
	if id == "" {
		return &Log
	}
	l := Log.With().Str("request_id", id).Logger()
	return &l
}
