package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"

	"github.com/i474232898/covid-stats-bot/internal/common"
	"github.com/i474232898/covid-stats-bot/internal/metrics"
	"github.com/i474232898/covid-stats-bot/internal/stats"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 16 << 20

// BackoffConfig controls exponential backoff behaviour. MaxRetries of zero disables
// retries entirely.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client    *http.Client
	Backoff   BackoffConfig
	UserAgent string
}

// StatusError reports an upstream answer other than 200 OK. It unwraps to
// stats.ErrTransientFetch.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

func (e *StatusError) Unwrap() error {
	return stats.ErrTransientFetch
}

var errNoHTTPClient = errors.New("http client not configured")

var validate = validator.New()

// base carries what every source shares: its name, HTTP settings and circuit breaker.
type base struct {
	name    string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func newBase(name string, cfg HTTPClientConfig) base {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
	return base{name: name, httpCfg: cfg, circuit: cb}
}

// Name returns the source name used in logs and metrics.
func (b *base) Name() string {
	return b.name
}

// get fetches url and returns the body of a 200 response. Every failure wraps
// stats.ErrTransientFetch.
func (b *base) get(ctx context.Context, url string) ([]byte, error) {
	body, err := doRequestWithResilience(ctx, b.httpCfg, b.circuit, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		if b.httpCfg.UserAgent != "" {
			req.Header.Set("User-Agent", b.httpCfg.UserAgent)
		}
		return req, nil
	})
	if err != nil {
		if errors.Is(err, stats.ErrTransientFetch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", stats.ErrTransientFetch, b.name, err)
	}
	return body, nil
}

// response is what a single attempt yields inside the circuit breaker.
type response struct {
	status int
	body   []byte
}

// doRequestWithResilience executes the request through the circuit breaker. Only
// transport failures, 429 and 5xx count against the breaker and are retried; any other
// non-200 status is returned at once as a *StatusError.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) ([]byte, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}

	var attempt int
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return nil, &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
			}
			if resp.StatusCode != http.StatusOK {
				return response{status: resp.StatusCode}, nil
			}

			body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			if readErr != nil {
				return nil, readErr
			}
			return response{status: resp.StatusCode, body: body}, nil
		})

		if err == nil {
			r, ok := result.(response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			if r.status != http.StatusOK {
				return nil, &StatusError{URL: req.URL.String(), StatusCode: r.status}
			}
			return r.body, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit breaker open: %v", stats.ErrTransientFetch, err)
		}

		if attempt >= cfg.Backoff.MaxRetries || cfg.Backoff.InitialInterval <= 0 {
			return nil, err
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

// observe records the fetch result in metrics.
func observe(source string, start time.Time, err error) {
	result := "ok"
	switch {
	case errors.Is(err, stats.ErrMalformedSource):
		result = "malformed"
	case err != nil:
		result = "transient"
	}
	metrics.ObserveFetch(source, result, time.Since(start))
}

// flexInt decodes an integer that may arrive as a JSON number or a string.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	n, err := strconv.ParseInt(common.StripThousands(s), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %s", string(b))
	}
	*f = flexInt(n)
	return nil
}

// rawDay is one element of the [today, yesterday] arrays served by the statistics
// site, both by its API and inside its HTML pages.
type rawDay struct {
	Sick   *flexInt `json:"sick" validate:"required"`
	Healed *flexInt `json:"healed" validate:"required"`
	Died   *flexInt `json:"died" validate:"required"`
	Date   string   `json:"date" validate:"required"`
}

func (d rawDay) record() (stats.DailyRecord, error) {
	if err := validate.Struct(d); err != nil {
		return stats.DailyRecord{}, fmt.Errorf("%w: %v", stats.ErrMalformedSource, err)
	}
	date, err := time.Parse(stats.DateLayout, strings.TrimSpace(d.Date))
	if err != nil {
		return stats.DailyRecord{}, fmt.Errorf("%w: bad date %q", stats.ErrMalformedSource, d.Date)
	}
	return stats.NewDailyRecord(date, int64(*d.Sick), int64(*d.Healed), int64(*d.Died))
}

// decodeDays turns the statistics site JSON array into a Series.
func decodeDays(data []byte) (stats.Series, error) {
	var days []rawDay
	if err := json.Unmarshal(data, &days); err != nil {
		return nil, fmt.Errorf("%w: %v", stats.ErrMalformedSource, err)
	}

	records := make([]stats.DailyRecord, 0, len(days))
	for _, d := range days {
		r, err := d.record()
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return stats.NewSeries(records)
}
