package sources

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/covid-stats-bot/internal/stats"
)

const csseDateLayout = "01-02-2006"

// CSSEProvider reads a country's totals from the CSSE daily report CSV files. A report
// for today is usually published late, so a missing report falls back to yesterday's.
type CSSEProvider struct {
	base
	urlTemplate string
	country     string
	now         func() time.Time
	loc         *time.Location
}

// NewCSSEProvider creates the provider. urlTemplate must contain a "{date}"
// placeholder, replaced with the report date as MM-DD-YYYY.
func NewCSSEProvider(cfg HTTPClientConfig, urlTemplate, country string, now func() time.Time, loc *time.Location) *CSSEProvider {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &CSSEProvider{
		base:        newBase("csse", cfg),
		urlTemplate: urlTemplate,
		country:     country,
		now:         now,
		loc:         loc,
	}
}

// Fetch ignores code; the provider is bound to one country.
func (p *CSSEProvider) Fetch(ctx context.Context, _ string) (series stats.Series, err error) {
	defer func(start time.Time) { observe(p.name, start, err) }(time.Now())

	now := p.now().In(p.loc)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	latest, err := p.report(ctx, day)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		day = day.AddDate(0, 0, -1)
		latest, err = p.report(ctx, day)
	}
	if err != nil {
		return nil, err
	}

	previous, err := p.report(ctx, day.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}

	return stats.NewSeries([]stats.DailyRecord{latest, previous})
}

func (p *CSSEProvider) report(ctx context.Context, day time.Time) (stats.DailyRecord, error) {
	url := strings.ReplaceAll(p.urlTemplate, "{date}", day.Format(csseDateLayout))
	body, err := p.get(ctx, url)
	if err != nil {
		return stats.DailyRecord{}, err
	}
	return parseCSSEReport(body, p.country, day)
}

// parseCSSEReport sums the rows of country. Countries split into provinces have
// several rows.
func parseCSSEReport(body []byte, country string, day time.Time) (stats.DailyRecord, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return stats.DailyRecord{}, fmt.Errorf("%w: csv header: %v", stats.ErrMalformedSource, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	idx := make(map[string]int, 4)
	for _, name := range []string{"Country_Region", "Confirmed", "Recovered", "Deaths"} {
		i, ok := cols[name]
		if !ok {
			return stats.DailyRecord{}, fmt.Errorf("%w: csv has no %s column", stats.ErrMalformedSource, name)
		}
		idx[name] = i
	}

	var (
		found              bool
		sick, healed, died int64
	)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats.DailyRecord{}, fmt.Errorf("%w: csv row: %v", stats.ErrMalformedSource, err)
		}
		if cell(row, idx["Country_Region"]) != country {
			continue
		}

		vals := make([]int64, 0, 3)
		for _, name := range []string{"Confirmed", "Recovered", "Deaths"} {
			n, err := strconv.ParseInt(cell(row, idx[name]), 10, 64)
			if err != nil {
				return stats.DailyRecord{}, fmt.Errorf("%w: %s %s: %v", stats.ErrMalformedSource, country, name, err)
			}
			vals = append(vals, n)
		}
		sick += vals[0]
		healed += vals[1]
		died += vals[2]
		found = true
	}
	if !found {
		return stats.DailyRecord{}, fmt.Errorf("%w: no rows for %s", stats.ErrMalformedSource, country)
	}

	return stats.NewDailyRecord(day, sick, healed, died)
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
