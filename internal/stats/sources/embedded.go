package sources

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"golang.org/x/net/html"

	"github.com/i474232898/covid-stats-bot/internal/stats"
)

const (
	chartsMarker = "cv-stats-virus"
	chartsAttr   = ":charts-data"
)

// EmbeddedProvider reads national statistics from the information page of the
// statistics site, where the [today, yesterday] array is embedded as JSON in an
// attribute of a custom element.
type EmbeddedProvider struct {
	base
	pageURL string
}

func NewEmbeddedProvider(cfg HTTPClientConfig, pageURL string) *EmbeddedProvider {
	return &EmbeddedProvider{
		base:    newBase("embedded", cfg),
		pageURL: pageURL,
	}
}

// Fetch ignores code; the page covers a single country.
func (p *EmbeddedProvider) Fetch(ctx context.Context, _ string) (series stats.Series, err error) {
	defer func(start time.Time) { observe(p.name, start, err) }(time.Now())

	body, err := p.get(ctx, p.pageURL)
	if err != nil {
		return nil, err
	}
	return parseChartsData(body)
}

func parseChartsData(body []byte) (stats.Series, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stats.ErrMalformedSource, err)
	}

	marker := findElement(doc, chartsMarker)
	if marker == nil {
		return nil, fmt.Errorf("%w: no <%s> element", stats.ErrMalformedSource, chartsMarker)
	}
	data, ok := getAttr(marker, chartsAttr)
	if !ok || data == "" {
		return nil, fmt.Errorf("%w: <%s> has no %s attribute", stats.ErrMalformedSource, chartsMarker, chartsAttr)
	}
	return decodeDays([]byte(data))
}
