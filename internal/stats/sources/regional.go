package sources

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/i474232898/covid-stats-bot/internal/stats"
)

// RegionalProvider reads per-region statistics from the JSON API of the national
// statistics site. The API answers with a [today, yesterday] array.
type RegionalProvider struct {
	base
	baseURL string
}

func NewRegionalProvider(cfg HTTPClientConfig, baseURL string) *RegionalProvider {
	return &RegionalProvider{
		base:    newBase("regional", cfg),
		baseURL: baseURL,
	}
}

func (p *RegionalProvider) Fetch(ctx context.Context, code string) (series stats.Series, err error) {
	defer func(start time.Time) { observe(p.name, start, err) }(time.Now())

	if code == "" {
		return nil, fmt.Errorf("regional source requires a region code")
	}

	values := url.Values{}
	values.Set("do", "region_stats")
	values.Set("code", code)

	body, err := p.get(ctx, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()))
	if err != nil {
		return nil, err
	}
	return decodeDays(body)
}
