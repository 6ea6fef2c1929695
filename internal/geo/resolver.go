package geo

import (
	"context"
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/covid-stats-bot/internal/stats"
)

// Resolver finds the administrative region of a free-text place through the Google
// geocoding service: the text is geocoded to coordinates and reverse geocoded back to
// an address whose State names the region.
type Resolver struct {
	country string
	geocode func(geocoder.Address) (geocoder.Location, error)
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

// NewResolver configures the geocoder with apiKey. country narrows forward lookups.
func NewResolver(apiKey, country string) *Resolver {
	geocoder.ApiKey = apiKey
	return &Resolver{
		country: country,
		geocode: geocoder.Geocoding,
		reverse: geocoder.GeocodingReverse,
	}
}

type result struct {
	region string
	err    error
}

// ResolveRegion returns the region name for text, or stats.ErrPlaceNotFound when the
// geocoder knows no such place.
func (r *Resolver) ResolveRegion(ctx context.Context, text string) (string, error) {
	// The geocoder client takes no context; the lookup is abandoned, not cancelled.
	done := make(chan result, 1)
	go func() {
		region, err := r.lookup(text)
		done <- result{region: region, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.region, res.err
	}
}

func (r *Resolver) lookup(text string) (string, error) {
	loc, err := r.geocode(geocoder.Address{City: text, Country: r.country})
	if err != nil {
		return "", fmt.Errorf("%w: geocode %q: %v", stats.ErrPlaceNotFound, text, err)
	}

	addrs, err := r.reverse(loc)
	if err != nil {
		return "", fmt.Errorf("reverse geocode %q: %w", text, err)
	}
	for _, a := range addrs {
		if state := strings.TrimSpace(a.State); state != "" {
			return state, nil
		}
	}
	return "", fmt.Errorf("%w: no region for %q", stats.ErrPlaceNotFound, text)
}
