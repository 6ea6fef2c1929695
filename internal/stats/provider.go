package stats

import "context"

// Source abstracts one upstream statistics source. Implementations normalize their
// payload into a Series or fail with ErrTransientFetch or ErrMalformedSource.
type Source interface {
	Name() string
	Fetch(ctx context.Context, code string) (Series, error)
}

// RegionResolver maps free text that is not in the directory to the name of the
// administrative region it belongs to, e.g. via a geocoding service.
type RegionResolver interface {
	ResolveRegion(ctx context.Context, text string) (string, error)
}

// Binding ties a fixed place name to the source serving it.
type Binding struct {
	Place  Place
	Source Source
}
