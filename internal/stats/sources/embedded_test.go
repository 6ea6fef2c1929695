package sources

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/covid-stats-bot/internal/stats"
)

func TestEmbeddedProvider_Fetch(t *testing.T) {
	srv := serveFile(t, "information.html")
	p := NewEmbeddedProvider(testHTTPConfig(srv.Client()), srv.URL)

	s, err := p.Fetch(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, s, 2)

	assert.Equal(t, stats.DailyRecord{Date: date(2021, 1, 2), Sick: 100, Healed: 80, Died: 5}, s[0])
	assert.Equal(t, stats.DailyRecord{Date: date(2021, 1, 1), Sick: 90, Healed: 70, Died: 4}, s[1])
}

func TestEmbeddedProvider_MissingMarker(t *testing.T) {
	srv := serveFile(t, "information_no_marker.html")
	p := NewEmbeddedProvider(testHTTPConfig(srv.Client()), srv.URL)

	var (
		s   stats.Series
		err error
	)
	require.NotPanics(t, func() {
		s, err = p.Fetch(context.Background(), "")
	})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, stats.ErrMalformedSource)
	assert.NotErrorIs(t, err, stats.ErrTransientFetch)
}

func TestParseChartsData_Malformed(t *testing.T) {
	cases := map[string]string{
		"no attribute": `<cv-stats-virus :stats-data='{}'></cv-stats-virus>`,
		"empty":        `<cv-stats-virus :charts-data=''></cv-stats-virus>`,
		"broken json":  `<cv-stats-virus :charts-data='[{"sick":'></cv-stats-virus>`,
	}
	for name, page := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseChartsData([]byte(page))
			assert.ErrorIs(t, err, stats.ErrMalformedSource)
		})
	}
}

func TestEmbeddedProvider_ServiceUnavailable(t *testing.T) {
	srv := serveStatus(t, http.StatusServiceUnavailable)
	p := NewEmbeddedProvider(testHTTPConfig(srv.Client()), srv.URL)

	_, err := p.Fetch(context.Background(), "")
	assert.ErrorIs(t, err, stats.ErrTransientFetch)
}
