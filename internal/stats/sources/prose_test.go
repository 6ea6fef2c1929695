package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/covid-stats-bot/internal/stats"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return body
}

func TestProseProvider_Fetch(t *testing.T) {
	srv := serveFile(t, "prose_report.html")
	now := time.Date(2020, 10, 15, 9, 0, 0, 0, time.UTC)
	p := NewProseProvider(testHTTPConfig(srv.Client()), srv.URL, clock(now), time.UTC)

	s, err := p.Fetch(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, s, 3)
	assert.Equal(t, stats.Series{
		{Date: date(2020, 10, 14), Sick: 1085961, Healed: 1076454, Died: 7893},
		{Date: date(2020, 10, 13), Sick: 85360, Healed: 75933, Died: 887},
		{Date: date(2020, 10, 12), Sick: 84775, Healed: 75397, Died: 881},
	}, s)
	assert.Equal(t, "prose", p.Name())
}

func TestParseProse_MissingQuantity(t *testing.T) {
	now := time.Date(2020, 10, 15, 9, 0, 0, 0, time.UTC)

	var err error
	require.NotPanics(t, func() {
		_, err = parseProse(readFixture(t, "prose_missing_deaths.html"), now)
	})
	assert.ErrorIs(t, err, stats.ErrMalformedSource)
	assert.Contains(t, err.Error(), "14 October")
}

func TestParseProse_HeadingsSharingOneBlock(t *testing.T) {
	now := time.Date(2020, 10, 15, 9, 0, 0, 0, time.UTC)

	s, err := parseProse(readFixture(t, "prose_shared_block.html"), now)
	require.NoError(t, err)

	assert.Equal(t, stats.Series{
		{Date: date(2020, 10, 14), Sick: 85961, Healed: 76454, Died: 893},
		{Date: date(2020, 10, 13), Sick: 85360, Healed: 75933, Died: 887},
		{Date: date(2020, 10, 12), Sick: 84775, Healed: 75397, Died: 881},
	}, s)
}

func TestParseProse_SharedBlockDoesNotBorrowCounts(t *testing.T) {
	now := time.Date(2020, 10, 15, 9, 0, 0, 0, time.UTC)
	body := []byte(`<div><b>12 October</b> 84,775 confirmed cases, 75,397 recoveries and 881 deaths.<br>` +
		`<b>13 October</b> 85,360 confirmed cases and 75,933 recoveries.</div>`)

	_, err := parseProse(body, now)
	assert.ErrorIs(t, err, stats.ErrMalformedSource)
	assert.Contains(t, err.Error(), "13 October")
}

func TestParseProse_NoHeadings(t *testing.T) {
	s, err := parseProse([]byte(`<p><b>Belarus</b> reported no data.</p>`), time.Now())
	require.NoError(t, err)
	assert.Empty(t, s)
	assert.False(t, s.Ready())
}

func TestParseProse_YearBoundary(t *testing.T) {
	now := time.Date(2021, 1, 2, 9, 0, 0, 0, time.UTC)

	s, err := parseProse(readFixture(t, "prose_year_boundary.html"), now)
	require.NoError(t, err)

	require.Len(t, s, 3)
	assert.Equal(t, date(2021, 1, 1), s[0].Date)
	assert.Equal(t, date(2020, 12, 31), s[1].Date)
	assert.Equal(t, date(2020, 12, 30), s[2].Date)
	assert.Equal(t, int64(192000), s[0].Sick)
}

func TestHeadingDate(t *testing.T) {
	now := time.Date(2021, 3, 10, 23, 0, 0, 0, time.UTC)

	d, err := headingDate("9 March", now)
	require.NoError(t, err)
	assert.Equal(t, date(2021, 3, 9), d)

	d, err = headingDate("10 March", now)
	require.NoError(t, err)
	assert.Equal(t, date(2021, 3, 10), d)

	d, err = headingDate("11 March", now)
	require.NoError(t, err)
	assert.Equal(t, date(2020, 3, 11), d)

	_, err = headingDate("31 February", now)
	assert.ErrorIs(t, err, stats.ErrMalformedSource)
}

func TestMatchInt(t *testing.T) {
	n, ok := matchInt(confirmedRe, "there were 12,345 confirmed cases so far")
	assert.True(t, ok)
	assert.Equal(t, int64(12345), n)

	n, ok = matchInt(deathsRe, "and 7 deaths")
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)

	_, ok = matchInt(recoveriesRe, "no recoveries were reported")
	assert.False(t, ok)
}
