package sources

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"golang.org/x/net/html"

	"github.com/i474232898/covid-stats-bot/internal/common"
	"github.com/i474232898/covid-stats-bot/internal/stats"
)

// maxProseDays is how many of the most recent daily paragraphs are read.
const maxProseDays = 3

var (
	headingRe = regexp.MustCompile(`^\d{1,2} (January|February|March|April|May|June|July|August|September|October|November|December)$`)

	confirmedRe  = regexp.MustCompile(`(\d[\d,]*)[\s\p{Zs}]+confirmed cases`)
	recoveriesRe = regexp.MustCompile(`(\d[\d,]*)[\s\p{Zs}]+recoveries`)
	deathsRe     = regexp.MustCompile(`(\d[\d,]*)[\s\p{Zs}]+deaths`)
)

// ProseProvider scrapes a wiki article that reports one paragraph per day, each
// opened by a bold "<day> <month>" heading and stating the cumulative numbers of
// confirmed cases, recoveries and deaths in prose.
//
// The article always lags one day behind, so it never has data for today.
type ProseProvider struct {
	base
	pageURL string
	now     func() time.Time
	loc     *time.Location
}

func NewProseProvider(cfg HTTPClientConfig, pageURL string, now func() time.Time, loc *time.Location) *ProseProvider {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &ProseProvider{
		base:    newBase("prose", cfg),
		pageURL: pageURL,
		now:     now,
		loc:     loc,
	}
}

// Fetch ignores code; the article covers a single country.
func (p *ProseProvider) Fetch(ctx context.Context, _ string) (series stats.Series, err error) {
	defer func(start time.Time) { observe(p.name, start, err) }(time.Now())

	body, err := p.get(ctx, p.pageURL)
	if err != nil {
		return nil, err
	}
	return parseProse(body, p.now().In(p.loc))
}

func parseProse(body []byte, now time.Time) (stats.Series, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stats.ErrMalformedSource, err)
	}

	var headings []*html.Node
	isHeading := make(map[*html.Node]bool)
	for _, b := range findAll(doc, "b", nil) {
		if headingRe.MatchString(textContent(b)) {
			headings = append(headings, b)
			isHeading[b] = true
		}
	}
	nextHeading := func(n *html.Node) bool { return isHeading[n] }

	records := make([]stats.DailyRecord, 0, maxProseDays)
	for i := len(headings) - 1; i >= 0 && len(records) < maxProseDays; i-- {
		r, err := proseRecord(headings[i], nextHeading, now)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return stats.NewSeries(records)
}

// proseRecord reads the counts reported between heading and the next heading in the
// same block, so days sharing one container never borrow each other's numbers.
func proseRecord(heading *html.Node, nextHeading func(*html.Node) bool, now time.Time) (stats.DailyRecord, error) {
	label := textContent(heading)
	date, err := headingDate(label, now)
	if err != nil {
		return stats.DailyRecord{}, err
	}

	text := entryText(enclosingBlock(heading), heading, nextHeading)
	sick, ok := matchInt(confirmedRe, text)
	if !ok {
		return stats.DailyRecord{}, fmt.Errorf("%w: %s: no confirmed cases", stats.ErrMalformedSource, label)
	}
	healed, ok := matchInt(recoveriesRe, text)
	if !ok {
		return stats.DailyRecord{}, fmt.Errorf("%w: %s: no recoveries", stats.ErrMalformedSource, label)
	}
	died, ok := matchInt(deathsRe, text)
	if !ok {
		return stats.DailyRecord{}, fmt.Errorf("%w: %s: no deaths", stats.ErrMalformedSource, label)
	}

	return stats.NewDailyRecord(date, sick, healed, died)
}

// headingDate dates a "<day> <month>" heading. Headings carry no year: the current
// one is assumed unless that puts the day in the future, in which case the heading
// belongs to the previous year.
func headingDate(label string, now time.Time) (time.Time, error) {
	date, err := time.Parse("2 January 2006", fmt.Sprintf("%s %d", label, now.Year()))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date heading %q", stats.ErrMalformedSource, label)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.After(today) {
		date = date.AddDate(-1, 0, 0)
	}
	return date, nil
}

// matchInt applies re and parses its first group. ok is false when the pattern does
// not occur.
func matchInt(re *regexp.Regexp, text string) (int64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(common.StripThousands(m[1]), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
