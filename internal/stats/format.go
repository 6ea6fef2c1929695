package stats

import (
	"fmt"
	"strings"
	"time"
)

// Formatter renders a series as a chat message.
type Formatter struct {
	now func() time.Time
	loc *time.Location
}

// NewFormatter creates a Formatter. Dates are compared in loc; a nil loc means
// time.Local and a nil now means time.Now.
func NewFormatter(now func() time.Time, loc *time.Location) *Formatter {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{now: now, loc: loc}
}

// Format builds the delta message for place from the two most recent records and
// returns the summary it was rendered from.
func (f *Formatter) Format(s Series, place Place) (string, Summary, error) {
	summary, err := Deltas(s)
	if err != nil {
		return "", Summary{}, err
	}

	latest := s[0].Date
	lastDate := latest.Format(DateLayout)
	target := placePhrase(place)

	var b strings.Builder
	if sameDay(latest, f.now().In(f.loc)) {
		fmt.Fprintf(&b, "<b>Данные на сегодня (%s) по %s</b>:\n", lastDate, target)
	} else {
		b.WriteString("<b>На сегодня данных еще нет!</b>\n")
		fmt.Fprintf(&b, "Последние данные по %s <b>на %s</b>:\n", target, lastDate)
	}

	fmt.Fprintf(&b, "Заболевших: %d (%s)\n", summary.Sick.Value, signed(summary.Sick.Delta))
	fmt.Fprintf(&b, "Выздоровевших: %d (%s)\n", summary.Healed.Value, signed(summary.Healed.Delta))
	fmt.Fprintf(&b, "Погибших: %d (%s)\n", summary.Died.Value, signed(summary.Died.Delta))

	return b.String(), summary, nil
}

func placePhrase(p Place) string {
	if p.Qualified {
		return "региону " + p.Name
	}
	return p.Name
}

// signed prefixes non-negative deltas with "+"; negative ones keep their minus.
func signed(d int64) string {
	if d < 0 {
		return fmt.Sprintf("%d", d)
	}
	return fmt.Sprintf("+%d", d)
}

// sameDay compares calendar dates. Record dates carry no time of day, so only their
// year, month and day fields are significant.
func sameDay(recordDate, now time.Time) bool {
	y1, m1, d1 := recordDate.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
