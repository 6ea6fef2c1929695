package stats

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the day format used by the upstream sources and in replies.
const DateLayout = "02.01.2006"

var (
	// ErrTransientFetch is returned when an upstream source answered with a non-200
	// status or could not be reached at all.
	ErrTransientFetch = errors.New("source fetch failed")
	// ErrMalformedSource is returned when a source answered 200 but the payload did not
	// have the expected shape.
	ErrMalformedSource = errors.New("malformed source data")
	// ErrPlaceNotFound is returned when a query matches no known place.
	ErrPlaceNotFound = errors.New("place not found")
	// ErrInsufficientData is returned when fewer than two daily records are available.
	ErrInsufficientData = errors.New("not enough daily records")
)

var validate = validator.New()

// DailyRecord holds cumulative counts as of Date.
type DailyRecord struct {
	Date   time.Time `json:"date"`
	Sick   int64     `json:"sick" validate:"gte=0"`
	Healed int64     `json:"healed" validate:"gte=0"`
	Died   int64     `json:"died" validate:"gte=0"`
}

// NewDailyRecord builds a validated record. Any invalid field is reported as
// ErrMalformedSource.
func NewDailyRecord(date time.Time, sick, healed, died int64) (DailyRecord, error) {
	r := DailyRecord{Date: date, Sick: sick, Healed: healed, Died: died}
	if date.IsZero() {
		return DailyRecord{}, fmt.Errorf("%w: record without date", ErrMalformedSource)
	}
	if err := validate.Struct(r); err != nil {
		return DailyRecord{}, fmt.Errorf("%w: %v", ErrMalformedSource, err)
	}
	return r, nil
}

// Series is a list of daily records ordered by date descending; index 0 is the most
// recent day.
type Series []DailyRecord

// NewSeries orders records most-recent-first. Two records for the same day make the
// series malformed.
func NewSeries(records []DailyRecord) (Series, error) {
	s := make(Series, len(records))
	copy(s, records)
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Date.After(s[j].Date)
	})
	for i := 1; i < len(s); i++ {
		if s[i].Date.Equal(s[i-1].Date) {
			return nil, fmt.Errorf("%w: duplicate record for %s", ErrMalformedSource, s[i].Date.Format(DateLayout))
		}
	}
	return s, nil
}

// Ready reports whether the series holds enough days to compute deltas.
func (s Series) Ready() bool {
	return len(s) >= 2
}

// Place is a resolved place a reply can be rendered for.
type Place struct {
	// Name is the display name, already in the grammatical form used in replies.
	Name string `json:"name"`
	// Code is the source-specific region code.
	Code string `json:"code,omitempty"`
	// Qualified places are rendered with a "region" word before the name.
	Qualified bool `json:"qualified"`
}
