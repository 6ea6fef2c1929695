package stats

import "fmt"

// Metric is one counter of a summary: the latest cumulative value and its change
// against the previous day.
type Metric struct {
	Value int64 `json:"value"`
	Delta int64 `json:"delta"`
}

// Summary is the delta view of a series.
type Summary struct {
	Sick   Metric `json:"sick"`
	Healed Metric `json:"healed"`
	Died   Metric `json:"died"`
}

// Deltas compares the two most recent records of a series. Downward revisions
// produce negative deltas; nothing is clamped.
func Deltas(s Series) (Summary, error) {
	if !s.Ready() {
		return Summary{}, fmt.Errorf("%w: got %d", ErrInsufficientData, len(s))
	}

	today, yesterday := s[0], s[1]

	return Summary{
		Sick:   Metric{Value: today.Sick, Delta: today.Sick - yesterday.Sick},
		Healed: Metric{Value: today.Healed, Delta: today.Healed - yesterday.Healed},
		Died:   Metric{Value: today.Died, Delta: today.Died - yesterday.Died},
	}, nil
}
