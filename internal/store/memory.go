package store

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no probe results are available for a source.
	ErrNotFound = errors.New("no probe results for source")
)

// ProbeResult is the outcome of one scheduled health probe of an upstream source.
type ProbeResult struct {
	Source     string    `json:"source"`
	Timestamp  time.Time `json:"timestamp"` // always UTC
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	Records    int       `json:"records"`
	LatestDate string    `json:"latestDate,omitempty"`
	Duration   string    `json:"duration"`
}

// ProbeHistory holds a time-ordered list of probe results for a source.
type ProbeHistory struct {
	Results []ProbeResult
}

// MemoryStore is a concurrency-safe in-memory store of probe results.
type MemoryStore struct {
	mu sync.RWMutex

	// key: source name
	data map[string]*ProbeHistory

	maxHistory int
	maxAge     time.Duration
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*ProbeHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Save appends a probe result and enforces retention.
func (s *MemoryStore) Save(result ProbeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[result.Source]
	if !ok {
		history = &ProbeHistory{}
		s.data[result.Source] = history
	}

	history.Results = append(history.Results, result)

	if s.maxHistory > 0 && len(history.Results) > s.maxHistory {
		over := len(history.Results) - s.maxHistory
		history.Results = history.Results[over:]
	}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Results); i++ {
			if !history.Results[i].Timestamp.Before(cutoff) {
				break
			}
		}
		history.Results = history.Results[i:]
	}
}

// Latest returns the most recent probe result of a source.
func (s *MemoryStore) Latest(source string) (ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[source]
	if !ok || len(history.Results) == 0 {
		return ProbeResult{}, ErrNotFound
	}
	return history.Results[len(history.Results)-1], nil
}

// LatestAll returns the most recent result of every probed source, sorted by name.
func (s *MemoryStore) LatestAll() []ProbeResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ProbeResult, 0, len(s.data))
	for _, history := range s.data {
		if len(history.Results) > 0 {
			out = append(out, history.Results[len(history.Results)-1])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// Range returns all results of a source between from and to (inclusive).
func (s *MemoryStore) Range(source string, from, to time.Time) ([]ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[source]
	if !ok || len(history.Results) == 0 {
		return nil, ErrNotFound
	}

	var result []ProbeResult
	for _, r := range history.Results {
		if !r.Timestamp.Before(from) && !r.Timestamp.After(to) {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
