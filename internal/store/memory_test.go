package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_LatestAndRange(t *testing.T) {
	s := NewMemoryStore(10, 0)
	base := time.Date(2021, 1, 2, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		s.Save(ProbeResult{Source: "regional", Timestamp: base.Add(time.Duration(i) * time.Minute), OK: i != 1})
	}

	latest, err := s.Latest("regional")
	require.NoError(t, err)
	assert.Equal(t, base.Add(2*time.Minute), latest.Timestamp)

	got, err := s.Range("regional", base.Add(time.Minute), base.Add(2*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.False(t, got[0].OK)
	assert.True(t, got[1].OK)

	_, err = s.Range("regional", base.Add(time.Hour), base.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UnknownSource(t *testing.T) {
	s := NewMemoryStore(0, 0)

	_, err := s.Latest("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, s.LatestAll())
}

func TestMemoryStore_RetentionByCount(t *testing.T) {
	s := NewMemoryStore(2, 0)
	base := time.Date(2021, 1, 2, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		s.Save(ProbeResult{Source: "prose", Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}

	got, err := s.Range("prose", base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, base.Add(3*time.Minute), got[0].Timestamp)
}

func TestMemoryStore_RetentionByAge(t *testing.T) {
	now := time.Date(2021, 1, 2, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(0, time.Hour)
	s.now = func() time.Time { return now }

	s.Save(ProbeResult{Source: "csse", Timestamp: now.Add(-3 * time.Hour)})
	s.Save(ProbeResult{Source: "csse", Timestamp: now.Add(-2 * time.Hour)})
	s.Save(ProbeResult{Source: "csse", Timestamp: now.Add(-10 * time.Minute)})

	got, err := s.Range("csse", now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, now.Add(-10*time.Minute), got[0].Timestamp)
}

func TestMemoryStore_LatestAllSorted(t *testing.T) {
	s := NewMemoryStore(0, 0)
	ts := time.Date(2021, 1, 2, 10, 0, 0, 0, time.UTC)

	s.Save(ProbeResult{Source: "regional", Timestamp: ts})
	s.Save(ProbeResult{Source: "embedded", Timestamp: ts})
	s.Save(ProbeResult{Source: "prose", Timestamp: ts})

	all := s.LatestAll()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"embedded", "prose", "regional"}, []string{all[0].Source, all[1].Source, all[2].Source})
}
