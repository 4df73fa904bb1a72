package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInterval(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		iv, err := NewInterval(start, start.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 2*time.Hour, iv.Duration())
	})

	t.Run("zero duration", func(t *testing.T) {
		_, err := NewInterval(start, start)
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := NewInterval(start, start.Add(-time.Minute))
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})

	t.Run("zero times", func(t *testing.T) {
		_, err := NewInterval(time.Time{}, start)
		assert.ErrorIs(t, err, ErrInvalidInterval)

		_, err = NewInterval(start, time.Time{})
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})
}

func TestIntervalOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	mk := func(startOffset, endOffset time.Duration) Interval {
		iv, err := NewInterval(base.Add(startOffset), base.Add(endOffset))
		if err != nil {
			t.Fatalf("bad interval in test setup: %v", err)
		}
		return iv
	}

	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", mk(0, time.Hour), mk(0, time.Hour), true},
		{"partial overlap", mk(0, 2*time.Hour), mk(time.Hour, 3*time.Hour), true},
		{"contained", mk(0, 4*time.Hour), mk(time.Hour, 2*time.Hour), true},
		{"touching end to start", mk(0, time.Hour), mk(time.Hour, 2*time.Hour), false},
		{"touching start to end", mk(time.Hour, 2*time.Hour), mk(0, time.Hour), false},
		{"disjoint", mk(0, time.Hour), mk(2*time.Hour, 3*time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			// Overlap is symmetric.
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestIntervalOverlapsDifferentZones(t *testing.T) {
	// Same instant expressed in different zones must compare equal.
	utc := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	offset := time.FixedZone("UTC-3", -3*60*60)

	a, err := NewInterval(utc, utc.Add(time.Hour))
	require.NoError(t, err)
	b, err := NewInterval(utc.Add(time.Hour).In(offset), utc.Add(2*time.Hour).In(offset))
	require.NoError(t, err)

	assert.False(t, a.Overlaps(b))

	c, err := NewInterval(utc.Add(30*time.Minute).In(offset), utc.Add(90*time.Minute).In(offset))
	require.NoError(t, err)
	assert.True(t, a.Overlaps(c))
}
