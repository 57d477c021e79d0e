package daily_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/robalobadob/hotspot/internal/daily"
)

func TestDateKey(t *testing.T) {
	utc := time.Date(2025, 6, 3, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-06-03", daily.DateKey(utc))

	// local times collapse onto the UTC date
	est := time.FixedZone("EST", -5*3600)
	late := time.Date(2025, 6, 3, 22, 0, 0, 0, est) // 03:00 UTC next day
	assert.Equal(t, "2025-06-04", daily.DateKey(late))
}

func TestPlaceIndex(t *testing.T) {
	date := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)

	t.Run("deterministic for a date and salt", func(t *testing.T) {
		first := daily.PlaceIndex(date, "salt-a", 75)
		for i := 0; i < 100; i++ {
			assert.Equal(t, first, daily.PlaceIndex(date, "salt-a", 75))
		}
		// the hour of day does not matter
		later := date.Add(23 * time.Hour)
		assert.Equal(t, first, daily.PlaceIndex(later, "salt-a", 75))
	})

	t.Run("always in range", func(t *testing.T) {
		for d := 0; d < 365; d++ {
			idx := daily.PlaceIndex(date.AddDate(0, 0, d), "salt-a", 75)
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, 75)
		}
	})

	t.Run("dates spread over the catalog", func(t *testing.T) {
		seen := map[int]bool{}
		for d := 0; d < 30; d++ {
			seen[daily.PlaceIndex(date.AddDate(0, 0, d), "salt-a", 75)] = true
		}
		assert.Greater(t, len(seen), 5)
	})

	t.Run("salt changes the schedule", func(t *testing.T) {
		diff := 0
		for d := 0; d < 30; d++ {
			day := date.AddDate(0, 0, d)
			if daily.PlaceIndex(day, "salt-a", 75) != daily.PlaceIndex(day, "salt-b", 75) {
				diff++
			}
		}
		assert.Greater(t, diff, 0)
	})

	t.Run("degenerate catalog size", func(t *testing.T) {
		assert.Equal(t, 0, daily.PlaceIndex(date, "salt-a", 0))
		assert.Equal(t, 0, daily.PlaceIndex(date, "salt-a", -4))
		assert.Equal(t, 0, daily.PlaceIndex(date, "salt-a", 1))
	})
}
