package places_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/hotspot/internal/geo"
	"github.com/robalobadob/hotspot/internal/places"
)

func TestInit(t *testing.T) {
	require.NoError(t, places.Init(""))
	assert.Greater(t, places.Count(), 50)
}

func TestRandom(t *testing.T) {
	require.NoError(t, places.Init(""))

	seen := map[string]bool{}
	for i := 0; i < 30; i++ {
		p := places.Random()
		assert.NotEmpty(t, p.Name)
		assert.True(t, geo.Valid(p.Pt))
		seen[p.Name] = true
	}
	assert.Greater(t, len(seen), 1, "thirty draws should not all match")
}

func TestAt(t *testing.T) {
	require.NoError(t, places.Init(""))

	n := places.Count()
	first := places.At(0)
	assert.Equal(t, "Haifa", first.Name) // catalog order is file order

	// wraps modulo the size; negatives fold over
	assert.Equal(t, first, places.At(n))
	assert.Equal(t, places.At(3), places.At(-3))
}

func TestNearest(t *testing.T) {
	require.NoError(t, places.Init(""))

	t.Run("finds the city next door", func(t *testing.T) {
		pl, dist, err := places.Nearest(geo.Point{Lat: 48.86, Lng: 2.3})
		require.NoError(t, err)
		assert.Equal(t, "Paris", pl.Name)
		assert.Less(t, dist, 50_000.0)
	})

	t.Run("resolves the default play area", func(t *testing.T) {
		pl, dist, err := places.Nearest(geo.Point{Lat: 32.71, Lng: 35.11})
		require.NoError(t, err)
		assert.Equal(t, "Haifa", pl.Name)
		assert.Less(t, dist, 30_000.0)
	})

	t.Run("always answers something", func(t *testing.T) {
		pl, _, err := places.Nearest(geo.Point{Lat: -48, Lng: -120}) // open Pacific
		require.NoError(t, err)
		assert.NotEmpty(t, pl.Name)
	})
}

func TestRandomNear(t *testing.T) {
	require.NoError(t, places.Init(""))
	seed := geo.Point{Lat: 48.85, Lng: 2.35}

	t.Run("stays inside the cap", func(t *testing.T) {
		const radius = 5_000.0
		for i := 0; i < 100; i++ {
			p := places.RandomNear(seed, radius)
			require.True(t, geo.Valid(p))
			assert.LessOrEqual(t, geo.Distance(seed, p), radius*1.000001)
		}
	})

	t.Run("spreads out", func(t *testing.T) {
		seen := map[geo.Point]bool{}
		for i := 0; i < 20; i++ {
			seen[places.RandomNear(seed, 10_000)] = true
		}
		assert.Greater(t, len(seen), 1)
	})

	t.Run("degenerate radius returns the seed", func(t *testing.T) {
		assert.Equal(t, seed, places.RandomNear(seed, 0))
		assert.Equal(t, seed, places.RandomNear(seed, -10))
	})
}
