// internal/places/places.go
//
// Named-place catalog backing target selection and reveal flavor.
//
// Responsibilities:
//   - Load the catalog from a configured file or fall back to the embedded
//     default list.
//   - Random: pick a target place with crypto randomness.
//   - Nearest: answer "what named place is this coordinate near" from an
//     R-tree over the catalog.
//   - RandomNear: jitter a point inside a spherical cap for roam mode.
//
// Catalog format:
//   one place per line: name,lat,lng   (blank lines and # comments skipped;
//   malformed or out-of-range lines are dropped)
//
// Initialization behavior (Init):
//   1. If a path is given, load the catalog from that file.
//   2. Otherwise use the embedded default from assets/places.txt.
//   Initialization is run once (sync.Once).

package places

import (
	"bufio"
	"crypto/rand"
	"errors"
	"math/big"
	mrand "math/rand"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/robalobadob/hotspot/assets"
	"github.com/robalobadob/hotspot/internal/geo"
)

// Place is one named catalog entry.
type Place struct {
	Name string
	Pt   geo.Point
}

var tol = 0.0001

// Bounds implements rtreego.Spatial: a tiny rect centered on the place.
func (p *Place) Bounds() rtreego.Rect {
	return rtreego.Point{p.Pt.Lat, p.Pt.Lng}.ToRect(tol)
}

var (
	initOnce   sync.Once
	catalog    []Place
	tree       *rtreego.Rtree
	initialErr error
)

// Init loads the place catalog exactly once. An empty path means the
// embedded default catalog. Returns an error if the catalog ends up empty.
func Init(path string) error {
	initOnce.Do(func() {
		var lines []string
		var err error
		if path != "" {
			lines, err = readLinesFile(path)
		} else {
			lines, err = assets.PlaceLines()
		}
		if err != nil {
			initialErr = err
			return
		}

		catalog = parsePlaces(lines)
		if len(catalog) == 0 {
			initialErr = errors.New("places: catalog is empty")
			return
		}

		tree = rtreego.NewTree(2, 25, 50) // 2 dimensions, 25 min / 50 max entries
		for i := range catalog {
			tree.Insert(&catalog[i])
		}
	})
	return initialErr
}

// readLinesFile loads raw catalog lines from a file, skipping blanks and
// # comments.
func readLinesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// parsePlaces turns "name,lat,lng" lines into catalog entries, dropping
// anything malformed or out of range.
func parsePlaces(lines []string) []Place {
	out := make([]Place, 0, len(lines))
	for _, line := range lines {
		parts := strings.Split(line, ",")
		if len(parts) != 3 {
			continue
		}
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if errLat != nil || errLng != nil {
			continue
		}
		p := geo.Point{Lat: lat, Lng: lng}
		if !geo.Valid(p) {
			continue
		}
		name := strings.TrimSpace(parts[0])
		if name == "" {
			continue
		}
		out = append(out, Place{Name: name, Pt: p})
	}
	return out
}

// Random returns a cryptographically random catalog place.
// If the catalog is not loaded yet or empty, falls back to Tel Aviv.
func Random() Place {
	if len(catalog) == 0 {
		return Place{Name: "Tel Aviv", Pt: geo.Point{Lat: 32.08, Lng: 34.78}}
	}
	nBig, _ := rand.Int(rand.Reader, big.NewInt(int64(len(catalog))))
	return catalog[nBig.Int64()]
}

// At returns the catalog entry at index i modulo the catalog size.
// Catalog order is file order, so indices are stable across restarts.
func At(i int) Place {
	if len(catalog) == 0 {
		return Random() // fallback place
	}
	if i < 0 {
		i = -i
	}
	return catalog[i%len(catalog)]
}

// Count returns the number of loaded places.
func Count() int { return len(catalog) }

// Nearest returns the catalog place closest to p and its distance in meters.
// The R-tree works on raw degrees; at city-catalog densities the planar
// approximation picks the same place the great circle would.
func Nearest(p geo.Point) (Place, float64, error) {
	if tree == nil {
		return Place{}, 0, errors.New("places: not initialized")
	}
	sp := tree.NearestNeighbor(rtreego.Point{p.Lat, p.Lng})
	pl, ok := sp.(*Place)
	if !ok || pl == nil {
		return Place{}, 0, errors.New("places: index is empty")
	}
	return *pl, geo.Distance(p, pl.Pt), nil
}

// RandomNear returns a point within radiusM of seed, sampled uniformly over
// the spherical cap by rejection. Falls back to the seed itself if sampling
// keeps missing, which only happens for degenerate radii.
func RandomNear(seed geo.Point, radiusM float64) geo.Point {
	if radiusM <= 0 {
		return seed
	}
	center := s2.PointFromLatLng(s2.LatLngFromDegrees(seed.Lat, seed.Lng))
	cap := s2.CapFromCenterAngle(center, s1.Angle(radiusM/geo.EarthRadiusM))
	rect := cap.RectBound()

	for i := 0; i < 64; i++ {
		lat := rect.Lat.Lo + mrand.Float64()*(rect.Lat.Hi-rect.Lat.Lo)
		lng := rect.Lng.Lo + mrand.Float64()*rect.Lng.Length()
		ll := s2.LatLng{Lat: s1.Angle(lat), Lng: s1.Angle(lng)}.Normalized()
		if cap.ContainsPoint(s2.PointFromLatLng(ll)) {
			return geo.Point{Lat: ll.Lat.Degrees(), Lng: ll.Lng.Degrees()}
		}
	}
	return seed
}
