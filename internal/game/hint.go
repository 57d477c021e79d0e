// internal/game/hint.go
//
// Optional hints for a stuck player.
//   - Bearing: compass direction from the latest guess toward the target.
//   - Region: the boundary of the H3 cell containing the target, drawn as a
//     polygon so the player can narrow the search area.
// Every served hint bumps the session's HintsUsed counter.

package game

import (
	"errors"
	"fmt"

	"github.com/uber/h3-go/v4"

	"github.com/robalobadob/hotspot/internal/geo"
)

// DefaultHintResolution is the H3 resolution used for region hints unless
// configured otherwise. Resolution 4 cells average roughly 1,770 km², coarse
// enough to keep the game alive.
const DefaultHintResolution = 4

// ErrNoGuessYet is returned when a bearing hint is requested before any
// guess has been recorded.
var ErrNoGuessYet = errors.New("no guess yet")

// Hint is a served hint in wire-friendly form.
type Hint struct {
	Kind       string      `json:"kind"`                 // "bearing" or "region"
	Text       string      `json:"text"`                 // human-readable one-liner
	BearingDeg float64     `json:"bearingDeg,omitempty"` // bearing hints only
	Compass    string      `json:"compass,omitempty"`    // bearing hints only
	Region     []geo.Point `json:"region,omitempty"`     // region hints only
}

// BearingHint points from the latest guess toward the target.
func (s *Session) BearingHint() (Hint, error) {
	if len(s.Trail) == 0 {
		return Hint{}, ErrNoGuessYet
	}
	from := s.Trail[len(s.Trail)-1].Point
	br := geo.Bearing(from, s.Target)
	cp := geo.CompassPoint(br)
	s.HintsUsed++
	return Hint{
		Kind:       "bearing",
		Text:       fmt.Sprintf("Head %s (%.0f°) from your last guess.", cp, br),
		BearingDeg: br,
		Compass:    cp,
	}, nil
}

// RegionHint returns the boundary of the H3 cell containing the target.
// res <= 0 falls back to DefaultHintResolution.
func (s *Session) RegionHint(res int) Hint {
	if res <= 0 {
		res = DefaultHintResolution
	}
	cell := h3.LatLngToCell(h3.NewLatLng(s.Target.Lat, s.Target.Lng), res)
	boundary := h3.CellToBoundary(cell)

	region := make([]geo.Point, 0, len(boundary))
	for _, v := range boundary {
		region = append(region, geo.Point{Lat: v.Lat, Lng: v.Lng})
	}
	s.HintsUsed++
	return Hint{
		Kind:   "region",
		Text:   "The target is inside the highlighted cell.",
		Region: region,
	}
}
