// internal/game/target.go
//
// Target replacement for a running session.
// SetTarget swaps the hidden coordinate and discards everything derived from
// the old one (previous distance, trail, found flag, cached feedback), so
// the next guess is judged as a first guess. Bad coordinates are rejected
// with a typed error rather than silently ignored.

package game

import (
	"encoding/json"
	"fmt"

	"github.com/robalobadob/hotspot/internal/geo"
)

// RecenterMode says what the camera should do after a target change.
type RecenterMode int

const (
	RecenterNone   RecenterMode = iota // leave the camera alone
	RecenterOffset                     // target plus the session's start offset
	RecenterCenter                     // dead-center on the new target
)

// UnmarshalJSON accepts the loose wire forms: boolean true (offset
// recenter), the string "center", or the string "offset". false and null
// mean no recentering.
func (m *RecenterMode) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*m = RecenterNone
	case bool:
		if t {
			*m = RecenterOffset
		} else {
			*m = RecenterNone
		}
	case string:
		switch t {
		case "center":
			*m = RecenterCenter
		case "offset":
			*m = RecenterOffset
		case "", "none":
			*m = RecenterNone
		default:
			return fmt.Errorf("unknown recenter mode %q", t)
		}
	default:
		return fmt.Errorf("recenter must be a bool or string, got %T", v)
	}
	return nil
}

// TargetOptions tunes the side effects of SetTarget.
type TargetOptions struct {
	Recenter RecenterMode // camera behavior after the swap
	Zoom     int          // new zoom level; 0 keeps the current one
	Debug    bool         // ask the renderer to mark the new target
}

// SetTarget replaces the session's hidden coordinate.
// On success all feedback history is gone: the previous distance, the trail,
// the found flag and the cached last feedback. Returns ErrBadCoordinate
// (wrapped with the offending values) when lat/lng are not a usable
// coordinate; the session is untouched in that case.
func (s *Session) SetTarget(lat, lng float64, opts TargetOptions) error {
	p := geo.Point{Lat: lat, Lng: lng}
	if !geo.Valid(p) {
		return fmt.Errorf("%w: lat=%v lng=%v", ErrBadCoordinate, lat, lng)
	}

	s.Target = p
	s.PrevDistanceM = 0
	s.HasPrev = false
	s.Trail = nil
	s.Found = false
	s.lastFeedback = nil
	if opts.Zoom != 0 {
		s.Zoom = opts.Zoom
	}
	return nil
}
