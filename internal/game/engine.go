// internal/game/engine.go
//
// Core engine for a single hot/cold session.
// Responsibilities:
//   - Create sessions with a hidden target and a randomized starting camera.
//   - Evaluate guesses: distance, heat, thermal label, reveal.
//   - Keep the one-step distance memory that drives Warmer/Colder.
//   - Suppress double-fired guesses (same spot, within the debounce window).
//
// Notes:
//   - The engine is pure state + math; it does no I/O and never logs.
//   - Label precedence: FOUND beats everything; first guesses get the
//     three-tier heat label; later guesses compare against the previous
//     distance with a small tolerance band reading "Same".
//   - The previous distance is updated only after the label is chosen, so a
//     guess is always judged against the guess before it.

package game

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math"
	mrand "math/rand"
	"time"

	"github.com/robalobadob/hotspot/internal/geo"
)

const (
	// DefaultZoom is the starting map zoom for new sessions.
	DefaultZoom = 7

	// Maximum magnitude of the per-session starting camera offset.
	offsetMaxLat = 0.6
	offsetMaxLng = 1.2

	// First-guess tier cutoffs on heat.
	veryHotHeat = 0.72
	warmHeat    = 0.36
)

// ErrBadCoordinate is returned for non-finite or out-of-range coordinates.
var ErrBadCoordinate = errors.New("bad coordinate")

// New constructs a session around the given target.
// The starting camera is the target shifted by a random offset of up to
// ±0.6° latitude and ±1.2° longitude, so the first view hints at the broad
// area without giving the answer away.
func New(target geo.Point, rules Rules, mode Mode) *Session {
	return &Session{
		ID:        randomID(),
		Mode:      mode,
		Target:    target,
		Rules:     rules,
		CreatedAt: time.Now().UTC(),
		Zoom:      DefaultZoom,
		OffsetLat: (mrand.Float64()*2 - 1) * offsetMaxLat,
		OffsetLng: (mrand.Float64()*2 - 1) * offsetMaxLng,
	}
}

// StartCenter returns the session's initial camera center: the target plus
// the per-session offset, clamped to the web-mercator comfort zone.
func (s *Session) StartCenter() geo.Point {
	lat := s.Target.Lat + s.OffsetLat
	if lat > 85 {
		lat = 85
	} else if lat < -85 {
		lat = -85
	}
	lng := math.Mod(s.Target.Lng+s.OffsetLng+540, 360) - 180
	return geo.Point{Lat: lat, Lng: lng}
}

// Guess evaluates one guess against the target, mutating the session.
//
// Evaluation order:
//  1. distance = haversine(guess, target)
//  2. heat = clamp01(1 - min(distance, hot)/hot)
//  3. label (see package notes), using the previous distance if any
//  4. reveal when distance <= reveal radius
//  5. record the guess; only now does the previous distance move
//
// A guess arriving within the debounce window and debounce radius of the
// previous one is treated as a double fire: state is untouched and the
// previous feedback comes back flagged Duplicate.
func (s *Session) Guess(p geo.Point, src Source, at time.Time) (Feedback, error) {
	if !geo.Valid(p) {
		return Feedback{}, ErrBadCoordinate
	}
	if s.isDoubleFire(p, at) {
		fb := *s.lastFeedback
		fb.Duplicate = true
		return fb, nil
	}

	d := geo.Distance(p, s.Target)
	heat := clamp01(1 - math.Min(d, s.Rules.HotRadiusM)/s.Rules.HotRadiusM)
	label := s.label(d, heat)

	fb := Feedback{
		DistanceM: d,
		Heat:      heat,
		Label:     label,
		Score:     Score(d, s.Rules.ScoreMaxErrorM),
	}
	if d <= s.Rules.RevealRadiusM {
		t := s.Target
		fb.Revealed = true
		fb.Target = &t
		fb.TargetText = geo.FormatPoint(t)
		s.Found = true
	}

	s.PrevDistanceM, s.HasPrev = d, true
	s.Trail = append(s.Trail, Guess{
		Point:     p,
		Source:    src,
		DistanceM: d,
		Heat:      heat,
		Label:     label,
		At:        at,
	})
	fb.GuessCount = len(s.Trail)
	s.lastFeedback = &fb
	return fb, nil
}

// label picks the thermal label for a guess at distance d with the given heat.
func (s *Session) label(d, heat float64) Label {
	switch {
	case d <= s.Rules.RevealRadiusM:
		return LabelFound
	case !s.HasPrev:
		switch {
		case heat >= veryHotHeat:
			return LabelVeryHot
		case heat >= warmHeat:
			return LabelWarm
		default:
			return LabelCold
		}
	case d < s.PrevDistanceM-s.Rules.SameToleranceM:
		return LabelWarmer
	case d > s.PrevDistanceM+s.Rules.SameToleranceM:
		return LabelColder
	default:
		return LabelSame
	}
}

// isDoubleFire reports whether the guess repeats the previous one closely
// enough in time and space to be dropped.
func (s *Session) isDoubleFire(p geo.Point, at time.Time) bool {
	if len(s.Trail) == 0 || s.lastFeedback == nil {
		return false
	}
	last := s.Trail[len(s.Trail)-1]
	if at.Sub(last.At) > s.Rules.DebounceWindow {
		return false
	}
	return geo.Distance(p, last.Point) <= s.Rules.DebounceRadiusM
}

// clamp01 clamps v into [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// randomID returns a compact 16-hex-char identifier.
// Collisions are extremely unlikely given crypto/rand entropy.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
