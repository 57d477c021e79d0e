// internal/game/types.go
//
// Core type definitions for the hot/cold game engine.
// Defines:
//   - Label: thermal feedback attached to a guess (FOUND/Very Hot/.../Same).
//   - Source: which input surface produced a guess (click/key/touch/api).
//   - Rules: per-session gameplay constants (radii, tolerance, debounce).
//   - Guess / Feedback: one trail entry and one evaluation result.
//   - Session: state for a single in-progress game.

package game

import (
	"time"

	"github.com/robalobadob/hotspot/internal/geo"
)

// Label is the thermal feedback for one guess.
// FOUND wins over everything else; the three tiers apply to a first guess
// (no previous distance); Warmer/Colder/Same compare against the previous
// guess distance only.
type Label string

const (
	LabelFound   Label = "FOUND"
	LabelVeryHot       = "Very Hot"
	LabelWarm          = "Warm"
	LabelCold          = "Cold"
	LabelWarmer        = "Warmer"
	LabelColder        = "Colder"
	LabelSame          = "Same"
)

// Source identifies the input surface that produced a guess.
type Source string

const (
	SourceClick Source = "click"
	SourceKey   Source = "key"
	SourceTouch Source = "touch"
	SourceAPI   Source = "api"
)

// Mode selects how a session's target was chosen.
type Mode string

const (
	ModeClassic Mode = "classic" // the configured fixed target
	ModeRoam    Mode = "roam"    // jittered around a random catalog place
	ModeDaily   Mode = "daily"   // deterministic place of the day
)

// Rules holds the gameplay constants for a session. They are fixed when the
// session is created; changing them mid-game would reinterpret history.
type Rules struct {
	RevealRadiusM   float64       // inside this distance the target is disclosed
	HotRadiusM      float64       // heat reaches 0 at and beyond this distance
	SameToleranceM  float64       // +/- band around the previous distance that reads "Same"
	ScoreMaxErrorM  float64       // map-scale parameter for scoring
	DebounceWindow  time.Duration // repeat guesses inside this window may be dropped
	DebounceRadiusM float64       // ...when they land within this distance of the last one
}

// DefaultRules returns the stock gameplay constants.
func DefaultRules() Rules {
	return Rules{
		RevealRadiusM:   20,
		HotRadiusM:      1200,
		SameToleranceM:  0.5,
		ScoreMaxErrorM:  50_000,
		DebounceWindow:  350 * time.Millisecond,
		DebounceRadiusM: 10,
	}
}

// Guess is one entry in a session's trail.
type Guess struct {
	Point     geo.Point // where the player guessed
	Source    Source    // input surface that produced it
	DistanceM float64   // great-circle distance to the target
	Heat      float64   // 0..1 closeness at the time of the guess
	Label     Label     // feedback label shown for this guess
	At        time.Time // server receipt time
}

// Feedback is the evaluation of a single guess.
type Feedback struct {
	DistanceM  float64    // meters from the target
	Heat       float64    // 0 (cold) .. 1 (on top of it)
	Label      Label      // thermal label per the rules above
	Revealed   bool       // true within the reveal radius
	Target     *geo.Point // exact target, only when Revealed
	TargetText string     // formatted target coordinates, only when Revealed
	Place      string     // nearest catalog place name, only when Revealed
	Score      int        // 0..5000 for this guess
	GuessCount int        // guesses recorded so far, including this one
	Duplicate  bool       // true when debounce returned the previous feedback
}

// Session holds the state of a single hot/cold game.
// One target per session; replacing it via SetTarget discards the feedback
// history so the next guess is evaluated as a first guess.
type Session struct {
	ID        string    // Unique session identifier (random hex string).
	Mode      Mode      // How the target was chosen.
	Target    geo.Point // The hidden coordinate. Never serialized to clients.
	Rules     Rules     // Gameplay constants fixed at creation.
	CreatedAt time.Time // Session creation time (UTC).

	Trail     []Guess // All recorded guesses, in order.
	Found     bool    // Latches true once a guess lands inside the reveal radius.
	HintsUsed int     // Number of hints served for this session.

	// One-step feedback memory. Only the previous distance feeds the
	// Warmer/Colder comparison; the trail above is for rendering and stats.
	PrevDistanceM float64
	HasPrev       bool

	// Starting viewport. The camera offset is randomized per session so the
	// initial view does not point straight at the target; the target itself
	// is never randomized after creation.
	Zoom      int
	OffsetLat float64
	OffsetLng float64

	lastFeedback *Feedback
}
