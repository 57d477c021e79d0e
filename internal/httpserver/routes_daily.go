// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start today's daily game (creates or reuses session)
//   - POST /daily/guess       → submit a guess for today's daily game
//   - GET  /daily/leaderboard → fetch top 20 results for today (or a given date)
//
// Each user can play once per day (enforced by DB + in-memory session).
// Sessions are held in memory for active play and persisted to DB on find.
// Deterministic place selection is based on date + salt.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/hotspot/internal/daily"
	"github.com/robalobadob/hotspot/internal/game"
	"github.com/robalobadob/hotspot/internal/geo"
	"github.com/robalobadob/hotspot/internal/places"
	"github.com/robalobadob/hotspot/internal/render"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	sessions map[string]*dailySession // active sessions keyed by userID|date
	mu       sync.Mutex               // guards sessions
}

// dailySession holds transient in-memory state for an in-progress daily game.
type dailySession struct {
	UserID     string
	Date       string
	PlaceIndex int
	Sess       *game.Session
	Start      time.Time
	Finished   bool
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     s.cfg.Daily.Salt,
		sessions: make(map[string]*dailySession),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/guess", dd.handleGuess)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// placeOfDay returns today's date key, deterministic place index, and place.
func (d *dailyServer) placeOfDay() (date string, idx int, pl places.Place) {
	now := time.Now().UTC()
	date = daily.DateKey(now)
	n := places.Count()
	if n == 0 {
		return date, 0, places.Place{}
	}
	idx = daily.PlaceIndex(now, d.salt, n)
	return date, idx, places.At(idx)
}

// userIDWithAnon returns the authenticated user ID if logged in,
// otherwise ensures an anonymous ID via Server.ensureAnonID.
func (d *dailyServer) userIDWithAnon(w http.ResponseWriter, r *http.Request) (string, bool) {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID, true
	}
	return d.srv.ensureAnonID(w, r), true
}

// -----------------------------------------------------------------------------
// /daily/new

// dailyNewRes is returned by /daily/new.
type dailyNewRes struct {
	GameID string     `json:"gameId"`
	Date   string     `json:"date"`
	Played bool       `json:"played"`
	Center *geo.Point `json:"center,omitempty"`
	Zoom   int        `json:"zoom,omitempty"`
}

// handleNew creates or reuses a daily session for the current date.
// - If user already has a DB row for today → return Played=true.
// - Otherwise create/reuse an in-memory session and return GameID + viewport.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid, ok := d.userIDWithAnon(w, r)
	if !ok {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	date, idx, pl := d.placeOfDay()
	if pl.Name == "" {
		http.Error(w, `{"error":"no_places"}`, http.StatusInternalServerError)
		return
	}

	// Check if already played (persisted in DB).
	if played, err := d.store.AlreadyPlayed(r.Context(), uid, date); err == nil && played {
		_ = json.NewEncoder(w).Encode(dailyNewRes{GameID: "", Date: date, Played: true})
		return
	}

	// Reuse or create session in memory.
	key := uid + "|" + date
	d.mu.Lock()
	sess, ok := d.sessions[key]
	if !ok {
		g := game.New(pl.Pt, d.srv.cfg.Game.Rules(), game.ModeDaily)
		g.Zoom = d.srv.cfg.Game.InitialZoom
		sess = &dailySession{
			UserID:     uid,
			Date:       date,
			PlaceIndex: idx,
			Sess:       g,
			Start:      time.Now(),
		}
		d.sessions[key] = sess
		gamesStartedTotal.WithLabelValues(string(game.ModeDaily)).Inc()
	}
	d.mu.Unlock()

	center := sess.Sess.StartCenter()
	_ = json.NewEncoder(w).Encode(dailyNewRes{
		GameID: sess.Sess.ID,
		Date:   date,
		Played: false,
		Center: &center,
		Zoom:   sess.Sess.Zoom,
	})
}

// -----------------------------------------------------------------------------
// /daily/guess

// dailyGuessReq is the request payload for /daily/guess.
type dailyGuessReq struct {
	GameID string  `json:"gameId" validate:"required"`
	Lat    float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng    float64 `json:"lng" validate:"gte=-180,lte=180"`
	Source string  `json:"source" validate:"omitempty,oneof=click key touch api"`
}

// dailyGuessRes is the response payload for /daily/guess.
type dailyGuessRes struct {
	DistanceM float64      `json:"distanceM"`
	Heat      float64      `json:"heat"`
	Label     game.Label   `json:"label"`
	Revealed  bool         `json:"revealed"`
	Place     string       `json:"place,omitempty"`
	Score     int          `json:"score"`
	State     string       `json:"state"` // in_progress | found | locked
	Guesses   int          `json:"guesses"`
	Plan      *render.Plan `json:"plan,omitempty"`
}

// handleGuess validates and applies a guess for today's daily session.
// - Rejects if no session or stale GameID.
// - Locked sessions (already found) return state "locked" with no evaluation.
// - Evaluates through the same engine as free play.
// - Persists the result to DB on find.
func (d *dailyServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	uid, ok := d.userIDWithAnon(w, r)
	if !ok {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var p dailyGuessReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if err := validate.Struct(p); err != nil {
		http.Error(w, `{"error":"invalid_guess"}`, http.StatusBadRequest)
		return
	}

	date, _, _ := d.placeOfDay()

	// Find session.
	key := uid + "|" + date
	d.mu.Lock()
	sess, ok := d.sessions[key]
	d.mu.Unlock()
	if !ok || sess.Sess.ID != p.GameID {
		http.Error(w, `{"error":"no_session"}`, http.StatusConflict)
		return
	}
	if sess.Finished {
		_ = json.NewEncoder(w).Encode(dailyGuessRes{State: "locked", Guesses: len(sess.Sess.Trail)})
		return
	}

	src := game.Source(p.Source)
	if src == "" {
		src = game.SourceClick
	}

	d.mu.Lock()
	fb, err := sess.Sess.Guess(geo.Point{Lat: p.Lat, Lng: p.Lng}, src, time.Now())
	if err == nil && fb.Revealed {
		sess.Finished = true
		if pl, _, perr := places.Nearest(*fb.Target); perr == nil {
			fb.Place = pl.Name
		}
	}
	d.mu.Unlock()
	if err != nil {
		http.Error(w, `{"error":"bad_coordinate"}`, http.StatusBadRequest)
		return
	}

	if !fb.Duplicate {
		guessesTotal.WithLabelValues(string(fb.Label)).Inc()
	}

	state := "in_progress"
	if fb.Revealed {
		state = "found"
		findsTotal.Inc()
		elapsed := int(time.Since(sess.Start).Milliseconds())
		best := fb.DistanceM
		for _, t := range sess.Sess.Trail {
			if t.DistanceM < best {
				best = t.DistanceM
			}
		}
		_ = d.store.InsertResult(r.Context(), daily.Result{
			UserID:        uid,
			Date:          date,
			PlaceIndex:    sess.PlaceIndex,
			Guesses:       len(sess.Sess.Trail),
			ElapsedMs:     elapsed,
			BestDistanceM: best,
		})
	}

	at := geo.Point{Lat: p.Lat, Lng: p.Lng}
	_ = json.NewEncoder(w).Encode(dailyGuessRes{
		DistanceM: fb.DistanceM,
		Heat:      fb.Heat,
		Label:     fb.Label,
		Revealed:  fb.Revealed,
		Place:     fb.Place,
		Score:     fb.Score,
		State:     state,
		Guesses:   fb.GuessCount,
		Plan:      buildPlan(sess.Sess, fb, at),
	})
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date, _, _ = d.placeOfDay()
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
