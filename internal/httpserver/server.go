// internal/httpserver/server.go
//
// HTTP server wiring for the hotspot backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     Prometheus instrumentation).
//   - Public endpoints: "/" (game page), "/health", "/metrics", "/debug/places".
//   - Game endpoints (optional auth): POST /game/new, POST /game/guess,
//     POST /game/target, POST /game/hint, GET /game/{id}, GET /game/{id}/trail.
//   - Daily challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints (require auth): /auth/*, /stats/me, /games/mine.
//   - Database persistence for games and user stats.
//
// Notes:
//   - The server owns the hidden target. Guess responses carry the feedback
//     and a render plan the page replays; the target itself is only included
//     once a guess lands inside the reveal radius.
//   - CORS is origin-aware and credentials-enabled (so cookies work).

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hotspot/assets"
	"github.com/robalobadob/hotspot/internal/config"
	"github.com/robalobadob/hotspot/internal/game"
	"github.com/robalobadob/hotspot/internal/geo"
	"github.com/robalobadob/hotspot/internal/places"
	"github.com/robalobadob/hotspot/internal/render"
	"github.com/robalobadob/hotspot/internal/store"
)

var validate = validator.New()

// Server bundles router, config, in-memory session store, and DB handle.
type Server struct {
	r     *chi.Mux
	cfg   *config.Config
	store store.Store
	db    *sql.DB
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg *config.Config, st store.Store, db *sql.DB) *Server {
	s := &Server{r: chi.NewRouter(), cfg: cfg, store: st, db: db}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(metricsMiddleware)               // request counters + latency
	s.r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Server.ClientOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.r.Use(jsonContentType) // default JSON responses

	// --- page + diagnostics ---
	s.r.Get("/", s.handlePage)
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	s.r.Get("/debug/places", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]int{"places": places.Count()})
	})

	// Game endpoints — OPTIONAL AUTH (guests can play)
	s.r.With(s.withOptionalAuth()).Post("/game/new", s.handleNewGame)
	s.r.With(s.withOptionalAuth()).Post("/game/guess", s.handleGuess)
	s.r.With(s.withOptionalAuth()).Post("/game/target", s.handleSetTarget)
	s.r.With(s.withOptionalAuth()).Post("/game/hint", s.handleHint)
	s.r.Get("/game/{id}", s.handleGetGame)
	s.r.Get("/game/{id}/trail", s.handleTrail)

	// Daily Challenge — OPTIONAL AUTH (guests can play; results persisted on find)
	s.mountDaily(s.r.With(s.withOptionalAuth()))

	// Auth + profile/stats (require auth)
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.r,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
	}
	return srv.ListenAndServe()
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
// Handlers serving something else (the page, /metrics) override it.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- PAGE --------------------------------------

// handlePage serves the embedded Leaflet game page.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page, err := assets.IndexHTML()
	if err != nil {
		http.Error(w, `{"error":"page_missing"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// ------------------------------ GAME ---------------------------------------

// newGameReq/Res payloads for POST /game/new.
type newGameReq struct {
	Mode string   `json:"mode"`          // "classic" (default) | "roam"
	Lat  *float64 `json:"lat,omitempty"` // optional fixed target (testing)
	Lng  *float64 `json:"lng,omitempty"`
}
type rulesRes struct {
	RevealRadiusM float64 `json:"revealRadiusM"`
	HotRadiusM    float64 `json:"hotRadiusM"`
}
type newGameRes struct {
	GameID string    `json:"gameId"`
	Center geo.Point `json:"center"`
	Zoom   int       `json:"zoom"`
	Rules  rulesRes  `json:"rules"`
}

// handleNewGame creates a new in-memory session and persists a DB "owner" row
// (either user_id or anonymous_id) for history/stats. The response carries the
// starting viewport, never the target.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	mode := game.ModeClassic
	if req.Mode == string(game.ModeRoam) {
		mode = game.ModeRoam
	}

	// Target choice: explicit (testing) beats roam jitter beats the
	// configured classic spot.
	var target geo.Point
	switch {
	case req.Lat != nil && req.Lng != nil:
		target = geo.Point{Lat: *req.Lat, Lng: *req.Lng}
		if !geo.Valid(target) {
			http.Error(w, `{"error":"bad_coordinate"}`, http.StatusBadRequest)
			return
		}
	case mode == game.ModeRoam:
		target = places.RandomNear(places.Random().Pt, s.cfg.Game.RoamJitterM)
	default:
		target = s.cfg.Game.Target()
	}

	g := game.New(target, s.cfg.Game.Rules(), mode)
	g.Zoom = s.cfg.Game.InitialZoom
	if err := s.store.Save(r.Context(), g); err != nil {
		log.Error().Err(err).Msg("save game")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	gamesStartedTotal.WithLabelValues(string(mode)).Inc()

	// Persist owner row; the target is stored server-side only.
	now := time.Now().UTC().Format(time.RFC3339)
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		_, err := s.db.Exec(`INSERT INTO games (id, user_id, mode, target_lat, target_lng, started_at, status, guesses)
		                     VALUES (?,?,?,?,?,?,?,0)`, g.ID, me.ID, string(mode), target.Lat, target.Lng, now, "playing")
		if err != nil {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("insert user game row")
		}
	} else {
		anon := s.ensureAnonID(w, r)
		_, err := s.db.Exec(`INSERT INTO games (id, anonymous_id, mode, target_lat, target_lng, started_at, status, guesses)
		                     VALUES (?,?,?,?,?,?,?,0)`, g.ID, anon, string(mode), target.Lat, target.Lng, now, "playing")
		if err != nil {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("insert anon game row")
		}
	}

	_ = json.NewEncoder(w).Encode(newGameRes{
		GameID: g.ID,
		Center: g.StartCenter(),
		Zoom:   g.Zoom,
		Rules:  rulesRes{RevealRadiusM: g.Rules.RevealRadiusM, HotRadiusM: g.Rules.HotRadiusM},
	})
}

// guessReq/Res payloads for POST /game/guess.
type guessReq struct {
	GameID string  `json:"gameId" validate:"required"`
	Lat    float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng    float64 `json:"lng" validate:"gte=-180,lte=180"`
	Source string  `json:"source" validate:"omitempty,oneof=click key touch api"`
}
type guessRes struct {
	DistanceM  float64      `json:"distanceM"`
	Heat       float64      `json:"heat"`
	Label      game.Label   `json:"label"`
	Revealed   bool         `json:"revealed"`
	Target     *geo.Point   `json:"target,omitempty"`
	TargetText string       `json:"targetText,omitempty"`
	Place      string       `json:"place,omitempty"`
	Score      int          `json:"score"`
	Guesses    int          `json:"guesses"`
	Duplicate  bool         `json:"duplicate,omitempty"`
	Plan       *render.Plan `json:"plan"`
}

// handleGuess evaluates a guess against the session target, persists progress,
// and returns the feedback plus the render plan for the page to replay.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, `{"error":"invalid_guess"}`, http.StatusBadRequest)
		return
	}
	g, err := s.store.Get(r.Context(), req.GameID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}

	src := game.Source(req.Source)
	if src == "" {
		src = game.SourceAPI
	}
	wasFound := g.Found
	fb, err := g.Guess(geo.Point{Lat: req.Lat, Lng: req.Lng}, src, time.Now())
	if err != nil {
		if errors.Is(err, game.ErrBadCoordinate) {
			http.Error(w, `{"error":"bad_coordinate"}`, http.StatusBadRequest)
			return
		}
		http.Error(w, `{"error":"guess_failed"}`, http.StatusInternalServerError)
		return
	}
	if fb.Revealed {
		if pl, _, err := places.Nearest(*fb.Target); err == nil {
			fb.Place = pl.Name
		}
	}
	if err := s.store.Save(r.Context(), g); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}

	newlyFound := !wasFound && g.Found
	if !fb.Duplicate {
		guessesTotal.WithLabelValues(string(fb.Label)).Inc()
		if newlyFound {
			findsTotal.Inc()
		}

		// Persist counters/history (best effort, non-fatal if it fails)
		me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
		ownerClause := `anonymous_id=?`
		ownerArg := any(s.ensureAnonID(w, r))
		if me != nil {
			ownerClause = `user_id=?`
			ownerArg = any(me.ID)
		}

		tx, _ := s.db.Begin()
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.Exec(`UPDATE games SET guesses = guesses + 1,
		                             best_distance_m = MIN(COALESCE(best_distance_m, 1e18), ?)
		                      WHERE id=? AND `+ownerClause, fb.DistanceM, g.ID, ownerArg); err != nil {
			log.Warn().Err(err).Msg("update guesses")
		}

		if newlyFound {
			if _, err := tx.Exec(`UPDATE games SET status='found', finished_at=? WHERE id=? AND `+ownerClause,
				time.Now().UTC().Format(time.RFC3339), g.ID, ownerArg); err != nil {
				log.Warn().Err(err).Msg("finish game")
			}
			if me != nil {
				if err := s.bumpStats(tx, me.ID, true); err != nil {
					log.Warn().Err(err).Str("user", me.ID).Msg("bump stats")
				}
			}
		}
		_ = tx.Commit()
	}

	// Duplicates re-render the previous guess, so the marker stays put.
	at := geo.Point{Lat: req.Lat, Lng: req.Lng}
	if fb.Duplicate && len(g.Trail) > 0 {
		at = g.Trail[len(g.Trail)-1].Point
	}

	_ = json.NewEncoder(w).Encode(guessRes{
		DistanceM:  fb.DistanceM,
		Heat:       fb.Heat,
		Label:      fb.Label,
		Revealed:   fb.Revealed,
		Target:     fb.Target,
		TargetText: fb.TargetText,
		Place:      fb.Place,
		Score:      fb.Score,
		Guesses:    fb.GuessCount,
		Duplicate:  fb.Duplicate,
		Plan:       buildPlan(g, fb, at),
	})
}

// buildPlan renders feedback into the draw plan the browser replays. On
// reveal the full guess trail is included as a polyline.
func buildPlan(g *game.Session, fb game.Feedback, at geo.Point) *render.Plan {
	plan := render.NewPlan()
	render.Draw(plan, fb, at)
	if fb.Revealed && len(g.Trail) > 1 {
		pts := make([]geo.Point, len(g.Trail))
		for i, t := range g.Trail {
			pts[i] = t.Point
		}
		plan.DrawPolyline(render.TrailLine(pts))
	}
	return plan
}

// targetReq/Res payloads for POST /game/target.
type targetReq struct {
	GameID   string            `json:"gameId" validate:"required"`
	Lat      float64           `json:"lat"`
	Lng      float64           `json:"lng"`
	Recenter game.RecenterMode `json:"recenter"`
	Zoom     int               `json:"zoom"`
	Debug    bool              `json:"debug"`
}
type targetRes struct {
	OK   bool         `json:"ok"`
	Plan *render.Plan `json:"plan"`
}

// handleSetTarget replaces a session's target. Feedback history and drawn
// overlays are discarded; the next guess is evaluated as a first guess.
func (s *Server) handleSetTarget(w http.ResponseWriter, r *http.Request) {
	var req targetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
		return
	}
	g, err := s.store.Get(r.Context(), req.GameID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}

	opts := game.TargetOptions{Recenter: req.Recenter, Zoom: req.Zoom, Debug: req.Debug}
	if err := g.SetTarget(req.Lat, req.Lng, opts); err != nil {
		if errors.Is(err, game.ErrBadCoordinate) {
			http.Error(w, `{"error":"bad_coordinate"}`, http.StatusBadRequest)
			return
		}
		http.Error(w, `{"error":"set_target_failed"}`, http.StatusInternalServerError)
		return
	}
	if err := s.store.Save(r.Context(), g); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}

	plan := render.NewPlan()
	plan.Clear()
	if req.Debug {
		render.DebugTarget(plan, g.Target)
	}
	switch req.Recenter {
	case game.RecenterOffset:
		plan.SetView(render.Viewport{Center: g.StartCenter(), Zoom: g.Zoom})
	case game.RecenterCenter:
		plan.SetView(render.Viewport{Center: g.Target, Zoom: g.Zoom})
	}
	_ = json.NewEncoder(w).Encode(targetRes{OK: true, Plan: plan})
}

// handleGetGame returns visible session state. The target appears only after
// it has been found.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	res := map[string]any{
		"gameId":    g.ID,
		"mode":      g.Mode,
		"found":     g.Found,
		"guesses":   len(g.Trail),
		"hintsUsed": g.HintsUsed,
		"center":    g.StartCenter(),
		"zoom":      g.Zoom,
		"createdAt": g.CreatedAt,
	}
	if g.Found {
		res["target"] = g.Target
		res["targetText"] = geo.FormatPoint(g.Target)
	}
	_ = json.NewEncoder(w).Encode(res)
}

// handleTrail returns the recorded guesses plus a Google-encoded polyline of
// the path.
func (s *Server) handleTrail(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}

	type trailPoint struct {
		Lat       float64     `json:"lat"`
		Lng       float64     `json:"lng"`
		DistanceM float64     `json:"distanceM"`
		Heat      float64     `json:"heat"`
		Label     game.Label  `json:"label"`
		Source    game.Source `json:"source"`
		At        time.Time   `json:"at"`
	}
	pts := make([]trailPoint, len(g.Trail))
	line := make([]geo.Point, len(g.Trail))
	for i, t := range g.Trail {
		pts[i] = trailPoint{
			Lat: t.Point.Lat, Lng: t.Point.Lng,
			DistanceM: t.DistanceM, Heat: t.Heat,
			Label: t.Label, Source: t.Source, At: t.At,
		}
		line[i] = t.Point
	}
	res := map[string]any{"gameId": g.ID, "points": pts}
	if len(line) > 0 {
		res["encoded"] = render.TrailLine(line).Encoded
	}
	_ = json.NewEncoder(w).Encode(res)
}

// hintReq payload for POST /game/hint.
type hintReq struct {
	GameID string `json:"gameId" validate:"required"`
	Kind   string `json:"kind" validate:"omitempty,oneof=bearing region"`
}

// handleHint serves a bearing or region hint; region hints come with a
// polygon overlay in the plan.
func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	var req hintReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
		return
	}
	g, err := s.store.Get(r.Context(), req.GameID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}

	res := map[string]any{}
	switch req.Kind {
	case "region":
		h := g.RegionHint(s.cfg.Game.HintResolution)
		plan := render.NewPlan()
		plan.DrawRegion(render.Region{Points: h.Region, Color: render.HintColor.Hex()})
		res["hint"] = h
		res["plan"] = plan
	default: // bearing
		h, err := g.BearingHint()
		if err != nil {
			http.Error(w, `{"error":"no_guess_yet"}`, http.StatusConflict)
			return
		}
		res["hint"] = h
	}
	if err := s.store.Save(r.Context(), g); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	if _, err := s.db.Exec(`UPDATE games SET hints_used=? WHERE id=?`, g.HintsUsed, g.ID); err != nil {
		log.Warn().Err(err).Msg("update hints used")
	}
	_ = json.NewEncoder(w).Encode(res)
}
