package httpserver_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/hotspot/internal/config"
	"github.com/robalobadob/hotspot/internal/daily"
	"github.com/robalobadob/hotspot/internal/db"
	"github.com/robalobadob/hotspot/internal/geo"
	"github.com/robalobadob/hotspot/internal/httpserver"
	"github.com/robalobadob/hotspot/internal/places"
	"github.com/robalobadob/hotspot/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:         8080,
			ClientOrigin: "http://localhost:5173",
			ReadTimeout:  10,
			WriteTimeout: 10,
		},
		Auth: config.AuthConfig{
			JWTSecret:   "test-secret-12345678",
			TokenTTLHrs: 1,
			CookieName:  "hotspot_token",
		},
		Daily: config.DailyConfig{Salt: "test-salt"},
		Game: config.GameConfig{
			TargetLat:       32.794,
			TargetLng:       34.989,
			RevealRadiusM:   20,
			HotRadiusM:      1200,
			SameToleranceM:  0.5,
			ScoreMaxErrorM:  50_000,
			DebounceMs:      350,
			DebounceRadiusM: 10,
			InitialZoom:     7,
			HintResolution:  4,
			RoamJitterM:     25_000,
		},
	}
}

func newTestServer(t *testing.T) *httpserver.Server {
	t.Helper()
	if err := places.Init(""); err != nil {
		t.Fatalf("init places: %v", err)
	}
	sqlDB, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Migrate(sqlDB, "../../sql"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return httpserver.New(testConfig(), store.NewMemoryStore(), sqlDB)
}

func postJSON(t *testing.T, srv *httpserver.Server, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func getJSON(t *testing.T, srv *httpserver.Server, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

// newGame starts a game with an explicit target and returns its id plus any
// cookies the server set.
func newGame(t *testing.T, srv *httpserver.Server, lat, lng float64) (string, []*http.Cookie) {
	t.Helper()
	w := postJSON(t, srv, "/game/new", map[string]any{"lat": lat, "lng": lng}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("new game: status %d body %s", w.Code, w.Body.String())
	}
	var res struct {
		GameID string `json:"gameId"`
	}
	decode(t, w, &res)
	if res.GameID == "" {
		t.Fatal("new game: empty gameId")
	}
	return res.GameID, w.Result().Cookies()
}

type guessBody struct {
	DistanceM  float64 `json:"distanceM"`
	Heat       float64 `json:"heat"`
	Label      string  `json:"label"`
	Revealed   bool    `json:"revealed"`
	TargetText string  `json:"targetText"`
	Place      string  `json:"place"`
	Score      int     `json:"score"`
	Guesses    int     `json:"guesses"`
	Duplicate  bool    `json:"duplicate"`
	Plan       struct {
		Clear   bool `json:"clear"`
		Markers []struct {
			Color    string `json:"color"`
			RadiusPx int    `json:"radiusPx"`
		} `json:"markers"`
		Rings []struct {
			RadiusM float64 `json:"radiusM"`
		} `json:"rings"`
		Popups []struct {
			Text string `json:"text"`
		} `json:"popups"`
		Lines []struct {
			Encoded string `json:"encoded"`
		} `json:"lines"`
	} `json:"plan"`
}

func guess(t *testing.T, srv *httpserver.Server, gameID string, p geo.Point, cookies []*http.Cookie) guessBody {
	t.Helper()
	w := postJSON(t, srv, "/game/guess",
		map[string]any{"gameId": gameID, "lat": p.Lat, "lng": p.Lng, "source": "click"}, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("guess: status %d body %s", w.Code, w.Body.String())
	}
	var res guessBody
	decode(t, w, &res)
	return res
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	w := getJSON(t, srv, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("body %s", w.Body.String())
	}
}

func TestPageServed(t *testing.T) {
	srv := newTestServer(t)
	w := getJSON(t, srv, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type %q", ct)
	}
	if !strings.Contains(strings.ToLower(w.Body.String()), "leaflet") {
		t.Fatal("page does not load leaflet")
	}
}

func TestMetricsExposed(t *testing.T) {
	srv := newTestServer(t)
	getJSON(t, srv, "/health", nil) // generate at least one sample
	w := getJSON(t, srv, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "hotspot_http_requests_total") {
		t.Fatal("request counter missing from exposition")
	}
}

func TestDebugPlaces(t *testing.T) {
	srv := newTestServer(t)
	w := getJSON(t, srv, "/debug/places", nil)
	var res map[string]int
	decode(t, w, &res)
	if res["places"] < 10 {
		t.Fatalf("suspiciously small catalog: %d", res["places"])
	}
}

func TestNewGameResponseShape(t *testing.T) {
	srv := newTestServer(t)
	w := postJSON(t, srv, "/game/new", map[string]any{}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	var res struct {
		GameID string    `json:"gameId"`
		Center geo.Point `json:"center"`
		Zoom   int       `json:"zoom"`
		Rules  struct {
			RevealRadiusM float64 `json:"revealRadiusM"`
			HotRadiusM    float64 `json:"hotRadiusM"`
		} `json:"rules"`
	}
	decode(t, w, &res)
	if res.GameID == "" {
		t.Fatal("empty gameId")
	}
	if res.Zoom != 7 {
		t.Fatalf("zoom %d", res.Zoom)
	}
	if res.Rules.RevealRadiusM != 20 || res.Rules.HotRadiusM != 1200 {
		t.Fatalf("rules %+v", res.Rules)
	}
	// Classic target is (32.794, 34.989); the start center is offset by at
	// most 0.6 lat / 1.2 lng from it.
	if d := res.Center.Lat - 32.794; d > 0.6001 || d < -0.6001 {
		t.Fatalf("center lat %v too far from target", res.Center.Lat)
	}
	if d := res.Center.Lng - 34.989; d > 1.2001 || d < -1.2001 {
		t.Fatalf("center lng %v too far from target", res.Center.Lng)
	}
	if strings.Contains(w.Body.String(), "target") {
		t.Fatal("new-game response leaks the target")
	}
}

func TestGuessFeedbackFlow(t *testing.T) {
	srv := newTestServer(t)
	target := geo.Point{Lat: 32.71, Lng: 35.11}
	id, cookies := newGame(t, srv, target.Lat, target.Lng)

	// First guess 600 m out: mid heat, first-guess tier.
	p := geo.Destination(target, 90, 600)
	res := guess(t, srv, id, p, cookies)
	if res.Label != "Warm" {
		t.Fatalf("label %q", res.Label)
	}
	if res.Heat < 0.49 || res.Heat > 0.51 {
		t.Fatalf("heat %v", res.Heat)
	}
	if res.Revealed {
		t.Fatal("revealed at 600 m")
	}
	if res.Guesses != 1 {
		t.Fatalf("guesses %d", res.Guesses)
	}
	if !res.Plan.Clear || len(res.Plan.Markers) != 1 || len(res.Plan.Rings) != 1 || len(res.Plan.Popups) != 1 {
		t.Fatalf("plan %+v", res.Plan)
	}
	if res.Plan.Rings[0].RadiusM != 300 {
		t.Fatalf("ring radius %v, want clamped 300", res.Plan.Rings[0].RadiusM)
	}

	// Second guess closer: Warmer.
	res = guess(t, srv, id, geo.Destination(target, 90, 400), cookies)
	if res.Label != "Warmer" {
		t.Fatalf("label %q", res.Label)
	}

	// Third guess farther: Colder.
	res = guess(t, srv, id, geo.Destination(target, 90, 900), cookies)
	if res.Label != "Colder" {
		t.Fatalf("label %q", res.Label)
	}
}

func TestGuessFindsTarget(t *testing.T) {
	srv := newTestServer(t)
	// Classic default target sits on Haifa.
	w := postJSON(t, srv, "/game/new", map[string]any{}, nil)
	var created struct {
		GameID string `json:"gameId"`
	}
	decode(t, w, &created)
	cookies := w.Result().Cookies()

	// Approach, then hit.
	far := guess(t, srv, created.GameID, geo.Point{Lat: 32.794, Lng: 35.1}, cookies)
	if far.Revealed {
		t.Fatal("revealed too early")
	}
	hit := guess(t, srv, created.GameID, geo.Point{Lat: 32.794, Lng: 34.989}, cookies)
	if !hit.Revealed || hit.Label != "FOUND" {
		t.Fatalf("not revealed: %+v", hit)
	}
	if hit.TargetText == "" {
		t.Fatal("no target text")
	}
	if hit.Place != "Haifa" {
		t.Fatalf("place %q", hit.Place)
	}
	if hit.Score != 5000 {
		t.Fatalf("score %d", hit.Score)
	}
	if len(hit.Plan.Popups) != 1 || !strings.Contains(hit.Plan.Popups[0].Text, "FOUND") {
		t.Fatalf("popup %+v", hit.Plan.Popups)
	}
	// Two guesses on the board: reveal includes the trail line.
	if len(hit.Plan.Lines) != 1 || hit.Plan.Lines[0].Encoded == "" {
		t.Fatalf("trail line %+v", hit.Plan.Lines)
	}
}

func TestGuessValidation(t *testing.T) {
	srv := newTestServer(t)
	id, cookies := newGame(t, srv, 32.71, 35.11)

	cases := []struct {
		name string
		body map[string]any
		want int
	}{
		{"lng out of range", map[string]any{"gameId": id, "lat": 0, "lng": 400}, http.StatusBadRequest},
		{"lat out of range", map[string]any{"gameId": id, "lat": 95, "lng": 0}, http.StatusBadRequest},
		{"missing game id", map[string]any{"lat": 1, "lng": 1}, http.StatusBadRequest},
		{"unknown game", map[string]any{"gameId": "nope", "lat": 1, "lng": 1}, http.StatusNotFound},
		{"bad source", map[string]any{"gameId": id, "lat": 1, "lng": 1, "source": "telepathy"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, srv, "/game/guess", tc.body, cookies)
			if w.Code != tc.want {
				t.Fatalf("status %d, want %d (body %s)", w.Code, tc.want, w.Body.String())
			}
		})
	}

	// The rejected guesses must not have advanced the session.
	res := guess(t, srv, id, geo.Destination(geo.Point{Lat: 32.71, Lng: 35.11}, 0, 500), cookies)
	if res.Guesses != 1 {
		t.Fatalf("guesses %d after rejects", res.Guesses)
	}
}

func TestGuessDebounceDuplicate(t *testing.T) {
	srv := newTestServer(t)
	target := geo.Point{Lat: 32.71, Lng: 35.11}
	id, cookies := newGame(t, srv, target.Lat, target.Lng)

	p := geo.Destination(target, 45, 800)
	first := guess(t, srv, id, p, cookies)
	if first.Duplicate {
		t.Fatal("first guess flagged duplicate")
	}
	// Same spot immediately again: double fire.
	second := guess(t, srv, id, p, cookies)
	if !second.Duplicate {
		t.Fatal("double fire not flagged")
	}
	if second.Guesses != 1 {
		t.Fatalf("duplicate advanced the count: %d", second.Guesses)
	}
	if second.Label != first.Label || second.DistanceM != first.DistanceM {
		t.Fatalf("duplicate feedback differs: %+v vs %+v", second, first)
	}
}

func TestSetTarget(t *testing.T) {
	srv := newTestServer(t)
	old := geo.Point{Lat: 32.71, Lng: 35.11}
	id, cookies := newGame(t, srv, old.Lat, old.Lng)

	// Build some history against the old target.
	guess(t, srv, id, geo.Destination(old, 180, 700), cookies)

	// Move the target to Paris, recenter exactly, zoom in.
	paris := geo.Point{Lat: 48.8566, Lng: 2.3522}
	w := postJSON(t, srv, "/game/target",
		map[string]any{"gameId": id, "lat": paris.Lat, "lng": paris.Lng, "recenter": "center", "zoom": 13}, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	var res struct {
		OK   bool `json:"ok"`
		Plan struct {
			Clear bool `json:"clear"`
			View  *struct {
				Center geo.Point `json:"center"`
				Zoom   int       `json:"zoom"`
			} `json:"view"`
		} `json:"plan"`
	}
	decode(t, w, &res)
	if !res.OK || !res.Plan.Clear {
		t.Fatalf("res %+v", res)
	}
	if res.Plan.View == nil || res.Plan.View.Zoom != 13 {
		t.Fatalf("view %+v", res.Plan.View)
	}
	if res.Plan.View.Center.Lat != paris.Lat || res.Plan.View.Center.Lng != paris.Lng {
		t.Fatalf("center %+v", res.Plan.View.Center)
	}

	// History is gone: 600 m from the NEW target reads as a first guess.
	fb := guess(t, srv, id, geo.Destination(paris, 90, 600), cookies)
	if fb.Label != "Warm" {
		t.Fatalf("label %q after target change", fb.Label)
	}
	if fb.Guesses != 1 {
		t.Fatalf("trail not reset: %d", fb.Guesses)
	}
}

func TestSetTargetRejectsBadCoordinate(t *testing.T) {
	srv := newTestServer(t)
	old := geo.Point{Lat: 32.71, Lng: 35.11}
	id, cookies := newGame(t, srv, old.Lat, old.Lng)
	guess(t, srv, id, geo.Destination(old, 0, 500), cookies)

	w := postJSON(t, srv, "/game/target", map[string]any{"gameId": id, "lat": 1, "lng": 400}, cookies)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "bad_coordinate") {
		t.Fatalf("body %s", w.Body.String())
	}

	// Session still playable against the old target, history intact.
	fb := guess(t, srv, id, geo.Destination(old, 0, 400), cookies)
	if fb.Label != "Warmer" {
		t.Fatalf("label %q, want Warmer against old target", fb.Label)
	}
}

func TestSetTargetRecenterOffset(t *testing.T) {
	srv := newTestServer(t)
	id, cookies := newGame(t, srv, 32.71, 35.11)

	// The session's center for the new target is its target plus the original
	// random offset; /game/{id} reports exactly that.
	w := postJSON(t, srv, "/game/target",
		map[string]any{"gameId": id, "lat": 48.8566, "lng": 2.3522, "recenter": true}, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	var res struct {
		Plan struct {
			View *struct {
				Center geo.Point `json:"center"`
			} `json:"view"`
		} `json:"plan"`
	}
	decode(t, w, &res)
	if res.Plan.View == nil {
		t.Fatal("no view directive")
	}

	var state struct {
		Center geo.Point `json:"center"`
	}
	decode(t, getJSON(t, srv, "/game/"+id, cookies), &state)
	if res.Plan.View.Center != state.Center {
		t.Fatalf("recenter %+v != state center %+v", res.Plan.View.Center, state.Center)
	}
}

func TestGameStateAndTrail(t *testing.T) {
	srv := newTestServer(t)
	target := geo.Point{Lat: 32.71, Lng: 35.11}
	id, cookies := newGame(t, srv, target.Lat, target.Lng)

	w := getJSON(t, srv, "/game/"+id, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var st struct {
		GameID  string `json:"gameId"`
		Mode    string `json:"mode"`
		Found   bool   `json:"found"`
		Guesses int    `json:"guesses"`
		Zoom    int    `json:"zoom"`
	}
	decode(t, w, &st)
	if st.GameID != id || st.Found || st.Guesses != 0 || st.Zoom != 7 {
		t.Fatalf("state %+v", st)
	}
	if strings.Contains(w.Body.String(), "target") {
		t.Fatal("unfound state leaks target")
	}

	guess(t, srv, id, geo.Destination(target, 0, 900), cookies)
	guess(t, srv, id, geo.Destination(target, 90, 500), cookies)
	guess(t, srv, id, geo.Destination(target, 180, 100), cookies)

	w = getJSON(t, srv, "/game/"+id+"/trail", cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var tr struct {
		Points []struct {
			Lat       float64 `json:"lat"`
			DistanceM float64 `json:"distanceM"`
			Label     string  `json:"label"`
			Source    string  `json:"source"`
		} `json:"points"`
		Encoded string `json:"encoded"`
	}
	decode(t, w, &tr)
	if len(tr.Points) != 3 {
		t.Fatalf("points %d", len(tr.Points))
	}
	if tr.Encoded == "" {
		t.Fatal("no encoded polyline")
	}
	if tr.Points[1].Label != "Warmer" || tr.Points[2].Label != "Warmer" {
		t.Fatalf("labels %+v", tr.Points)
	}
	if tr.Points[0].Source != "click" {
		t.Fatalf("source %q", tr.Points[0].Source)
	}

	w = getJSON(t, srv, "/game/missing/trail", cookies)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d for missing game", w.Code)
	}
}

func TestHints(t *testing.T) {
	srv := newTestServer(t)
	target := geo.Point{Lat: 32.71, Lng: 35.11}
	id, cookies := newGame(t, srv, target.Lat, target.Lng)

	// Bearing hint needs at least one guess.
	w := postJSON(t, srv, "/game/hint", map[string]any{"gameId": id, "kind": "bearing"}, cookies)
	if w.Code != http.StatusConflict {
		t.Fatalf("status %d before any guess", w.Code)
	}

	// Guess due south of the target; the hint should point north.
	guess(t, srv, id, geo.Destination(target, 180, 5000), cookies)
	w = postJSON(t, srv, "/game/hint", map[string]any{"gameId": id, "kind": "bearing"}, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	var br struct {
		Hint struct {
			Kind    string  `json:"kind"`
			Compass string  `json:"compass"`
			Bearing float64 `json:"bearingDeg"`
		} `json:"hint"`
	}
	decode(t, w, &br)
	if br.Hint.Kind != "bearing" || br.Hint.Compass != "N" {
		t.Fatalf("hint %+v", br.Hint)
	}

	// Region hint returns a polygon overlay containing the target.
	w = postJSON(t, srv, "/game/hint", map[string]any{"gameId": id, "kind": "region"}, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var rg struct {
		Hint struct {
			Kind   string      `json:"kind"`
			Region []geo.Point `json:"region"`
		} `json:"hint"`
		Plan struct {
			Regions []struct {
				Points []geo.Point `json:"points"`
			} `json:"regions"`
		} `json:"plan"`
	}
	decode(t, w, &rg)
	if rg.Hint.Kind != "region" || len(rg.Hint.Region) < 5 {
		t.Fatalf("hint %+v", rg.Hint)
	}
	if len(rg.Plan.Regions) != 1 {
		t.Fatalf("plan regions %d", len(rg.Plan.Regions))
	}

	var st struct {
		HintsUsed int `json:"hintsUsed"`
	}
	decode(t, getJSON(t, srv, "/game/"+id, cookies), &st)
	if st.HintsUsed != 2 {
		t.Fatalf("hintsUsed %d", st.HintsUsed)
	}
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)

	w := postJSON(t, srv, "/auth/signup", map[string]string{"username": "alice", "password": "hunter2hunter2"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("signup status %d body %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	var hasToken bool
	for _, c := range cookies {
		if c.Name == "hotspot_token" && c.Value != "" {
			hasToken = true
		}
	}
	if !hasToken {
		t.Fatal("no auth cookie set")
	}

	// Duplicate username is a conflict.
	w = postJSON(t, srv, "/auth/signup", map[string]string{"username": "alice", "password": "hunter2hunter2"}, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate signup status %d", w.Code)
	}

	// Weak password is rejected.
	w = postJSON(t, srv, "/auth/signup", map[string]string{"username": "bob", "password": "short"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("weak password status %d", w.Code)
	}

	// /auth/me with the cookie.
	w = getJSON(t, srv, "/auth/me", cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("me status %d", w.Code)
	}
	var me struct {
		Username string `json:"username"`
	}
	decode(t, w, &me)
	if me.Username != "alice" {
		t.Fatalf("username %q", me.Username)
	}

	// Without the cookie it is unauthorized.
	if w := getJSON(t, srv, "/auth/me", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("me without cookie: %d", w.Code)
	}

	// Wrong password.
	w = postJSON(t, srv, "/auth/login", map[string]string{"username": "alice", "password": "wrong-password"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status %d", w.Code)
	}

	// Good login.
	w = postJSON(t, srv, "/auth/login", map[string]string{"username": "alice", "password": "hunter2hunter2"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status %d", w.Code)
	}
}

func TestStatsAfterFind(t *testing.T) {
	srv := newTestServer(t)

	w := postJSON(t, srv, "/auth/signup", map[string]string{"username": "carol", "password": "hunter2hunter2"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("signup status %d", w.Code)
	}
	cookies := w.Result().Cookies()

	target := geo.Point{Lat: 32.71, Lng: 35.11}
	w = postJSON(t, srv, "/game/new", map[string]any{"lat": target.Lat, "lng": target.Lng}, cookies)
	var created struct {
		GameID string `json:"gameId"`
	}
	decode(t, w, &created)

	guess(t, srv, created.GameID, geo.Destination(target, 270, 3000), cookies)
	fb := guess(t, srv, created.GameID, target, cookies)
	if !fb.Revealed {
		t.Fatalf("not revealed: %+v", fb)
	}

	var stats struct {
		GamesPlayed int `json:"gamesPlayed"`
		Finds       int `json:"finds"`
		Streak      int `json:"streak"`
	}
	decode(t, getJSON(t, srv, "/stats/me", cookies), &stats)
	if stats.GamesPlayed != 1 || stats.Finds != 1 || stats.Streak != 1 {
		t.Fatalf("stats %+v", stats)
	}

	w = getJSON(t, srv, "/games/mine", cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("games/mine status %d", w.Code)
	}
	var mine []struct {
		ID      string `json:"id"`
		Mode    string `json:"mode"`
		Status  string `json:"status"`
		Guesses int    `json:"guesses"`
	}
	decode(t, w, &mine)
	if len(mine) != 1 {
		t.Fatalf("games %d", len(mine))
	}
	if mine[0].ID != created.GameID || mine[0].Status != "found" || mine[0].Guesses != 2 {
		t.Fatalf("row %+v", mine[0])
	}
}

func TestDailyFlow(t *testing.T) {
	srv := newTestServer(t)

	w := postJSON(t, srv, "/daily/new", map[string]any{}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("daily/new status %d body %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	var nd struct {
		GameID string `json:"gameId"`
		Date   string `json:"date"`
		Played bool   `json:"played"`
	}
	decode(t, w, &nd)
	if nd.GameID == "" || nd.Played {
		t.Fatalf("res %+v", nd)
	}

	// Guessing without a session for this user is a conflict.
	w = postJSON(t, srv, "/daily/guess", map[string]any{"gameId": "stale", "lat": 0, "lng": 0}, cookies)
	if w.Code != http.StatusConflict {
		t.Fatalf("stale game id status %d", w.Code)
	}

	// The place of the day is deterministic from date + salt.
	pl := places.At(daily.PlaceIndex(time.Now().UTC(), "test-salt", places.Count()))

	w = postJSON(t, srv, "/daily/guess",
		map[string]any{"gameId": nd.GameID, "lat": pl.Pt.Lat, "lng": pl.Pt.Lng + 0.3}, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("daily/guess status %d body %s", w.Code, w.Body.String())
	}
	var miss struct {
		State    string `json:"state"`
		Revealed bool   `json:"revealed"`
	}
	decode(t, w, &miss)
	if miss.State != "in_progress" || miss.Revealed {
		t.Fatalf("miss %+v", miss)
	}

	w = postJSON(t, srv, "/daily/guess",
		map[string]any{"gameId": nd.GameID, "lat": pl.Pt.Lat, "lng": pl.Pt.Lng}, cookies)
	var hit struct {
		State    string `json:"state"`
		Revealed bool   `json:"revealed"`
		Guesses  int    `json:"guesses"`
	}
	decode(t, w, &hit)
	if hit.State != "found" || !hit.Revealed || hit.Guesses != 2 {
		t.Fatalf("hit %+v", hit)
	}

	// Finished sessions lock.
	w = postJSON(t, srv, "/daily/guess",
		map[string]any{"gameId": nd.GameID, "lat": pl.Pt.Lat, "lng": pl.Pt.Lng}, cookies)
	var locked struct {
		State string `json:"state"`
	}
	decode(t, w, &locked)
	if locked.State != "locked" {
		t.Fatalf("state %q", locked.State)
	}

	// A new /daily/new for the same user reports played.
	w = postJSON(t, srv, "/daily/new", map[string]any{}, cookies)
	var again struct {
		Played bool `json:"played"`
	}
	decode(t, w, &again)
	if !again.Played {
		t.Fatal("replay allowed")
	}

	// And the find shows on the leaderboard.
	w = getJSON(t, srv, fmt.Sprintf("/daily/leaderboard?date=%s", nd.Date), cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("leaderboard status %d", w.Code)
	}
	var lb struct {
		Date string `json:"date"`
		Top  []struct {
			Guesses int `json:"guesses"`
		} `json:"top"`
	}
	decode(t, w, &lb)
	if lb.Date != nd.Date || len(lb.Top) != 1 || lb.Top[0].Guesses != 2 {
		t.Fatalf("leaderboard %+v", lb)
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	srv := newTestServer(t)
	w := getJSON(t, srv, "/no/such/route", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error":"not_found"`) {
		t.Fatalf("body %s", w.Body.String())
	}
}
