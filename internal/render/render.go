// internal/render/render.go
//
// Translation from game feedback to map draw calls.
// Responsibilities:
//   - View: the capability surface the game needs from a map display.
//   - Plan: a View that records draw calls and serializes them for the
//     browser, which replays them against the real Leaflet map.
//   - Draw: the one way feedback reaches a View (clear, marker, ring, popup).
//   - Marker sizing, ring clamping and popup text rules.
//
// Notes:
//   - The ring radius is clamped into [RingMinRadiusM, RingMaxRadiusM] on
//     purpose: the circle suggests how far the target is without measuring
//     it out exactly.
//   - At most one guess marker and one ring are ever live; Draw always
//     clears before drawing.

package render

import (
	"math"

	"github.com/twpayne/go-polyline"

	"github.com/robalobadob/hotspot/internal/game"
	"github.com/robalobadob/hotspot/internal/geo"
)

const (
	markerBaseRadiusPx = 6
	markerHeatRangePx  = 6

	// RingMinRadiusM and RingMaxRadiusM bound the drawn distance ring.
	RingMinRadiusM = 20
	RingMaxRadiusM = 300
)

// Marker is a filled circle marker at a map point, sized in pixels.
type Marker struct {
	At       geo.Point `json:"at"`
	Color    string    `json:"color"`
	RadiusPx int       `json:"radiusPx"`
	Debug    bool      `json:"debug,omitempty"`
}

// Ring is a circle with a ground-distance radius in meters.
type Ring struct {
	At      geo.Point `json:"at"`
	RadiusM float64   `json:"radiusM"`
	Color   string    `json:"color"`
}

// Popup is a small text balloon anchored at a map point.
type Popup struct {
	At   geo.Point `json:"at"`
	Text string    `json:"text"`
}

// Viewport is a camera directive.
type Viewport struct {
	Center geo.Point `json:"center"`
	Zoom   int       `json:"zoom"`
}

// Polyline is an ordered path; Encoded carries the Google polyline form for
// compact share links, Points the raw coordinates for direct drawing.
type Polyline struct {
	Encoded string      `json:"encoded"`
	Points  []geo.Point `json:"points"`
	Color   string      `json:"color"`
}

// Region is a closed polygon outline, e.g. a hint cell.
type Region struct {
	Points []geo.Point `json:"points"`
	Color  string      `json:"color"`
}

// View is what the renderer needs from a map display. The browser page is
// the production implementation (via Plan); tests substitute fakes.
type View interface {
	Clear()
	DrawMarker(m Marker)
	DrawRing(r Ring)
	ShowPopup(p Popup)
	SetView(v Viewport)
	DrawPolyline(l Polyline)
	DrawRegion(g Region)
}

// Plan records draw calls for one response. Zero value is ready to use.
type Plan struct {
	Cleared bool       `json:"clear"`
	Markers []Marker   `json:"markers,omitempty"`
	Rings   []Ring     `json:"rings,omitempty"`
	Popups  []Popup    `json:"popups,omitempty"`
	View    *Viewport  `json:"view,omitempty"`
	Lines   []Polyline `json:"lines,omitempty"`
	Regions []Region   `json:"regions,omitempty"`
}

// NewPlan returns an empty recording view.
func NewPlan() *Plan { return &Plan{} }

func (p *Plan) Clear() {
	p.Cleared = true
	p.Markers, p.Rings, p.Popups, p.Lines, p.Regions = nil, nil, nil, nil, nil
}

func (p *Plan) DrawMarker(m Marker)     { p.Markers = append(p.Markers, m) }
func (p *Plan) DrawRing(r Ring)         { p.Rings = append(p.Rings, r) }
func (p *Plan) ShowPopup(pp Popup)      { p.Popups = append(p.Popups, pp) }
func (p *Plan) SetView(v Viewport)      { p.View = &v }
func (p *Plan) DrawPolyline(l Polyline) { p.Lines = append(p.Lines, l) }
func (p *Plan) DrawRegion(g Region)     { p.Regions = append(p.Regions, g) }

// MarkerRadius returns the guess marker radius in pixels: 6 px base plus up
// to 6 px of heat.
func MarkerRadius(heat float64) int {
	return markerBaseRadiusPx + int(math.Round(markerHeatRangePx*clamp01(heat)))
}

// RingRadius clamps the guess distance into the drawn ring range.
func RingRadius(distM float64) float64 {
	return math.Min(math.Max(distM, RingMinRadiusM), RingMaxRadiusM)
}

// PopupText is the popup body: the label alone until the target is
// revealed, then the exact coordinates (and nearest place, when known).
func PopupText(fb game.Feedback) string {
	text := string(fb.Label)
	if fb.Revealed && fb.TargetText != "" {
		text += "<br>" + fb.TargetText
		if fb.Place != "" {
			text += "<br>near " + fb.Place
		}
	}
	return text
}

// Draw renders the feedback for a guess at p: wipe the previous overlays,
// then the heat-colored marker, the clamped ring and the label popup.
func Draw(v View, fb game.Feedback, p geo.Point) {
	v.Clear()
	hex := HeatColor(fb.Heat).Hex()
	v.DrawMarker(Marker{At: p, Color: hex, RadiusPx: MarkerRadius(fb.Heat)})
	v.DrawRing(Ring{At: p, RadiusM: RingRadius(fb.DistanceM), Color: hex})
	v.ShowPopup(Popup{At: p, Text: PopupText(fb)})
}

// DebugTarget drops a distinctive marker on the hidden target. Only wired
// to the debug option of target changes.
func DebugTarget(v View, target geo.Point) {
	v.DrawMarker(Marker{At: target, Color: DebugColor.Hex(), RadiusPx: markerBaseRadiusPx, Debug: true})
	v.ShowPopup(Popup{At: target, Text: "target (debug)"})
}

// TrailLine encodes a guess trail for sharing and replay.
func TrailLine(points []geo.Point) Polyline {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return Polyline{
		Encoded: string(polyline.EncodeCoords(coords)),
		Points:  points,
		Color:   TrailColor.Hex(),
	}
}
