// internal/render/color.go
//
// Heat-to-color mapping for guess markers and rings. One linear ramp from
// the cold blue to the hot red-orange, interpolated per channel.

package render

import "fmt"

// RGB stores explicit 8-bit color channels.
type RGB struct {
	R, G, B uint8
}

// Ramp endpoints and accent colors used by the renderer.
var (
	ColdColor  = RGB{0x29, 0x62, 0xff} // heat 0
	HotColor   = RGB{0xff, 0x3d, 0x00} // heat 1
	TrailColor = RGB{0x54, 0x6e, 0x7a} // found-trail polyline
	HintColor  = RGB{0xff, 0xb3, 0x00} // region hint outline
	DebugColor = RGB{0x8e, 0x24, 0xaa} // debug target marker
)

// Hex renders the color as "#rrggbb" for Leaflet path options.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// HeatColor maps heat in [0,1] onto the cold→hot ramp. Out-of-range values
// clamp to the endpoints; channels round to the nearest integer.
func HeatColor(heat float64) RGB {
	t := clamp01(heat)
	return RGB{
		R: lerpChannel(ColdColor.R, HotColor.R, t),
		G: lerpChannel(ColdColor.G, HotColor.G, t),
		B: lerpChannel(ColdColor.B, HotColor.B, t),
	}
}

func lerpChannel(a, b uint8, t float64) uint8 {
	v := float64(a) + (float64(b)-float64(a))*t
	return uint8(v + 0.5) // +0.5 for rounding
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
