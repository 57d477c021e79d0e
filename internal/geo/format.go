// internal/geo/format.go
//
// Display formatting for coordinates: degrees and decimal minutes with a
// hemisphere suffix, e.g. `32° 42.600' N`. The axis is passed explicitly so
// the caller never has to guess whether a bare float was a latitude.

package geo

import (
	"fmt"
	"math"
)

// Axis tells FormatDegrees which hemisphere letters apply.
type Axis int

const (
	AxisLat Axis = iota // N / S
	AxisLng             // E / W
)

// FormatDegrees renders v as whole degrees plus decimal minutes with three
// decimals and the hemisphere letter for the given axis. Zero formats as the
// positive hemisphere.
func FormatDegrees(v float64, axis Axis) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "--"
	}

	hemi := "N"
	if axis == AxisLng {
		hemi = "E"
		if v < 0 {
			hemi = "W"
		}
	} else if v < 0 {
		hemi = "S"
	}

	abs := math.Abs(v)
	deg := int(abs)
	min := (abs - float64(deg)) * 60
	// printing rounds minutes to 3 decimals; carry 60.000' into the degrees
	if min >= 59.9995 {
		deg++
		min = 0
	}
	return fmt.Sprintf("%d° %06.3f' %s", deg, min, hemi)
}

// FormatPoint renders p as "lat, lng" using FormatDegrees on both axes.
func FormatPoint(p Point) string {
	return FormatDegrees(p.Lat, AxisLat) + ", " + FormatDegrees(p.Lng, AxisLng)
}
