// internal/geo/geo.go
//
// Spherical geometry primitives shared by the game engine and renderer.
// Responsibilities:
//   - Point: a WGS84 coordinate pair in degrees, JSON-shaped for Leaflet.
//   - Distance: great-circle distance in meters (haversine).
//   - Bearing/Destination: initial bearing and the spherical direct problem.
//   - Valid: range + finiteness check used before accepting coordinates.
//
// Notes:
//   - All math assumes a sphere of radius EarthRadiusM; good to well under
//     0.5% at game scales, which is far below the feedback tolerances.
//   - Inputs are never mutated; NaN propagates through Distance untouched.

package geo

import "math"

// EarthRadiusM is the mean Earth radius in meters.
const EarthRadiusM = 6371000.0

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"` // north positive
	Lng float64 `json:"lng"` // east positive
}

// Valid reports whether p is a finite coordinate inside the usual
// lat [-90,90] / lng [-180,180] ranges.
func Valid(p Point) bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return false
	}
	if math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Distance returns the great-circle distance between a and b in meters,
// using the haversine formula.
func Distance(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusM * c
}

// Bearing returns the initial great-circle bearing from a to b in degrees,
// normalized to [0,360) with 0 = north, 90 = east.
func Bearing(a, b Point) float64 {
	la1 := toRad(a.Lat)
	la2 := toRad(b.Lat)
	dLng := toRad(b.Lng - a.Lng)

	y := math.Sin(dLng) * math.Cos(la2)
	x := math.Cos(la1)*math.Sin(la2) - math.Sin(la1)*math.Cos(la2)*math.Cos(dLng)
	deg := toDeg(math.Atan2(y, x))
	return math.Mod(deg+360, 360)
}

var compassPoints = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// CompassPoint maps a bearing in degrees to its nearest 8-wind compass point.
func CompassPoint(bearingDeg float64) string {
	d := math.Mod(math.Mod(bearingDeg, 360)+360, 360)
	idx := int((d + 22.5) / 45)
	return compassPoints[idx%8]
}

// Destination returns the point reached by travelling distM meters from p
// along the given initial bearing (spherical direct problem).
func Destination(p Point, bearingDeg, distM float64) Point {
	la1 := toRad(p.Lat)
	lo1 := toRad(p.Lng)
	br := toRad(bearingDeg)
	ad := distM / EarthRadiusM // angular distance

	la2 := math.Asin(math.Sin(la1)*math.Cos(ad) +
		math.Cos(la1)*math.Sin(ad)*math.Cos(br))
	lo2 := lo1 + math.Atan2(
		math.Sin(br)*math.Sin(ad)*math.Cos(la1),
		math.Cos(ad)-math.Sin(la1)*math.Sin(la2))

	// wrap longitude back into [-180,180)
	lng := math.Mod(toDeg(lo2)+540, 360) - 180
	return Point{Lat: toDeg(la2), Lng: lng}
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

func toDeg(rad float64) float64 { return rad * 180 / math.Pi }
