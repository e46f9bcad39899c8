// Package geo holds the pure geometry used for geofence containment.
package geo

import "math"

const earthRadiusMeters = 6371000

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PointInCircle reports whether p lies within radiusMeters of center.
// A point exactly on the radius counts as inside.
func PointInCircle(p, center Point, radiusMeters float64) bool {
	return Haversine(p, center) <= radiusMeters
}

// PointInPolygon runs a ray cast over the polygon in lon/lat space. The ring
// is closed implicitly; a trailing copy of the first vertex is ignored.
// Fewer than three vertices never contain anything. Points exactly on an edge
// or vertex may land on either side.
func PointInPolygon(p Point, vertices []Point) bool {
	ring := openRing(vertices)
	if len(ring) < 3 {
		return false
	}

	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			crossLon := (b.Lon-a.Lon)*(p.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lon
			if p.Lon < crossLon {
				inside = !inside
			}
		}
	}
	return inside
}

func openRing(vertices []Point) []Point {
	n := len(vertices)
	if n > 1 && vertices[0] == vertices[n-1] {
		return vertices[:n-1]
	}
	return vertices
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
