package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	// same point should be 0
	assert.Equal(t, 0.0, Haversine(Point{Lat: -6.2088, Lon: 106.8456}, Point{Lat: -6.2088, Lon: 106.8456}))

	// 0.01 degree of latitude is roughly 1.1 km
	d := Haversine(Point{Lat: 10.0, Lon: 10.0}, Point{Lat: 10.01, Lon: 10.0})
	assert.InDelta(t, 1111.95, d, 1.0)

	// symmetric
	a, b := Point{Lat: 51.5007, Lon: -0.1246}, Point{Lat: 40.6892, Lon: -74.0445}
	assert.InDelta(t, Haversine(a, b), Haversine(b, a), 1e-6)
	assert.InDelta(t, 5574840, Haversine(a, b), 5000)
}

func TestHaversine_NaNPropagates(t *testing.T) {
	d := Haversine(Point{Lat: math.NaN(), Lon: 0}, Point{Lat: 0, Lon: 0})
	assert.True(t, math.IsNaN(d))
}

func TestPointInCircle(t *testing.T) {
	center := Point{Lat: 10.0, Lon: 10.0}
	p := Point{Lat: 10.0005, Lon: 10.0003}
	d := Haversine(p, center)

	assert.True(t, PointInCircle(center, center, 100))
	assert.True(t, PointInCircle(p, center, d), "point exactly on the radius is inside")
	assert.False(t, PointInCircle(p, center, d-0.01))
	assert.False(t, PointInCircle(Point{Lat: 10.01, Lon: 10.0}, center, 100))
}

func square() []Point {
	return []Point{
		{Lat: 9.99, Lon: 9.99},
		{Lat: 9.99, Lon: 10.01},
		{Lat: 10.01, Lon: 10.01},
		{Lat: 10.01, Lon: 9.99},
	}
}

func reversed(in []Point) []Point {
	out := make([]Point, len(in))
	for i, p := range in {
		out[len(in)-1-i] = p
	}
	return out
}

func TestPointInPolygon(t *testing.T) {
	// L-shaped polygon; the notch at the upper right is outside
	lShape := []Point{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 2},
		{Lat: 1, Lon: 2},
		{Lat: 1, Lon: 1},
		{Lat: 2, Lon: 1},
		{Lat: 2, Lon: 0},
	}
	closedSquare := append(square(), square()[0])

	tests := []struct {
		name     string
		vertices []Point
		p        Point
		want     bool
	}{
		{"interior clockwise", square(), Point{Lat: 10, Lon: 10}, true},
		{"interior counter-clockwise", reversed(square()), Point{Lat: 10, Lon: 10}, true},
		{"interior explicitly closed", closedSquare, Point{Lat: 10, Lon: 10}, true},
		{"interior closed and reversed", reversed(closedSquare), Point{Lat: 10.005, Lon: 9.995}, true},
		{"exterior", square(), Point{Lat: 10.02, Lon: 10}, false},
		{"exterior far away", closedSquare, Point{Lat: -40, Lon: 120}, false},
		{"concave interior", lShape, Point{Lat: 0.5, Lon: 1.5}, true},
		{"concave interior upper arm", lShape, Point{Lat: 1.5, Lon: 0.5}, true},
		{"concave notch", lShape, Point{Lat: 1.5, Lon: 1.5}, false},
		{"triangle interior", []Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 4}, {Lat: 3, Lon: 2}}, Point{Lat: 1, Lon: 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointInPolygon(tt.p, tt.vertices))
		})
	}
}

func TestPointInPolygon_TooFewVertices(t *testing.T) {
	p := Point{Lat: 0.5, Lon: 0.5}

	assert.False(t, PointInPolygon(p, nil))
	assert.False(t, PointInPolygon(p, []Point{{Lat: 0, Lon: 0}}))
	assert.False(t, PointInPolygon(p, []Point{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}}))
	// two distinct vertices plus a closing duplicate is still a line
	assert.False(t, PointInPolygon(p, []Point{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}, {Lat: 0, Lon: 0}}))
}
