package domain

import (
	"encoding/json"
	"time"

	"github.com/nandanugg/tracker-geofence/module/core/geo"
)

type ShapeKind string

const (
	ShapeCircle  ShapeKind = "circle"
	ShapePolygon ShapeKind = "polygon"
)

// Shape is the closed set of boundary geometries. Only Circle and Polygon
// implement it.
type Shape interface {
	Kind() ShapeKind
	Contains(p geo.Point) bool
	// Valid reports whether the geometry can bound anything at all.
	Valid() bool
	isShape()
}

type Circle struct {
	Center       geo.Point `json:"center"`
	RadiusMeters float64   `json:"radius_meters"`
}

func (Circle) Kind() ShapeKind { return ShapeCircle }

func (c Circle) Contains(p geo.Point) bool {
	return geo.PointInCircle(p, c.Center, c.RadiusMeters)
}

// Valid requires an in-range center and a positive finite radius.
func (c Circle) Valid() bool {
	return ValidatePoint(c.Center) == nil && finite(c.RadiusMeters) && c.RadiusMeters > 0
}

func (Circle) isShape() {}

type Polygon struct {
	Vertices []geo.Point `json:"vertices"`
}

func (Polygon) Kind() ShapeKind { return ShapePolygon }

func (pg Polygon) Contains(p geo.Point) bool {
	return geo.PointInPolygon(p, pg.Vertices)
}

// Valid requires at least three distinct in-range vertices. A closing copy of
// the first vertex does not count.
func (pg Polygon) Valid() bool {
	distinct := make(map[geo.Point]struct{}, len(pg.Vertices))
	for _, v := range pg.Vertices {
		if ValidatePoint(v) != nil {
			return false
		}
		distinct[v] = struct{}{}
	}
	return len(distinct) >= 3
}

func (Polygon) isShape() {}

// Boundary is an owner's geofence. Inactive boundaries are filtered out by
// the store before they reach a GeofenceSet.
type Boundary struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Name      string    `json:"name"`
	Shape     Shape     `json:"-"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Valid is false for a boundary without a usable shape.
func (b Boundary) Valid() bool {
	return b.Shape != nil && b.Shape.Valid()
}

// GeofenceSet is the valid active boundaries of one owner in a stable order.
type GeofenceSet struct {
	boundaries []Boundary
}

// NewGeofenceSet keeps only valid boundaries, so an owner whose boundaries
// are all degenerate has an empty set.
func NewGeofenceSet(boundaries []Boundary) *GeofenceSet {
	valid := make([]Boundary, 0, len(boundaries))
	for _, b := range boundaries {
		if b.Valid() {
			valid = append(valid, b)
		}
	}
	return &GeofenceSet{boundaries: valid}
}

func (s *GeofenceSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.boundaries)
}

func (s *GeofenceSet) Boundaries() []Boundary {
	if s == nil {
		return nil
	}
	return s.boundaries
}

// ContainsAny returns the first boundary containing p. An empty set never
// matches.
func (s *GeofenceSet) ContainsAny(p geo.Point) (*Boundary, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.boundaries {
		b := &s.boundaries[i]
		if b.Shape.Contains(p) {
			return b, true
		}
	}
	return nil, false
}

// ContainmentVerdict is the result of evaluating one fix. HasFences is false
// when the owner had no valid active boundary, in which case Inside is false and
// carries no meaning.
type ContainmentVerdict struct {
	Inside    bool      `json:"inside"`
	HasFences bool      `json:"has_geofences"`
	Matched   *Boundary `json:"geofence,omitempty"`
}

type boundaryJSON struct {
	ID           int64       `json:"id"`
	OwnerID      int64       `json:"owner_id"`
	Name         string      `json:"name"`
	Shape        ShapeKind   `json:"shape"`
	Center       *geo.Point  `json:"center,omitempty"`
	RadiusMeters float64     `json:"radius_meters,omitempty"`
	Vertices     []geo.Point `json:"vertices,omitempty"`
	Active       bool        `json:"is_active"`
	CreatedAt    time.Time   `json:"created_at"`
}

func (b Boundary) MarshalJSON() ([]byte, error) {
	out := boundaryJSON{
		ID:        b.ID,
		OwnerID:   b.OwnerID,
		Name:      b.Name,
		Active:    b.Active,
		CreatedAt: b.CreatedAt,
	}
	switch s := b.Shape.(type) {
	case Circle:
		out.Shape = ShapeCircle
		out.Center = &s.Center
		out.RadiusMeters = s.RadiusMeters
	case Polygon:
		out.Shape = ShapePolygon
		out.Vertices = s.Vertices
	}
	return json.Marshal(out)
}
