package imagery

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// metersPerDegree is the approximate length of one degree of latitude.
const metersPerDegree = 111_000.0

// Region is an axis-aligned rectangle in geographic coordinates. It bounds
// every collection query and area reduction, and clips every composite.
// Immutable once constructed.
type Region struct {
	bound orb.Bound
}

func NewRegion(west, south, east, north float64) (Region, error) {
	if west >= east || south >= north {
		return Region{}, fmt.Errorf("invalid region: west %f, south %f, east %f, north %f", west, south, east, north)
	}
	if west < -180 || east > 180 || south < -90 || north > 90 {
		return Region{}, fmt.Errorf("region out of geographic range: west %f, south %f, east %f, north %f", west, south, east, north)
	}
	return Region{bound: orb.Bound{
		Min: orb.Point{west, south},
		Max: orb.Point{east, north},
	}}, nil
}

func (r Region) West() float64  { return r.bound.Min[0] }
func (r Region) South() float64 { return r.bound.Min[1] }
func (r Region) East() float64  { return r.bound.Max[0] }
func (r Region) North() float64 { return r.bound.Max[1] }

// Center returns the midpoint as (lat, lon).
func (r Region) Center() (float64, float64) {
	c := r.bound.Center()
	return c[1], c[0]
}

// Contains reports whether the point (lon, lat) falls inside the region.
func (r Region) Contains(lon, lat float64) bool {
	return r.bound.Contains(orb.Point{lon, lat})
}

// WidthMeters returns the approximate east-west extent at the region's
// central latitude.
func (r Region) WidthMeters() float64 {
	latRad := (r.South() + r.North()) / 2 * math.Pi / 180
	return (r.East() - r.West()) * metersPerDegree * math.Cos(latRad)
}

// HeightMeters returns the approximate north-south extent.
func (r Region) HeightMeters() float64 {
	return (r.North() - r.South()) * metersPerDegree
}

// AreaHectares returns the nominal area of the rectangle. Area statistics
// computed by reduction exclude masked pixels and will generally come in
// under this value.
func (r Region) AreaHectares() float64 {
	return r.WidthMeters() * r.HeightMeters() / 10_000
}

// GeoJSON returns the region as a GeoJSON polygon geometry for wire
// payloads.
func (r Region) GeoJSON() *geojson.Geometry {
	return geojson.NewGeometry(r.bound.ToPolygon())
}

func (r Region) MarshalJSON() ([]byte, error) {
	return r.GeoJSON().MarshalJSON()
}

func (r Region) String() string {
	return fmt.Sprintf("[%g, %g, %g, %g]", r.West(), r.South(), r.East(), r.North())
}
