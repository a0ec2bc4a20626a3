// Package imagerytest provides an in-memory interpreter for computation
// graphs, standing in for the remote imagery service in tests. It
// evaluates expressions per pixel over synthetic scenes on a grid derived
// from the reduction region and scale.
package imagerytest

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/burnwatch/burnwatch-api-poc/internal/imagery"
)

// Scene is one synthetic collection item.
type Scene struct {
	Date   time.Time
	Props  map[string]float64
	Bands  []string
	Bounds *imagery.Region // nil means the scene covers everything

	// Sample returns the band value at pixel (x, y).
	Sample func(band string, x, y int) float64
}

// ConstantScene builds a scene whose bands hold the same value everywhere.
func ConstantScene(date time.Time, props map[string]float64, bands map[string]float64) Scene {
	names := make([]string, 0, len(bands))
	for name := range bands {
		names = append(names, name)
	}
	sort.Strings(names)
	return Scene{
		Date:  date,
		Props: props,
		Bands: names,
		Sample: func(band string, x, y int) float64 {
			return bands[band]
		},
	}
}

// Evaluator implements imagery.Evaluator over synthetic collections.
type Evaluator struct {
	Collections map[string][]Scene

	// BandNamesErr and SumErr force the corresponding call to fail, for
	// exercising the fail-soft paths.
	BandNamesErr error
	SumErr       error
}

func (e *Evaluator) BandNames(ctx context.Context, img imagery.Image) ([]string, error) {
	if e.BandNamesErr != nil {
		return nil, e.BandNamesErr
	}
	return e.bandsOf(img.Expr()), nil
}

func (e *Evaluator) SumRegion(ctx context.Context, img imagery.Image, spec imagery.ReduceSpec) (map[string]float64, error) {
	if e.SumErr != nil {
		return nil, e.SumErr
	}

	g := newGrid(spec.Region, spec.Scale)
	total := int64(g.nx) * int64(g.ny)
	if spec.MaxPixels > 0 && total > spec.MaxPixels {
		total = spec.MaxPixels
	}

	sum := 0.0
	for i := int64(0); i < total; i++ {
		x := int(i) % g.nx
		y := int(i) / g.nx
		v, masked := e.sample(img.Expr(), "", g.pixel(x, y))
		if !masked {
			sum += v
		}
	}

	key := "sum"
	if bands := e.bandsOf(img.Expr()); len(bands) > 0 {
		key = bands[0]
	}
	return map[string]float64{key: sum}, nil
}

// SampleAt evaluates the image at pixel (0, 0) of the grid implied by the
// region and scale. Intended for constant or single-pixel assertions.
func (e *Evaluator) SampleAt(img imagery.Image, region imagery.Region, scale float64) (float64, bool) {
	g := newGrid(region, scale)
	return e.sample(img.Expr(), "", g.pixel(0, 0))
}

// SampleBandAt is SampleAt for one named band of a composite.
func (e *Evaluator) SampleBandAt(img imagery.Image, band string, region imagery.Region, scale float64) (float64, bool) {
	g := newGrid(region, scale)
	return e.sample(img.Expr(), band, g.pixel(0, 0))
}

type grid struct {
	region imagery.Region
	nx, ny int
}

type pixel struct {
	x, y     int
	lon, lat float64
	areaM2   float64
}

func newGrid(region imagery.Region, scale float64) grid {
	nx := int(math.Round(region.WidthMeters() / scale))
	if nx < 1 {
		nx = 1
	}
	ny := int(math.Round(region.HeightMeters() / scale))
	if ny < 1 {
		ny = 1
	}
	return grid{region: region, nx: nx, ny: ny}
}

func (g grid) pixel(x, y int) pixel {
	dx := (g.region.East() - g.region.West()) / float64(g.nx)
	dy := (g.region.North() - g.region.South()) / float64(g.ny)
	return pixel{
		x:      x,
		y:      y,
		lon:    g.region.West() + (float64(x)+0.5)*dx,
		lat:    g.region.South() + (float64(y)+0.5)*dy,
		areaM2: g.region.WidthMeters() / float64(g.nx) * g.region.HeightMeters() / float64(g.ny),
	}
}

// matching resolves the filter chain under a median node to the scenes
// that pass every filter.
func (e *Evaluator) matching(expr imagery.Expr) []Scene {
	switch n := expr.(type) {
	case imagery.CollectionNode:
		return e.Collections[n.ID]
	case imagery.FilterDateNode:
		var out []Scene
		for _, s := range e.matching(n.In) {
			if !s.Date.Before(n.Start) && !s.Date.After(n.End) {
				out = append(out, s)
			}
		}
		return out
	case imagery.FilterBoundsNode:
		var out []Scene
		for _, s := range e.matching(n.In) {
			if s.Bounds == nil || intersects(*s.Bounds, n.Region) {
				out = append(out, s)
			}
		}
		return out
	case imagery.FilterLtNode:
		var out []Scene
		for _, s := range e.matching(n.In) {
			if s.Props[n.Property] < n.Value {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func intersects(a, b imagery.Region) bool {
	return a.West() < b.East() && b.West() < a.East() && a.South() < b.North() && b.South() < a.North()
}

func (e *Evaluator) bandsOf(expr imagery.Expr) []string {
	switch n := expr.(type) {
	case imagery.MedianNode:
		scenes := e.matching(n.In)
		if len(scenes) == 0 {
			return []string{}
		}
		return scenes[0].Bands
	case imagery.ClipNode:
		return e.bandsOf(n.In)
	case imagery.ConstantNode:
		return []string{"constant"}
	case imagery.NormalizedDifferenceNode:
		return []string{"nd"}
	case imagery.SubtractNode:
		return e.bandsOf(n.A)
	case imagery.WhereNode:
		return e.bandsOf(n.In)
	case imagery.GteNode:
		return e.bandsOf(n.In)
	case imagery.LtNode:
		return e.bandsOf(n.In)
	case imagery.EqNode:
		return e.bandsOf(n.In)
	case imagery.AndNode:
		return e.bandsOf(n.A)
	case imagery.UpdateMaskNode:
		return e.bandsOf(n.In)
	case imagery.PixelAreaNode:
		return []string{"area"}
	case imagery.DivideNode:
		return e.bandsOf(n.In)
	case imagery.RenameNode:
		return []string{n.Band}
	default:
		return nil
	}
}

// sample evaluates the expression at one pixel. The band argument only
// matters for composites; derived single-band expressions ignore it.
func (e *Evaluator) sample(expr imagery.Expr, band string, px pixel) (float64, bool) {
	switch n := expr.(type) {
	case imagery.MedianNode:
		scenes := e.matching(n.In)
		if len(scenes) == 0 {
			return 0, true
		}
		values := make([]float64, 0, len(scenes))
		for _, s := range scenes {
			if !contains(s.Bands, band) {
				continue
			}
			values = append(values, s.Sample(band, px.x, px.y))
		}
		if len(values) == 0 {
			return 0, true
		}
		return median(values), false
	case imagery.ClipNode:
		if !n.Region.Contains(px.lon, px.lat) {
			return 0, true
		}
		return e.sample(n.In, band, px)
	case imagery.ConstantNode:
		return n.Value, false
	case imagery.NormalizedDifferenceNode:
		a, aMasked := e.sample(n.In, n.BandA, px)
		b, bMasked := e.sample(n.In, n.BandB, px)
		if aMasked || bMasked {
			return 0, true
		}
		if a+b == 0 {
			return 0, false
		}
		return (a - b) / (a + b), false
	case imagery.SubtractNode:
		a, aMasked := e.sample(n.A, band, px)
		b, bMasked := e.sample(n.B, band, px)
		if aMasked || bMasked {
			return 0, true
		}
		return a - b, false
	case imagery.WhereNode:
		v, masked := e.sample(n.In, band, px)
		if masked {
			return 0, true
		}
		t, tMasked := e.sample(n.Test, band, px)
		if !tMasked && t != 0 {
			return n.Value, false
		}
		return v, false
	case imagery.GteNode:
		v, masked := e.sample(n.In, band, px)
		if masked {
			return 0, true
		}
		if v >= n.Value {
			return 1, false
		}
		return 0, false
	case imagery.LtNode:
		v, masked := e.sample(n.In, band, px)
		if masked {
			return 0, true
		}
		if v < n.Value {
			return 1, false
		}
		return 0, false
	case imagery.EqNode:
		v, masked := e.sample(n.In, band, px)
		if masked {
			return 0, true
		}
		if v == n.Value {
			return 1, false
		}
		return 0, false
	case imagery.AndNode:
		a, aMasked := e.sample(n.A, band, px)
		b, bMasked := e.sample(n.B, band, px)
		if aMasked || bMasked {
			return 0, true
		}
		if a != 0 && b != 0 {
			return 1, false
		}
		return 0, false
	case imagery.UpdateMaskNode:
		m, masked := e.sample(n.Mask, band, px)
		if masked || m == 0 {
			return 0, true
		}
		return e.sample(n.In, band, px)
	case imagery.PixelAreaNode:
		return px.areaM2, false
	case imagery.DivideNode:
		v, masked := e.sample(n.In, band, px)
		if masked {
			return 0, true
		}
		return v / n.Value, false
	case imagery.RenameNode:
		return e.sample(n.In, band, px)
	default:
		return 0, true
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func median(values []float64) float64 {
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}
