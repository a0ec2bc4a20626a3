package imagery

import (
	"encoding/json"
	"time"
)

// Collection is an opaque handle to a server-side image collection
// expression. All methods return new handles; nothing is fetched until an
// Evaluator materializes a value.
type Collection struct {
	expr Expr
}

func ImageCollection(id string) Collection {
	return Collection{expr: CollectionNode{ID: id}}
}

func (c Collection) FilterDate(start, end time.Time) Collection {
	return Collection{expr: FilterDateNode{In: c.expr, Start: start, End: end}}
}

func (c Collection) FilterBounds(r Region) Collection {
	return Collection{expr: FilterBoundsNode{In: c.expr, Region: r}}
}

func (c Collection) FilterLt(property string, value float64) Collection {
	return Collection{expr: FilterLtNode{In: c.expr, Property: property, Value: value}}
}

// Median reduces the collection to a single image by per-pixel, per-band
// median. An empty collection reduces to a fully masked image with no
// bands.
func (c Collection) Median() Image {
	return Image{expr: MedianNode{In: c.expr}}
}

// Image is an opaque handle to a server-side raster, identified by its
// provenance expression rather than materialized pixels.
type Image struct {
	expr Expr
}

// Constant returns a single-band image with the same value everywhere.
// Used as the zero sentinel when real imagery is unavailable.
func Constant(v float64) Image {
	return Image{expr: ConstantNode{Value: v}}
}

// PixelArea returns an image whose pixel values are the pixel's area in
// square meters.
func PixelArea() Image {
	return Image{expr: PixelAreaNode{}}
}

func (img Image) Expr() Expr { return img.expr }

func (img Image) Clip(r Region) Image {
	return Image{expr: ClipNode{In: img.expr, Region: r}}
}

// NormalizedDifference computes (a-b)/(a+b) per pixel between the two
// named bands.
func (img Image) NormalizedDifference(bandA, bandB string) Image {
	return Image{expr: NormalizedDifferenceNode{In: img.expr, BandA: bandA, BandB: bandB}}
}

func (img Image) Subtract(other Image) Image {
	return Image{expr: SubtractNode{A: img.expr, B: other.expr}}
}

// Where replaces pixels where test is nonzero with value.
func (img Image) Where(test Image, value float64) Image {
	return Image{expr: WhereNode{In: img.expr, Test: test.expr, Value: value}}
}

func (img Image) Gte(value float64) Image {
	return Image{expr: GteNode{In: img.expr, Value: value}}
}

func (img Image) Lt(value float64) Image {
	return Image{expr: LtNode{In: img.expr, Value: value}}
}

func (img Image) Eq(value float64) Image {
	return Image{expr: EqNode{In: img.expr, Value: value}}
}

func (img Image) And(other Image) Image {
	return Image{expr: AndNode{A: img.expr, B: other.expr}}
}

func (img Image) UpdateMask(mask Image) Image {
	return Image{expr: UpdateMaskNode{In: img.expr, Mask: mask.expr}}
}

func (img Image) Divide(value float64) Image {
	return Image{expr: DivideNode{In: img.expr, Value: value}}
}

func (img Image) Rename(band string) Image {
	return Image{expr: RenameNode{In: img.expr, Band: band}}
}

func (img Image) MarshalJSON() ([]byte, error) {
	wire, err := EncodeExpr(img.expr)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire)
}
