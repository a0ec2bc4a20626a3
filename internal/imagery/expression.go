package imagery

import (
	"fmt"
	"time"
)

// Expr is one node of a declarative computation graph. Building a graph
// performs no remote work; the imagery service executes it when an
// Evaluator call materializes a value from it.
type Expr interface {
	exprNode()
}

// Collection and filter nodes.

type CollectionNode struct {
	ID string
}

type FilterDateNode struct {
	In         Expr
	Start, End time.Time
}

type FilterBoundsNode struct {
	In     Expr
	Region Region
}

// FilterLtNode keeps collection items whose metadata property is strictly
// less than Value.
type FilterLtNode struct {
	In       Expr
	Property string
	Value    float64
}

type MedianNode struct {
	In Expr
}

// Image nodes.

type ConstantNode struct {
	Value float64
}

type ClipNode struct {
	In     Expr
	Region Region
}

type NormalizedDifferenceNode struct {
	In           Expr
	BandA, BandB string
}

type SubtractNode struct {
	A, B Expr
}

// WhereNode replaces pixels where Test is nonzero with Value, keeping the
// input elsewhere. The input's mask is preserved.
type WhereNode struct {
	In    Expr
	Test  Expr
	Value float64
}

type GteNode struct {
	In    Expr
	Value float64
}

type LtNode struct {
	In    Expr
	Value float64
}

type EqNode struct {
	In    Expr
	Value float64
}

type AndNode struct {
	A, B Expr
}

// UpdateMaskNode masks out pixels where Mask is zero or itself masked.
type UpdateMaskNode struct {
	In   Expr
	Mask Expr
}

// PixelAreaNode yields the area of each pixel in square meters.
type PixelAreaNode struct{}

type DivideNode struct {
	In    Expr
	Value float64
}

type RenameNode struct {
	In   Expr
	Band string
}

func (CollectionNode) exprNode()           {}
func (FilterDateNode) exprNode()           {}
func (FilterBoundsNode) exprNode()         {}
func (FilterLtNode) exprNode()             {}
func (MedianNode) exprNode()               {}
func (ConstantNode) exprNode()             {}
func (ClipNode) exprNode()                 {}
func (NormalizedDifferenceNode) exprNode() {}
func (SubtractNode) exprNode()             {}
func (WhereNode) exprNode()                {}
func (GteNode) exprNode()                  {}
func (LtNode) exprNode()                   {}
func (EqNode) exprNode()                   {}
func (AndNode) exprNode()                  {}
func (UpdateMaskNode) exprNode()           {}
func (PixelAreaNode) exprNode()            {}
func (DivideNode) exprNode()               {}
func (RenameNode) exprNode()               {}

// EncodeExpr converts an expression tree to the JSON object structure the
// imagery service accepts.
func EncodeExpr(e Expr) (map[string]interface{}, error) {
	switch n := e.(type) {
	case CollectionNode:
		return map[string]interface{}{"op": "collection", "id": n.ID}, nil
	case FilterDateNode:
		in, err := EncodeExpr(n.In)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"op":    "filterDate",
			"input": in,
			"start": n.Start.Format(time.RFC3339),
			"end":   n.End.Format(time.RFC3339),
		}, nil
	case FilterBoundsNode:
		in, err := EncodeExpr(n.In)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"op": "filterBounds", "input": in, "region": n.Region.GeoJSON()}, nil
	case FilterLtNode:
		in, err := EncodeExpr(n.In)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"op": "filterLt", "input": in, "property": n.Property, "value": n.Value}, nil
	case MedianNode:
		in, err := EncodeExpr(n.In)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"op": "median", "input": in}, nil
	case ConstantNode:
		return map[string]interface{}{"op": "constant", "value": n.Value}, nil
	case ClipNode:
		in, err := EncodeExpr(n.In)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"op": "clip", "input": in, "region": n.Region.GeoJSON()}, nil
	case NormalizedDifferenceNode:
		in, err := EncodeExpr(n.In)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"op": "normalizedDifference", "input": in, "bands": []string{n.BandA, n.BandB}}, nil
	case SubtractNode:
		a, err := EncodeExpr(n.A)
		if err != nil {
			return nil, err
		}
		b, err := EncodeExpr(n.B)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"op": "subtract", "left": a, "right": b}, nil
	case WhereNode:
		in, err := EncodeExpr(n.In)
		if err != nil {
			return nil, err
		}
		test, err := EncodeExpr(n.Test)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"op": "where", "input": in, "test": test, "value": n.Value}, nil
	case GteNode:
		in, err := EncodeExpr(n.In)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"op": "gte", "input": in, "value": n.Value}, nil
	case LtNode:
		in, err := EncodeExpr(n.In)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"op": "lt", "input": in, "value": n.Value}, nil
	case EqNode:
		in, err := EncodeExpr(n.In)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"op": "eq", "input": in, "value": n.Value}, nil
	case AndNode:
		a, err := EncodeExpr(n.A)
		if err != nil {
			return nil, err
		}
		b, err := EncodeExpr(n.B)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"op": "and", "left": a, "right": b}, nil
	case UpdateMaskNode:
		in, err := EncodeExpr(n.In)
		if err != nil {
			return nil, err
		}
		mask, err := EncodeExpr(n.Mask)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"op": "updateMask", "input": in, "mask": mask}, nil
	case PixelAreaNode:
		return map[string]interface{}{"op": "pixelArea"}, nil
	case DivideNode:
		in, err := EncodeExpr(n.In)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"op": "divide", "input": in, "value": n.Value}, nil
	case RenameNode:
		in, err := EncodeExpr(n.In)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"op": "rename", "input": in, "band": n.Band}, nil
	default:
		return nil, fmt.Errorf("unknown expression node %T", e)
	}
}
