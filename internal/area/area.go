// Package area aggregates per-class and total burned areas from a
// severity raster by summing a pixel-area raster over the region of
// interest.
package area

import (
	"context"

	"github.com/burnwatch/burnwatch-api-poc/internal/imagery"
	"github.com/burnwatch/burnwatch-api-poc/internal/severity"
)

// Stats is the terminal output of an analysis request: areas in hectares
// plus the parameters that produced them. When Available is false the
// remote computation failed and the dashboard shows an advisory instead of
// numbers.
type Stats struct {
	BurnedHectares float64                   `json:"burned_hectares"`
	ClassHectares  [severity.Classes]float64 `json:"class_hectares"`
	ScaleMeters    float64                   `json:"scale_meters"`
	MaxPixels      int64                     `json:"max_pixels"`
	Region         imagery.Region            `json:"region"`
	Available      bool                      `json:"available"`
	Reason         string                    `json:"reason,omitempty"`
}

// Aggregator sums pixel areas over a region at a fixed sampling scale,
// capped at MaxPixels evaluated pixels. When the cap is hit the service
// truncates, so results are a lower-bound approximation.
type Aggregator struct {
	eval        imagery.Evaluator
	scaleMeters float64
	maxPixels   int64

	// Progress, when set, is called after each per-class sum completes.
	Progress func(done, total int)
}

func NewAggregator(eval imagery.Evaluator, scaleMeters float64, maxPixels int64) *Aggregator {
	return &Aggregator{
		eval:        eval,
		scaleMeters: scaleMeters,
		maxPixels:   maxPixels,
	}
}

// Aggregate computes the total burned area (dNBR >= 0.1, i.e. severity
// class >= 2) and the area of each severity class over the region. Any
// evaluator failure is absorbed into an unavailable result; it is never
// returned as an error.
func (a *Aggregator) Aggregate(ctx context.Context, severityImg, dnbr imagery.Image, roi imagery.Region) Stats {
	stats := Stats{
		ScaleMeters: a.scaleMeters,
		MaxPixels:   a.maxPixels,
		Region:      roi,
	}
	spec := imagery.ReduceSpec{Region: roi, Scale: a.scaleMeters, MaxPixels: a.maxPixels}

	// Pixel area in hectares, on the severity raster's grid.
	areaImg := imagery.PixelArea().Divide(10_000)

	burned, err := a.sum(ctx, areaImg.UpdateMask(dnbr.Gte(severity.BurnedThreshold)), spec)
	if err != nil {
		stats.Reason = err.Error()
		return stats
	}
	stats.BurnedHectares = burned
	if a.Progress != nil {
		a.Progress(1, severity.Classes+1)
	}

	for class := 0; class < severity.Classes; class++ {
		sum, err := a.sum(ctx, areaImg.UpdateMask(severityImg.Eq(float64(class))), spec)
		if err != nil {
			stats.Reason = err.Error()
			return stats
		}
		stats.ClassHectares[class] = sum
		if a.Progress != nil {
			a.Progress(class+2, severity.Classes+1)
		}
	}

	stats.Available = true
	return stats
}

func (a *Aggregator) sum(ctx context.Context, img imagery.Image, spec imagery.ReduceSpec) (float64, error) {
	result, err := a.eval.SumRegion(ctx, img, spec)
	if err != nil {
		return 0, err
	}
	// The reduction returns a single band; take it whatever its key.
	for _, v := range result {
		return v, nil
	}
	return 0, nil
}
