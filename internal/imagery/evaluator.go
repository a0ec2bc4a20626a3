package imagery

import "context"

// ReduceSpec bounds a region reduction: the geometry to sum over, the
// sampling resolution in meters, and a cap on how many pixels the service
// may evaluate. When the cap is exceeded the service truncates, so results
// are a lower-bound approximation.
type ReduceSpec struct {
	Region    Region
	Scale     float64
	MaxPixels int64
}

// Evaluator materializes values from computation graphs. These are the
// only blocking calls in the pipeline; everything else is graph
// construction. Implementations do not retry.
type Evaluator interface {
	// BandNames returns the band names of the image, querying the
	// imagery service.
	BandNames(ctx context.Context, img Image) ([]string, error)

	// SumRegion sums the image's pixel values over the spec's region,
	// keyed by band name. Masked pixels are excluded.
	SumRegion(ctx context.Context, img Image, spec ReduceSpec) (map[string]float64, error)
}
