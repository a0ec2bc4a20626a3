// Package indices derives normalized-difference spectral indices from
// before/after composites. The band-name validation here is the one
// blocking call in graph construction; everything downstream of it is
// lazy.
package indices

import (
	"context"
	"fmt"
	"strings"

	"github.com/burnwatch/burnwatch-api-poc/internal/imagery"
)

// BandMap names the four spectral channels the indices are computed from.
type BandMap struct {
	NIR   string
	Red   string
	SWIR  string
	Green string
}

func (b BandMap) required() []string {
	return []string{b.NIR, b.Red, b.SWIR, b.Green}
}

// DegenerateReason distinguishes why a sentinel set was substituted.
type DegenerateReason int

const (
	ReasonNone DegenerateReason = iota
	// ReasonMissingBands means the band query succeeded but required
	// bands are absent, e.g. an empty composite.
	ReasonMissingBands
	// ReasonBandQueryFailed means the band metadata query itself errored.
	ReasonBandQueryFailed
)

func (r DegenerateReason) String() string {
	switch r {
	case ReasonMissingBands:
		return "missing bands"
	case ReasonBandQueryFailed:
		return "band query failed"
	default:
		return "none"
	}
}

// Set holds the seven derived rasters. When Degenerate is true every
// raster is a zero-constant sentinel and the pipeline still renders,
// showing no fire signal.
type Set struct {
	NBRBefore  imagery.Image
	NBRAfter   imagery.Image
	DNBR       imagery.Image
	NDVIBefore imagery.Image
	NDVIAfter  imagery.Image
	NDWIBefore imagery.Image
	NDWIAfter  imagery.Image

	Degenerate bool
	Reason     DegenerateReason
	Detail     string
}

// Layers returns the rasters under their exposed names.
func (s Set) Layers() map[string]imagery.Image {
	return map[string]imagery.Image{
		"nbr_before":  s.NBRBefore,
		"nbr_after":   s.NBRAfter,
		"dnbr":        s.DNBR,
		"ndvi_before": s.NDVIBefore,
		"ndvi_after":  s.NDVIAfter,
		"ndwi_before": s.NDWIBefore,
		"ndwi_after":  s.NDWIAfter,
	}
}

// Compute validates band presence on the before composite and derives NBR,
// NDVI and NDWI for both composites plus the dNBR damage signal. On a
// failed band query or missing bands it returns zero sentinels for every
// output instead of an error, so the dashboard keeps rendering.
func Compute(ctx context.Context, eval imagery.Evaluator, before, after imagery.Image, bands BandMap) Set {
	available, err := eval.BandNames(ctx, before)
	if err != nil {
		return degenerateSet(ReasonBandQueryFailed, err.Error())
	}

	var missing []string
	for _, name := range bands.required() {
		if !containsBand(available, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return degenerateSet(ReasonMissingBands, fmt.Sprintf("missing bands: %s", strings.Join(missing, ", ")))
	}

	nbrBefore := before.NormalizedDifference(bands.NIR, bands.SWIR).Rename("NBR_before")
	nbrAfter := after.NormalizedDifference(bands.NIR, bands.SWIR).Rename("NBR_after")

	return Set{
		NBRBefore:  nbrBefore,
		NBRAfter:   nbrAfter,
		DNBR:       nbrBefore.Subtract(nbrAfter).Rename("dNBR"),
		NDVIBefore: before.NormalizedDifference(bands.NIR, bands.Red).Rename("NDVI_before"),
		NDVIAfter:  after.NormalizedDifference(bands.NIR, bands.Red).Rename("NDVI_after"),
		NDWIBefore: before.NormalizedDifference(bands.Green, bands.NIR).Rename("NDWI_before"),
		NDWIAfter:  after.NormalizedDifference(bands.Green, bands.NIR).Rename("NDWI_after"),
	}
}

func degenerateSet(reason DegenerateReason, detail string) Set {
	zero := imagery.Constant(0)
	return Set{
		NBRBefore:  zero,
		NBRAfter:   zero,
		DNBR:       zero,
		NDVIBefore: zero,
		NDVIAfter:  zero,
		NDWIBefore: zero,
		NDWIAfter:  zero,
		Degenerate: true,
		Reason:     reason,
		Detail:     detail,
	}
}

func containsBand(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
