// Package delivery orchestrates one analysis request: composite
// selection, index derivation, severity classification, area aggregation
// and layer handle construction. Each request builds fresh computation
// graphs; nothing is shared between requests except the configuration.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/burnwatch/burnwatch-api-poc/internal/area"
	"github.com/burnwatch/burnwatch-api-poc/internal/composite"
	"github.com/burnwatch/burnwatch-api-poc/internal/config"
	"github.com/burnwatch/burnwatch-api-poc/internal/imagery"
	"github.com/burnwatch/burnwatch-api-poc/internal/indices"
	"github.com/burnwatch/burnwatch-api-poc/internal/render"
	"github.com/burnwatch/burnwatch-api-poc/internal/severity"
)

// Request is one before/after date pair to analyze.
type Request struct {
	BeforeDate time.Time
	AfterDate  time.Time
}

// Report is the terminal output of a request: renderable layer handles,
// the degenerate status of the index set, and area statistics.
type Report struct {
	BeforeDate time.Time      `json:"before_date"`
	AfterDate  time.Time      `json:"after_date"`
	Region     imagery.Region `json:"region"`

	Layers []render.Layer `json:"layers"`
	Stats  area.Stats     `json:"stats"`

	Degenerate       bool   `json:"degenerate"`
	DegenerateReason string `json:"degenerate_reason,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Analyzer runs analysis requests against one configured fire event.
type Analyzer struct {
	cfg    *config.Config
	eval   imagery.Evaluator
	logger *slog.Logger

	// Progress, when set, is forwarded to the area aggregation loop.
	Progress func(done, total int)
}

func NewAnalyzer(cfg *config.Config, eval imagery.Evaluator, logger *slog.Logger) *Analyzer {
	return &Analyzer{cfg: cfg, eval: eval, logger: logger}
}

// Severity rebuilds the severity graph for a request, for callers that
// export rasters rather than statistics.
func (a *Analyzer) Severity(ctx context.Context, req Request) (imagery.Image, indices.Set) {
	before, after := a.composites(req)
	set := indices.Compute(ctx, a.eval, before, after, a.cfg.Bands)
	return severity.Classify(set.DNBR), set
}

// LayerImages returns the raster handles a request exposes for download,
// keyed by layer name.
func (a *Analyzer) LayerImages(ctx context.Context, req Request) map[string]imagery.Image {
	before, after := a.composites(req)
	set := indices.Compute(ctx, a.eval, before, after, a.cfg.Bands)

	images := map[string]imagery.Image{
		"true_color_before": before,
		"true_color_after":  after,
		"dnbr":              set.DNBR,
		"burn_severity":     severity.Classify(set.DNBR),
	}
	return images
}

// Run executes the full pipeline for one request. Index degeneration and
// aggregation failures are absorbed into the report; an error is only
// returned when a layer handle cannot be encoded.
func (a *Analyzer) Run(ctx context.Context, req Request) (Report, error) {
	before, after := a.composites(req)

	set := indices.Compute(ctx, a.eval, before, after, a.cfg.Bands)
	if set.Degenerate {
		a.logger.Warn("band algebra degenerated to zero sentinels",
			"reason", set.Reason.String(), "detail", set.Detail)
	}

	severityImg := severity.Classify(set.DNBR)

	aggregator := area.NewAggregator(a.eval, a.cfg.ScaleMeters, a.cfg.MaxPixels)
	aggregator.Progress = a.Progress
	stats := aggregator.Aggregate(ctx, severityImg, set.DNBR, a.cfg.ROI)
	if !stats.Available {
		a.logger.Warn("area statistics unavailable", "reason", stats.Reason)
	}

	layers, err := a.buildLayers(before, after, set, severityImg)
	if err != nil {
		return Report{}, err
	}

	return Report{
		BeforeDate:       req.BeforeDate,
		AfterDate:        req.AfterDate,
		Region:           a.cfg.ROI,
		Layers:           layers,
		Stats:            stats,
		Degenerate:       set.Degenerate,
		DegenerateReason: degenerateDetail(set),
		GeneratedAt:      time.Now().UTC(),
	}, nil
}

func (a *Analyzer) composites(req Request) (imagery.Image, imagery.Image) {
	before := composite.Select(a.cfg.CollectionID, req.BeforeDate,
		a.cfg.BeforeWindowDays, 0, a.cfg.ROI, a.cfg.BeforeMaxCloudPct)
	after := composite.Select(a.cfg.CollectionID, req.AfterDate,
		0, a.cfg.AfterWindowDays, a.cfg.ROI, a.cfg.AfterMaxCloudPct)
	return before, after
}

func (a *Analyzer) buildLayers(before, after imagery.Image, set indices.Set, severityImg imagery.Image) ([]render.Layer, error) {
	type spec struct {
		name string
		img  imagery.Image
		vis  string
	}
	specs := []spec{
		{"true_color_before", before, "true_color"},
		{"true_color_after", after, "true_color"},
		{"nbr_before", set.NBRBefore, "nbr"},
		{"nbr_after", set.NBRAfter, "nbr"},
		{"dnbr", set.DNBR, "dnbr"},
		{"ndvi_before", set.NDVIBefore, "nbr"},
		{"ndvi_after", set.NDVIAfter, "nbr"},
		{"ndwi_before", set.NDWIBefore, "nbr"},
		{"ndwi_after", set.NDWIAfter, "nbr"},
		{"burn_severity", severityImg, "burn_severity"},
	}

	layers := make([]render.Layer, 0, len(specs))
	for _, s := range specs {
		layer, err := render.NewLayer(s.name, s.img, a.cfg.Vis[s.vis])
		if err != nil {
			return nil, fmt.Errorf("failed to build layer %s: %v", s.name, err)
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

func degenerateDetail(set indices.Set) string {
	if !set.Degenerate {
		return ""
	}
	return fmt.Sprintf("%s: %s", set.Reason, set.Detail)
}
