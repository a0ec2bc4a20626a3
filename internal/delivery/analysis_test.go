package delivery

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/burnwatch/burnwatch-api-poc/internal/composite"
	"github.com/burnwatch/burnwatch-api-poc/internal/config"
	"github.com/burnwatch/burnwatch-api-poc/internal/imagery"
	"github.com/burnwatch/burnwatch-api-poc/internal/imagery/imagerytest"
	"github.com/burnwatch/burnwatch-api-poc/internal/indices"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const collectionID = "COPERNICUS/S2_SR_HARMONIZED"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	roi, err := imagery.NewRegion(0, 0, 0.01, 0.01)
	require.NoError(t, err)

	return &config.Config{
		ROI:               roi,
		FireStartDate:     time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC),
		DefaultBeforeDate: time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
		DefaultAfterDate:  time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		CollectionID:      collectionID,
		BeforeWindowDays:  180,
		AfterWindowDays:   30,
		BeforeMaxCloudPct: 20,
		AfterMaxCloudPct:  30,
		Bands:             indices.BandMap{NIR: "B8", Red: "B4", SWIR: "B12", Green: "B3"},
		ScaleMeters:       111,
		MaxPixels:         1e9,
		Vis: map[string]config.LayerVis{
			"true_color":    {Bands: []string{"B4", "B3", "B2"}, Min: 0, Max: 3000},
			"nbr":           {Min: -1, Max: 1},
			"dnbr":          {Min: -0.5, Max: 1},
			"burn_severity": {Min: 0, Max: 5, Palette: []string{"white", "green", "yellow", "orange", "red", "purple"}},
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultRequest(cfg *config.Config) Request {
	return Request{BeforeDate: cfg.DefaultBeforeDate, AfterDate: cfg.DefaultAfterDate}
}

// burnEvaluator serves one pre-fire scene with healthy vegetation
// (NBR 0.5) and one post-fire scene with a burn scar (NBR -0.2), so the
// whole region lands at dNBR 0.7, class 5.
func burnEvaluator(cfg *config.Config) *imagerytest.Evaluator {
	props := map[string]float64{composite.CloudProperty: 5}
	return &imagerytest.Evaluator{Collections: map[string][]imagerytest.Scene{
		collectionID: {
			imagerytest.ConstantScene(cfg.DefaultBeforeDate.AddDate(0, 0, -10), props,
				map[string]float64{"B8": 0.6, "B4": 0.2, "B12": 0.2, "B3": 0.1}),
			imagerytest.ConstantScene(cfg.DefaultAfterDate.AddDate(0, 0, 10), props,
				map[string]float64{"B8": 0.2, "B4": 0.2, "B12": 0.3, "B3": 0.1}),
		},
	}}
}

func TestRunSevereBurn(t *testing.T) {
	cfg := testConfig(t)
	analyzer := NewAnalyzer(cfg, burnEvaluator(cfg), testLogger())

	report, err := analyzer.Run(context.Background(), defaultRequest(cfg))
	require.NoError(t, err)

	assert.False(t, report.Degenerate)
	assert.Empty(t, report.DegenerateReason)
	require.True(t, report.Stats.Available)

	roiHa := cfg.ROI.AreaHectares()
	assert.InDelta(t, roiHa, report.Stats.BurnedHectares, 1e-3)
	assert.InDelta(t, roiHa, report.Stats.ClassHectares[5], 1e-3)
	for class := 0; class < 5; class++ {
		assert.Zero(t, report.Stats.ClassHectares[class], "class %d", class)
	}

	names := make([]string, 0, len(report.Layers))
	for _, layer := range report.Layers {
		names = append(names, layer.Name)
		assert.NotEmpty(t, layer.Expression, layer.Name)
	}
	assert.Equal(t, []string{
		"true_color_before", "true_color_after",
		"nbr_before", "nbr_after", "dnbr",
		"ndvi_before", "ndvi_after",
		"ndwi_before", "ndwi_after",
		"burn_severity",
	}, names)

	assert.Equal(t, cfg.ROI, report.Region)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestRunNoImageryDegenerates(t *testing.T) {
	cfg := testConfig(t)
	eval := &imagerytest.Evaluator{Collections: map[string][]imagerytest.Scene{}}
	analyzer := NewAnalyzer(cfg, eval, testLogger())

	report, err := analyzer.Run(context.Background(), defaultRequest(cfg))
	require.NoError(t, err, "missing imagery must not fail the request")

	assert.True(t, report.Degenerate)
	assert.Contains(t, report.DegenerateReason, "missing bands")
	require.True(t, report.Stats.Available)

	// Zero sentinels: nothing burned, the whole region in class 1.
	assert.Zero(t, report.Stats.BurnedHectares)
	assert.InDelta(t, cfg.ROI.AreaHectares(), report.Stats.ClassHectares[1], 1e-3)
	assert.Len(t, report.Layers, 10)
}

func TestRunAggregationFailureIsAbsorbed(t *testing.T) {
	cfg := testConfig(t)
	eval := burnEvaluator(cfg)
	eval.SumErr = assert.AnError
	analyzer := NewAnalyzer(cfg, eval, testLogger())

	report, err := analyzer.Run(context.Background(), defaultRequest(cfg))
	require.NoError(t, err)

	assert.False(t, report.Stats.Available)
	assert.NotEmpty(t, report.Stats.Reason)
	assert.Len(t, report.Layers, 10, "layers still render without statistics")
}

func TestRunForwardsProgress(t *testing.T) {
	cfg := testConfig(t)
	analyzer := NewAnalyzer(cfg, burnEvaluator(cfg), testLogger())

	var ticks int
	analyzer.Progress = func(done, total int) { ticks++ }

	_, err := analyzer.Run(context.Background(), defaultRequest(cfg))
	require.NoError(t, err)
	assert.Equal(t, 7, ticks)
}

func TestLayerImages(t *testing.T) {
	cfg := testConfig(t)
	analyzer := NewAnalyzer(cfg, burnEvaluator(cfg), testLogger())

	images := analyzer.LayerImages(context.Background(), defaultRequest(cfg))
	for _, name := range []string{"true_color_before", "true_color_after", "dnbr", "burn_severity"} {
		assert.Contains(t, images, name)
	}
}

func TestSeverityUsesRequestDates(t *testing.T) {
	cfg := testConfig(t)
	eval := burnEvaluator(cfg)
	analyzer := NewAnalyzer(cfg, eval, testLogger())

	severityImg, set := analyzer.Severity(context.Background(), defaultRequest(cfg))
	require.False(t, set.Degenerate)

	v, masked := eval.SampleAt(severityImg, cfg.ROI, cfg.ScaleMeters)
	require.False(t, masked)
	assert.Equal(t, 5.0, v)

	// Shifting the before date outside the archive leaves no usable
	// before composite.
	early := Request{
		BeforeDate: cfg.DefaultBeforeDate.AddDate(-10, 0, 0),
		AfterDate:  cfg.DefaultAfterDate,
	}
	_, set = analyzer.Severity(context.Background(), early)
	assert.True(t, set.Degenerate)
}
