package composite

import (
	"context"
	"testing"
	"time"

	"github.com/burnwatch/burnwatch-api-poc/internal/imagery"
	"github.com/burnwatch/burnwatch-api-poc/internal/imagery/imagerytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const collectionID = "COPERNICUS/S2_SR_HARMONIZED"

func testRegion(t *testing.T) imagery.Region {
	t.Helper()
	roi, err := imagery.NewRegion(0, 0, 0.01, 0.01)
	require.NoError(t, err)
	return roi
}

func scene(date time.Time, cloudPct float64, value float64) imagerytest.Scene {
	return imagerytest.ConstantScene(date,
		map[string]float64{CloudProperty: cloudPct},
		map[string]float64{"B8": value, "B4": value, "B12": value, "B3": value})
}

func TestSelectCloudFilterIsStrict(t *testing.T) {
	roi := testRegion(t)
	center := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	eval := &imagerytest.Evaluator{Collections: map[string][]imagerytest.Scene{
		collectionID: {
			scene(center.AddDate(0, 0, 5), 20.0, 0.5), // equal to the limit, excluded
		},
	}}

	img := Select(collectionID, center, 0, 30, roi, 20)
	bands, err := eval.BandNames(context.Background(), img)
	require.NoError(t, err)
	assert.Empty(t, bands, "item with cloud cover equal to the limit must be excluded")

	eval.Collections[collectionID] = []imagerytest.Scene{
		scene(center.AddDate(0, 0, 5), 19.9, 0.5),
	}
	bands, err = eval.BandNames(context.Background(), img)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"B3", "B4", "B8", "B12"}, bands)
}

func TestSelectDateWindow(t *testing.T) {
	roi := testRegion(t)
	center := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)

	inWindow := scene(center.AddDate(0, 0, -180), 5, 0.4) // exactly at the window start
	afterCenter := scene(center.AddDate(0, 0, 1), 5, 0.9) // past the window end

	eval := &imagerytest.Evaluator{Collections: map[string][]imagerytest.Scene{
		collectionID: {inWindow, afterCenter},
	}}

	// A before-fire composite looks back only, so the later scene must
	// not leak into the median.
	img := Select(collectionID, center, 180, 0, roi, 20)
	v, masked := eval.SampleBandAt(img, "B8", roi, 100)
	require.False(t, masked)
	assert.InDelta(t, 0.4, v, 1e-9)
}

func TestSelectBoundsFilter(t *testing.T) {
	roi := testRegion(t)
	center := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)

	farAway, err := imagery.NewRegion(10, 10, 10.01, 10.01)
	require.NoError(t, err)

	outside := scene(center.AddDate(0, 0, -5), 5, 0.9)
	outside.Bounds = &farAway

	eval := &imagerytest.Evaluator{Collections: map[string][]imagerytest.Scene{
		collectionID: {
			scene(center.AddDate(0, 0, -10), 5, 0.4),
			outside,
		},
	}}

	img := Select(collectionID, center, 180, 0, roi, 20)
	v, masked := eval.SampleBandAt(img, "B8", roi, 100)
	require.False(t, masked)
	assert.InDelta(t, 0.4, v, 1e-9)
}

func TestSelectEmptyWindowYieldsMaskedImage(t *testing.T) {
	roi := testRegion(t)
	center := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	eval := &imagerytest.Evaluator{Collections: map[string][]imagerytest.Scene{}}

	img := Select(collectionID, center, 0, 30, roi, 20)
	bands, err := eval.BandNames(context.Background(), img)
	require.NoError(t, err)
	assert.Empty(t, bands)

	_, masked := eval.SampleBandAt(img, "B8", roi, 100)
	assert.True(t, masked)
}

func TestSelectMedianOfMultipleScenes(t *testing.T) {
	roi := testRegion(t)
	center := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)

	eval := &imagerytest.Evaluator{Collections: map[string][]imagerytest.Scene{
		collectionID: {
			scene(center.AddDate(0, 0, -10), 5, 0.1),
			scene(center.AddDate(0, 0, -20), 5, 0.5),
			scene(center.AddDate(0, 0, -30), 5, 0.9),
		},
	}}

	img := Select(collectionID, center, 180, 0, roi, 20)
	v, masked := eval.SampleBandAt(img, "B8", roi, 100)
	require.False(t, masked)
	assert.InDelta(t, 0.5, v, 1e-9)
}

func TestSelectClipsToRegion(t *testing.T) {
	roi := testRegion(t)
	center := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)

	eval := &imagerytest.Evaluator{Collections: map[string][]imagerytest.Scene{
		collectionID: {scene(center.AddDate(0, 0, -10), 5, 0.4)},
	}}

	// Sampling on a grid anchored outside the clip region must come back
	// masked even though the scene itself covers everything.
	outside, err := imagery.NewRegion(1, 1, 1.01, 1.01)
	require.NoError(t, err)

	img := Select(collectionID, center, 180, 0, roi, 20)
	_, masked := eval.SampleBandAt(img, "B8", outside, 100)
	assert.True(t, masked)
}
