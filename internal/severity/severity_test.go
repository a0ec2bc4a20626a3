package severity

import (
	"testing"

	"github.com/burnwatch/burnwatch-api-poc/internal/imagery"
	"github.com/burnwatch/burnwatch-api-poc/internal/imagery/imagerytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// classOf classifies a uniform dNBR raster and reads back the class value.
func classOf(t *testing.T, dnbr float64) float64 {
	t.Helper()
	roi, err := imagery.NewRegion(0, 0, 0.01, 0.01)
	require.NoError(t, err)

	eval := &imagerytest.Evaluator{}
	v, masked := eval.SampleAt(Classify(imagery.Constant(dnbr)), roi, 100)
	require.False(t, masked)
	return v
}

func TestClassifyBins(t *testing.T) {
	cases := []struct {
		dnbr float64
		want float64
	}{
		{-0.5, 0},
		{-0.11, 0},
		{-0.1, 1}, // boundaries belong to the upper class
		{0.0, 1},
		{0.09, 1},
		{0.1, 2},
		{0.2, 2},
		{0.27, 3},
		{0.4, 3},
		{0.44, 4},
		{0.65, 4},
		{0.66, 5},
		{0.7, 5},
		{1.5, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classOf(t, tc.dnbr), "dNBR %v", tc.dnbr)
	}
}

func TestClassifyIsMonotonic(t *testing.T) {
	prev := classOf(t, -1.0)
	for d := -1.0; d <= 1.5; d += 0.01 {
		class := classOf(t, d)
		assert.GreaterOrEqual(t, class, prev, "class must not decrease at dNBR %v", d)
		assert.GreaterOrEqual(t, class, 0.0)
		assert.LessOrEqual(t, class, float64(Classes-1))
		prev = class
	}
}

func TestClassifyPreservesMask(t *testing.T) {
	roi, err := imagery.NewRegion(0, 0, 0.01, 0.01)
	require.NoError(t, err)

	eval := &imagerytest.Evaluator{}
	masked := imagery.Constant(0.7).UpdateMask(imagery.Constant(0))
	_, isMasked := eval.SampleAt(Classify(masked), roi, 100)
	assert.True(t, isMasked, "masked pixels stay masked through classification")
}

func TestBurnedThresholdMatchesClassTwo(t *testing.T) {
	// The burned cutoff and the lower bound of class 2 are the same value,
	// so "burned area" equals the sum of classes 2 through 5.
	assert.Equal(t, Breaks[1], float64(BurnedThreshold))
}

func TestLabelsCoverAllClasses(t *testing.T) {
	assert.Len(t, Labels, Classes)
	for _, label := range Labels {
		assert.NotEmpty(t, label)
	}
}
