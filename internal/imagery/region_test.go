package imagery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegionValidation(t *testing.T) {
	_, err := NewRegion(-118.65, 34.0, -118.45, 34.15)
	require.NoError(t, err)

	_, err = NewRegion(-118.45, 34.0, -118.65, 34.15)
	assert.Error(t, err, "west must be less than east")

	_, err = NewRegion(-118.65, 34.15, -118.45, 34.0)
	assert.Error(t, err, "south must be less than north")

	_, err = NewRegion(-190, 34.0, -118.45, 34.15)
	assert.Error(t, err, "longitude out of range")
}

func TestRegionContains(t *testing.T) {
	r, err := NewRegion(-118.65, 34.0, -118.45, 34.15)
	require.NoError(t, err)

	assert.True(t, r.Contains(-118.55, 34.05))
	assert.False(t, r.Contains(-118.70, 34.05))
	assert.False(t, r.Contains(-118.55, 33.0))
}

func TestRegionAreaHectares(t *testing.T) {
	// 0.01 x 0.01 degrees at the equator is about 1110 x 1110 meters.
	r, err := NewRegion(0, 0, 0.01, 0.01)
	require.NoError(t, err)

	assert.InDelta(t, 1110*1110/10_000.0, r.AreaHectares(), 1.0)
}

func TestRegionGeoJSON(t *testing.T) {
	r, err := NewRegion(-118.65, 34.0, -118.45, 34.15)
	require.NoError(t, err)

	g := r.GeoJSON()
	require.NotNil(t, g)
	assert.Equal(t, "Polygon", g.Type)
}
