package geocode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/georef/internal/model"
)

func TestParseRegion(t *testing.T) {
	r, err := ParseRegion("")
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = ParseRegion(" 36.0, -9.5, 43.8, 3.4 ")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.True(t, r.Contains(model.Coordinates{Latitude: 40.41, Longitude: -3.70}))
	assert.False(t, r.Contains(model.Coordinates{Latitude: 48.85, Longitude: 2.35}))
	assert.True(t, r.Contains(model.Coordinates{Latitude: 36.0, Longitude: -9.5}), "edges are inside")
}

func TestParseRegion_Invalid(t *testing.T) {
	for _, s := range []string{
		"1,2,3",
		"a,b,c,d",
		"43.8,-9.5,36.0,3.4", // inverted latitudes
		"-95,0,10,10",
	} {
		_, err := ParseRegion(s)
		assert.Error(t, err, "region %q", s)
	}
}
