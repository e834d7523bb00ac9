package geocode

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/georef/internal/model"
)

// Region is a lat/lng bounding box that accepted results must fall within.
type Region struct {
	bounds *geom.Bounds
}

// NewRegion builds a Region from its south-west and north-east corners.
func NewRegion(minLat, minLng, maxLat, maxLng float64) (*Region, error) {
	if minLat < -90 || maxLat > 90 || minLng < -180 || maxLng > 180 {
		return nil, eris.Errorf("geocode: region out of range (%g,%g,%g,%g)", minLat, minLng, maxLat, maxLng)
	}
	if minLat >= maxLat || minLng >= maxLng {
		return nil, eris.Errorf("geocode: region corners inverted (%g,%g,%g,%g)", minLat, minLng, maxLat, maxLng)
	}
	b := geom.NewBounds(geom.XY).Set(minLng, minLat, maxLng, maxLat)
	return &Region{bounds: b}, nil
}

// ParseRegion parses "min_lat,min_lng,max_lat,max_lng". An empty string
// disables the filter and returns (nil, nil).
func ParseRegion(s string) (*Region, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, eris.Errorf("geocode: region %q must have 4 comma-separated values", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "geocode: region value %q", p)
		}
		vals[i] = v
	}
	return NewRegion(vals[0], vals[1], vals[2], vals[3])
}

// Contains reports whether c lies inside the region (edges included).
func (r *Region) Contains(c model.Coordinates) bool {
	return r.bounds.OverlapsPoint(geom.XY, geom.Coord{c.Longitude, c.Latitude})
}
