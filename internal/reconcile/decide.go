package reconcile

import "github.com/sells-group/georef/internal/model"

// Reason explains the outcome of Decide for one pair.
type Reason int

const (
	// ReasonCarried means the previous coordinates are reused.
	ReasonCarried Reason = iota
	// ReasonNew means the id did not exist in the previous snapshot.
	ReasonNew
	// ReasonChanged means the full address differs from the previous one.
	ReasonChanged
	// ReasonMissingCoords means neither side holds usable coordinates.
	ReasonMissingCoords
)

func (r Reason) String() string {
	switch r {
	case ReasonCarried:
		return "carried"
	case ReasonNew:
		return "new"
	case ReasonChanged:
		return "changed"
	case ReasonMissingCoords:
		return "missing_coords"
	default:
		return "unknown"
	}
}

// Decision is the pure outcome for one pair, before any geocoding.
type Decision struct {
	Reason      Reason
	Query       string             // address to geocode when NeedsGeocode
	FullAddress string             // address written to the output row
	Coords      *model.Coordinates // carried coordinates when !NeedsGeocode
}

// NeedsGeocode reports whether fresh coordinates must be requested.
func (d Decision) NeedsGeocode() bool {
	return d.Reason != ReasonCarried
}

// Decide compares a pair. Both rows must already have their full address
// backfilled. The effective coordinates are the new row's, or the old row's
// when the address is unchanged and the new row has none.
func Decide(p Pair) Decision {
	d := Decision{Query: p.New.FullAddress, FullAddress: p.New.FullAddress}
	if d.FullAddress == "" && p.Old != nil {
		d.FullAddress = p.Old.FullAddress
	}

	switch {
	case p.Old == nil:
		d.Reason = ReasonNew
	case p.New.FullAddress != p.Old.FullAddress:
		d.Reason = ReasonChanged
	default:
		coords := p.New.Coords
		if coords == nil {
			coords = p.Old.Coords
		}
		if coords == nil {
			d.Reason = ReasonMissingCoords
			return d
		}
		c := *coords
		d.Reason = ReasonCarried
		d.Coords = &c
	}
	return d
}
