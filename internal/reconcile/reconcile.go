package reconcile

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/georef/internal/model"
	"github.com/sells-group/georef/pkg/geocode"
)

// Stats counts reconcile outcomes.
type Stats struct {
	Total         int
	Carried       int
	New           int
	Changed       int
	MissingCoords int
	Matched       int
	Unmatched     int
	Removed       int
}

// Geocoded is the number of rows that needed a fresh lookup.
func (s Stats) Geocoded() int {
	return s.New + s.Changed + s.MissingCoords
}

func (s *Stats) count(r Reason) {
	switch r {
	case ReasonCarried:
		s.Carried++
	case ReasonNew:
		s.New++
	case ReasonChanged:
		s.Changed++
	case ReasonMissingCoords:
		s.MissingCoords++
	}
}

// Reconcile produces the next generation of next: one output row per new
// row, in order, with coordinates either carried from prev or requested from
// gc. The inputs are not modified. A cancelled context stops the run between
// rows and no partial result is returned.
func Reconcile(ctx context.Context, prev, next model.RowSet, gc geocode.Geocoder) (model.RowSet, Stats, error) {
	prev = backfilled(prev)
	next = backfilled(next)

	pairs, err := Join(prev, next)
	if err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{Total: len(pairs), Removed: countRemoved(prev, next)}
	out := make(model.RowSet, 0, len(pairs))

	for i, p := range pairs {
		if err := ctx.Err(); err != nil {
			return nil, stats, eris.Wrapf(err, "reconcile: interrupted at row %d/%d", i+1, len(pairs))
		}

		d := Decide(p)
		stats.count(d.Reason)

		row := p.New
		row.FullAddress = d.FullAddress
		row.Coords = d.Coords

		switch {
		case !d.NeedsGeocode():
		case d.Query == "":
			zap.L().Debug("reconcile: empty address, skipping geocode",
				zap.Int64("id", row.ID),
				zap.String("reason", d.Reason.String()),
			)
			stats.Unmatched++
		default:
			zap.L().Debug("reconcile: geocoding row",
				zap.Int64("id", row.ID),
				zap.String("reason", d.Reason.String()),
				zap.String("address", d.Query),
			)
			row.Coords = gc.Geocode(ctx, d.Query)
			if row.Coords != nil {
				stats.Matched++
			} else {
				stats.Unmatched++
			}
		}

		out = append(out, row)
	}

	zap.L().Info("reconcile: complete",
		zap.Int("rows", stats.Total),
		zap.Int("carried", stats.Carried),
		zap.Int("new", stats.New),
		zap.Int("changed", stats.Changed),
		zap.Int("missing_coords", stats.MissingCoords),
		zap.Int("matched", stats.Matched),
		zap.Int("unmatched", stats.Unmatched),
		zap.Int("removed", stats.Removed),
	)
	return out, stats, nil
}

func backfilled(rows model.RowSet) model.RowSet {
	out := make(model.RowSet, len(rows))
	copy(out, rows)
	for i := range out {
		out[i].BackfillFullAddress()
	}
	return out
}

func countRemoved(prev, next model.RowSet) int {
	ids := next.IDs()
	removed := make(map[int64]struct{})
	for _, r := range prev {
		if _, ok := ids[r.ID]; !ok {
			removed[r.ID] = struct{}{}
		}
	}
	return len(removed)
}
