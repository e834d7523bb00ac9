// Package batch geocodes a whole row-set in order, logging progress and
// writing periodic checkpoints.
package batch

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/georef/internal/model"
	"github.com/sells-group/georef/pkg/geocode"
)

// Defaults for Options.
const (
	DefaultCheckpointEvery = 1000
	DefaultProgressEvery   = 100
)

// Checkpointer persists the rows processed so far.
type Checkpointer interface {
	Checkpoint(ctx context.Context, processed int, rows model.RowSet) error
}

// Options configures Run.
type Options struct {
	CheckpointEvery int // <= 0 uses DefaultCheckpointEvery
	ProgressEvery   int // <= 0 uses DefaultProgressEvery
	Checkpointer    Checkpointer
	// Resume holds the rows of an earlier checkpoint. Their coordinates are
	// reused for the leading rows of the input, which are not geocoded again.
	Resume model.RowSet
}

func (o Options) withDefaults() Options {
	if o.CheckpointEvery <= 0 {
		o.CheckpointEvery = DefaultCheckpointEvery
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = DefaultProgressEvery
	}
	return o
}

// IntegrityError reports results that do not line up with the input rows.
type IntegrityError struct {
	Rows    int
	Results int
	Detail  string
}

func (e *IntegrityError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("batch: %d results for %d rows: %s", e.Results, e.Rows, e.Detail)
	}
	return fmt.Sprintf("batch: %d results for %d rows", e.Results, e.Rows)
}

// Run builds each row's full address, then geocodes every row with a
// non-empty address. It returns a new row-set; rows is not modified.
// Rows covered by opts.Resume take their coordinates from it and must carry
// the same ids in the same order.
func Run(ctx context.Context, rows model.RowSet, gc geocode.Geocoder, opts Options) (model.RowSet, error) {
	opts = opts.withDefaults()
	log := zap.L().With(zap.Int("total", len(rows)))

	out := make(model.RowSet, len(rows))
	copy(out, rows)
	for i := range out {
		out[i].DeriveFullAddress()
	}

	results := make([]*model.Coordinates, 0, len(out))
	for i, r := range opts.Resume {
		if i < len(out) {
			if r.ID != out[i].ID {
				return nil, &IntegrityError{
					Rows:    len(rows),
					Results: len(opts.Resume),
					Detail:  fmt.Sprintf("resumed row %d has id %d, input has id %d", i+1, r.ID, out[i].ID),
				}
			}
			out[i].Coords = copyCoords(r.Coords)
		}
		results = append(results, r.Coords)
	}
	if len(opts.Resume) > 0 {
		log.Info("batch: resuming from checkpoint", zap.Int("resumed", len(opts.Resume)))
	}

	for i := len(opts.Resume); i < len(out); i++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrapf(err, "batch: interrupted at row %d/%d", i+1, len(out))
		}

		r := &out[i]
		if r.FullAddress == "" {
			log.Debug("batch: empty address, skipping", zap.Int64("id", r.ID))
			r.Coords = nil
		} else {
			r.Coords = gc.Geocode(ctx, r.FullAddress)
		}
		results = append(results, r.Coords)

		processed := i + 1
		if processed%opts.ProgressEvery == 0 {
			log.Info(fmt.Sprintf("batch: processed %d/%d", processed, len(out)))
		}
		if opts.Checkpointer != nil && processed%opts.CheckpointEvery == 0 {
			if err := opts.Checkpointer.Checkpoint(ctx, processed, out[:processed]); err != nil {
				log.Error("batch: checkpoint failed", zap.Int("processed", processed), zap.Error(err))
			} else {
				log.Info("batch: checkpoint written", zap.Int("processed", processed))
			}
		}
	}

	if len(results) != len(rows) {
		return nil, &IntegrityError{Rows: len(rows), Results: len(results)}
	}

	log.Info("batch: complete",
		zap.Int("geocoded", out.CountCoords()),
		zap.Int("unresolved", len(out)-out.CountCoords()),
	)
	return out, nil
}

func copyCoords(c *model.Coordinates) *model.Coordinates {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
