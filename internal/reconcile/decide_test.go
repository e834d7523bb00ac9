package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/georef/internal/model"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name   string
		pair   Pair
		reason Reason
		coords *model.Coordinates
	}{
		{
			name:   "no previous row",
			pair:   Pair{New: model.Row{FullAddress: "a"}},
			reason: ReasonNew,
		},
		{
			name:   "address changed",
			pair:   Pair{New: model.Row{FullAddress: "b"}, Old: &model.Row{FullAddress: "a", Coords: coords(1, 1)}},
			reason: ReasonChanged,
		},
		{
			name:   "unchanged with old coords",
			pair:   Pair{New: model.Row{FullAddress: "a"}, Old: &model.Row{FullAddress: "a", Coords: coords(1, 2)}},
			reason: ReasonCarried,
			coords: coords(1, 2),
		},
		{
			name:   "unchanged with new coords",
			pair:   Pair{New: model.Row{FullAddress: "a", Coords: coords(3, 4)}, Old: &model.Row{FullAddress: "a"}},
			reason: ReasonCarried,
			coords: coords(3, 4),
		},
		{
			name:   "unchanged without coords",
			pair:   Pair{New: model.Row{FullAddress: "a"}, Old: &model.Row{FullAddress: "a"}},
			reason: ReasonMissingCoords,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.pair)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, tt.reason != ReasonCarried, d.NeedsGeocode())
			assert.Equal(t, tt.coords, d.Coords)
			assert.Equal(t, tt.pair.New.FullAddress, d.Query)
		})
	}
}

func TestDecide_CarriedCoordsAreCopied(t *testing.T) {
	old := &model.Row{FullAddress: "a", Coords: coords(1, 2)}
	d := Decide(Pair{New: model.Row{FullAddress: "a"}, Old: old})
	require.NotNil(t, d.Coords)
	d.Coords.Latitude = 99
	assert.Equal(t, 1.0, old.Coords.Latitude)
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, "carried", ReasonCarried.String())
	assert.Equal(t, "new", ReasonNew.String())
	assert.Equal(t, "changed", ReasonChanged.String())
	assert.Equal(t, "missing_coords", ReasonMissingCoords.String())
	assert.Equal(t, "unknown", Reason(42).String())
}

func TestJoin(t *testing.T) {
	prev := model.RowSet{{ID: 1, Name: "first"}, {ID: 1, Name: "second"}, {ID: 2}}
	next := model.RowSet{{ID: 2}, {ID: 3}, {ID: 1}}

	pairs, err := Join(prev, next)
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	assert.Equal(t, int64(2), pairs[0].New.ID)
	require.NotNil(t, pairs[0].Old)
	assert.Nil(t, pairs[1].Old)
	assert.Equal(t, "first", pairs[2].Old.Name)
}
