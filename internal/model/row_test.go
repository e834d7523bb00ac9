package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFullAddress(t *testing.T) {
	tests := []struct {
		name     string
		parts    []string
		expected string
	}{
		{"basic", []string{"Main St", "Town", "State"}, "Main St, Town, State"},
		{"trims parts", []string{"  Main St ", "Town  ", " State"}, "Main St, Town, State"},
		{"collapses internal runs", []string{"Calle   Mayor\t 5", "Alcalá  de Henares", "Madrid"}, "Calle Mayor 5, Alcalá de Henares, Madrid"},
		{"all empty", []string{"", "  ", "\t"}, ""},
		{"partial keeps positions", []string{"", "Town", "State"}, ", Town, State"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildFullAddress(tt.parts...))
		})
	}
}

func TestBuildFullAddress_Deterministic(t *testing.T) {
	a := BuildFullAddress("C/ Sol 1", "Getafe", "Madrid")
	b := BuildFullAddress("C/ Sol 1", "Getafe", "Madrid")
	assert.Equal(t, a, b)
}

func TestRow_BackfillFullAddress(t *testing.T) {
	r := Row{Street: "A St", Municipality: "X", Province: "Y"}
	r.BackfillFullAddress()
	assert.Equal(t, "A St, X, Y", r.FullAddress)

	r = Row{Street: "A St", Municipality: "X", Province: "Y", FullAddress: "Already, Set"}
	r.BackfillFullAddress()
	assert.Equal(t, "Already, Set", r.FullAddress)
}

func TestRowSet_Helpers(t *testing.T) {
	rs := RowSet{
		{ID: 7, Coords: &Coordinates{Latitude: 1, Longitude: 2}},
		{ID: 9},
		{ID: 11, Coords: &Coordinates{}},
	}

	assert.Equal(t, 2, rs.CountCoords())
	assert.Len(t, rs.IDs(), 3)

	rs.AssignOrdinalIDs()
	assert.Equal(t, int64(0), rs[0].ID)
	assert.Equal(t, int64(2), rs[2].ID)
}
