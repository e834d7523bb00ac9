// Package model defines the address rows exchanged between the tabular store,
// the reconciler and the batch driver.
package model

import (
	"strings"
)

// Coordinates is a geocoded position. A row holds a *Coordinates so latitude
// and longitude are always present or absent together.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Row is one address record. Text fields use the empty string for "absent".
type Row struct {
	ID           int64
	Name         string
	Document     string
	Delegation   string
	Street       string
	Municipality string
	Province     string
	FullAddress  string
	Coords       *Coordinates
}

// RowSet is an ordered collection of rows sharing one schema.
type RowSet []Row

// HasCoords reports whether the row carries a coordinate pair.
func (r Row) HasCoords() bool {
	return r.Coords != nil
}

// DeriveFullAddress rebuilds FullAddress from the address parts.
func (r *Row) DeriveFullAddress() {
	r.FullAddress = BuildFullAddress(r.Street, r.Municipality, r.Province)
}

// BackfillFullAddress derives FullAddress only when it is empty.
func (r *Row) BackfillFullAddress() {
	if strings.TrimSpace(r.FullAddress) == "" {
		r.DeriveFullAddress()
	}
}

// BuildFullAddress trims each part, joins them with ", " and collapses runs
// of whitespace to a single space. All-empty parts produce "".
func BuildFullAddress(parts ...string) string {
	trimmed := make([]string, len(parts))
	empty := true
	for i, p := range parts {
		trimmed[i] = strings.TrimSpace(p)
		if trimmed[i] != "" {
			empty = false
		}
	}
	if empty {
		return ""
	}
	return CollapseSpaces(strings.Join(trimmed, ", "))
}

// CollapseSpaces replaces every whitespace run with one space and trims the ends.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IDs returns the set of ids present in the row-set.
func (rs RowSet) IDs() map[int64]struct{} {
	ids := make(map[int64]struct{}, len(rs))
	for _, r := range rs {
		ids[r.ID] = struct{}{}
	}
	return ids
}

// CountCoords returns how many rows carry coordinates.
func (rs RowSet) CountCoords() int {
	var n int
	for _, r := range rs {
		if r.HasCoords() {
			n++
		}
	}
	return n
}

// AssignOrdinalIDs sets each row's id to its 0-based position.
func (rs RowSet) AssignOrdinalIDs() {
	for i := range rs {
		rs[i].ID = int64(i)
	}
}
