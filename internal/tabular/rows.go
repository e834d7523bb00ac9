package tabular

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/georef/internal/model"
)

// nullTokens are cell texts treated as an absent value.
var nullTokens = map[string]struct{}{
	"nan":  {},
	"none": {},
	"null": {},
}

// cellText renders a cell as trimmed text. The boolean is false for empty,
// nil and null-token cells.
func cellText(v any) (string, bool) {
	var s string
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		s = val
	case json.Number:
		s = val.String()
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		s = strconv.FormatInt(val, 10)
	case int:
		s = strconv.Itoa(val)
	case bool:
		s = strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", false
		}
		s = string(b)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if _, null := nullTokens[strings.ToLower(s)]; null {
		return "", false
	}
	return s, true
}

func parseFloat(s string) (float64, bool) {
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseID(s string) (int64, error) {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != math.Trunc(v) || math.Abs(v) > 1<<53 {
		return 0, eris.Errorf("tabular: invalid id %q", s)
	}
	return int64(v), nil
}

// Decode widens t to the full row schema. Fields whose column is missing
// decode to their absent value; the returned Columns records which were
// present. An id column with an empty or non-integral cell is an error.
func Decode(t *Table, schema Schema) (model.RowSet, Columns, error) {
	idx := schema.Resolve(t.Columns)
	cols := make(Columns, len(idx))
	for f := range idx {
		cols[f] = true
	}

	text := func(values []any, f model.Field) (string, bool) {
		i, ok := idx[f]
		if !ok || i >= len(values) {
			return "", false
		}
		return cellText(values[i])
	}

	rows := make(model.RowSet, 0, len(t.Rows))
	for n, values := range t.Rows {
		var r model.Row

		if cols.Has(model.FieldID) {
			raw, ok := text(values, model.FieldID)
			if !ok {
				return nil, nil, eris.Errorf("tabular: row %d: empty id", n+1)
			}
			id, err := parseID(raw)
			if err != nil {
				return nil, nil, eris.Wrapf(err, "tabular: row %d", n+1)
			}
			r.ID = id
		}

		r.Name, _ = text(values, model.FieldName)
		r.Document, _ = text(values, model.FieldDocument)
		r.Delegation, _ = text(values, model.FieldDelegation)
		r.Street, _ = text(values, model.FieldStreet)
		r.Municipality, _ = text(values, model.FieldMunicipality)
		r.Province, _ = text(values, model.FieldProvince)
		r.FullAddress, _ = text(values, model.FieldFullAddress)

		latText, latOK := text(values, model.FieldLatitude)
		lngText, lngOK := text(values, model.FieldLongitude)
		if latOK && lngOK {
			lat, ok1 := parseFloat(latText)
			lng, ok2 := parseFloat(lngText)
			if ok1 && ok2 {
				r.Coords = &model.Coordinates{Latitude: lat, Longitude: lng}
			}
		}

		rows = append(rows, r)
	}
	return rows, cols, nil
}

// Encode projects rows onto fields, in order, using schema headers.
// Absent coordinates encode as nil.
func Encode(rows model.RowSet, fields []model.Field, schema Schema) *Table {
	t := &Table{Columns: make([]string, len(fields)), Rows: make([][]any, len(rows))}
	for i, f := range fields {
		t.Columns[i] = schema.Header(f)
	}
	for n, r := range rows {
		values := make([]any, len(fields))
		for i, f := range fields {
			values[i] = fieldValue(r, f)
		}
		t.Rows[n] = values
	}
	return t
}

func fieldValue(r model.Row, f model.Field) any {
	switch f {
	case model.FieldID:
		return r.ID
	case model.FieldName:
		return r.Name
	case model.FieldDocument:
		return r.Document
	case model.FieldDelegation:
		return r.Delegation
	case model.FieldStreet:
		return r.Street
	case model.FieldMunicipality:
		return r.Municipality
	case model.FieldProvince:
		return r.Province
	case model.FieldFullAddress:
		return r.FullAddress
	case model.FieldLatitude:
		if r.Coords == nil {
			return nil
		}
		return r.Coords.Latitude
	case model.FieldLongitude:
		if r.Coords == nil {
			return nil
		}
		return r.Coords.Longitude
	default:
		return nil
	}
}
