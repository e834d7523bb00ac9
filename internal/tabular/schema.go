package tabular

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/georef/internal/model"
)

// Schema maps logical fields to the header text used on disk.
type Schema map[model.Field]string

// DefaultSchema returns the headers of the municipal address spreadsheets.
func DefaultSchema() Schema {
	return Schema{
		model.FieldID:           "id",
		model.FieldName:         "Nombre",
		model.FieldDocument:     "Documento",
		model.FieldDelegation:   "Delegación",
		model.FieldStreet:       "Dirección",
		model.FieldMunicipality: "Municipio",
		model.FieldProvince:     "Provincia",
		model.FieldFullAddress:  "DireccionCompleta",
		model.FieldLatitude:     "Latitud",
		model.FieldLongitude:    "Longitud",
	}
}

// Merge returns a copy of s with non-empty overrides applied.
func (s Schema) Merge(overrides map[model.Field]string) Schema {
	out := make(Schema, len(s))
	for f, h := range s {
		out[f] = h
	}
	for f, h := range overrides {
		if strings.TrimSpace(h) != "" {
			out[f] = h
		}
	}
	return out
}

// Header returns the header written for f, falling back to the field name.
func (s Schema) Header(f model.Field) string {
	if h, ok := s[f]; ok && h != "" {
		return h
	}
	return string(f)
}

// Resolve locates each field among columns. A column matches a field when
// its folded form equals the folded header or the folded field name.
func (s Schema) Resolve(columns []string) map[model.Field]int {
	byKey := make(map[string]int, len(columns))
	for i, c := range columns {
		k := HeaderKey(c)
		if _, dup := byKey[k]; !dup {
			byKey[k] = i
		}
	}

	idx := make(map[model.Field]int)
	for _, f := range model.AllFields {
		if i, ok := byKey[HeaderKey(s.Header(f))]; ok {
			idx[f] = i
			continue
		}
		if i, ok := byKey[HeaderKey(string(f))]; ok {
			idx[f] = i
		}
	}
	return idx
}

// HeaderKey folds a header for comparison: accents stripped, case folded,
// whitespace and underscores removed.
func HeaderKey(h string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, h)
	if err != nil {
		stripped = h
	}
	folded := cases.Fold().String(stripped)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' || r == '-' {
			return -1
		}
		return r
	}, folded)
}

// Columns records which fields were present in a decoded table.
type Columns map[model.Field]bool

// Has reports whether f was present.
func (c Columns) Has(f model.Field) bool {
	return c[f]
}

// MissingColumnsError reports required fields absent from an input table.
type MissingColumnsError struct {
	Path    string
	Headers []string
}

func (e *MissingColumnsError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("tabular: missing required columns: %s", strings.Join(e.Headers, ", "))
	}
	return fmt.Sprintf("tabular: %s: missing required columns: %s", e.Path, strings.Join(e.Headers, ", "))
}

// Require returns a *MissingColumnsError naming every field in fields that
// is absent from cols.
func (s Schema) Require(path string, cols Columns, fields ...model.Field) error {
	var missing []string
	for _, f := range fields {
		if !cols.Has(f) {
			missing = append(missing, s.Header(f))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingColumnsError{Path: path, Headers: missing}
}
