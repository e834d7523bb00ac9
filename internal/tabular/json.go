package tabular

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// readJSON decodes a list of records ([{...},{...}]). Columns are collected
// in first-seen key order across all records.
func readJSON(r io.Reader) (*Table, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	tok, err := decoder.Token()
	if err != nil {
		if err == io.EOF {
			return &Table{}, nil
		}
		return nil, eris.Wrap(err, "json: read opening token")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, eris.Errorf("json: expected '[', got %v", tok)
	}

	t := &Table{}
	index := make(map[string]int)
	var records []map[string]any

	for decoder.More() {
		rec, keys, err := decodeObject(decoder)
		if err != nil {
			return nil, eris.Wrapf(err, "json: decode record %d", len(records))
		}
		for _, k := range keys {
			if _, ok := index[k]; !ok {
				index[k] = len(t.Columns)
				t.Columns = append(t.Columns, k)
			}
		}
		records = append(records, rec)
	}

	if _, err := decoder.Token(); err != nil && err != io.EOF {
		return nil, eris.Wrap(err, "json: read closing token")
	}

	for _, rec := range records {
		values := make([]any, len(t.Columns))
		for k, v := range rec {
			values[index[k]] = v
		}
		t.Rows = append(t.Rows, values)
	}
	return t, nil
}

// decodeObject reads one JSON object token by token, keeping key order.
func decodeObject(decoder *json.Decoder) (map[string]any, []string, error) {
	tok, err := decoder.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, eris.Errorf("expected '{', got %v", tok)
	}

	rec := make(map[string]any)
	var keys []string
	for decoder.More() {
		keyTok, err := decoder.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, eris.Errorf("expected object key, got %v", keyTok)
		}
		var v any
		if err := decoder.Decode(&v); err != nil {
			return nil, nil, err
		}
		if _, seen := rec[key]; !seen {
			keys = append(keys, key)
		}
		rec[key] = v
	}

	if _, err := decoder.Token(); err != nil {
		return nil, nil, err
	}
	return rec, keys, nil
}

// record marshals one row with keys in column order.
type record struct {
	keys   []string
	values []any
}

func (r record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		var v any
		if i < len(r.values) {
			v = r.values[i]
		}
		if err := encodeValue(&buf, v); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encoder appends a newline after every value.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// writeJSON writes t as an indented list of records, non-ASCII kept verbatim.
func writeJSON(w io.Writer, t *Table) error {
	records := make([]record, len(t.Rows))
	for i, values := range t.Rows {
		records[i] = record{keys: t.Columns, values: values}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return eris.Wrap(err, "json: encode records")
	}
	return nil
}
