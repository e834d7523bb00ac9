package tabular

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/georef/internal/model"
)

// Target is one output encoding: a format plus the fields it carries.
type Target struct {
	Format Format
	Fields []model.Field
}

// Store reads and writes row-sets using one header schema.
type Store struct {
	Schema Schema
}

// NewStore creates a Store. A nil schema uses DefaultSchema.
func NewStore(schema Schema) *Store {
	if schema == nil {
		schema = DefaultSchema()
	}
	return &Store{Schema: schema}
}

// ReadRows decodes the row-set stored at path.
func (s *Store) ReadRows(path string) (model.RowSet, Columns, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, nil, err
	}
	rows, cols, err := Decode(t, s.Schema)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "tabular: decode %s", path)
	}
	zap.L().Debug("tabular: read rows",
		zap.String("path", path),
		zap.Int("rows", len(rows)),
		zap.Int("columns", len(t.Columns)),
	)
	return rows, cols, nil
}

// WriteRows encodes rows to path in the target's format.
func (s *Store) WriteRows(path string, target Target, rows model.RowSet) error {
	if err := WriteTable(path, target.Format, Encode(rows, target.Fields, s.Schema)); err != nil {
		return err
	}
	zap.L().Info("tabular: wrote rows",
		zap.String("path", path),
		zap.String("format", string(target.Format)),
		zap.Int("rows", len(rows)),
	)
	return nil
}

// WriteAll writes rows to dir/name with each target's extension and returns
// the written paths.
func (s *Store) WriteAll(dir, name string, rows model.RowSet, targets ...Target) ([]string, error) {
	paths := make([]string, 0, len(targets))
	for _, target := range targets {
		path := filepath.Join(dir, name+target.Format.Ext())
		if err := s.WriteRows(path, target, rows); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// CheckpointWriter writes partial row-sets named after the processed count.
type CheckpointWriter struct {
	Store   *Store
	Dir     string
	Name    string
	Targets []Target
}

// CheckpointPath returns <dir>/<name>_partial_<processed><ext>.
func CheckpointPath(dir, name string, processed int, format Format) string {
	return filepath.Join(dir, fmt.Sprintf("%s_partial_%d%s", name, processed, format.Ext()))
}

// Checkpoint writes rows once per target.
func (w *CheckpointWriter) Checkpoint(ctx context.Context, processed int, rows model.RowSet) error {
	for _, target := range w.Targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := CheckpointPath(w.Dir, w.Name, processed, target.Format)
		if err := w.Store.WriteRows(path, target, rows); err != nil {
			return err
		}
	}
	return nil
}
