package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/georef/internal/config"
	"github.com/sells-group/georef/internal/model"
	"github.com/sells-group/georef/internal/reconcile"
	"github.com/sells-group/georef/internal/tabular"
	"github.com/sells-group/georef/pkg/geocode"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile OLD NEW [excel|json]",
	Short: "Reconcile a new address snapshot against the previous one",
	Long: "Joins NEW to OLD by id, reuses coordinates for unchanged addresses and geocodes new or changed ones. " +
		"The result is written to the output directory as an xlsx workbook (default) or a JSON list of records.",
	Args: reconcileArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("reconcile"); err != nil {
			return err
		}

		format := tabular.FormatExcel
		if len(args) == 3 {
			format, _ = tabular.ParseFormat(args[2])
		}

		ctx := cmd.Context()
		gc, closeClient, err := newGeocodeClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeClient()

		stats, path, err := runReconcile(ctx, cfg, args[0], args[1], format, gc)
		logClientStats(gc)
		if err != nil {
			return err
		}

		printSummary(os.Stdout, stats)
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

// reconcileArgs requires OLD and NEW and validates the optional format.
func reconcileArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.RangeArgs(2, 3)(cmd, args); err != nil {
		return fmt.Errorf("usage: %s: %w", cmd.Use, err)
	}
	if len(args) == 3 {
		if _, err := tabular.ParseFormat(args[2]); err != nil {
			return err
		}
	}
	return nil
}

// runReconcile reads both snapshots, reconciles them with gc and writes the
// result. Nothing is written if reconciliation fails.
func runReconcile(ctx context.Context, c *config.Config, oldPath, newPath string, format tabular.Format, gc geocode.Geocoder) (reconcile.Stats, string, error) {
	store := newStore(c)

	prev, err := readSnapshot(store, oldPath)
	if err != nil {
		return reconcile.Stats{}, "", err
	}
	next, err := readSnapshot(store, newPath)
	if err != nil {
		return reconcile.Stats{}, "", err
	}

	unlock, err := lockOutputDir(c.Output.Dir)
	if err != nil {
		return reconcile.Stats{}, "", err
	}
	defer unlock()

	zap.L().Info("reconcile: starting",
		zap.String("old", oldPath),
		zap.String("new", newPath),
		zap.Int("old_rows", len(prev)),
		zap.Int("new_rows", len(next)),
	)

	out, stats, err := reconcile.Reconcile(ctx, prev, next, gc)
	if err != nil {
		return stats, "", err
	}

	path := filepath.Join(c.Output.Dir, c.Output.ReconcileName+format.Ext())
	target := tabular.Target{Format: format, Fields: model.OutputFields}
	if err := store.WriteRows(path, target, out); err != nil {
		return stats, "", err
	}
	return stats, path, nil
}

func readSnapshot(store *tabular.Store, path string) (model.RowSet, error) {
	rows, cols, err := store.ReadRows(path)
	if err != nil {
		return nil, err
	}
	// An empty snapshot has no header to check.
	if len(rows) == 0 {
		return rows, nil
	}
	if err := store.Schema.Require(path, cols, model.FieldID); err != nil {
		return nil, err
	}
	return rows, nil
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
