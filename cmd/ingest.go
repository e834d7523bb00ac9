package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/georef/internal/batch"
	"github.com/sells-group/georef/internal/config"
	"github.com/sells-group/georef/internal/model"
	"github.com/sells-group/georef/internal/tabular"
	"github.com/sells-group/georef/pkg/geocode"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest INPUT",
	Short: "Geocode every row of an address spreadsheet",
	Long: "Builds the full address of each row from its parts and geocodes it, writing periodic checkpoints " +
		"and final xlsx and JSON outputs to the output directory.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		ctx := cmd.Context()
		gc, closeClient, err := newGeocodeClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeClient()

		resume, _ := cmd.Flags().GetString("resume")
		paths, err := runIngest(ctx, cfg, args[0], resume, gc)
		logClientStats(gc)
		if err != nil {
			return err
		}

		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

// ingestTargets are written both for checkpoints and the final output.
var ingestTargets = []tabular.Target{
	{Format: tabular.FormatExcel, Fields: model.AllFields},
	{Format: tabular.FormatJSON, Fields: model.AllFields},
}

// runIngest geocodes the rows in input and writes the final outputs. A
// non-empty resumePath names a checkpoint whose rows are not geocoded again.
func runIngest(ctx context.Context, c *config.Config, input, resumePath string, gc geocode.Geocoder) ([]string, error) {
	store := newStore(c)

	rows, cols, err := store.ReadRows(input)
	if err != nil {
		return nil, err
	}
	if err := store.Schema.Require(input, cols, model.AddressFields...); err != nil {
		return nil, err
	}
	if !cols.Has(model.FieldID) {
		rows.AssignOrdinalIDs()
	}

	var resume model.RowSet
	if resumePath != "" {
		if resume, _, err = store.ReadRows(resumePath); err != nil {
			return nil, err
		}
	}

	unlock, err := lockOutputDir(c.Output.Dir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	zap.L().Info("ingest: starting", zap.String("input", input), zap.Int("rows", len(rows)))

	out, err := batch.Run(ctx, rows, gc, batch.Options{
		CheckpointEvery: c.Batch.CheckpointEvery,
		ProgressEvery:   c.Batch.ProgressEvery,
		Resume:          resume,
		Checkpointer: &tabular.CheckpointWriter{
			Store:   store,
			Dir:     c.Output.Dir,
			Name:    c.Output.IngestName,
			Targets: ingestTargets,
		},
	})
	if err != nil {
		return nil, err
	}

	return store.WriteAll(c.Output.Dir, c.Output.IngestName, out, ingestTargets...)
}

func init() {
	ingestCmd.Flags().String("resume", "", "checkpoint file to resume from (e.g. geocoded_partial_1000.json)")
	rootCmd.AddCommand(ingestCmd)
}
