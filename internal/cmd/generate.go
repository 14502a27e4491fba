package cmd

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/harrison/binmeta/internal/display"
	"github.com/harrison/binmeta/internal/generator"
	"github.com/spf13/cobra"
)

// NewGenerateCommand creates the 'binmeta generate' command
func NewGenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate metadata notes for every eligible file",
		Long: `Create a metadata note for every file with a watched extension that is
not in the registry yet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			output := cmd.OutOrStdout()
			summary, err := s.pipeline.GenerateAllEligible(cmd.Context(), display.NewProgressIndicator(output, "Generating metadata"))
			if err != nil {
				return err
			}
			return reportSummary(output, summary)
		},
	}
}

// NewBackfillCommand creates the 'binmeta backfill' command
func NewBackfillCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Generate metadata notes for binary files no note links to",
		Long: `Find files with a watched extension that are not the target of any link
or embed in the vault's notes and generate a metadata note for each.

Examples:
  binmeta backfill --dry-run   # list unlinked files only
  binmeta backfill`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			output := cmd.OutOrStdout()

			if dryRun {
				files, err := s.pipeline.FindUnlinkedBinaries()
				if err != nil {
					return err
				}
				fmt.Fprintf(output, "%d unlinked binary files:\n", len(files))
				for _, f := range files {
					fmt.Fprintf(output, "  %s\n", f.Path)
				}
				return nil
			}

			summary, err := s.pipeline.GenerateForUnlinked(cmd.Context(), display.NewProgressIndicator(output, "Backfilling metadata"))
			if err != nil {
				return err
			}
			return reportSummary(output, summary)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List unlinked files without generating notes")

	return cmd
}

func reportSummary(output io.Writer, summary generator.Summary) error {
	fmt.Fprintf(output, "%d of %d notes created in %s\n", len(summary.Generated), summary.Total, summary.Duration.Round(time.Millisecond))
	if len(summary.Failed) == 0 {
		return nil
	}

	paths := make([]string, 0, len(summary.Failed))
	for p := range summary.Failed {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintf(output, "  failed %s: %v\n", p, summary.Failed[p])
	}
	return fmt.Errorf("%d of %d files failed", len(summary.Failed), summary.Total)
}
