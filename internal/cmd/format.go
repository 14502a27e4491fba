package cmd

import (
	"fmt"

	"github.com/harrison/binmeta/internal/config"
	"github.com/spf13/cobra"
)

// NewFormatCommand creates the 'binmeta format' command
func NewFormatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "format <filename-format>",
		Short: "Preview the note name a filename format produces",
		Long: `Expand a filename format for ` + config.SampleFile + ` and report characters
that are not allowed in file names.

Examples:
  binmeta format 'INFO_{{NAME}}_{{EXTENSION:UP}}'
  binmeta format '{{CDATE:YYYY-MM-DD}} {{NAME}}'`,
		Args: cobra.ExactArgs(1),
		RunE: runFormat,
	}
}

func runFormat(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	format, err := config.NormalizeFilenameFormat(args[0])
	if err != nil {
		return err
	}

	sample := config.SampleFileName(format, cfg.Formatter())
	fmt.Fprintf(cmd.OutOrStdout(), "Your current syntax looks like this: %s.md\n", sample)

	if r, bad := config.InvalidCharIn(sample); bad {
		return fmt.Errorf("file name must not include %q", r)
	}
	return nil
}
