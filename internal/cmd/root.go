package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for binmeta
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "binmeta",
		Short: "Metadata notes for binary files in a note vault",
		Long: `binmeta watches a vault of Markdown notes and attachments and creates
a companion metadata note for every new binary file (images, audio,
video, PDFs).

Note names and bodies are expanded from templates with placeholders
such as {{NAME}}, {{EXTENSION:UP}} and {{CDATE:YYYY-MM-DD}}. A registry
in .binmeta/ remembers which files already have a note.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("vault", "", "Vault root (default: nearest folder with .binmeta, or the current directory)")
	cmd.PersistentFlags().String("log-level", "", "Override log_level from the config (trace, debug, info, warn, error)")

	// Add subcommands
	cmd.AddCommand(NewInitCommand())
	cmd.AddCommand(NewConfigCommand())
	cmd.AddCommand(NewFormatCommand())
	cmd.AddCommand(NewExtCommand())
	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewGenerateCommand())
	cmd.AddCommand(NewBackfillCommand())
	cmd.AddCommand(NewForgetCommand())

	return cmd
}
