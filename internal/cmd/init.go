package cmd

import (
	"fmt"
	"os"

	"github.com/harrison/binmeta/internal/config"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the 'binmeta init' command
func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create .binmeta/config.yaml with default settings",
		Long: `Create the .binmeta folder in the vault root and write the default
configuration. An existing configuration is left untouched.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()

	root, err := vaultRoot(cmd)
	if err != nil {
		return err
	}
	if _, err := config.EnsureConfigDir(root); err != nil {
		return err
	}

	path := config.ConfigPath(root)
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(output, "Config already exists at %s\n", path)
		return nil
	}

	if err := config.DefaultConfig().Save(cmd.Context(), path); err != nil {
		return err
	}
	fmt.Fprintf(output, "Initialised binmeta in %s\n", root)
	fmt.Fprintf(output, "  Config: %s\n", path)
	return nil
}
