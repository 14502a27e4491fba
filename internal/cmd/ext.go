package cmd

import (
	"fmt"

	"github.com/harrison/binmeta/internal/config"
	"github.com/spf13/cobra"
)

// NewExtCommand creates the 'binmeta ext' parent command
func NewExtCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ext",
		Short: "Manage watched file extensions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List watched extensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			for _, ext := range cfg.Matcher().List() {
				fmt.Fprintln(cmd.OutOrStdout(), ext)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <ext>...",
		Short: "Watch additional extensions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateExtensions(cmd, args, (*config.Config).AddExtension, "Added")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <ext>...",
		Short: "Stop watching extensions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateExtensions(cmd, args, (*config.Config).RemoveExtension, "Removed")
		},
	})

	return cmd
}

// updateExtensions applies op to every argument and saves once all succeeded.
func updateExtensions(cmd *cobra.Command, args []string, op func(*config.Config, string) (string, error), verb string) error {
	root, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	done := make([]string, 0, len(args))
	for _, arg := range args {
		ext, err := op(cfg, arg)
		if err != nil {
			return err
		}
		done = append(done, ext)
	}

	if err := cfg.Save(cmd.Context(), config.ConfigPath(root)); err != nil {
		return err
	}
	for _, ext := range done {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, ext)
	}
	return nil
}
