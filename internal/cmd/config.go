package cmd

import (
	"fmt"

	"github.com/harrison/binmeta/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the 'binmeta config' parent command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change vault settings",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			output := cmd.OutOrStdout()
			fmt.Fprintf(output, "# %s\n", config.ConfigPath(root))
			_, err = output.Write(data)
			return err
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Long: `Change one setting and save the configuration.

Keys:
  auto_detection    generate notes for files created while watching (true/false)
  folder            folder for new metadata notes
  filename_format   note name template, e.g. INFO_{{NAME}}_{{EXTENSION:UP}}
  template_path     vault path of the note body template ("" for the built-in one)
  use_expander      pass note bodies through expander.command (true/false)
  log_level         trace, debug, info, warn or error
  expander.command  expander argv, split on whitespace
  expander.timeout  timeout of one expansion, e.g. 5s
  retry.attempts    polling attempts for templates and the expander
  retry.interval    pause between polling attempts
  retry.timeout     overall polling timeout`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Save(cmd.Context(), config.ConfigPath(root)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])
			return nil
		},
	}
}
