package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/harrison/binmeta/internal/config"
	"github.com/harrison/binmeta/internal/registry"
	"github.com/spf13/cobra"
)

// NewForgetCommand creates the 'binmeta forget' command
func NewForgetCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "forget",
		Short: "Clear the registry of processed files",
		Long: `Forget every file binmeta has generated a note for. Existing notes are
not touched, but the next generate run treats every binary as new.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := cmd.OutOrStdout()

			root, err := vaultRoot(cmd)
			if err != nil {
				return err
			}
			reg, err := registry.New(config.RegistryPath(root)).Load(cmd.Context())
			if err != nil {
				return err
			}

			if !yes {
				fmt.Fprintf(output, "WARNING: This will forget all %d registered files.\n", reg.Len())
				if !confirmAction(cmd.InOrStdin(), output) {
					fmt.Fprintf(output, "Operation cancelled.\n")
					return nil
				}
			}

			count := reg.Len()
			reg.DeleteAll()
			if err := reg.Save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(output, "Forgot %d registered files\n", count)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// confirmAction asks for a y/N answer on input.
func confirmAction(input io.Reader, output io.Writer) bool {
	scanner := bufio.NewScanner(input)

	fmt.Fprintf(output, "Continue? [y/N]: ")

	if !scanner.Scan() {
		return false
	}

	response := strings.TrimSpace(strings.ToLower(scanner.Text()))
	return response == "y" || response == "yes"
}
