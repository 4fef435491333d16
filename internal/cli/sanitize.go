package cli

import (
	"fmt"
	"io"
	"os"

	"autoquote/pkg/sanitizer"

	"github.com/spf13/cobra"
)

const defaultSanitizeMaxLen = 1000

func newSanitizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanitize [flags] [file|-]",
		Short: "Print the single-line template parameter built from free-form text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			maxLen, _ := cmd.Flags().GetInt("max-len")
			separator, _ := cmd.Flags().GetString("separator")
			if maxLen < 0 {
				return fmt.Errorf("--max-len must not be negative, got %d", maxLen)
			}

			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), sanitizer.SanitizeTemplateText(input, maxLen, separator))
			return err
		},
	}

	cmd.Flags().Int("max-len", defaultSanitizeMaxLen, "Maximum length of the output, in characters")
	cmd.Flags().String("separator", sanitizer.DefaultSeparator, "Replacement for line breaks and tabs")
	return cmd
}

// readInput reads the named file, or stdin when no file or "-" is given.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}

	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(b), nil
}
