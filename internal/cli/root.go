package cli

import (
	"fmt"
	"io"

	"autoquote/pkg/config"
	"autoquote/pkg/logger"

	"github.com/spf13/cobra"
)

const CommandName = "quotectl"

// version is set at build time via -ldflags.
var version = ""

// NewRootCommand builds the quotectl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           CommandName,
		Short:         "Operational tools for the quotes service",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	v := version
	if v == "" {
		v = "dev"
	}
	root.Version = v
	root.SetVersionTemplate("{{.Version}}\n")

	root.AddCommand(newMigrateCommand())
	root.AddCommand(newSanitizeCommand())
	root.AddCommand(newNotifyCommand())

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w\nRun '%s --help' for usage", err, cmd.CommandPath())
	})
	return root
}

// loadConfig reads and validates the service configuration, logging to w.
// Unlike config.Load it returns problems instead of exiting.
func loadConfig(w io.Writer) (*config.Config, error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, err
	}
	cfg.Log = logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  w,
		Service: CommandName,
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
