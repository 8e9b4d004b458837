// Package commands implements the drest command line interface.
package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/drest/internal/cli/config"
	"github.com/conduit-lang/drest/internal/cli/ui"
)

// globalOptions holds the persistent flags shared by every subcommand
type globalOptions struct {
	configPath string
	schemaPath string
	verbose    bool
	noColor    bool
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "drest",
		Short: "Translate API filter expressions into storage filter trees",
		Long: `drest translates filter query parameters such as

  filter{users.events.capacity.gte}=10

into a tree of conditions over storage field names, following the
relations declared in a schema definitions file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default: ./drest.yaml)")
	flags.StringVar(&opts.schemaPath, "schema", "", "Schema definitions file (overrides schema.path)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable development logging at debug level")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newParseCommand(opts))
	rootCmd.AddCommand(newSchemaCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newTokenCommand(opts))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		writeError(rootCmd.ErrOrStderr(), err)
		return err
	}
	return nil
}

// displayError carries a preformatted message for the terminal
type displayError struct {
	err     error
	message string
}

func (e *displayError) Error() string { return e.err.Error() }
func (e *displayError) Unwrap() error { return e.err }

func writeError(w io.Writer, err error) {
	var de *displayError
	if errors.As(err, &de) {
		fmt.Fprint(w, de.message)
		return
	}
	color.New(color.FgRed, color.Bold).Fprintf(w, "Error: %v\n", err)
}

func configError(err error) error {
	return &displayError{err: err, message: ui.ConfigError(err, color.NoColor)}
}

// loadConfig reads configuration and applies flag overrides
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, configError(err)
	}
	if o.schemaPath != "" {
		cfg.Schema.Path = o.schemaPath
	}
	return cfg, nil
}
