package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/drest/internal/cli/ui"
	"github.com/conduit-lang/drest/internal/schema"
)

type schemaOptions struct {
	*globalOptions
	format string
}

func newSchemaCommand(global *globalOptions) *cobra.Command {
	opts := &schemaOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "schema [resource...]",
		Short: "List resources, their fields and relation cycles",
		Example: `  drest schema
  drest schema user group
  drest schema --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "table", "Output format: json or table")

	return cmd
}

func runSchema(cmd *cobra.Command, opts *schemaOptions, args []string) error {
	if opts.format != "table" && opts.format != "json" {
		return fmt.Errorf("unknown format %q: expected json or table", opts.format)
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log, opts.verbose)
	if err != nil {
		return configError(err)
	}
	defer logger.Sync()

	registry, err := loadRegistry(cfg, logger)
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = registry.List()
	}

	infos := make([]schema.Info, 0, len(names))
	for _, name := range names {
		s, err := registry.Schema(name)
		if err != nil {
			return translationError(err, registry, name)
		}
		infos = append(infos, s.Describe())
	}

	var cycles []string
	for _, cycle := range registry.Graph().DetectCycles() {
		cycles = append(cycles, schema.FormatCycle(cycle))
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		data, err := json.MarshalIndent(map[string]interface{}{
			"schemas": infos,
			"cycles":  cycles,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	title := color.New(color.Bold, color.FgCyan)
	for _, info := range infos {
		if info.Model != "" {
			title.Fprintf(out, "%s (model %s)\n", info.Name, info.Model)
		} else {
			title.Fprintln(out, info.Name)
		}

		table := ui.NewTable(out, color.NoColor, "FIELD", "SOURCE", "KIND", "TARGET", "FLAGS")
		for _, f := range info.Fields {
			table.AddRow(f.Name, f.Source, f.Kind, f.Target, fieldFlags(f))
		}
		table.Render()
		fmt.Fprintln(out)
	}

	if len(cycles) > 0 {
		yellow := color.New(color.FgYellow)
		yellow.Fprintln(out, "Relation cycles:")
		for _, cycle := range cycles {
			yellow.Fprintf(out, "  %s\n", cycle)
		}
	}

	return nil
}

func fieldFlags(f schema.FieldInfo) string {
	var flags []string
	if f.Many {
		flags = append(flags, "many")
	}
	if f.Deferred {
		flags = append(flags, "deferred")
	}
	return strings.Join(flags, ",")
}
