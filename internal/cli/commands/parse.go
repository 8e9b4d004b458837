package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/drest/internal/web/query"
)

type parseOptions struct {
	*globalOptions
	resource    string
	compact     bool
	interactive bool
}

func newParseCommand(global *globalOptions) *cobra.Command {
	opts := &parseOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "parse [--resource <name>] <filter>...",
		Short: "Translate filter parameters and print the filter tree",
		Long: `Translate filter parameters against a resource schema and print the
resulting filter tree as JSON.

Each argument is a key=value pair, a filter{key}=value pair, or a query
string joining several pairs with "&". Repeating a key collects its values
in order, which is how "in" and "range" receive more than one value.

With --interactive, a missing resource is picked from the registered
schemas and filters are prompted for when none are given.`,
		Example: `  drest parse -r user 'events.capacity.gte=10'
  drest parse -r user 'filter{-groups|name.in}=staff' 'filter{-groups|name.in}=guests'
  drest parse -r user 'uid.range=1&uid.range=9'
  drest parse -i`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.resource, "resource", "r", "", "Root resource to filter")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "Print compact JSON")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Prompt for the resource and filters")

	return cmd
}

func runParse(cmd *cobra.Command, opts *parseOptions, args []string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log, opts.verbose)
	if err != nil {
		return configError(err)
	}
	defer logger.Sync()

	if opts.resource == "" && !opts.interactive {
		return errors.New("--resource is required unless --interactive is set")
	}

	registry, err := loadRegistry(cfg, logger)
	if err != nil {
		return err
	}

	if opts.resource == "" {
		if opts.resource, err = promptResource(registry.List()); err != nil {
			return err
		}
	}
	if len(args) == 0 && opts.interactive {
		if args, err = promptFilters(); err != nil {
			return err
		}
	}

	params, err := query.ParseArgs(args)
	if err != nil {
		return err
	}

	tree, err := newBuilder(registry, cfg, logger).BuildFor(opts.resource, params)
	if err != nil {
		return translationError(err, registry, opts.resource)
	}

	var data []byte
	if opts.compact {
		data, err = json.Marshal(tree)
	} else {
		data, err = json.MarshalIndent(tree, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode filter tree: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
