package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/drest/internal/web/auth"
)

type tokenOptions struct {
	*globalOptions
	subject   string
	ttl       time.Duration
	resources []string
}

func newTokenCommand(global *globalOptions) *cobra.Command {
	opts := &tokenOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "token --subject <name>",
		Short: "Issue a bearer token for the HTTP server",
		Long: `Issue a bearer token signed with server.auth.secret.

Tokens limited with --resource may only translate filters for, and list,
the named schemas.`,
		Example: `  drest token --subject reporting --ttl 24h
  drest token --subject dashboards --resource user --resource event`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.subject, "subject", "", "Token subject (required)")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", time.Hour, "Token lifetime")
	cmd.Flags().StringSliceVar(&opts.resources, "resource", nil, "Restrict the token to a resource (repeatable)")
	cmd.MarkFlagRequired("subject")

	return cmd
}

func runToken(cmd *cobra.Command, opts *tokenOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Server.Auth.Enabled() {
		return configError(errors.New("server.auth.secret is not set"))
	}

	signer, err := auth.NewSigner(cfg.Server.Auth.Secret, cfg.Server.Auth.Issuer)
	if err != nil {
		return configError(err)
	}

	if len(opts.resources) > 0 {
		registry, err := loadRegistry(cfg, zap.NewNop())
		if err != nil {
			return err
		}
		for _, resource := range opts.resources {
			if _, err := registry.Schema(resource); err != nil {
				return translationError(err, registry, resource)
			}
		}
	}

	token, err := signer.Issue(opts.subject, opts.ttl, opts.resources...)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
