package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/peteski22/hubgraph/internal/app"
	"github.com/peteski22/hubgraph/internal/hubspot"
)

// tokenProvider acquires a Graph access token.
type tokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// accountReader reads HubSpot account details.
type accountReader interface {
	AccountInfo(ctx context.Context) (*hubspot.AccountInfo, error)
}

func newAuthCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Verify Microsoft Graph and HubSpot credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings(ctx)
			if err != nil {
				return err
			}

			a, err := app.New(app.Config{Logger: logger, Settings: settings})
			if err != nil {
				return err
			}

			return runAuth(ctx, cmd.OutOrStdout(), a.Graph, a.HubSpot)
		},
	}
}

// runAuth acquires a Graph token and reads the HubSpot account to prove both credentials work.
func runAuth(ctx context.Context, out io.Writer, graphClient tokenProvider, crm accountReader) error {
	_, _ = fmt.Fprintln(out, "=== Microsoft Graph ===")
	if _, err := graphClient.AccessToken(ctx); err != nil {
		return fmt.Errorf("acquiring Graph token: %w", err)
	}
	_, _ = fmt.Fprintln(out, "Access token acquired.")
	_, _ = fmt.Fprintln(out)

	_, _ = fmt.Fprintln(out, "=== HubSpot ===")
	info, err := crm.AccountInfo(ctx)
	if err != nil {
		return fmt.Errorf("reading HubSpot account: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Portal ID: %d\n", info.PortalID)
	if info.TimeZone != "" {
		_, _ = fmt.Fprintf(out, "Time zone: %s\n", info.TimeZone)
	}
	if info.CompanyCurrency != "" {
		_, _ = fmt.Fprintf(out, "Currency:  %s\n", info.CompanyCurrency)
	}
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Credentials verified.")

	return nil
}
