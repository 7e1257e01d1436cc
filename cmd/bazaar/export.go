package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/campus-bazaar/internal/cli"
	"github.com/Veraticus/campus-bazaar/internal/config"
	"github.com/Veraticus/campus-bazaar/internal/sheets"
	"github.com/spf13/cobra"
)

// exporter is satisfied by *sheets.Writer and *sheets.MockExporter.
type exporter interface {
	Export(ctx context.Context, snap sheets.Snapshot) error
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export listings to Google Sheets",
		Long: `Write the current listings to a Google Sheets spreadsheet.

Authenticate with a service account (sheets.service_account_path) or OAuth2
client credentials (sheets.client_id and sheets.client_secret). With client
credentials and no refresh token, a browser sign-in runs first and the token is
saved to sheets.token_file.`,
		RunE: runExport,
	}

	cmd.Flags().Bool("offline", false, "Export the last saved snapshot without contacting the ledger")
	cmd.Flags().String("network", "", "Network of the saved snapshot (with --offline)")
	cmd.Flags().Bool("demo", false, "Use the built-in demo ledger")
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg := config.LoadSheetsConfig()
	if cfg.NeedsInteractiveAuth() {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatInfo("Opening Google sign-in to authorize the export..."))
		token, err := sheets.GetOrCreateToken(ctx, sheets.OAuth2Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenFile:    cfg.TokenFile,
			CallbackAddr: sheets.DefaultCallbackAddr,
		})
		if err != nil {
			return fmt.Errorf("google sign-in failed: %w", err)
		}
		cfg.RefreshToken = token.RefreshToken
	}

	snap, err := exportSnapshot(cmd)
	if err != nil {
		return err
	}

	writer, err := sheets.NewWriter(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create sheets writer: %w", err)
	}
	return exportTo(ctx, cmd.OutOrStdout(), writer, snap)
}

func exportTo(ctx context.Context, out io.Writer, exp exporter, snap sheets.Snapshot) error {
	if err := exp.Export(ctx, snap); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	sum := snap.Summarize()
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf(
		"Exported %d listings (%d available, %d rent, %d sell)", sum.Total, sum.Available, sum.Rent, sum.Sell)))
	return nil
}

// exportSnapshot reads the listings to export, live or from the saved snapshot.
func exportSnapshot(cmd *cobra.Command) (sheets.Snapshot, error) {
	ctx := cmd.Context()
	offline, _ := cmd.Flags().GetBool("offline")

	if offline {
		network, _ := cmd.Flags().GetString("network")
		store, err := initStorage(ctx)
		if err != nil {
			return sheets.Snapshot{}, err
		}
		defer func() { _ = store.Close() }()

		if network == "" {
			networks, err := store.GetSnapshotNetworks(ctx)
			if err != nil {
				return sheets.Snapshot{}, fmt.Errorf("failed to read snapshots: %w", err)
			}
			if len(networks) != 1 {
				return sheets.Snapshot{}, fmt.Errorf("found %d saved networks; pick one with --network", len(networks))
			}
			network = networks[0]
		}
		listings, err := store.GetListings(ctx, network)
		if err != nil {
			return sheets.Snapshot{}, fmt.Errorf("failed to read saved listings: %w", err)
		}
		syncedAt, err := store.GetSnapshotTime(ctx, network)
		if err != nil {
			return sheets.Snapshot{}, fmt.Errorf("failed to read snapshot time: %w", err)
		}
		return sheets.NewSnapshot(network, syncedAt, listings), nil
	}

	demo, _ := cmd.Flags().GetBool("demo")
	a, err := newApp(ctx, appOptions{
		demo:     demo,
		approver: cli.NewApprover(cmd.InOrStdin(), cmd.ErrOrStderr()),
		progress: cli.NewSyncProgress(cmd.ErrOrStderr()),
	})
	if err != nil {
		return sheets.Snapshot{}, err
	}
	defer a.Close()

	if err := a.syncer.Sync(ctx); err != nil {
		return sheets.Snapshot{}, fmt.Errorf("sync failed: %w", err)
	}
	state := a.syncer.Cache().State()
	syncedAt := state.LoadedAt
	if syncedAt.IsZero() {
		syncedAt = time.Now()
	}
	return sheets.NewSnapshot(state.Network, syncedAt, state.Listings), nil
}
