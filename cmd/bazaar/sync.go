package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/campus-bazaar/internal/cli"
	"github.com/Veraticus/campus-bazaar/internal/sheets"
	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reload all listings from the ledger",
		Long: `Read every listing slot from the ledger, replace the local snapshot and
report how many listings were found. A failed sync keeps the previous snapshot.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			demo, _ := cmd.Flags().GetBool("demo")

			a, err := newApp(cmd.Context(), appOptions{
				demo:     demo,
				approver: cli.NewApprover(cmd.InOrStdin(), cmd.ErrOrStderr()),
				progress: cli.NewSyncProgress(cmd.ErrOrStderr()),
			})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.syncer.Sync(cmd.Context()); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			state := a.syncer.Cache().State()
			sum := sheets.NewSnapshot(state.Network, state.LoadedAt, state.Listings).Summarize()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Synced %d listings from network %s", sum.Total, state.Network)))
			fmt.Fprintln(out, cli.RenderBox(cli.ChainIcon+"  Network "+state.Network, syncSummary(sum)))
			return nil
		},
	}

	cmd.Flags().Bool("demo", false, "Use the built-in demo ledger")
	return cmd
}

func syncSummary(sum sheets.Summary) string {
	return strings.Join([]string{
		fmt.Sprintf("%s %d", cli.BoldStyle.Render("Listings: "), sum.Total),
		fmt.Sprintf("%s %d", cli.BoldStyle.Render("Available:"), sum.Available),
		fmt.Sprintf("%s %d rent, %d sell", cli.BoldStyle.Render("By type:  "), sum.Rent, sum.Sell),
	}, "\n")
}
