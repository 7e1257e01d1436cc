package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/campus-bazaar/internal/catalog"
	"github.com/Veraticus/campus-bazaar/internal/cli"
	"github.com/Veraticus/campus-bazaar/internal/ledger"
	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/Veraticus/campus-bazaar/internal/service"
	"github.com/Veraticus/campus-bazaar/internal/view"
	"github.com/spf13/cobra"
)

func listingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "listings",
		Aliases: []string{"ls"},
		Short:   "List marketplace listings",
		Long: `Read every listing from the ledger and print the ones matching the filters,
newest first. With --offline the last saved snapshot is shown instead.`,
		RunE: runListings,
	}

	cmd.Flags().StringP("search", "s", "", "Match title, description or location (case-insensitive)")
	cmd.Flags().String("category", model.FilterAll, "Exact category to show")
	cmd.Flags().String("type", model.FilterAll, "Listing type to show (all, rent, sell)")
	cmd.Flags().String("as", "", "Account whose listings show the toggle action")
	cmd.Flags().Bool("offline", false, "Show the last saved snapshot without contacting the ledger")
	cmd.Flags().String("network", "", "Network of the saved snapshot (with --offline)")
	cmd.Flags().Bool("demo", false, "Use the built-in demo ledger")

	return cmd
}

func listingFilter(cmd *cobra.Command) model.FilterState {
	f := model.DefaultFilter()
	f.Query, _ = cmd.Flags().GetString("search")
	f.Category, _ = cmd.Flags().GetString("category")
	f.Type, _ = cmd.Flags().GetString("type")
	return f
}

func runListings(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	filter := listingFilter(cmd)
	account, _ := cmd.Flags().GetString("as")
	offline, _ := cmd.Flags().GetBool("offline")

	if offline {
		network, _ := cmd.Flags().GetString("network")
		store, err := initStorage(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		return printSnapshot(ctx, out, store, network, filter, account)
	}

	demo, _ := cmd.Flags().GetBool("demo")
	a, err := newApp(ctx, appOptions{demo: demo, approver: cli.NewApprover(cmd.InOrStdin(), cmd.ErrOrStderr())})
	if err != nil {
		return err
	}
	defer a.Close()

	// A failed sync is reported through the derived status below.
	_ = a.syncer.Sync(ctx)
	return printResult(out, view.Derive(a.syncer.Cache().State(), filter), account)
}

// printSnapshot shows the saved listings of network, or of the only network
// with a snapshot when network is empty.
func printSnapshot(ctx context.Context, out io.Writer, store service.Storage, network string, filter model.FilterState, account string) error {
	if network == "" {
		networks, err := store.GetSnapshotNetworks(ctx)
		if err != nil {
			return fmt.Errorf("failed to read snapshots: %w", err)
		}
		switch len(networks) {
		case 0:
			fmt.Fprintln(out, cli.FormatInfo("No saved listings. Run 'bazaar sync' first."))
			return nil
		case 1:
			network = networks[0]
		default:
			return fmt.Errorf("snapshots exist for several networks (%s); pick one with --network", strings.Join(networks, ", "))
		}
	}

	listings, err := store.GetListings(ctx, network)
	if err != nil {
		return fmt.Errorf("failed to read saved listings: %w", err)
	}
	syncedAt, err := store.GetSnapshotTime(ctx, network)
	if err != nil {
		return fmt.Errorf("failed to read snapshot time: %w", err)
	}

	fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("Snapshot of network %s from %s", network, syncedAt.Local().Format("2006-01-02 15:04"))))
	state := catalog.State{Listings: listings, Network: network, LoadedAt: syncedAt, Loaded: true}
	return printResult(out, view.Derive(state, filter), account)
}

// printResult renders each list state distinctly: not loaded, load failed
// (with the last good listings, if any), empty and ready.
func printResult(out io.Writer, r view.Result, account string) error {
	switch r.Status {
	case view.StatusNotLoaded:
		fmt.Fprintln(out, cli.FormatInfo("Listings not loaded yet."))
		return nil
	case view.StatusLoadFailed:
		fmt.Fprintln(out, cli.FormatError("Could not load listings."))
		if r.Err != nil {
			fmt.Fprintln(out, cli.SubtleStyle.Render("  "+r.Err.Error()))
		}
		if len(r.Listings) == 0 {
			return nil
		}
		fmt.Fprintln(out, cli.FormatWarning("Showing the last listings that loaded."))
	case view.StatusEmpty:
		if r.Total == 0 {
			fmt.Fprintln(out, cli.FormatInfo("No listings yet. Use 'bazaar create' to add one."))
		} else {
			fmt.Fprintln(out, cli.FormatInfo("No listings match your filters."))
		}
		return nil
	}

	return writeListingTable(out, r.Listings, account)
}

func writeListingTable(out io.Writer, listings []model.Listing, account string) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTYPE\tPRICE (ETH)\tCATEGORY\tLOCATION\tOWNER\tSTATUS\tACTION")
	for _, l := range listings {
		owner := model.ShortAddress(l.Owner)
		if l.OwnedBy(account) {
			owner = "you"
		}
		status := "available"
		if !l.IsAvailable {
			status = "unavailable"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.Title, l.Type, ledger.DisplayPrice(l.PriceMinorUnits),
			orDash(l.Category), orDash(l.Location), owner, status, view.Action(l, account))
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
