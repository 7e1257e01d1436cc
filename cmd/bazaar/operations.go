package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/Veraticus/campus-bazaar/internal/cli"
	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/engine"
	"github.com/Veraticus/campus-bazaar/internal/ledger"
	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/spf13/cobra"
)

func createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Put an item up for rent or sale",
		Long: `Create a listing on the ledger from your connected wallet.

Rent listings may carry a duration unit and a security deposit; both are
recorded in the description for renters to read.`,
		Example: `  bazaar create --title "Desk lamp" --type sell --price 0.01 --category furniture
  bazaar create --title "Bike" --type rent --price 0.005 --duration day --deposit 0.05`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := engine.CreateRequest{}
			req.Title, _ = cmd.Flags().GetString("title")
			req.Description, _ = cmd.Flags().GetString("description")
			req.Category, _ = cmd.Flags().GetString("category")
			req.Location, _ = cmd.Flags().GetString("location")
			req.Type, _ = cmd.Flags().GetString("type")
			req.Price, _ = cmd.Flags().GetString("price")
			req.DurationUnit, _ = cmd.Flags().GetString("duration")
			req.SecurityDeposit, _ = cmd.Flags().GetString("deposit")

			// Check the form before asking the wallet for anything.
			if _, err := req.Validate(); err != nil {
				return err
			}

			return runOperation(cmd, func(ctx context.Context, a *app) (model.Operation, error) {
				return a.orch.Create(ctx, req)
			})
		},
	}

	cmd.Flags().String("title", "", "Listing title (required)")
	cmd.Flags().String("description", "", "Free-text description")
	cmd.Flags().String("category", "", "Category, e.g. books or electronics")
	cmd.Flags().String("location", "", "Pickup location")
	cmd.Flags().String("type", "", "Listing type: rent or sell (required)")
	cmd.Flags().String("price", "", "Price in ETH, e.g. 0.01 (required)")
	cmd.Flags().String("duration", "", "Rent duration unit: hour, day, week or month")
	cmd.Flags().String("deposit", "", "Security deposit in ETH (rent only)")
	cmd.Flags().Bool("demo", false, "Use the built-in demo ledger")

	return cmd
}

func toggleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip the availability of one of your listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseListingID(args[0])
			if err != nil {
				return err
			}
			return runOperation(cmd, func(ctx context.Context, a *app) (model.Operation, error) {
				return a.orch.Toggle(ctx, id)
			})
		},
	}
	cmd.Flags().Bool("demo", false, "Use the built-in demo ledger")
	return cmd
}

func payCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pay <id>",
		Aliases: []string{"buy", "rent"},
		Short:   "Rent or buy a listing at its listed price",
		Long: `Pay for a listing from your connected wallet. The amount sent is the
listing's price exactly as the ledger records it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseListingID(args[0])
			if err != nil {
				return err
			}
			return runOperation(cmd, func(ctx context.Context, a *app) (model.Operation, error) {
				listing, err := a.syncedListing(ctx, id)
				if err != nil {
					return model.Operation{}, err
				}
				if !listing.IsAvailable {
					return model.Operation{}, common.NewUserError("This listing is not available.", nil)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatInfo(fmt.Sprintf("Paying %s ETH for %q", ledger.DisplayPrice(listing.PriceMinorUnits), listing.Title)))
				return a.orch.Pay(ctx, listing)
			})
		},
	}
	cmd.Flags().Bool("demo", false, "Use the built-in demo ledger")
	return cmd
}

func parseListingID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, common.NewValidationError("id", fmt.Sprintf("%q is not a listing id", s))
	}
	return id, nil
}

// runOperation wires the app, runs op under an interrupt handler and reports
// the outcome. The wallet prompts on the command's stdin and stderr.
func runOperation(cmd *cobra.Command, op func(ctx context.Context, a *app) (model.Operation, error)) error {
	demo, _ := cmd.Flags().GetBool("demo")

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := interrupts.HandleInterrupts(cmd.Context(), true)

	a, err := newApp(ctx, appOptions{
		demo:     demo,
		approver: cli.NewApprover(cmd.InOrStdin(), cmd.ErrOrStderr()),
	})
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := op(ctx, a)
	if interrupts.WasInterrupted() {
		return nil
	}
	return reportOperation(cmd.OutOrStdout(), result, err)
}

func reportOperation(out io.Writer, op model.Operation, err error) error {
	if err != nil {
		if op.Message == "" {
			return err
		}
		return common.NewUserError(op.Message, err)
	}

	fmt.Fprintln(out, cli.FormatSuccess(op.Message))
	if op.TxHash != "" {
		fmt.Fprintln(out, cli.SubtleStyle.Render("  tx "+op.TxHash))
	}
	return nil
}
