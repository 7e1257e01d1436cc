package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Veraticus/campus-bazaar/internal/cli"
	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent ledger operations started from this machine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ops, err := store.GetOperations(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to read operations: %w", err)
			}
			return writeHistory(cmd.OutOrStdout(), ops)
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "Number of operations to show")
	return cmd
}

func writeHistory(out io.Writer, ops []model.Operation) error {
	if len(ops) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No operations yet."))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "UPDATED\tKIND\tLISTING\tSTAGE\tACCOUNT\tTX\tMESSAGE")
	for _, op := range ops {
		listing := "-"
		if op.ListingID != 0 {
			listing = fmt.Sprintf("#%d", op.ListingID)
		}
		tx := "-"
		if op.TxHash != "" {
			tx = model.ShortAddress(op.TxHash)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			op.UpdatedAt.Local().Format("2006-01-02 15:04"), op.Kind, listing, op.Stage,
			orDash(model.ShortAddress(op.Account)), tx, op.Message)
	}
	return w.Flush()
}
