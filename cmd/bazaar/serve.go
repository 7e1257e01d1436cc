package main

import (
	"github.com/Veraticus/campus-bazaar/internal/board"
	"github.com/Veraticus/campus-bazaar/internal/config"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the off-ledger listing board",
		Long: `Serve the in-memory listing board over HTTP:

  GET   /api/listings             list board entries
  POST  /api/listings             add an entry
  PATCH /api/listings/:id/toggle  flip an entry's availability

Board entries are not written to the ledger and are lost on exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = config.BoardAddr()
			}
			return board.Serve(cmd.Context(), addr, board.NewRouter(board.NewStore()))
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default: board.addr, localhost:5000)")
	return cmd
}
