package main

import (
	"github.com/Veraticus/campus-bazaar/internal/tui"
	"github.com/spf13/cobra"
)

func browseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive marketplace",
		Long: `Browse, filter and search listings, create new ones and rent, buy or
toggle them from a full-screen terminal UI. Wallet prompts appear inside the UI.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			demo, _ := cmd.Flags().GetBool("demo")
			mouse, _ := cmd.Flags().GetBool("mouse")
			ctx := cmd.Context()

			prompter := tui.NewPrompter()
			a, err := newApp(ctx, appOptions{demo: demo, approver: prompter})
			if err != nil {
				return err
			}
			defer a.Close()

			return tui.Run(ctx,
				tui.WithSession(a.session),
				tui.WithSyncer(a.syncer),
				tui.WithOrchestrator(a.orch),
				tui.WithEvents(a.bus),
				tui.WithPreferences(a.store),
				tui.WithPrompter(prompter),
				tui.WithTheme(tui.LoadTheme(ctx, a.store)),
				tui.WithDemo(a.demo),
				tui.WithMouse(mouse),
			)
		},
	}

	cmd.Flags().Bool("demo", false, "Use the built-in demo ledger and account")
	cmd.Flags().Bool("mouse", true, "Enable mouse support")
	return cmd
}
