package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/campus-bazaar/internal/cli"
	"github.com/Veraticus/campus-bazaar/internal/tui"
	"github.com/Veraticus/campus-bazaar/internal/tui/themes"
	"github.com/spf13/cobra"
)

func themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Show or set the browser theme",
		Long:      `Without an argument, print the saved theme. With one, save it for the next 'bazaar browse'.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{themes.NameLight, themes.NameDark},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, tui.LoadTheme(ctx, store).Name)
				return nil
			}

			name := strings.ToLower(strings.TrimSpace(args[0]))
			if !themes.Valid(name) {
				return fmt.Errorf("unknown theme %q (choose %s or %s)", args[0], themes.NameLight, themes.NameDark)
			}
			if err := store.SetPreference(ctx, tui.ThemePreference, name); err != nil {
				return fmt.Errorf("failed to save theme: %w", err)
			}
			fmt.Fprintln(out, cli.FormatSuccess("Theme set to "+name))
			return nil
		},
	}
}
