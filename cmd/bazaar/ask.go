package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/campus-bazaar/internal/assistant"
	"github.com/Veraticus/campus-bazaar/internal/cli"
	"github.com/spf13/cobra"
)

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask the campus assistant",
		Long:  `Get a quick answer about renting, selling, wallets, prices or themes.`,
		Example: `  bazaar ask how do I rent a bike
  bazaar ask "what currency are prices in?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return answer(cmd.OutOrStdout(), strings.Join(args, " "))
		},
	}
}

func answer(out io.Writer, question string) error {
	reply := assistant.Greeting
	if strings.TrimSpace(question) != "" {
		reply = assistant.Reply(question)
	}
	_, err := fmt.Fprintln(out, cli.ChatIcon+" "+reply)
	return err
}
