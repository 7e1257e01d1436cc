// Package assistant answers help questions with canned replies.
package assistant

import "strings"

// Greeting opens a conversation.
const Greeting = "Hey! 👋 Connect your wallet and start renting/selling with crypto."

// Fallback is returned when no rule matches.
const Fallback = "I’m your Campus Assistant! Ask me about renting, selling, wallet connection, or crypto payments."

type rule struct {
	reply    string
	keywords []string
}

// First match wins.
var rules = []rule{
	{
		keywords: []string{"rent"},
		reply:    "To rent an item, connect your wallet, open 'bazaar browse', filter to 'Rent only', then use the rent action.",
	},
	{
		keywords: []string{"sell"},
		reply:    "To sell an item, connect your wallet, run 'bazaar create' (or press 'n' in the browser) with type 'sell', set a price in ETH and submit.",
	},
	{
		keywords: []string{"crypto", "price", "eth"},
		reply:    "All prices are in ETH (or the native token of your network). You pay directly from your wallet.",
	},
	{
		keywords: []string{"dark", "theme"},
		reply:    "Press 't' in the browser or run 'bazaar theme' to switch between sand light mode and dark mode.",
	},
	{
		keywords: []string{"help", "support"},
		reply:    "For detailed help, email support at helpdapp@gmail.com or call +91 8392834933.",
	},
}

// Reply returns the canned answer for question. Matching is a
// case-insensitive substring test against each rule's keywords in order.
func Reply(question string) string {
	lower := strings.ToLower(question)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.reply
			}
		}
	}
	return Fallback
}
