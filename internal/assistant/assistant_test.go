package assistant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReply(t *testing.T) {
	tests := []struct {
		name     string
		question string
		contains string
	}{
		{"rent", "How do I RENT a bike?", "To rent an item"},
		{"rent beats sell", "can I sell or rent?", "To rent an item"},
		{"sell", "I want to sell my desk", "To sell an item"},
		{"eth", "What is ETH?", "All prices are in ETH"},
		{"price", "prices?", "All prices are in ETH"},
		{"theme", "switch the Theme", "sand light mode"},
		{"dark", "dark mode please", "sand light mode"},
		{"support", "need support", "helpdapp@gmail.com"},
		{"fallback", "hello there", Fallback},
		{"empty", "", Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reply(tt.question)
			assert.True(t, strings.Contains(got, tt.contains), "reply %q", got)
		})
	}
}

func TestReplySubstringMatch(t *testing.T) {
	// "method" contains "eth", matching the substring rule.
	assert.Contains(t, Reply("what payment method"), "All prices are in ETH")
}
