package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAccounts = []string{
	"0x00000000000000000000000000000000000a11ce",
	"0x0000000000000000000000000000000000000b0b",
}

func TestApprover_SelectAccount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		accounts []string
		want     string
		rejected bool
	}{
		{name: "single account accepted", input: "y\n", accounts: testAccounts[:1], want: testAccounts[0]},
		{name: "single account declined", input: "\n", accounts: testAccounts[:1], rejected: true},
		{name: "pick second", input: "2\n", accounts: testAccounts, want: testAccounts[1]},
		{name: "retry after invalid choice", input: "7\nx\n1\n", accounts: testAccounts, want: testAccounts[0]},
		{name: "decline list", input: "n\n", accounts: testAccounts, rejected: true},
		{name: "eof declines", input: "", accounts: testAccounts, rejected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			a := NewApprover(strings.NewReader(tt.input), &out)

			got, err := a.SelectAccount(context.Background(), tt.accounts)
			if tt.rejected {
				assert.ErrorIs(t, err, common.ErrUserRejected)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Wallet access requested")
		})
	}
}

func TestApprover_SelectAccountNoAccounts(t *testing.T) {
	a := NewApprover(strings.NewReader(""), io.Discard)
	_, err := a.SelectAccount(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrWalletUnavailable)
}

func TestApprover_InvalidChoiceMessage(t *testing.T) {
	var out bytes.Buffer
	a := NewApprover(strings.NewReader("9\n1\n"), &out)

	_, err := a.SelectAccount(context.Background(), testAccounts)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Invalid choice")
}

func TestApprover_Passphrase(t *testing.T) {
	var out bytes.Buffer
	a := NewApprover(strings.NewReader("  s3cret \n"), &out)

	got, err := a.Passphrase(context.Background(), testAccounts[0])
	require.NoError(t, err)
	assert.Equal(t, "  s3cret ", got, "passphrases are not trimmed")
	assert.Contains(t, out.String(), "0x0000...11ce")

	_, err = a.Passphrase(context.Background(), testAccounts[0])
	assert.ErrorIs(t, err, common.ErrUserRejected)
}

func TestApprover_Cancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	a := NewApprover(pr, io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.SelectAccount(ctx, testAccounts)
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestSyncProgress(t *testing.T) {
	var out syncBuffer
	p := NewSyncProgress(&out)

	p.Start(0)
	p.Advance()
	p.Finish()
	assert.Empty(t, out.String())

	p.Start(2)
	p.Advance()
	p.Advance()
	p.Finish()
	assert.Contains(t, out.String(), "Reading listings")
}
