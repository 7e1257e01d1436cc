package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/model"
	"golang.org/x/term"
)

// Approver asks on the terminal before the keystore wallet exposes an
// account or unlocks a key.
type Approver struct {
	reader   *NonBlockingReader
	writer   io.Writer
	terminal *os.File
}

// NewApprover creates an approver reading answers from in. When in is a
// terminal, passphrases are read without echo.
func NewApprover(in io.Reader, out io.Writer) *Approver {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	a := &Approver{
		reader: NewNonBlockingReader(in),
		writer: out,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		a.terminal = f
	}
	return a
}

// SelectAccount lets the user pick one of accounts or decline. Declining
// returns an error wrapping common.ErrUserRejected.
func (a *Approver) SelectAccount(ctx context.Context, accounts []string) (string, error) {
	if len(accounts) == 0 {
		return "", fmt.Errorf("%w: no accounts to choose from", common.ErrWalletUnavailable)
	}

	if _, err := fmt.Fprintln(a.writer, FormatTitle(WalletIcon+" Wallet access requested")); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	if len(accounts) == 1 {
		answer, err := a.ask(ctx, fmt.Sprintf("Connect %s? [y/N]", accounts[0]))
		if err != nil {
			return "", err
		}
		if answer == "y" || answer == "yes" {
			return accounts[0], nil
		}
		return "", declined()
	}

	for i, acct := range accounts {
		if _, err := fmt.Fprintf(a.writer, "  [%d] %s\n", i+1, acct); err != nil {
			return "", fmt.Errorf("failed to write account list: %w", err)
		}
	}

	prompt := fmt.Sprintf("Select account [1-%d], or n to decline", len(accounts))
	for {
		answer, err := a.ask(ctx, prompt)
		if err != nil {
			return "", err
		}
		if answer == "n" || answer == "no" || answer == "" {
			return "", declined()
		}
		n, convErr := strconv.Atoi(answer)
		if convErr == nil && n >= 1 && n <= len(accounts) {
			return accounts[n-1], nil
		}
		if _, err := fmt.Fprintln(a.writer, FormatError("Invalid choice. Please try again.")); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}
	}
}

// Passphrase asks for the passphrase that unlocks account.
func (a *Approver) Passphrase(ctx context.Context, account string) (string, error) {
	prompt := FormatPrompt("Passphrase for " + model.ShortAddress(account))
	if _, err := fmt.Fprint(a.writer, prompt); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	var (
		secret string
		err    error
	)
	if a.terminal != nil {
		secret, err = ReadSecret(ctx, a.terminal)
		_, _ = fmt.Fprintln(a.writer)
	} else {
		secret, err = a.reader.ReadString(ctx, '\n')
		secret = strings.TrimRight(secret, "\r\n")
	}
	if errors.Is(err, io.EOF) {
		return "", declined()
	}
	if err != nil {
		return "", err
	}
	return secret, nil
}

func (a *Approver) ask(ctx context.Context, prompt string) (string, error) {
	if _, err := fmt.Fprint(a.writer, FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	line, err := a.reader.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return "", declined()
	}
	if err != nil {
		return "", err
	}
	return strings.ToLower(line), nil
}

func declined() error {
	return fmt.Errorf("%w: wallet access declined", common.ErrUserRejected)
}
