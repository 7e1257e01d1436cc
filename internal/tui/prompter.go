package tui

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/wallet"
	tea "github.com/charmbracelet/bubbletea"
)

// Prompter implements wallet.Approver inside the browse UI. Requests are
// sent to the running program and answered from its key handling.
type Prompter struct {
	send func(tea.Msg)
	mu   sync.Mutex
}

// Ensure we implement the interface.
var _ wallet.Approver = (*Prompter)(nil)

// NewPrompter creates a prompter. It refuses requests until a program is attached.
func NewPrompter() *Prompter {
	return &Prompter{}
}

// attach routes requests to send. A nil send detaches.
func (p *Prompter) attach(send func(tea.Msg)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.send = send
}

// SelectAccount implements wallet.Approver.
func (p *Prompter) SelectAccount(ctx context.Context, accounts []string) (string, error) {
	if len(accounts) == 0 {
		return "", fmt.Errorf("%w: no accounts to choose from", common.ErrWalletUnavailable)
	}
	reply := make(chan approvalResult, 1)
	return p.request(ctx, reply, accountRequestMsg{accounts: accounts, reply: reply})
}

// Passphrase implements wallet.Approver.
func (p *Prompter) Passphrase(ctx context.Context, account string) (string, error) {
	reply := make(chan approvalResult, 1)
	return p.request(ctx, reply, passphraseRequestMsg{account: account, reply: reply})
}

func (p *Prompter) request(ctx context.Context, reply <-chan approvalResult, msg tea.Msg) (string, error) {
	p.mu.Lock()
	send := p.send
	p.mu.Unlock()
	if send == nil {
		return "", fmt.Errorf("%w: approval prompt is not running", common.ErrWalletUnavailable)
	}

	send(msg)

	select {
	case result := <-reply:
		return result.value, result.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func declined() error {
	return fmt.Errorf("%w: wallet access declined", common.ErrUserRejected)
}
