package tui

import (
	"context"
	"time"

	"github.com/Veraticus/campus-bazaar/internal/engine"
	"github.com/Veraticus/campus-bazaar/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

const preferenceTimeout = 5 * time.Second

// syncListings reloads the listing cache.
func (m Model) syncListings() tea.Cmd {
	ctx, syncer := m.ctx, m.syncer
	return func() tea.Msg {
		return syncDoneMsg{err: syncer.Sync(ctx)}
	}
}

// connectWallet asks the session manager for an account.
func (m Model) connectWallet() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		s, err := session.Connect(ctx)
		return connectDoneMsg{session: s, err: err}
	}
}

// createListing submits the form and waits for confirmation.
func (m Model) createListing(req engine.CreateRequest) tea.Cmd {
	ctx, orch := m.ctx, m.orchestrator
	return func() tea.Msg {
		op, err := orch.Create(ctx, req)
		return operationDoneMsg{operation: op, err: err}
	}
}

// toggleListing flips availability of a listing the user owns.
func (m Model) toggleListing(id uint64) tea.Cmd {
	ctx, orch := m.ctx, m.orchestrator
	return func() tea.Msg {
		op, err := orch.Toggle(ctx, id)
		return operationDoneMsg{operation: op, err: err}
	}
}

// payListing rents or buys a listing owned by someone else.
func (m Model) payListing(listing model.Listing) tea.Cmd {
	ctx, orch := m.ctx, m.orchestrator
	listing = listing.Clone()
	return func() tea.Msg {
		op, err := orch.Pay(ctx, listing)
		return operationDoneMsg{operation: op, err: err}
	}
}

// saveTheme persists the theme preference.
func (m Model) saveTheme(name string) tea.Cmd {
	parent, prefs := m.ctx, m.prefs
	return func() tea.Msg {
		if prefs == nil {
			return themeSavedMsg{name: name}
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), preferenceTimeout)
		defer cancel()
		return themeSavedMsg{name: name, err: prefs.SetPreference(ctx, ThemePreference, name)}
	}
}

// showStatus sets the status line.
func showStatus(level statusLevel, text string) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{level: level, text: text}
	}
}
