package tui

import (
	"github.com/Veraticus/campus-bazaar/internal/events"
	"github.com/Veraticus/campus-bazaar/internal/model"
)

// busEventMsg carries one event from the session manager, synchronizer
// or orchestrator.
type busEventMsg struct {
	event events.Event
}

// Async operation results.
type syncDoneMsg struct {
	err error
}

type connectDoneMsg struct {
	err     error
	session model.Session
}

type operationDoneMsg struct {
	err       error
	operation model.Operation
}

type themeSavedMsg struct {
	err  error
	name string
}

// Wallet approval requests from the Prompter.
type accountRequestMsg struct {
	reply    chan<- approvalResult
	accounts []string
}

type passphraseRequestMsg struct {
	reply   chan<- approvalResult
	account string
}

type approvalResult struct {
	err   error
	value string
}

// Status line messages.
type statusMsg struct {
	text  string
	level statusLevel
}

type statusLevel int

const (
	levelInfo statusLevel = iota
	levelSuccess
	levelWarning
	levelError
	levelPending
)
