package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/campus-bazaar/internal/events"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrMissingSyncer is returned by Run without a synchronizer.
var ErrMissingSyncer = errors.New("tui: a listing synchronizer is required")

// eventBuffer sizes the bus subscription feeding the program.
const eventBuffer = 64

// Run starts the browse UI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Syncer == nil {
		return ErrMissingSyncer
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	programOpts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	}
	if cfg.MouseSupport {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}
	program := tea.NewProgram(newModel(ctx, cfg), programOpts...)

	if cfg.Prompter != nil {
		cfg.Prompter.attach(program.Send)
		defer cfg.Prompter.attach(nil)
	}

	if cfg.Events != nil {
		ch, unsubscribe := cfg.Events.Subscribe(eventBuffer)
		defer unsubscribe()
		go forwardEvents(ctx, ch, program.Send)
	}

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// forwardEvents delivers bus events to the program until ch closes or ctx ends.
func forwardEvents(ctx context.Context, ch <-chan events.Event, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			send(busEventMsg{event: e})
		}
	}
}
