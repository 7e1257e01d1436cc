package tui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Veraticus/campus-bazaar/internal/catalog"
	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/engine"
	"github.com/Veraticus/campus-bazaar/internal/events"
	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/Veraticus/campus-bazaar/internal/tui/themes"
)

// Session is the part of the session manager the browser uses.
// *wallet.Manager satisfies it.
type Session interface {
	Session() model.Session
	Connect(ctx context.Context) (model.Session, error)
}

// Syncer reloads listings into the cache it exposes.
// *catalog.Synchronizer satisfies it.
type Syncer interface {
	Sync(ctx context.Context) error
	Cache() *catalog.Cache
}

// Orchestrator runs ledger-mutating operations.
// *engine.Orchestrator satisfies it.
type Orchestrator interface {
	Create(ctx context.Context, req engine.CreateRequest) (model.Operation, error)
	Toggle(ctx context.Context, id uint64) (model.Operation, error)
	Pay(ctx context.Context, listing model.Listing) (model.Operation, error)
}

// Preferences persists the theme choice.
type Preferences interface {
	GetPreference(ctx context.Context, key string) (string, error)
	SetPreference(ctx context.Context, key, value string) error
}

// ThemePreference is the preferences key holding the theme name.
const ThemePreference = "theme"

// Config holds TUI configuration.
type Config struct {
	Theme        themes.Theme
	Session      Session
	Syncer       Syncer
	Orchestrator Orchestrator
	Preferences  Preferences
	Prompter     *Prompter
	Events       *events.Bus
	Title        string
	Width        int
	Height       int
	Demo         bool
	MouseSupport bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:        themes.Default,
		Title:        "Campus Bazaar",
		Width:        80,
		Height:       24,
		MouseSupport: true,
	}
}

// WithSession sets the wallet session manager.
func WithSession(session Session) Option {
	return func(c *Config) {
		c.Session = session
	}
}

// WithSyncer sets the listing synchronizer.
func WithSyncer(syncer Syncer) Option {
	return func(c *Config) {
		c.Syncer = syncer
	}
}

// WithOrchestrator sets the transaction orchestrator.
func WithOrchestrator(orch Orchestrator) Option {
	return func(c *Config) {
		c.Orchestrator = orch
	}
}

// WithEvents forwards bus events into the UI.
func WithEvents(bus *events.Bus) Option {
	return func(c *Config) {
		c.Events = bus
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithPreferences sets where theme changes are saved.
func WithPreferences(prefs Preferences) Option {
	return func(c *Config) {
		c.Preferences = prefs
	}
}

// WithPrompter routes wallet approval requests through the TUI.
func WithPrompter(p *Prompter) Option {
	return func(c *Config) {
		c.Prompter = p
	}
}

// WithDemo marks the session as running against the in-memory ledger.
func WithDemo(enabled bool) Option {
	return func(c *Config) {
		c.Demo = enabled
	}
}

// WithMouse enables or disables mouse support.
func WithMouse(enabled bool) Option {
	return func(c *Config) {
		c.MouseSupport = enabled
	}
}

// LoadTheme returns the saved theme, or the default when none is stored.
func LoadTheme(ctx context.Context, prefs Preferences) themes.Theme {
	if prefs == nil {
		return themes.Default
	}
	name, err := prefs.GetPreference(ctx, ThemePreference)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			slog.Warn("Failed to read theme preference", "error", err)
		}
		return themes.Default
	}
	return themes.GetTheme(name)
}
