package tui

import (
	"context"
	"testing"

	"github.com/Veraticus/campus-bazaar/internal/catalog"
	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/engine"
	"github.com/Veraticus/campus-bazaar/internal/events"
	"github.com/Veraticus/campus-bazaar/internal/ledger"
	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/Veraticus/campus-bazaar/internal/testutil"
	"github.com/Veraticus/campus-bazaar/internal/tui/themes"
	"github.com/Veraticus/campus-bazaar/internal/view"
	"github.com/Veraticus/campus-bazaar/internal/wallet"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type browser struct {
	mem     *ledger.Memory
	manager *wallet.Manager
	db      *testutil.TestDB
	model   Model
}

// newBrowser wires the real components over an in-memory ledger. A non-empty
// account is connected before the model is built; otherwise the wallet
// exposes no accounts and listings are read without a session.
func newBrowser(t *testing.T, account string) *browser {
	t.Helper()

	bus := events.NewBus()
	mem := ledger.NewMemory(testutil.Listings()...)
	var accounts []string
	if account != "" {
		accounts = append(accounts, account)
	}
	provider := wallet.NewStatic(testutil.TestNetwork, accounts...)
	manager := wallet.NewManager(provider, mem, bus)
	if account != "" {
		_, err := manager.Connect(context.Background())
		require.NoError(t, err)
	}
	syncer := catalog.NewSynchronizer(manager, catalog.NewCache(), bus)
	db := testutil.SetupTestDB(t)

	cfg := defaultConfig()
	cfg.Session = manager
	cfg.Syncer = syncer
	cfg.Orchestrator = engine.New(manager, syncer, bus, db.Storage)
	cfg.Preferences = db.Storage
	cfg.Width = 140
	cfg.Height = 40

	return &browser{
		mem:     mem,
		manager: manager,
		db:      db,
		model:   newModel(context.Background(), cfg),
	}
}

// send feeds msg to the model and returns the resulting command.
func (b *browser) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := b.model.Update(msg)
	m, ok := next.(Model)
	require.True(t, ok)
	b.model = m
	return cmd
}

// run executes cmd and feeds its message back, as the program loop would.
func (b *browser) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	b.send(t, cmd())
}

func (b *browser) load(t *testing.T) {
	t.Helper()
	b.run(t, b.model.syncListings())
	require.Equal(t, view.StatusReady, b.model.result.Status)
}

func (b *browser) selectTitle(t *testing.T, title string) model.Listing {
	t.Helper()
	for i, l := range b.model.result.Listings {
		if l.Title == title {
			b.model.table.SetCursor(i)
			return l
		}
	}
	t.Fatalf("listing %q not visible", title)
	return model.Listing{}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func titles(listings []model.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.Title
	}
	return out
}

func TestModel_InitialLoad(t *testing.T) {
	b := newBrowser(t, "")
	assert.Equal(t, view.StatusNotLoaded, b.model.result.Status)
	assert.True(t, b.model.syncing)
	assert.Contains(t, b.model.View(), "Loading listings")

	b.load(t)
	assert.False(t, b.model.syncing)
	assert.Equal(t,
		[]string{"Chemistry textbook", "Graphing calculator", "Bike", "Study desk"},
		titles(b.model.result.Listings))
	assert.Len(t, b.model.table.Rows(), 4)

	out := b.model.View()
	assert.Contains(t, out, "Chemistry textbook")
	assert.Contains(t, out, "Not connected")
	assert.Contains(t, out, "4 of 4 listings")
}

func TestModel_LoadFailureIsExplicit(t *testing.T) {
	b := newBrowser(t, "")
	b.mem.FailCount(assert.AnError)

	b.run(t, b.model.syncListings())
	assert.Equal(t, view.StatusLoadFailed, b.model.result.Status)
	assert.Contains(t, b.model.View(), "Could not load listings.")
}

func TestModel_Filters(t *testing.T) {
	b := newBrowser(t, "")
	b.load(t)

	b.send(t, keyRunes("f"))
	assert.Equal(t, "rent", b.model.filter.Type)
	assert.Equal(t, []string{"Graphing calculator", "Bike"}, titles(b.model.result.Listings))

	b.send(t, keyRunes("f"))
	assert.Equal(t, "sell", b.model.filter.Type)
	b.send(t, keyRunes("f"))
	assert.Equal(t, model.FilterAll, b.model.filter.Type)

	b.send(t, keyRunes("/"))
	require.Equal(t, StateSearch, b.model.state)
	for _, r := range "LIBRARY" {
		b.send(t, keyRunes(string(r)))
	}
	assert.Equal(t, []string{"Graphing calculator"}, titles(b.model.result.Listings))

	b.send(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateBrowse, b.model.state)
	assert.Equal(t, "LIBRARY", b.model.filter.Query, "leaving search keeps the query")

	b.send(t, keyRunes("C"))
	assert.Equal(t, "books", b.model.filter.Category)
	assert.Equal(t, view.StatusEmpty, b.model.result.Status)
	assert.Contains(t, b.model.View(), "No listings match your filters")

	b.send(t, keyRunes("x"))
	assert.Equal(t, model.DefaultFilter(), b.model.filter)
	assert.Len(t, b.model.result.Listings, 4)
}

func TestModel_OwnerTogglesListing(t *testing.T) {
	b := newBrowser(t, testutil.Alice)
	b.load(t)

	desk := b.selectTitle(t, "Study desk")
	assert.Equal(t, "toggle", b.model.actionLabel(desk))

	cmd := b.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, "pending...", b.model.actionLabel(desk))

	again := b.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, again, "a second action on a pending listing is refused")
	assert.Contains(t, b.model.status.text, "already pending")

	b.run(t, cmd)
	assert.Empty(t, b.model.pending)

	got, ok := b.mem.Listing(desk.ID)
	require.True(t, ok)
	assert.False(t, got.IsAvailable)

	refreshed := b.selectTitle(t, "Study desk")
	assert.False(t, refreshed.IsAvailable, "the cache is re-synced after confirmation")
}

func TestModel_OtherUserPays(t *testing.T) {
	b := newBrowser(t, testutil.Bob)
	b.load(t)

	desk := b.selectTitle(t, "Study desk")
	assert.Equal(t, "buy", b.model.actionLabel(desk))

	cmd := b.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	b.run(t, cmd)

	calls := b.mem.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "buyOrRent", calls[0].Method)
	assert.Equal(t, desk.PriceMinorUnits.String(), calls[0].Value.String())
}

func TestModel_UnavailableListingIsNotPaid(t *testing.T) {
	b := newBrowser(t, testutil.Bob)
	b.load(t)

	bike := b.selectTitle(t, "Bike")
	assert.Equal(t, "-", b.model.actionLabel(bike))

	cmd := b.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "This listing is not available.", b.model.status.text)
	assert.Empty(t, b.mem.Calls())
}

func TestModel_CreateListing(t *testing.T) {
	b := newBrowser(t, testutil.Alice)
	b.load(t)

	b.send(t, keyRunes("n"))
	require.Equal(t, StateCreate, b.model.state)

	b.model.form.inputs[0].SetValue("Desk lamp")
	b.model.form.inputs[4].SetValue("sell")
	b.model.form.inputs[5].SetValue("0.5")

	cmd := b.send(t, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.True(t, b.model.form.submitting)
	b.run(t, cmd)

	assert.Equal(t, StateBrowse, b.model.state)
	assert.Empty(t, b.model.form.value("title"), "form is cleared after confirmation")

	calls := b.mem.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "500000000000000000", calls[0].Listing.PriceMinorUnits.String())
	assert.Contains(t, titles(b.model.result.Listings), "Desk lamp")
}

func TestModel_CreateValidationStaysInForm(t *testing.T) {
	b := newBrowser(t, testutil.Alice)
	b.load(t)

	b.send(t, keyRunes("n"))
	b.model.form.inputs[0].SetValue("Desk lamp")
	b.model.form.inputs[4].SetValue("sell")
	b.model.form.inputs[5].SetValue("1.2.3")

	b.run(t, b.send(t, tea.KeyMsg{Type: tea.KeyCtrlS}))

	assert.Equal(t, StateCreate, b.model.state)
	assert.Contains(t, b.model.form.errs, "price")
	assert.Equal(t, 5, b.model.form.focus, "the offending input is focused")
	assert.Equal(t, "Desk lamp", b.model.form.value("title"), "input is kept")
	assert.Empty(t, b.mem.Calls(), "invalid input never reaches the ledger")
	assert.Contains(t, b.model.View(), "invalid amount format")
}

func TestModel_ConfirmedCreateEventClearsForm(t *testing.T) {
	b := newBrowser(t, testutil.Alice)
	b.send(t, keyRunes("n"))
	b.model.form.inputs[0].SetValue("Desk lamp")

	b.send(t, busEventMsg{event: events.Event{
		Kind:      events.OperationConfirmed,
		Operation: &model.Operation{Kind: model.OperationCreate, Message: "Listing created on the ledger."},
	}})

	assert.Equal(t, StateBrowse, b.model.state)
	assert.Empty(t, b.model.form.value("title"))
	assert.Equal(t, levelSuccess, b.model.status.level)
}

func TestModel_FormNavigation(t *testing.T) {
	b := newBrowser(t, "")
	b.send(t, keyRunes("n"))

	b.send(t, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, b.model.form.focus)
	b.send(t, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, 0, b.model.form.focus)

	// Rent-only fields are skipped for sell listings.
	b.model.form.inputs[4].SetValue("sell")
	b.model.form.focusField("price")
	assert.True(t, b.model.form.onLastField())
	b.send(t, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, b.model.form.focus)

	b.model.form.inputs[4].SetValue("rent")
	b.model.form.focusField("price")
	assert.False(t, b.model.form.onLastField())
	assert.Contains(t, b.model.View(), "Deposit (ETH)")

	b.send(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateBrowse, b.model.state)
	assert.Equal(t, "rent", b.model.form.value("type"), "cancel keeps the draft")
}

func TestModel_SessionEvents(t *testing.T) {
	b := newBrowser(t, testutil.Alice)
	b.load(t)
	require.True(t, b.model.current.Connected())

	cmd := b.send(t, busEventMsg{event: events.Event{Kind: events.SessionReset, Reason: "accounts"}})
	require.NotNil(t, cmd)
	assert.False(t, b.model.current.Connected())
	assert.Equal(t, levelWarning, b.model.status.level)

	session := model.Session{Account: testutil.Bob, Network: testutil.TestNetwork}
	cmd = b.send(t, busEventMsg{event: events.Event{Kind: events.SessionConnected, Session: session}})
	require.NotNil(t, cmd)
	assert.Equal(t, session, b.model.current)
}

func TestModel_ConnectWithoutWallet(t *testing.T) {
	b := newBrowser(t, "")

	cmd := b.send(t, keyRunes("c"))
	require.True(t, b.model.connecting)
	b.run(t, cmd)

	assert.False(t, b.model.connecting)
	assert.Equal(t, levelError, b.model.status.level)
	assert.Contains(t, b.model.status.text, "No wallet available")
}

func TestModel_ThemeToggleIsSaved(t *testing.T) {
	b := newBrowser(t, "")
	require.Equal(t, themes.NameLight, b.model.theme.Name)

	cmd := b.send(t, keyRunes("t"))
	assert.Equal(t, themes.NameDark, b.model.theme.Name)
	b.run(t, cmd)

	got, err := b.db.Storage.GetPreference(context.Background(), ThemePreference)
	require.NoError(t, err)
	assert.Equal(t, themes.NameDark, got)
	assert.Equal(t, themes.NameDark, LoadTheme(context.Background(), b.db.Storage).Name)
}

func TestLoadTheme_Default(t *testing.T) {
	db := testutil.SetupTestDB(t)
	assert.Equal(t, themes.NameLight, LoadTheme(context.Background(), db.Storage).Name)
	assert.Equal(t, themes.NameLight, LoadTheme(context.Background(), nil).Name)
}

func TestModel_HelpAndQuit(t *testing.T) {
	b := newBrowser(t, "")

	b.send(t, keyRunes("?"))
	assert.Equal(t, StateHelp, b.model.state)
	assert.Contains(t, b.model.View(), "Keyboard shortcuts")

	b.send(t, keyRunes("?"))
	assert.Equal(t, StateBrowse, b.model.state)

	cmd := b.send(t, keyRunes("q"))
	require.NotNil(t, cmd)
	assert.True(t, b.model.quitting)
	assert.Empty(t, b.model.View())
}

func TestConnectFailure(t *testing.T) {
	assert.Equal(t, "Wallet connection was declined.", connectFailure(common.ErrUserRejected))
	assert.Contains(t, connectFailure(common.ErrWalletUnavailable), "No wallet available")
	assert.Equal(t, "Could not connect wallet.", connectFailure(assert.AnError))
}

func TestCycleCategory(t *testing.T) {
	cats := []string{"books", "furniture"}
	assert.Equal(t, "books", cycleCategory(model.FilterAll, cats))
	assert.Equal(t, "furniture", cycleCategory("books", cats))
	assert.Equal(t, model.FilterAll, cycleCategory("furniture", cats))
	assert.Equal(t, model.FilterAll, cycleCategory(model.FilterAll, nil))
}
