package tui

import (
	"context"
	"strconv"

	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/events"
	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/Veraticus/campus-bazaar/internal/tui/themes"
	"github.com/Veraticus/campus-bazaar/internal/view"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// State represents the current state of the TUI.
type State int

const (
	StateBrowse State = iota
	StateSearch
	StateCreate
	StateApprove
	StatePassphrase
	StateHelp
)

// Model holds the main TUI state.
type Model struct {
	ctx          context.Context
	session      Session
	syncer       Syncer
	orchestrator Orchestrator
	prefs        Preferences
	accountReq   *accountRequestMsg
	passReq      *passphraseRequestMsg
	pending      map[uint64]model.OperationKind
	theme        themes.Theme
	current      model.Session
	status       statusMsg
	filter       model.FilterState
	result       view.Result
	config       Config
	keymap       KeyMap
	categories   []string
	help         help.Model
	spinner      spinner.Model
	table        table.Model
	search       textinput.Model
	passphrase   textinput.Model
	form         createForm
	width        int
	height       int
	state        State
	returnTo     State
	syncing      bool
	connecting   bool
	quitting     bool
}

// newModel creates a new model with the given configuration.
func newModel(ctx context.Context, cfg Config) Model {
	if ctx == nil {
		ctx = context.Background()
	}

	search := textinput.New()
	search.Placeholder = "title, description or location"
	search.Prompt = "/ "
	search.CharLimit = 80

	pass := textinput.New()
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.Prompt = ""

	m := Model{
		ctx:          ctx,
		config:       cfg,
		session:      cfg.Session,
		syncer:       cfg.Syncer,
		orchestrator: cfg.Orchestrator,
		prefs:        cfg.Preferences,
		theme:        cfg.Theme,
		keymap:       DefaultKeyMap(),
		filter:       model.DefaultFilter(),
		pending:      make(map[uint64]model.OperationKind),
		help:         help.New(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		search:       search,
		passphrase:   pass,
		form:         newCreateForm(),
		width:        cfg.Width,
		height:       cfg.Height,
		state:        StateBrowse,
		syncing:      cfg.Syncer != nil,
	}
	if cfg.Session != nil {
		m.current = cfg.Session.Session()
	}

	m.table = table.New(
		table.WithColumns(m.columns()),
		table.WithFocused(true),
		table.WithHeight(m.tableHeight()),
	)
	m.applyTheme()
	m.refresh()
	return m
}

// Init starts the first synchronization.
func (m Model) Init() tea.Cmd {
	if m.syncer == nil {
		return nil
	}
	return tea.Batch(m.syncListings(), m.spinner.Tick)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()
		return m, nil

	case busEventMsg:
		return m.handleEvent(msg.event)

	case syncDoneMsg:
		m.syncing = false
		m.refresh()
		if msg.err != nil {
			m.status = statusMsg{level: levelError, text: common.UserMessage(msg.err, "Could not load listings.")}
		}
		return m, nil

	case connectDoneMsg:
		m.connecting = false
		if msg.err != nil {
			m.status = statusMsg{level: levelError, text: connectFailure(msg.err)}
			return m, nil
		}
		m.current = msg.session
		m.refresh()
		m.status = statusMsg{level: levelSuccess, text: "Connected as " + model.ShortAddress(msg.session.Account)}
		return m, nil

	case operationDoneMsg:
		return m.handleOperationDone(msg)

	case themeSavedMsg:
		if msg.err != nil {
			common.LogError(msg.err, "Failed to save theme preference", common.Fields{"theme": msg.name})
			m.status = statusMsg{level: levelWarning, text: "Theme changed but could not be saved."}
		}
		return m, nil

	case statusMsg:
		m.status = msg
		return m, nil

	case accountRequestMsg:
		m.enterPrompt(StateApprove)
		m.accountReq = &msg
		return m, nil

	case passphraseRequestMsg:
		m.enterPrompt(StatePassphrase)
		m.passReq = &msg
		m.passphrase.Reset()
		cmd := m.passphrase.Focus()
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Cursor blink and similar messages go to the active input.
	var cmd tea.Cmd
	switch m.state {
	case StateSearch:
		m.search, cmd = m.search.Update(msg)
	case StateCreate:
		m.form, cmd = m.form.update(msg)
	case StatePassphrase:
		m.passphrase, cmd = m.passphrase.Update(msg)
	}
	return m, cmd
}

// handleEvent reacts to session, sync and operation events.
func (m Model) handleEvent(e events.Event) (tea.Model, tea.Cmd) {
	switch e.Kind {
	case events.SessionConnected:
		m.current = e.Session
		m.syncing = true
		return m, m.syncListings()

	case events.SessionReset:
		m.current = model.Session{}
		m.syncing = true
		m.refresh()
		m.status = statusMsg{level: levelWarning, text: "Wallet changed. Reloading listings..."}
		return m, m.syncListings()

	case events.SyncStarted:
		m.syncing = true
		return m, m.spinner.Tick

	case events.SyncCompleted, events.SyncFailed:
		m.syncing = false
		m.refresh()

	case events.OperationSubmitted:
		if e.Operation != nil {
			m.status = statusMsg{level: levelPending, text: e.Operation.Message + " " + shortHash(e.Operation.TxHash)}
		}

	case events.OperationConfirmed:
		if e.Operation == nil {
			break
		}
		if e.Operation.Kind == model.OperationCreate {
			m.form = newCreateForm()
			if m.state == StateCreate {
				m.state = StateBrowse
			}
		}
		m.status = statusMsg{level: levelSuccess, text: e.Operation.Message}

	case events.OperationFailed:
		if e.Operation == nil || common.Classify(e.Err) == common.KindValidation {
			break
		}
		m.status = statusMsg{level: levelError, text: e.Operation.Message}
	}
	return m, nil
}

func (m Model) handleOperationDone(msg operationDoneMsg) (tea.Model, tea.Cmd) {
	op := msg.operation
	if op.Kind == model.OperationCreate {
		m.form.submitting = false
		if msg.err != nil {
			m.form.setError(msg.err)
			return m, nil
		}
		m.form = newCreateForm()
		if m.state == StateCreate {
			m.state = StateBrowse
		}
		m.refresh()
		return m, nil
	}

	delete(m.pending, op.ListingID)
	m.refresh()
	if msg.err != nil && op.Message != "" {
		m.status = statusMsg{level: levelError, text: op.Message}
	}
	return m, nil
}

// handleKey dispatches a key press by state.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		return m.quit()
	}

	switch m.state {
	case StateApprove:
		return m.handleApproveKey(msg)
	case StatePassphrase:
		return m.handlePassphraseKey(msg)
	case StateSearch:
		return m.handleSearchKey(msg)
	case StateCreate:
		return m.handleFormKey(msg)
	case StateHelp:
		if key.Matches(msg, m.keymap.Help, m.keymap.Quit, m.keymap.Cancel) {
			m.state = StateBrowse
		}
		return m, nil
	}
	return m.handleBrowseKey(msg)
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit), key.Matches(msg, m.keymap.Cancel):
		return m.quit()

	case key.Matches(msg, m.keymap.Help):
		m.state = StateHelp
		return m, nil

	case key.Matches(msg, m.keymap.Search):
		m.state = StateSearch
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keymap.CycleType):
		m.filter.Type = cycleType(m.filter.Type)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keymap.CycleCategory):
		m.filter.Category = cycleCategory(m.filter.Category, m.categories)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keymap.ClearFilters):
		m.filter = model.DefaultFilter()
		m.search.SetValue("")
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keymap.New):
		if m.orchestrator == nil {
			return m, nil
		}
		m.state = StateCreate
		cmd := m.form.inputs[m.form.focus].Focus()
		return m, cmd

	case key.Matches(msg, m.keymap.Connect):
		if m.connecting || m.session == nil {
			return m, nil
		}
		m.connecting = true
		m.status = statusMsg{level: levelPending, text: "Connecting wallet..."}
		return m, m.connectWallet()

	case key.Matches(msg, m.keymap.Refresh):
		if m.syncer == nil {
			return m, nil
		}
		m.syncing = true
		return m, tea.Batch(m.syncListings(), m.spinner.Tick)

	case key.Matches(msg, m.keymap.Theme):
		name := themes.Toggle(m.theme.Name)
		m.theme = themes.GetTheme(name)
		m.applyTheme()
		return m, m.saveTheme(name)

	case key.Matches(msg, m.keymap.Act):
		return m.act()

	case key.Matches(msg, m.keymap.ClearScreen):
		return m, tea.ClearScreen
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// act runs the owner-aware action for the selected listing: the owner
// toggles availability, anyone else rents or buys.
func (m Model) act() (tea.Model, tea.Cmd) {
	listing, ok := m.selected()
	if !ok || m.orchestrator == nil {
		return m, nil
	}
	if _, busy := m.pending[listing.ID]; busy {
		m.status = statusMsg{level: levelWarning, text: "A transaction for this listing is already pending."}
		return m, nil
	}

	if listing.OwnedBy(m.current.Account) {
		m.pending[listing.ID] = model.OperationToggle
		m.status = statusMsg{level: levelPending, text: "Updating listing status..."}
		m.refresh()
		return m, m.toggleListing(listing.ID)
	}

	if !listing.IsAvailable {
		m.status = statusMsg{level: levelWarning, text: "This listing is not available."}
		return m, nil
	}

	m.pending[listing.ID] = model.OperationPay
	m.status = statusMsg{level: levelPending, text: "Sending payment for " + listing.Title + "..."}
	m.refresh()
	return m, m.payListing(listing)
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.search.Blur()
		m.state = StateBrowse
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.filter.Query = m.search.Value()
	m.refresh()
	return m, cmd
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Cancel):
		m.form.inputs[m.form.focus].Blur()
		m.state = StateBrowse
		return m, nil

	case key.Matches(msg, m.keymap.Submit),
		key.Matches(msg, m.keymap.Act) && m.form.onLastField():
		if m.form.submitting {
			return m, nil
		}
		m.form.submitting = true
		m.form.errs = make(map[string]string)
		return m, m.createListing(m.form.request())

	case key.Matches(msg, m.keymap.Act), key.Matches(msg, m.keymap.NextField):
		m.form.move(1)
		return m, nil

	case key.Matches(msg, m.keymap.PrevField):
		m.form.move(-1)
		return m, nil
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m Model) handleApproveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	req := m.accountReq
	if req == nil {
		m.leavePrompt()
		return m, nil
	}

	answer := msg.String()
	switch {
	case answer == "n" || key.Matches(msg, m.keymap.Cancel):
		req.reply <- approvalResult{err: declined()}
	case len(req.accounts) == 1 && (answer == "y" || answer == "enter"):
		req.reply <- approvalResult{value: req.accounts[0]}
	default:
		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(req.accounts) {
			m.status = statusMsg{level: levelWarning, text: "Invalid choice. Please try again."}
			return m, nil
		}
		req.reply <- approvalResult{value: req.accounts[n-1]}
	}

	m.accountReq = nil
	m.leavePrompt()
	return m, nil
}

func (m Model) handlePassphraseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	req := m.passReq
	if req == nil {
		m.leavePrompt()
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		req.reply <- approvalResult{value: m.passphrase.Value()}
	case tea.KeyEsc:
		req.reply <- approvalResult{err: declined()}
	default:
		var cmd tea.Cmd
		m.passphrase, cmd = m.passphrase.Update(msg)
		return m, cmd
	}

	m.passReq = nil
	m.passphrase.Reset()
	m.passphrase.Blur()
	m.leavePrompt()
	return m, nil
}

func (m *Model) enterPrompt(state State) {
	if m.state != StateApprove && m.state != StatePassphrase {
		m.returnTo = m.state
	}
	m.state = state
}

func (m *Model) leavePrompt() {
	m.state = m.returnTo
	m.returnTo = StateBrowse
}

// quit declines any open wallet prompt so the waiting provider returns.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.accountReq != nil {
		m.accountReq.reply <- approvalResult{err: declined()}
		m.accountReq = nil
	}
	if m.passReq != nil {
		m.passReq.reply <- approvalResult{err: declined()}
		m.passReq = nil
	}
	m.quitting = true
	return m, tea.Quit
}

// refresh re-derives the visible listings from the cache and filter.
func (m *Model) refresh() {
	if m.syncer == nil {
		return
	}
	state := m.syncer.Cache().State()
	m.result = view.Derive(state, m.filter)
	m.categories = view.Categories(state.Listings)

	m.table.SetRows(m.rows())
	if n := len(m.result.Listings); m.table.Cursor() >= n {
		m.table.SetCursor(max(n-1, 0))
	}
}

// selected returns the listing under the cursor.
func (m Model) selected() (model.Listing, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.result.Listings) {
		return model.Listing{}, false
	}
	return m.result.Listings[i], true
}

// handleResize adjusts component sizes when the terminal resizes.
func (m *Model) handleResize() {
	m.help.Width = m.width
	m.table.SetColumns(m.columns())
	m.table.SetHeight(m.tableHeight())
	m.table.SetRows(m.rows())
}

func (m *Model) applyTheme() {
	styles := table.DefaultStyles()
	styles.Header = m.theme.Header.Padding(0, 1)
	styles.Selected = m.theme.Selected
	styles.Cell = styles.Cell.Foreground(m.theme.Foreground)
	m.table.SetStyles(styles)
}

func connectFailure(err error) string {
	switch common.Classify(err) {
	case common.KindUserRejected:
		return "Wallet connection was declined."
	case common.KindWalletUnavailable:
		return "No wallet available. Configure a keystore or run with --demo."
	default:
		return common.UserMessage(err, "Could not connect wallet.")
	}
}

func cycleType(current string) string {
	switch current {
	case model.FilterAll, "":
		return model.ListingTypeRent.String()
	case model.ListingTypeRent.String():
		return model.ListingTypeSell.String()
	default:
		return model.FilterAll
	}
}

func cycleCategory(current string, categories []string) string {
	if current == model.FilterAll || current == "" {
		if len(categories) == 0 {
			return model.FilterAll
		}
		return categories[0]
	}
	for i, c := range categories {
		if c == current && i+1 < len(categories) {
			return categories[i+1]
		}
	}
	return model.FilterAll
}

func shortHash(hash string) string {
	if hash == "" {
		return ""
	}
	return "(" + model.ShortAddress(hash) + ")"
}
