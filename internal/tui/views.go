package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/ledger"
	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/Veraticus/campus-bazaar/internal/tui/themes"
	"github.com/Veraticus/campus-bazaar/internal/view"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Fixed column widths; the title column takes what is left.
const (
	iconWidth     = 3
	typeWidth     = 5
	priceWidth    = 16
	categoryWidth = 12
	locationWidth = 14
	ownerWidth    = 14
	statusWidth   = 11
	actionWidth   = 10
	minTitleWidth = 12
	// header, filter bar, blank lines, status line and help footer
	chromeHeight = 9
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.state {
	case StateHelp:
		body = m.renderHelp()
	case StateCreate:
		body = m.form.view(m.theme, m.width)
	case StateApprove:
		body = m.renderAccountPrompt()
	case StatePassphrase:
		body = m.renderPassphrasePrompt()
	default:
		body = lipgloss.JoinVertical(lipgloss.Left, m.renderFilters(), "", m.renderListings())
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		"",
		body,
		"",
		m.renderStatus(),
		m.help.ShortHelpView(m.keymap.ShortHelp()),
	)
}

// renderHeader renders the title bar with the session and theme.
func (m Model) renderHeader() string {
	title := m.theme.Title.Render("🛍️  " + m.config.Title)

	var session string
	if m.current.Connected() {
		session = m.theme.StatusSuccess.Render("● " + model.ShortAddress(m.current.Account))
		if m.current.Network != "" {
			session += m.theme.Subtitle.Render(" on chain " + m.current.Network)
		}
	} else {
		session = m.theme.Subtitle.Render("○ Not connected (press c)")
	}

	tags := []string{"theme: " + m.theme.Name}
	if m.config.Demo {
		tags = append(tags, "demo")
	}
	if m.syncing {
		tags = append(tags, m.spinner.View()+" syncing")
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		title,
		"  ",
		session,
		"  ",
		m.theme.Subtitle.Render("["+strings.Join(tags, " • ")+"]"),
	)
}

// renderFilters shows the active search and filters.
func (m Model) renderFilters() string {
	query := m.filter.Query
	if m.state == StateSearch {
		query = m.search.View()
	} else if query == "" {
		query = m.theme.Subtitle.Render("(none)")
	}

	return fmt.Sprintf("%s %s   %s %s   %s %s   %s",
		m.theme.Bold.Render("Search:"), query,
		m.theme.Bold.Render("Type:"), m.filter.Type,
		m.theme.Bold.Render("Category:"), m.filter.Category,
		m.theme.Subtitle.Render(fmt.Sprintf("%d of %d listings", len(m.result.Listings), m.result.Total)),
	)
}

// renderListings renders the list in one of its distinct states.
func (m Model) renderListings() string {
	switch m.result.Status {
	case view.StatusNotLoaded:
		if m.syncing {
			return m.theme.StatusPending.Render(m.spinner.View() + " Loading listings...")
		}
		return m.theme.StatusPending.Render("Listings not loaded yet. Press r to refresh.")

	case view.StatusLoadFailed:
		text := "Could not load listings."
		if reason := common.UserMessage(m.result.Err, ""); reason != "" {
			text += " " + reason
		}
		banner := m.theme.StatusError.Render(text)
		if len(m.result.Listings) == 0 {
			return banner
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			banner,
			m.theme.Subtitle.Render("Showing the last loaded listings."),
			m.table.View(),
		)

	case view.StatusEmpty:
		if m.result.Total == 0 {
			return m.theme.Subtitle.Render("No listings yet. Press n to create one.")
		}
		return m.theme.Subtitle.Render("No listings match your filters. Press x to clear them.")
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.table.View(), m.renderDetail())
}

// renderDetail shows the description of the selected listing.
func (m Model) renderDetail() string {
	l, ok := m.selected()
	if !ok {
		return ""
	}
	desc := l.Description
	if desc == "" {
		desc = "No description."
	}
	return m.theme.RoundedBox.Width(max(m.width-4, 40)).Render(
		m.theme.Bold.Render(l.Title) + "\n" + m.theme.Normal.Render(desc),
	)
}

// renderStatus renders the status line for the last message.
func (m Model) renderStatus() string {
	if m.status.text == "" {
		return ""
	}
	var style lipgloss.Style
	switch m.status.level {
	case levelSuccess:
		style = m.theme.StatusSuccess
	case levelWarning:
		style = m.theme.StatusWarning
	case levelError:
		style = m.theme.StatusError
	case levelPending:
		style = m.theme.StatusPending
	default:
		style = m.theme.StatusInfo
	}
	return style.Render(m.status.text)
}

// renderHelp renders the full key reference.
func (m Model) renderHelp() string {
	h := m.help
	h.ShowAll = true
	return m.theme.RoundedBox.Render(
		m.theme.Title.Render("Keyboard shortcuts") + "\n\n" + h.FullHelpView(m.keymap.FullHelp()),
	)
}

func (m Model) renderAccountPrompt() string {
	req := m.accountReq
	if req == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Wallet access requested"))
	b.WriteString("\n\n")
	if len(req.accounts) == 1 {
		b.WriteString("Connect " + m.theme.Code.Render(req.accounts[0]) + "?\n\n")
		b.WriteString(m.theme.Subtitle.Render("y connect • n decline"))
	} else {
		for i, acct := range req.accounts {
			fmt.Fprintf(&b, "  [%d] %s\n", i+1, acct)
		}
		b.WriteString("\n")
		b.WriteString(m.theme.Subtitle.Render(fmt.Sprintf("1-%d select • n decline", len(req.accounts))))
	}
	return m.theme.RoundedBox.Render(b.String())
}

func (m Model) renderPassphrasePrompt() string {
	req := m.passReq
	if req == nil {
		return ""
	}
	return m.theme.RoundedBox.Render(
		m.theme.Title.Render("Unlock "+model.ShortAddress(req.account)) + "\n\n" +
			"Passphrase: " + m.passphrase.View() + "\n\n" +
			m.theme.Subtitle.Render("Enter unlock • Esc decline"),
	)
}

// columns sizes the table for the current width.
func (m Model) columns() []table.Column {
	fixed := iconWidth + typeWidth + priceWidth + categoryWidth + locationWidth + ownerWidth + statusWidth + actionWidth
	// each column carries two cells of padding
	titleWidth := max(m.width-fixed-2*9, minTitleWidth)

	return []table.Column{
		{Title: "", Width: iconWidth},
		{Title: "Title", Width: titleWidth},
		{Title: "Type", Width: typeWidth},
		{Title: "Price (ETH)", Width: priceWidth},
		{Title: "Category", Width: categoryWidth},
		{Title: "Location", Width: locationWidth},
		{Title: "Owner", Width: ownerWidth},
		{Title: "Status", Width: statusWidth},
		{Title: "Action", Width: actionWidth},
	}
}

func (m Model) tableHeight() int {
	return max(m.height-chromeHeight-4, 3)
}

// rows renders the derived listings as table rows.
func (m Model) rows() []table.Row {
	rows := make([]table.Row, 0, len(m.result.Listings))
	for _, l := range m.result.Listings {
		owner := model.ShortAddress(l.Owner)
		if l.OwnedBy(m.current.Account) {
			owner = "you"
		}
		status := "Available"
		if !l.IsAvailable {
			status = "Unavailable"
		}
		category := l.Category
		if category == "" {
			category = "-"
		}
		rows = append(rows, table.Row{
			themes.GetCategoryIcon(l.Category),
			l.Title,
			l.Type.String(),
			ledger.DisplayPrice(l.PriceMinorUnits),
			category,
			l.Location,
			owner,
			status,
			m.actionLabel(l),
		})
	}
	return rows
}

// actionLabel names what Enter does for l.
func (m Model) actionLabel(l model.Listing) string {
	if _, busy := m.pending[l.ID]; busy {
		return "pending..."
	}
	return view.Action(l, m.current.Account)
}
