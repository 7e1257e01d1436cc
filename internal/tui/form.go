package tui

import (
	"errors"
	"strings"

	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/engine"
	"github.com/Veraticus/campus-bazaar/internal/tui/themes"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// formField describes one input of the create form.
type formField struct {
	key         string
	label       string
	placeholder string
	limit       int
	rentOnly    bool
}

var createFields = []formField{
	{key: "title", label: "Title", placeholder: "Study desk", limit: 80},
	{key: "description", label: "Description", placeholder: "Condition, pickup notes...", limit: 280},
	{key: "category", label: "Category", placeholder: "furniture", limit: 40},
	{key: "location", label: "Location", placeholder: "North dorm", limit: 80},
	{key: "type", label: "Type", placeholder: "rent or sell", limit: 4},
	{key: "price", label: "Price (ETH)", placeholder: "0.01", limit: 40},
	{key: "duration", label: "Rent per", placeholder: "day", limit: 20, rentOnly: true},
	{key: "deposit", label: "Deposit (ETH)", placeholder: "0.05", limit: 40, rentOnly: true},
}

// createForm collects a new listing. Validation happens in the
// orchestrator; its field errors are shown next to the offending input.
type createForm struct {
	errs       map[string]string
	inputs     []textinput.Model
	focus      int
	submitting bool
}

func newCreateForm() createForm {
	inputs := make([]textinput.Model, len(createFields))
	for i, f := range createFields {
		in := textinput.New()
		in.Placeholder = f.placeholder
		in.CharLimit = f.limit
		in.Prompt = ""
		inputs[i] = in
	}
	inputs[0].Focus()
	return createForm{inputs: inputs, errs: make(map[string]string)}
}

// request builds the orchestrator input from the current values.
func (f createForm) request() engine.CreateRequest {
	return engine.CreateRequest{
		Title:           f.value("title"),
		Description:     f.value("description"),
		Category:        f.value("category"),
		Location:        f.value("location"),
		Type:            strings.ToLower(f.value("type")),
		Price:           f.value("price"),
		DurationUnit:    f.value("duration"),
		SecurityDeposit: f.value("deposit"),
	}
}

func (f createForm) value(key string) string {
	for i, field := range createFields {
		if field.key == key {
			return f.inputs[i].Value()
		}
	}
	return ""
}

func (f createForm) rent() bool {
	return strings.EqualFold(strings.TrimSpace(f.value("type")), "rent")
}

// visible reports whether field i is shown for the current listing type.
func (f createForm) visible(i int) bool {
	return !createFields[i].rentOnly || f.rent()
}

func (f createForm) onLastField() bool {
	for i := f.focus + 1; i < len(f.inputs); i++ {
		if f.visible(i) {
			return false
		}
	}
	return true
}

func (f *createForm) move(delta int) {
	next := f.focus
	for {
		next = (next + delta + len(f.inputs)) % len(f.inputs)
		if f.visible(next) || next == f.focus {
			break
		}
	}
	f.inputs[f.focus].Blur()
	f.focus = next
	f.inputs[f.focus].Focus()
}

// setError records err against its field, or as a form-level error.
func (f *createForm) setError(err error) {
	f.errs = make(map[string]string)
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		field := ve.Field
		if field == "" {
			field = "form"
		}
		f.errs[field] = ve.Reason
		f.focusField(field)
		return
	}
	f.errs["form"] = common.UserMessage(err, "Transaction failed.")
}

func (f *createForm) focusField(key string) {
	for i, field := range createFields {
		if field.key == key {
			f.inputs[f.focus].Blur()
			f.focus = i
			f.inputs[i].Focus()
			return
		}
	}
}

// update feeds msg to the focused input.
func (f createForm) update(msg tea.Msg) (createForm, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f createForm) view(theme themes.Theme, width int) string {
	labelStyle := lipgloss.NewStyle().Width(15).Foreground(theme.Muted)
	focusedLabel := labelStyle.Foreground(theme.Primary).Bold(true)

	var b strings.Builder
	b.WriteString(theme.Title.Render("New listing"))
	b.WriteString("\n\n")

	for i, field := range createFields {
		if !f.visible(i) {
			continue
		}
		label := labelStyle
		if i == f.focus {
			label = focusedLabel
		}
		b.WriteString(label.Render(field.label))
		b.WriteString(f.inputs[i].View())
		if msg, ok := f.errs[field.key]; ok {
			b.WriteString("  ")
			b.WriteString(theme.StatusError.Render(msg))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case f.submitting:
		b.WriteString(theme.StatusPending.Render("Submitting..."))
	case f.errs["form"] != "":
		b.WriteString(theme.StatusError.Render(f.errs["form"]))
	default:
		b.WriteString(theme.Subtitle.Render("Enter next field • Ctrl+S submit • Esc cancel"))
	}

	return theme.RoundedBox.Width(max(width-4, 40)).Render(b.String())
}
