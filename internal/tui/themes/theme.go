package themes

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme names as stored in the preferences table.
const (
	NameLight = "light"
	NameDark  = "dark"
)

// Theme defines the visual style for the TUI.
type Theme struct {
	Selected      lipgloss.Style
	CategoryIcon  lipgloss.Style
	StatusPending lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusSuccess lipgloss.Style
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Code          lipgloss.Style
	RoundedBox    lipgloss.Style
	Header        lipgloss.Style
	Name          string
	Primary       lipgloss.Color
	Secondary     lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
	Foreground    lipgloss.Color
	Background    lipgloss.Color
	Error         lipgloss.Color
	Success       lipgloss.Color
}

// Light is the default sand theme.
var Light = build(NameLight, palette{
	primary:    "#D9A441",
	secondary:  "#8C6A2F",
	success:    "#3E8E41",
	warning:    "#C7761E",
	errColor:   "#B3362F",
	info:       "#2F6F8C",
	background: "#F6EEDC",
	foreground: "#3B2F1E",
	border:     "#CBB791",
	muted:      "#8A7B62",
	code:       "#EADDBF",
})

// Dark is the dark theme.
var Dark = build(NameDark, palette{
	primary:    "#E0B35C",
	secondary:  "#a78bfa",
	success:    "#10b981",
	warning:    "#f59e0b",
	errColor:   "#ef4444",
	info:       "#3b82f6",
	background: "#1a1a1a",
	foreground: "#fafafa",
	border:     "#404040",
	muted:      "#737373",
	code:       "#262626",
})

// Default is the theme used when no preference is stored.
var Default = Light

type palette struct {
	primary, secondary, success, warning, errColor, info string
	background, foreground, border, muted, code          string
}

func build(name string, p palette) Theme {
	return Theme{
		Name:       name,
		Primary:    lipgloss.Color(p.primary),
		Secondary:  lipgloss.Color(p.secondary),
		Success:    lipgloss.Color(p.success),
		Error:      lipgloss.Color(p.errColor),
		Background: lipgloss.Color(p.background),
		Foreground: lipgloss.Color(p.foreground),
		Border:     lipgloss.Color(p.border),
		Muted:      lipgloss.Color(p.muted),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.primary)),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.muted)),
		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.foreground)),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.foreground)),
		Code: lipgloss.NewStyle().
			Background(lipgloss.Color(p.code)).
			Foreground(lipgloss.Color(p.foreground)).
			Padding(0, 1),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.secondary)).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color(p.border)),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(p.primary)).
			Foreground(lipgloss.Color(p.background)).
			Bold(true),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.border)).
			Padding(0, 1),

		StatusSuccess: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.success)).
			Bold(true),
		StatusWarning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.warning)).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.errColor)).
			Bold(true),
		StatusInfo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.info)).
			Bold(true),
		StatusPending: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.muted)).
			Italic(true),

		CategoryIcon: lipgloss.NewStyle().
			Width(3).
			Align(lipgloss.Center),
	}
}

// GetTheme returns a theme by name. Unknown names get the default.
func GetTheme(name string) Theme {
	switch name {
	case NameDark:
		return Dark
	default:
		return Light
	}
}

// Toggle returns the name of the other theme.
func Toggle(name string) string {
	if name == NameDark {
		return NameLight
	}
	return NameDark
}

// Valid reports whether name is a known theme.
func Valid(name string) bool {
	return name == NameLight || name == NameDark
}

// CategoryIcons maps listing categories to emoji icons.
var CategoryIcons = map[string]string{
	"books":       "📚",
	"electronics": "💻",
	"furniture":   "🪑",
	"clothing":    "👕",
	"sports":      "⚽",
	"vehicles":    "🚲",
	"instruments": "🎸",
	"kitchen":     "🍳",
	"stationery":  "✏️",
	"other":       "📦",
}

// GetCategoryIcon returns an icon for a category, ignoring case.
func GetCategoryIcon(category string) string {
	if icon, ok := CategoryIcons[strings.ToLower(category)]; ok {
		return icon
	}
	return "📦"
}
