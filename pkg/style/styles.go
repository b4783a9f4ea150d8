package style

import (
	"github.com/charmbracelet/lipgloss"
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(HeadingColor).
			Bold(true).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(HeadingColor).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	PathStyle = lipgloss.NewStyle().
			Foreground(PathColor).
			Italic(true)
)

// Status styles
var (
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)
)

// Subsystem accents
var (
	FormatStyle = lipgloss.NewStyle().
			Foreground(FormatColor).
			Bold(true)

	ModelStyle = lipgloss.NewStyle().
			Foreground(ModelColor).
			Bold(true)

	ConvertStyle = lipgloss.NewStyle().
			Foreground(ConvertColor).
			Bold(true)

	InventoryStyle = lipgloss.NewStyle().
			Foreground(InventoryColor).
			Bold(true)
)

// Operation status glyphs
var (
	SuccessIndicator  = SuccessStyle.Render("✓")
	ErrorIndicator    = ErrorStyle.Render("✗")
	InfoIndicator     = InfoStyle.Render("•")
	PendingIndicator  = MutedStyle.Render("○")
	ProgressIndicator = InfoStyle.Render("⟳")
)
