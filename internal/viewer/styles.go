package viewer

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/simonhull/eegview/internal/types"
)

// Theme defines the colour palette of the trace browser.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Traces maps channel types to trace colours.
	Traces map[types.ChannelType]lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"), // Purple
		Foreground: lipgloss.Color("#CDD6F4"), // Light gray
		Muted:      lipgloss.Color("#6C7086"), // Medium gray
		Traces: map[types.ChannelType]lipgloss.Color{
			types.ChannelEEG:  lipgloss.Color("#89B4FA"), // Blue
			types.ChannelEOG:  lipgloss.Color("#A6E3A1"), // Green
			types.ChannelECG:  lipgloss.Color("#F38BA8"), // Red
			types.ChannelEMG:  lipgloss.Color("#FAB387"), // Peach
			types.ChannelMisc: lipgloss.Color("#F9E2AF"), // Yellow
			types.ChannelStim: lipgloss.Color("#CBA6F7"), // Mauve
		},
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	// Title style for the file name.
	Title lipgloss.Style

	// Info style for the recording summary.
	Info lipgloss.Style

	// Label style for channel names.
	Label lipgloss.Style

	// StatusBar style for the time range line.
	StatusBar lipgloss.Style

	// Help style for help text.
	Help lipgloss.Style

	traces map[types.ChannelType]lipgloss.Style
	trace  lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	s := &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Info: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Label: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Width(labelWidth).
			MaxWidth(labelWidth),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(lipgloss.Color("#181825")).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(theme.Muted),

		traces: make(map[types.ChannelType]lipgloss.Style, len(theme.Traces)),
		trace:  lipgloss.NewStyle().Foreground(theme.Foreground),
	}
	for kind, c := range theme.Traces {
		s.traces[kind] = lipgloss.NewStyle().Foreground(c)
	}
	return s
}

// Trace returns the style for traces of the given channel type.
func (s *Styles) Trace(kind types.ChannelType) lipgloss.Style {
	if st, ok := s.traces[kind]; ok {
		return st
	}
	return s.trace
}
