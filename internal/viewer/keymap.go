package viewer

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the trace browser keybindings.
type KeyMap struct {
	// Left scrolls back in time by half a page.
	Left key.Binding

	// Right scrolls forward in time by half a page.
	Right key.Binding

	// Up scrolls to the previous channel.
	Up key.Binding

	// Down scrolls to the next channel.
	Down key.Binding

	// ZoomIn halves the time window.
	ZoomIn key.Binding

	// ZoomOut doubles the time window.
	ZoomOut key.Binding

	// NextEpoch shows the next epoch of a segmented recording.
	NextEpoch key.Binding

	// PrevEpoch shows the previous epoch of a segmented recording.
	PrevEpoch key.Binding

	// Help toggles the full help.
	Help key.Binding

	// Quit closes the browser.
	Quit key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "earlier"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "later"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "prev channel"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next channel"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "zoom out"),
		),
		NextEpoch: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "next epoch"),
		),
		PrevEpoch: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "prev epoch"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.ZoomIn, k.ZoomOut, k.Help, k.Quit}
}

// FullHelp returns every binding, grouped in columns.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.ZoomIn, k.ZoomOut, k.NextEpoch, k.PrevEpoch},
		{k.Help, k.Quit},
	}
}
