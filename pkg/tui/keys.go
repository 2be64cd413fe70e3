package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds all TUI key bindings.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PgUp     key.Binding
	PgDown   key.Binding
	Search   key.Binding
	Validate key.Binding
	Info     key.Binding
	Orphans  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "browse up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "browse down"),
	),
	PgUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("PgUp", "scroll up"),
	),
	PgDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("PgDn", "scroll down"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Validate: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "validation"),
	),
	Info: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "script info"),
	),
	Orphans: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "orphans"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// keyBarText renders the context-sensitive key hint string.
func keyBarText(overlay overlayKind) string {
	if overlay != overlayNone {
		return keyStyle.Render("Esc") + keyDescStyle.Render(":close") + "  " +
			keyStyle.Render("q") + keyDescStyle.Render(":quit")
	}
	return keyStyle.Render("↑↓") + keyDescStyle.Render(":browse") + "  " +
		keyStyle.Render("PgUp/Dn") + keyDescStyle.Render(":scroll") + "  " +
		keyStyle.Render("/") + keyDescStyle.Render(":search") + "  " +
		keyStyle.Render("v") + keyDescStyle.Render(":validation") + "  " +
		keyStyle.Render("i") + keyDescStyle.Render(":info") + "  " +
		keyStyle.Render("o") + keyDescStyle.Render(":orphans") + "  " +
		keyStyle.Render("q") + keyDescStyle.Render(":quit") + "  " +
		keyStyle.Render("?") + keyDescStyle.Render(":help")
}
