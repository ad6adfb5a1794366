package main

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings. Some keys mean different things per
// section (a adds a credential on the credentials screen and associates
// an elastic IP on the instances screen).
type KeyMap struct {
	Up   key.Binding
	Down key.Binding

	Credentials key.Binding
	Instances   key.Binding
	ElasticIPs  key.Binding
	NextSection key.Binding

	Selector key.Binding // Open the section's credential selector.
	Reload   key.Binding
	Enter    key.Binding
	Escape   key.Binding

	Add         key.Binding // Add credential / associate elastic IP.
	Delete      key.Binding // Delete credential / disassociate.
	Release     key.Binding
	Allocate    key.Binding
	OpenConsole key.Binding
	Confirm     key.Binding
	Cancel      key.Binding
	NextField   key.Binding
	PrevField   key.Binding
	ToggleHelp  key.Binding
	Quit        key.Binding
	ForceQuit   key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Credentials: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "credentials"),
	),
	Instances: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "instances"),
	),
	ElasticIPs: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "elastic IPs"),
	),
	NextSection: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next section"),
	),
	Selector: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "select credential"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "details"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close"),
	),
	Add: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add / associate"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete / disassociate"),
	),
	Release: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "release"),
	),
	Allocate: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "allocate"),
	),
	OpenConsole: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open in console"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "N", "esc"),
		key.WithHelp("n", "cancel"),
	),
	NextField: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab", "next field"),
	),
	PrevField: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("S-tab", "previous field"),
	),
	ToggleHelp: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
}

// ShortHelp is the status bar hint for a section.
func (k KeyMap) ShortHelp(s section) []key.Binding {
	switch s {
	case credentialsSection:
		return []key.Binding{k.Up, k.Down, k.Add, k.Delete, k.Reload, k.NextSection, k.Quit}
	case instancesSection:
		return []key.Binding{k.Selector, k.Enter, k.Add, k.OpenConsole, k.Reload, k.NextSection, k.Quit}
	default:
		return []key.Binding{k.Selector, k.Allocate, k.Delete, k.Release, k.Reload, k.NextSection, k.Quit}
	}
}
