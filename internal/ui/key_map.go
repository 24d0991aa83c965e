package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/desertthunder/vorplay/internal/router"
)

// sectionKeys maps a single key to the sidebar section it opens.
var sectionKeys = map[string]router.SectionKind{
	"w": router.SectionWelcome,
	"r": router.SectionReviews,
	"f": router.SectionFavorites,
	"p": router.SectionPlaylists,
	"h": router.SectionHistory,
	"o": router.SectionFollows,
	"a": router.SectionAccount,
}

func sectionKey(kind router.SectionKind) string {
	for k, v := range sectionKeys {
		if v == kind {
			return k
		}
	}
	return ""
}

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	sections key.Binding
	search   key.Binding
	open     key.Binding
	back     key.Binding
	forward  key.Binding
	remove   key.Binding
	clear    key.Binding
	reload   key.Binding
	submit   key.Binding
	cancel   key.Binding
	yes      key.Binding
	no       key.Binding
	quit     key.Binding
	kill     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		sections: key.NewBinding(key.WithKeys("w", "r", "f", "p", "h", "o", "a"), key.WithHelp("w/r/f/p/h/o/a", "sections")),
		search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:     key.NewBinding(key.WithKeys("esc", "["), key.WithHelp("esc", "back")),
		forward:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "forward")),
		remove:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		clear:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear history")),
		reload:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload")),
		submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:     key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		kill:     key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.sections, k.search, k.open, k.back, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.open},
		{k.sections, k.search, k.reload},
		{k.back, k.forward, k.remove, k.clear},
		{k.quit},
	}
}
