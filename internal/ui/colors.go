package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title   lipgloss.Style
	active  lipgloss.Style
	ok      lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	muted   lipgloss.Style
	sidebar lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:   NewBold(t).MarginBottom(1),
		active:  NewBold(t),
		ok:      NewBold(s),
		err:     NewBold(e),
		warn:    NewStyle(w),
		muted:   NewEm(h),
		sidebar: lipgloss.NewStyle().Width(sidebarWidth).PaddingRight(2),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
