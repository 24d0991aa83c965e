package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/vorplay/internal/sections"
)

var _ list.Item = contentItem{}

// contentItem wraps [sections.Item] to implement [list.Item].
type contentItem struct {
	item sections.Item
}

func (i contentItem) FilterValue() string { return i.item.Title }
func (i contentItem) Title() string       { return i.item.Title }
func (i contentItem) Description() string {
	if i.item.Description == "" && i.item.Target != nil {
		return i.item.Target.Kind().Label()
	}
	return i.item.Description
}

func newContentList() list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.DisableQuitKeybindings()
	return l
}

func contentItems(content *sections.Content) []list.Item {
	if content == nil {
		return nil
	}
	items := make([]list.Item, len(content.Items))
	for i, it := range content.Items {
		items[i] = contentItem{item: it}
	}
	return items
}
