package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vorplay/internal/confirm"
	"github.com/desertthunder/vorplay/internal/router"
	"github.com/desertthunder/vorplay/internal/sections"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgRestored MsgKind = iota
	MsgLoaded
	MsgResolved
)

type loaded struct {
	ticket  router.Ticket
	content *sections.Content
	err     error
}

type resolved struct {
	intent confirm.Intent
	err    error
}

// restoredMsg is the constructor for [MsgRestored]
func restoredMsg(err error) Msg {
	return Msg{kind: MsgRestored, data: err}
}

// loadedMsg is the constructor for [MsgLoaded]
func loadedMsg(ticket router.Ticket, content *sections.Content, err error) Msg {
	return Msg{kind: MsgLoaded, data: loaded{ticket, content, err}}
}

// resolvedMsg is the constructor for [MsgResolved]
func resolvedMsg(intent confirm.Intent, err error) Msg {
	return Msg{kind: MsgResolved, data: resolved{intent, err}}
}
