package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/vorplay/internal/confirm"
	"github.com/desertthunder/vorplay/internal/models"
	"github.com/desertthunder/vorplay/internal/router"
	"github.com/desertthunder/vorplay/internal/sections"
	"github.com/desertthunder/vorplay/internal/shared"
)

const sidebarWidth = 24

// Mode is the input mode of the TUI.
type Mode int

const (
	BootMode Mode = iota
	BrowseMode
	SearchMode
	ConfirmMode
)

// Session is the part of the session store the shell needs.
type Session interface {
	Restore(ctx context.Context) error
	Identity() *models.Identity
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	mode    Mode
	session Session
	loader  *sections.Loader
	nav     *router.Router
	view    *sections.View
	logger  *log.Logger
	width   int
	height  int
	list    list.Model
	search  textinput.Model
	spinner spinner.Model
	pending *confirm.Request
	notice  string
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model with the provided dependencies. nav decides the section mounted after boot.
func NewModel(ctx context.Context, session Session, loader *sections.Loader, nav *router.Router, logger *log.Logger) *Model {
	search := textinput.New()
	search.Placeholder = "Search tracks, artists, albums"
	search.Prompt = "/ "
	search.CharLimit = 120

	return &Model{
		ctx:     ctx,
		mode:    BootMode,
		session: session,
		loader:  loader,
		nav:     nav,
		view:    &sections.View{},
		logger:  logger,
		list:    newContentList(),
		search:  search,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init restores the stored session; nothing is fetched before it completes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.restore())
}

// Mode returns the current input mode.
func (m *Model) Mode() Mode { return m.mode }

// Section returns the state of the mounted section.
func (m *Model) Section() *sections.View { return m.view }

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if m.mode != BootMode && m.view.Status() != sections.StatusLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.kill) {
			m.view.Stop()
			return m, tea.Quit
		}
		switch m.mode {
		case BootMode:
			return m, nil
		case SearchMode:
			return m.handleSearchKeys(msg)
		case ConfirmMode:
			return m.handleConfirmKeys(msg)
		default:
			return m.handleBrowseKeys(msg)
		}
	}

	var cmd tea.Cmd
	if m.mode == SearchMode {
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgRestored:
		if err, ok := msg.data.(error); ok && err != nil {
			m.logger.Warn("session restore skipped", "err", err)
		}
		m.mode = BrowseMode
		return m, m.load(m.nav.Current())

	case MsgLoaded:
		data := msg.data.(loaded)
		if !m.view.Resolve(data.ticket, data.content, data.err) {
			m.logger.Debug("dropped stale response", "ticket", uint64(data.ticket))
			return m, nil
		}
		if data.err != nil && !errors.Is(data.err, context.Canceled) {
			m.logger.Warn("could not load section", "state", m.view.State().Encode(), "err", data.err)
		}
		m.setContent(data.content)
		return m, nil

	case MsgResolved:
		data := msg.data.(resolved)
		if data.err != nil {
			m.notice = shared.UserMessage(data.err)
			return m, nil
		}
		m.notice = data.intent.Action + " done"
		return m, m.load(m.view.State())
	}
	return m, nil
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if kind, ok := sectionKeys[msg.String()]; ok {
		return m, m.navigate(router.To(kind))
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.view.Stop()
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		m.mode = SearchMode
		m.search.SetValue("")
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.open):
		if item, ok := m.selected(); ok && item.Target != nil {
			return m, m.navigate(*item.Target)
		}
		return m, nil
	case key.Matches(msg, m.keys.back):
		if state, ok := m.nav.Back(); ok {
			m.notice = ""
			return m, m.load(state)
		}
		return m, nil
	case key.Matches(msg, m.keys.forward):
		if state, ok := m.nav.Forward(); ok {
			m.notice = ""
			return m, m.load(state)
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m, m.load(m.nav.Current())
	case key.Matches(msg, m.keys.remove):
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		req, err := m.loader.Remove(item)
		if err != nil {
			m.notice = shared.UserMessage(err)
			return m, nil
		}
		m.ask(req)
		return m, nil
	case key.Matches(msg, m.keys.clear):
		if m.nav.Section() == router.SectionHistory {
			m.ask(m.loader.ClearHistory())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel):
		m.search.Blur()
		m.mode = BrowseMode
		return m, nil
	case key.Matches(msg, m.keys.submit):
		query := strings.TrimSpace(m.search.Value())
		if query == "" {
			m.notice = "Enter something to search for."
			return m, nil
		}
		m.search.Blur()
		m.mode = BrowseMode
		m.notice = ""
		return m, m.load(m.nav.Search(query))
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	req := m.pending
	switch {
	case key.Matches(msg, m.keys.yes):
		m.pending = nil
		m.mode = BrowseMode
		m.notice = "Working..."
		return m, func() tea.Msg {
			return resolvedMsg(req.Intent, req.Resolve(m.ctx, true))
		}
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		_ = req.Resolve(m.ctx, false)
		m.pending = nil
		m.mode = BrowseMode
		m.notice = "Cancelled."
		return m, nil
	}
	return m, nil
}

func (m *Model) ask(req *confirm.Request) {
	m.pending = req
	m.mode = ConfirmMode
	m.notice = ""
}

func (m *Model) selected() (sections.Item, bool) {
	if m.view.Status() != sections.StatusReady {
		return sections.Item{}, false
	}
	it, ok := m.list.SelectedItem().(contentItem)
	if !ok {
		return sections.Item{}, false
	}
	return it.item, true
}

func (m *Model) restore() tea.Cmd {
	return func() tea.Msg {
		return restoredMsg(m.session.Restore(m.ctx))
	}
}

func (m *Model) navigate(state router.State) tea.Cmd {
	m.notice = ""
	return m.load(m.nav.Navigate(state))
}

// load starts a fetch of state, canceling the previous one. The response is applied by [Model.handleMsg] only if
// no newer fetch has started in the meantime.
func (m *Model) load(state router.State) tea.Cmd {
	ctx, ticket := m.view.Start(m.ctx, state)
	m.setContent(nil)
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		content, err := m.loader.Load(ctx, state)
		return loadedMsg(ticket, content, err)
	})
}

func (m *Model) setContent(content *sections.Content) {
	m.list.SetItems(contentItems(content))
	m.list.ResetSelected()
	m.list.Title = ""
	if content != nil {
		m.list.Title = content.Title
	}
	m.resize()
}

func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	summary := 0
	if content := m.view.Content(); content != nil {
		summary = len(content.Summary) + 1
	}
	m.list.SetSize(max(m.width-sidebarWidth-4, 20), max(m.height-6-summary, 5))
	m.search.Width = max(m.width-sidebarWidth-8, 10)
}

// View renders the UI based on the current mode.
func (m *Model) View() string {
	if m.mode == BootMode {
		return fmt.Sprintf("\n  %s Restoring session...\n", m.spinner.View())
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), m.renderMain())
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m *Model) renderHeader() string {
	who := styles.muted.Render("not logged in")
	if identity := m.session.Identity(); identity != nil {
		who = styles.ok.Render(identity.Name) + styles.muted.Render(" <"+identity.Email+">")
	}
	return styles.title.Render("vorplay") + "  " + who
}

func (m *Model) renderSidebar() string {
	current := m.nav.Section()
	var b strings.Builder
	for _, kind := range router.Sidebar() {
		line := fmt.Sprintf("%s  %s", sectionKey(kind), kind.Label())
		if kind == current {
			b.WriteString(styles.active.Render("> "+line) + "\n")
			continue
		}
		b.WriteString("  " + line + "\n")
	}
	if sectionKey(current) == "" {
		b.WriteString("\n" + styles.active.Render("> "+current.Label()) + "\n")
	}
	return styles.sidebar.Render(b.String())
}

func (m *Model) renderMain() string {
	var b strings.Builder

	switch m.mode {
	case SearchMode:
		b.WriteString(m.search.View() + "\n\n")
	case ConfirmMode:
		b.WriteString(styles.warn.Render(m.pending.Intent.Prompt()) + "\n\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no}))
		return b.String()
	}

	switch m.view.Status() {
	case sections.StatusLoading:
		fmt.Fprintf(&b, "%s Loading %s...", m.spinner.View(), m.view.State().Kind().Label())
	case sections.StatusFailed:
		b.WriteString(styles.err.Render(m.view.Message()))
		b.WriteString("\n\n" + styles.muted.Render("R to retry, esc to go back"))
	case sections.StatusReady:
		content := m.view.Content()
		for _, line := range content.Summary {
			b.WriteString(line + "\n")
		}
		if len(content.Items) == 0 {
			b.WriteString("\n" + styles.title.Render(content.Title) + "\n")
			b.WriteString(styles.muted.Render(content.Empty))
		} else {
			b.WriteString(m.list.View())
		}
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	var b strings.Builder
	if m.notice != "" {
		b.WriteString(styles.warn.Render(m.notice) + "\n")
	}
	keys := m.keys.ShortHelp()
	if m.mode == SearchMode {
		keys = []key.Binding{m.keys.submit, m.keys.cancel}
	}
	b.WriteString(m.help.ShortHelpView(keys))
	return b.String()
}
