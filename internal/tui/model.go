// Package tui is the terminal client: it lists the link collection and wires
// every row's delete control to an optimistic delete interaction. The Bubble
// Tea update loop is the single-threaded UI runtime; delete requests run as
// asynchronous commands and settle back into the loop as messages, so the
// interface stays responsive while a request is in flight.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	linkapp "github.com/linkdeck/linkdeck/internal/application/links"
	"github.com/linkdeck/linkdeck/internal/client/api"
	"github.com/linkdeck/linkdeck/internal/client/optimistic"
	"go.uber.org/zap"
)

const requestTimeout = 15 * time.Second

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	urlStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type mode int

const (
	modeList mode = iota
	modeAdd
)

// Messages settled into the update loop by asynchronous commands.
type (
	linksLoadedMsg struct {
		links []*linkapp.LinkResponse
		err   error
	}
	deleteDoneMsg struct {
		key string
		err error
	}
	createDoneMsg struct {
		link *linkapp.LinkResponse
		err  error
	}
)

// Model is the terminal client state.
type Model struct {
	client *api.Client
	logger *zap.Logger

	mode        mode
	rows        []*row
	controllers map[string]*optimistic.Delete
	cursor      int
	status      string
	statusErr   bool
	loading     bool

	inputs     []textinput.Model
	inputFocus int
}

// NewModel creates the terminal client model.
func NewModel(client *api.Client, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	urlInput := textinput.New()
	urlInput.Placeholder = "https://example.com"
	urlInput.Prompt = "URL: "
	urlInput.CharLimit = 2048

	titleInput := textinput.New()
	titleInput.Placeholder = "fetched from the page when empty"
	titleInput.Prompt = "Title: "
	titleInput.CharLimit = 140

	return Model{
		client:      client,
		logger:      logger,
		controllers: make(map[string]*optimistic.Delete),
		inputs:      []textinput.Model{urlInput, titleInput},
		loading:     true,
	}
}

// Init loads the link list.
func (m Model) Init() tea.Cmd {
	return m.loadLinks()
}

func (m Model) loadLinks() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		links, err := client.ListLinks(ctx)
		return linksLoadedMsg{links: links, err: err}
	}
}

// Update handles messages. Click and Resolve of the delete controllers run
// here, on the UI goroutine; only Request runs inside commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case linksLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("load failed: %v", msg.err), true)
			return m, nil
		}
		m.installRows(msg.links)
		m.setStatus(fmt.Sprintf("%d links", len(m.rows)), false)
		return m, nil

	case deleteDoneMsg:
		ctrl, ok := m.controllers[msg.key]
		if !ok {
			return m, nil
		}
		state := ctrl.Resolve(msg.err)
		if state == optimistic.StateRemoved {
			m.compactRows()
			m.setStatus(fmt.Sprintf("removed %s", msg.key), false)
		} else {
			m.setStatus(fmt.Sprintf("delete failed, restored %s", msg.key), true)
		}
		return m, nil

	case createDoneMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("create failed: %v", msg.err), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("added %s", msg.link.Key), false)
		m.loading = true
		return m, m.loadLinks()

	case tea.KeyMsg:
		if m.mode == modeAdd {
			return m.updateAdd(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.visibleRows())-1 {
			m.cursor++
		}

	case "r":
		m.loading = true
		m.setStatus("refreshing", false)
		return m, m.loadLinks()

	case "a":
		m.mode = modeAdd
		m.inputFocus = 0
		for i := range m.inputs {
			m.inputs[i].SetValue("")
			m.inputs[i].Blur()
		}
		return m, m.inputs[0].Focus()

	case "d":
		return m.deleteSelected()
	}
	return m, nil
}

// deleteSelected runs the click half of the interaction and arms the request
// command. A click on an item whose request is already in flight is a no-op:
// no second command is issued.
func (m Model) deleteSelected() (tea.Model, tea.Cmd) {
	visible := m.visibleRows()
	if m.cursor >= len(visible) {
		return m, nil
	}
	key := visible[m.cursor].Key()
	ctrl, ok := m.controllers[key]
	if !ok {
		return m, nil
	}

	if !ctrl.Click(nil) {
		return m, nil
	}
	m.setStatus(fmt.Sprintf("deleting %s", key), false)

	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return deleteDoneMsg{key: key, err: ctrl.Request(ctx)}
	}
}

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.setStatus("", false)
		return m, nil

	case "tab", "shift+tab":
		m.inputs[m.inputFocus].Blur()
		if msg.String() == "tab" {
			m.inputFocus = (m.inputFocus + 1) % len(m.inputs)
		} else {
			m.inputFocus = (m.inputFocus + len(m.inputs) - 1) % len(m.inputs)
		}
		return m, m.inputs[m.inputFocus].Focus()

	case "enter":
		rawURL := strings.TrimSpace(m.inputs[0].Value())
		title := strings.TrimSpace(m.inputs[1].Value())
		if rawURL == "" {
			m.setStatus("a URL is required", true)
			return m, nil
		}
		m.mode = modeList
		m.setStatus("adding link", false)
		client := m.client
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			link, err := client.CreateLink(ctx, linkapp.CreateLinkRequest{
				URL:   rawURL,
				Title: title,
			})
			return createDoneMsg{link: link, err: err}
		}
	}

	var cmd tea.Cmd
	m.inputs[m.inputFocus], cmd = m.inputs[m.inputFocus].Update(msg)
	return m, cmd
}

// installRows rebuilds the row set and its delete controllers from a fresh
// list response. Each controller gets its row view and the shared API client.
func (m *Model) installRows(links []*linkapp.LinkResponse) {
	m.rows = m.rows[:0]
	m.controllers = make(map[string]*optimistic.Delete, len(links))

	for _, link := range links {
		r := newRow(link)
		ctrl, err := optimistic.NewDelete(
			optimistic.Form{
				Action: link.DeleteForm.Action,
				Method: link.DeleteForm.Method,
			},
			r,
			m.client,
			optimistic.WithLogger(m.logger),
		)
		if err != nil {
			m.logger.Error("controller construction failed",
				zap.String("key", link.Key),
				zap.Error(err))
			continue
		}
		m.rows = append(m.rows, r)
		m.controllers[link.Key] = ctrl
	}
	m.clampCursor()
}

// compactRows drops removed rows and their controllers.
func (m *Model) compactRows() {
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.removed {
			delete(m.controllers, r.Key())
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	m.clampCursor()
}

// visibleRows returns the rows currently shown: hidden rows are elided from
// the viewport but retained until their interaction resolves.
func (m Model) visibleRows() []*row {
	visible := make([]*row, 0, len(m.rows))
	for _, r := range m.rows {
		if r.removed || r.hidden {
			continue
		}
		visible = append(visible, r)
	}
	return visible
}

func (m *Model) clampCursor() {
	if n := len(m.visibleRows()); m.cursor >= n && n > 0 {
		m.cursor = n - 1
	} else if n == 0 {
		m.cursor = 0
	}
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// View renders the client.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("linkdeck"))
	b.WriteString("\n\n")

	if m.mode == modeAdd {
		b.WriteString("Add a link\n\n")
		for i := range m.inputs {
			b.WriteString(m.inputs[i].View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter save · tab next field · esc cancel"))
		b.WriteString("\n")
		return b.String()
	}

	switch visible := m.visibleRows(); {
	case m.loading:
		b.WriteString("loading...\n")
	case len(visible) == 0:
		b.WriteString("no links yet, press a to add one\n")
	default:
		for i, r := range visible {
			line := fmt.Sprintf("%s  %s", r.link.Title, urlStyle.Render(r.link.URL))
			if i == m.cursor {
				line = selectedStyle.Render("> ") + line
			} else {
				line = "  " + line
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.status != "" {
		if m.statusErr {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(statusStyle.Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("d delete · a add · r refresh · q quit"))
	b.WriteString("\n")
	return b.String()
}
