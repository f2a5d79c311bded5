package ui

import (
	"context"
	"fmt"
	"folio/internal/gallery"
	"folio/internal/models"
	"folio/internal/ui/components"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// revealInterval is the delay between two cards appearing
const revealInterval = 80 * time.Millisecond

// Source is where the gallery reads its content
type Source interface {
	Projects(ctx context.Context) ([]models.Project, error)
	Categories(ctx context.Context) ([]models.Category, error)
	InvalidateAll()
}

type tab struct {
	slug string
	name string
}

// Model represents the gallery UI
type Model struct {
	Viewport      viewport.Model
	Spinner       spinner.Model
	List          components.ProjectListModel
	IsLoading     bool
	StatusMessage string
	ErrorMessage  string
	Width         int
	Height        int
	Ready         bool

	source     Source
	controller *gallery.Controller
	tabs       []tab
	tabIndex   int
	detail     bool

	// loadSeq identifies the latest load; older responses are dropped
	loadSeq uint64

	// revealed cards of the reveal sequence revealRev
	revealed  int
	revealRev uint64
}

// NewModel creates the gallery starting on the given category slug or gallery.All
func NewModel(source Source, filter string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	controller := gallery.NewController()
	controller.SetFilter(filter)

	return Model{
		Spinner:       s,
		List:          components.NewProjectListModel(80, 20),
		IsLoading:     true,
		StatusMessage: "Loading projects...",
		source:        source,
		controller:    controller,
		tabs:          []tab{{slug: gallery.All, name: "All"}},
		loadSeq:       1,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, loadContent(m.source, m.loadSeq))
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.source.InvalidateAll()
			m.loadSeq++
			m.IsLoading = true
			m.StatusMessage = "Refreshing..."
			return m, tea.Batch(m.Spinner.Tick, loadContent(m.source, m.loadSeq))
		case "tab", "right", "l":
			return m.selectTab(m.tabIndex + 1)
		case "shift+tab", "left", "h":
			return m.selectTab(m.tabIndex - 1)
		case "enter":
			if m.List.Selected != nil {
				m.detail = true
				m.Viewport.SetContent(renderDetail(*m.List.Selected, m.Width))
				m.Viewport.GotoTop()
			}
			return m, nil
		case "esc":
			m.detail = false
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

		if !m.Ready {
			// First time initializing
			m.Viewport = viewport.New(msg.Width, msg.Height-6)
			m.Viewport.YPosition = 3
			m.Ready = true
		} else {
			m.Viewport.Width = msg.Width
			m.Viewport.Height = msg.Height - 6
		}
		m.List.SetSize(msg.Width, msg.Height-6)

		return m, nil

	case spinner.TickMsg:
		if m.IsLoading {
			var spinnerCmd tea.Cmd
			m.Spinner, spinnerCmd = m.Spinner.Update(msg)
			cmds = append(cmds, spinnerCmd)
		}

	case contentLoadedMsg:
		if msg.seq != m.loadSeq {
			return m, nil
		}
		m.IsLoading = false
		if msg.err != nil {
			m.ErrorMessage = describeError(msg.err)
			m.StatusMessage = "Error"
			return m, nil
		}
		m.ErrorMessage = ""
		m.setTabs(msg.categories)
		m.StatusMessage = fmt.Sprintf("Loaded %d projects", len(msg.projects))
		m.controller.SetProjects(msg.projects)
		if m.controller.Revision() != m.revealRev {
			return m, m.startReveal()
		}
		return m, m.List.SetItems(m.controller.Items(), m.revealed)

	case revealTickMsg:
		if msg.revision != m.revealRev {
			return m, nil
		}
		items := m.controller.Items()
		m.revealed++
		cmd := m.List.SetItems(items, m.revealed)
		if m.revealed < len(items) {
			return m, tea.Batch(cmd, revealTick(m.revealRev))
		}
		return m, cmd
	}

	if m.detail {
		if m.Ready {
			var viewportCmd tea.Cmd
			m.Viewport, viewportCmd = m.Viewport.Update(msg)
			cmds = append(cmds, viewportCmd)
		}
	} else {
		var listCmd tea.Cmd
		m.List, listCmd = m.List.Update(msg)
		cmds = append(cmds, listCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) selectTab(i int) (tea.Model, tea.Cmd) {
	n := len(m.tabs)
	m.tabIndex = ((i % n) + n) % n
	m.detail = false
	if m.controller.SetFilter(m.tabs[m.tabIndex].slug) {
		return m, m.startReveal()
	}
	return m, nil
}

// startReveal restarts the staggered reveal for the controller's current revision
func (m *Model) startReveal() tea.Cmd {
	m.revealRev = m.controller.Revision()
	m.revealed = 0
	cmd := m.List.SetItems(m.controller.Items(), 0)
	if len(m.controller.Items()) == 0 {
		return cmd
	}
	return tea.Batch(cmd, revealTick(m.revealRev))
}

// setTabs rebuilds the category tabs and keeps the current filter selected.
// A filter naming an unknown category falls back to All.
func (m *Model) setTabs(categories []models.Category) {
	tabs := make([]tab, 0, len(categories)+1)
	tabs = append(tabs, tab{slug: gallery.All, name: "All"})
	for _, c := range categories {
		tabs = append(tabs, tab{slug: c.Slug, name: c.Name})
	}
	m.tabs = tabs

	m.tabIndex = 0
	current := m.controller.Filter()
	for i, t := range m.tabs {
		if t.slug == current {
			m.tabIndex = i
			return
		}
	}
	m.controller.SetFilter(gallery.All)
}

// Filter returns the selected category slug
func (m Model) Filter() string {
	return m.controller.Filter()
}

// Revealed returns how many cards of the current sequence are visible
func (m Model) Revealed() int {
	return m.revealed
}

// View renders the UI
func (m Model) View() string {
	if !m.Ready {
		return "Initializing..."
	}

	var status string
	if m.IsLoading {
		status = fmt.Sprintf("%s %s", m.Spinner.View(), m.StatusMessage)
	} else {
		status = m.StatusMessage
	}

	statusBar := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Padding(0, 1).
		Render(status)

	titleBar := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		Padding(0, 1).
		Render("Portfolio")

	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Padding(0, 1).
		Render("←/→ category • enter details • esc back • r refresh • q quit")

	errorView := ""
	if m.ErrorMessage != "" {
		errorView = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")).
			Padding(0, 1).
			Render(m.ErrorMessage)
	}

	body := m.List.View()
	if m.detail {
		body = m.Viewport.View()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleBar,
		m.renderTabs(),
		statusBar,
		body,
		errorView,
		help,
	)
}

func (m Model) renderTabs() string {
	active := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	inactive := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)

	parts := make([]string, len(m.tabs))
	for i, t := range m.tabs {
		if i == m.tabIndex {
			parts[i] = active.Render(t.name)
		} else {
			parts[i] = inactive.Render(t.name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// Messages
type contentLoadedMsg struct {
	seq        uint64
	projects   []models.Project
	categories []models.Category
	err        error
}

type revealTickMsg struct {
	revision uint64
}

// Commands
func loadContent(source Source, seq uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		projects, err := source.Projects(ctx)
		if err != nil {
			return contentLoadedMsg{seq: seq, err: err}
		}
		categories, err := source.Categories(ctx)
		if err != nil {
			return contentLoadedMsg{seq: seq, err: err}
		}
		return contentLoadedMsg{seq: seq, projects: projects, categories: categories}
	}
}

func revealTick(revision uint64) tea.Cmd {
	return tea.Tick(revealInterval, func(time.Time) tea.Msg {
		return revealTickMsg{revision: revision}
	})
}

// Helper functions
func renderDetail(p models.Project, width int) string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	var b strings.Builder
	b.WriteString(heading.Render(p.Title))
	b.WriteString("\n\n")
	if p.CategoryDetails != nil {
		fmt.Fprintf(&b, "%s %s\n", label.Render("Category:"), p.CategoryDetails.Name)
	}
	if len(p.Tools) > 0 {
		fmt.Fprintf(&b, "%s %s\n", label.Render("Tools:"), strings.Join(p.Tools, ", "))
	}
	if len(p.Tags) > 0 {
		names := make([]string, len(p.Tags))
		for i, t := range p.Tags {
			names[i] = t.Name
		}
		fmt.Fprintf(&b, "%s %s\n", label.Render("Tags:"), strings.Join(names, ", "))
	}
	if p.Link != nil && *p.Link != "" {
		fmt.Fprintf(&b, "%s %s\n", label.Render("Link:"), *p.Link)
	}
	if !p.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "%s %s\n", label.Render("Added:"), p.CreatedAt.Format("2 Jan 2006"))
	}
	b.WriteString("\n")

	wrap := lipgloss.NewStyle()
	if width > 4 {
		wrap = wrap.Width(width - 4)
	}
	b.WriteString(wrap.Render(p.Description))
	b.WriteString("\n")

	if len(p.Images) > 0 {
		b.WriteString("\n")
		b.WriteString(label.Render(fmt.Sprintf("%d images:", len(p.Images))))
		b.WriteString("\n")
		for _, img := range p.Images {
			fmt.Fprintf(&b, "  %s\n", img.Image)
		}
	}
	return b.String()
}
