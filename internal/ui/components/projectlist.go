package components

import (
	"fmt"
	"folio/internal/gallery"
	"folio/internal/models"
	"folio/internal/util"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ProjectItem represents a project card in the list
type ProjectItem struct {
	Project models.Project
}

// FilterValue returns the filter value for the project item
func (i ProjectItem) FilterValue() string {
	return i.Project.Title
}

// Title returns the title for the project item
func (i ProjectItem) Title() string {
	if i.Project.Featured {
		return "★ " + i.Project.Title
	}
	return i.Project.Title
}

// Description returns the category and tools of the project
func (i ProjectItem) Description() string {
	category := ""
	if i.Project.CategoryDetails != nil {
		category = i.Project.CategoryDetails.Name
	}
	desc := category
	if len(i.Project.Tools) > 0 {
		desc = fmt.Sprintf("%s - %s", category, strings.Join(i.Project.Tools, ", "))
	}
	return util.Truncate(desc, 80)
}

// ProjectListModel shows the revealed part of the filtered gallery
type ProjectListModel struct {
	List     list.Model
	Selected *models.Project
}

// NewProjectListModel creates a new project list model
func NewProjectListModel(width, height int) ProjectListModel {
	listModel := list.New([]list.Item{}, list.NewDefaultDelegate(), width, height)
	listModel.Title = "Projects"
	listModel.SetShowStatusBar(false)
	listModel.SetFilteringEnabled(false)
	listModel.SetShowHelp(false)
	listModel.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true).
		MarginLeft(2)

	return ProjectListModel{List: listModel}
}

// SetItems shows the items whose reveal index is below revealed
func (m *ProjectListModel) SetItems(items []gallery.Item, revealed int) tea.Cmd {
	visible := make([]list.Item, 0, len(items))
	for _, it := range items {
		if it.Reveal < revealed {
			visible = append(visible, ProjectItem{Project: it.Project})
		}
	}
	cmd := m.List.SetItems(visible)
	m.syncSelected()
	return cmd
}

// SetSize resizes the list
func (m *ProjectListModel) SetSize(width, height int) {
	m.List.SetSize(width, height)
}

// Update handles project list updates
func (m ProjectListModel) Update(msg tea.Msg) (ProjectListModel, tea.Cmd) {
	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	m.syncSelected()
	return m, cmd
}

func (m *ProjectListModel) syncSelected() {
	if item, ok := m.List.SelectedItem().(ProjectItem); ok {
		p := item.Project
		m.Selected = &p
	} else {
		m.Selected = nil
	}
}

// View renders the project list
func (m ProjectListModel) View() string {
	return m.List.View()
}
