package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zapdesk/zapdesk/internal/azdo"
	"github.com/zapdesk/zapdesk/internal/board"
	"github.com/zapdesk/zapdesk/internal/domain"
)

// AppScreen represents the different screens in the application flow.
type AppScreen int

const (
	ScreenLoading AppScreen = iota
	ScreenProjectPicker
	ScreenBoard
	ScreenDetail
)

// AppModel is the root Bubble Tea model that manages screen transitions.
// It orchestrates the flow from project selection -> board view -> detail.
type AppModel struct {
	// Dependencies
	client *azdo.Client
	store  *board.Store
	ctx    context.Context

	// Configured values (skip the picker when project is set)
	project      string
	workItemType string
	supportTag   string

	// Current state
	currentScreen AppScreen
	currentModel  tea.Model
	err           error
	loadingMsg    string

	// Cached models to preserve state across screen transitions
	boardModel *BoardModel
}

// NewAppModel creates a new app model. Pass an empty project to prompt
// the user with the project picker.
func NewAppModel(client *azdo.Client, store *board.Store, ctx context.Context, project, workItemType, supportTag string) AppModel {
	return AppModel{
		client:        client,
		store:         store,
		ctx:           ctx,
		project:       project,
		workItemType:  workItemType,
		supportTag:    supportTag,
		currentScreen: ScreenLoading,
		loadingMsg:    "Connecting to Azure DevOps...",
	}
}

// Init initializes the app model.
func (m AppModel) Init() tea.Cmd {
	// If a project is configured, skip the picker
	if m.project != "" {
		return func() tea.Msg { return boardReadyMsg{} }
	}

	return m.listProjects()
}

// Update handles messages and transitions between screens.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global quit handler
		if msg.String() == "ctrl+c" && m.currentScreen != ScreenBoard {
			return m, tea.Quit
		}

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case QuitMsg:
		return m, tea.Quit

	case projectsLoadedMsg:
		m.currentScreen = ScreenProjectPicker
		pickerModel := NewProjectPickerModel(msg.projects)
		m.currentModel = pickerModel
		return m, pickerModel.Init()

	case ProjectSelectedMsg:
		m.project = msg.Project.Name
		m.loadingMsg = fmt.Sprintf("Loading tickets for %s...", m.project)
		m.currentModel = nil
		return m, func() tea.Msg { return boardReadyMsg{} }

	case boardReadyMsg:
		m.currentScreen = ScreenBoard
		boardModel := NewBoardModel(m.store, m.client, m.ctx, m.project, m.workItemType, m.supportTag)
		m.boardModel = &boardModel
		m.currentModel = m.boardModel
		return m, boardModel.Init()

	case openDetailMsg:
		m.currentScreen = ScreenDetail
		detailModel := NewDetailModel(msg.ticket, m.client, m.ctx, m.project)
		m.currentModel = detailModel
		return m, detailModel.Init()

	case closeDetailMsg:
		m.currentScreen = ScreenBoard
		m.currentModel = m.boardModel
		// Request window size to ensure proper rendering
		return m, tea.WindowSize()
	}

	// Delegate to current screen's model
	if m.currentModel != nil {
		var cmd tea.Cmd
		m.currentModel, cmd = m.currentModel.Update(msg)
		// Keep boardModel in sync when on board screen
		if m.currentScreen == ScreenBoard {
			if bm, ok := m.currentModel.(BoardModel); ok {
				m.boardModel = &bm
			}
		}
		return m, cmd
	}

	return m, nil
}

// View renders the current screen.
func (m AppModel) View() string {
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v\n\nPress Ctrl+C to quit", m.err))
	}

	if m.currentModel != nil {
		return m.currentModel.View()
	}

	return m.loadingMsg + "\n\nPress Ctrl+C to quit"
}

// listProjects creates a command to list projects in the organization.
func (m AppModel) listProjects() tea.Cmd {
	return func() tea.Msg {
		projects, err := m.client.ListProjects(m.ctx)
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to list projects: %w", err)}
		}

		if len(projects) == 0 {
			return ErrorMsg{Err: fmt.Errorf("no projects found in organization")}
		}

		return projectsLoadedMsg{projects: projects}
	}
}

// Custom messages for app transitions.
type (
	projectsLoadedMsg struct {
		projects []domain.Project
	}

	boardReadyMsg struct{}
)
