// Package tui provides Bubble Tea models for the interactive ticket board.
package tui

import (
	"github.com/zapdesk/zapdesk/internal/domain"
)

// ProjectSelectedMsg is emitted when the user selects a project.
type ProjectSelectedMsg struct {
	Project domain.Project
}

// ErrorMsg is emitted when an error occurs.
type ErrorMsg struct {
	Err error
}

// QuitMsg is emitted when the user requests to quit.
type QuitMsg struct{}
