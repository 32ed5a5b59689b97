// Package domain defines the normalized ticket types used across ZapDesk.
// These types represent the core concepts independent of the Azure DevOps
// REST API structure.
package domain

import "time"

// Ticket is an Azure DevOps work item projected into ticket shape.
// Identity is the external work item ID; ZapDesk never mints identifiers.
type Ticket struct {
	ID          int       // Azure DevOps work item ID
	Title       string    // Work item title
	State       string    // Remote state value (e.g., "New", "Active", "Closed")
	Type        string    // Work item type (e.g., "Issue", "Bug")
	Priority    int       // Priority 1-4, 0 when unset
	Assignee    string    // Assigned agent (unique name), empty when unassigned
	Requester   string    // Who raised the ticket (creator or email sender)
	Tags        []string  // Work item tags
	Description string    // Free-text description (plain text)
	URL         string    // Web link to the work item, may be empty
	CreatedAt   time.Time // Creation timestamp
	ChangedAt   time.Time // Last change timestamp
	ClosedAt    time.Time // Resolution timestamp, zero while open
}

// Resolved reports whether the ticket has reached a closed state.
func (t Ticket) Resolved() bool {
	return !t.ClosedAt.IsZero()
}

// Clone returns a deep copy of the ticket. Tags is the only reference
// field, but a shared backing array would let speculative board edits
// leak into the authoritative list.
func (t Ticket) Clone() Ticket {
	c := t
	if t.Tags != nil {
		c.Tags = make([]string, len(t.Tags))
		copy(c.Tags, t.Tags)
	}
	return c
}

// StateDef describes one legal state value for a work item type, fetched
// from the external system's process configuration. The ordered list of
// StateDefs defines the board columns.
type StateDef struct {
	Name     string // State name displayed to users (e.g., "Active")
	Category string // State category (e.g., "Proposed", "InProgress", "Completed")
	Color    string // Hex color from the process configuration
	Order    int    // Position in the process configuration (from API response order)
}

// StateNames extracts the ordered state names from a list of definitions.
func StateNames(defs []StateDef) []string {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

// Comment represents a discussion entry on a work item.
type Comment struct {
	ID        int    // Azure DevOps comment ID
	Author    string // Author display name (may be empty if the user was removed)
	Body      string // Comment text
	CreatedAt string // ISO8601 timestamp
	UpdatedAt string // ISO8601 timestamp
}

// Project represents an Azure DevOps project that can host support tickets.
type Project struct {
	ID          string // Project GUID
	Name        string // Project name within the organization
	Description string // Project description, may be empty
}

// State categories as reported by the states endpoint.
const (
	CategoryProposed   = "Proposed"
	CategoryInProgress = "InProgress"
	CategoryResolved   = "Resolved"
	CategoryCompleted  = "Completed"
	CategoryRemoved    = "Removed"
)
