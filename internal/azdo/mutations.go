package azdo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/zapdesk/zapdesk/internal/domain"
)

// patchOp is a single JSON Patch operation. Azure DevOps uses "add" as an
// upsert for work item fields.
type patchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

const jsonPatchType = "application/json-patch+json"

// UpdateState transitions a work item to a new state. Board moves issue
// exactly one of these per drop: one request, no retries, and safe to
// re-send with the same target state.
func (c *Client) UpdateState(ctx context.Context, project string, id int, state string) error {
	ops := []patchOp{{Op: "add", Path: "/fields/" + domain.FieldState, Value: state}}
	if err := c.patchWorkItem(ctx, project, id, ops); err != nil {
		return fmt.Errorf("failed to update state: %w", err)
	}
	return nil
}

// Assign sets the work item's assignee. Pass an empty string to unassign.
func (c *Client) Assign(ctx context.Context, project string, id int, assignee string) error {
	ops := []patchOp{{Op: "add", Path: "/fields/" + domain.FieldAssignedTo, Value: assignee}}
	if err := c.patchWorkItem(ctx, project, id, ops); err != nil {
		return fmt.Errorf("failed to assign: %w", err)
	}
	return nil
}

// SetPriority sets the work item's priority (1-4).
func (c *Client) SetPriority(ctx context.Context, project string, id, priority int) error {
	ops := []patchOp{{Op: "add", Path: "/fields/" + domain.FieldPriority, Value: priority}}
	if err := c.patchWorkItem(ctx, project, id, ops); err != nil {
		return fmt.Errorf("failed to set priority: %w", err)
	}
	return nil
}

func (c *Client) patchWorkItem(ctx context.Context, project string, id int, ops []patchOp) error {
	path := fmt.Sprintf("/%s/_apis/wit/workitems/%s?api-version=%s",
		url.PathEscape(project), strconv.Itoa(id), apiVersion)
	return c.doJSON(ctx, "PATCH", path, jsonPatchType, ops, nil)
}

// AddComment appends a comment to a work item's discussion.
func (c *Client) AddComment(ctx context.Context, project string, id int, text string) error {
	path := fmt.Sprintf("/%s/_apis/wit/workItems/%s/comments?api-version=%s",
		url.PathEscape(project), strconv.Itoa(id), commentsAPIVersion)
	body := map[string]string{"text": text}
	if err := c.doJSON(ctx, "POST", path, "application/json", body, nil); err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return nil
}

// NewTicket describes a work item to create. Used by the email webhook.
type NewTicket struct {
	Type        string   // Work item type, e.g. "Issue"
	Title       string   // Required
	Description string   // Plain text body
	Requester   string   // Recorded in the description attribution line
	Tags        []string // Always includes the support tag at the caller
}

// CreateTicket creates a work item and returns its new ID.
func (c *Client) CreateTicket(ctx context.Context, project string, t NewTicket) (int, error) {
	description := t.Description
	if t.Requester != "" {
		description = fmt.Sprintf("Requested by %s\n\n%s", t.Requester, t.Description)
	}

	ops := []patchOp{
		{Op: "add", Path: "/fields/" + domain.FieldTitle, Value: t.Title},
		{Op: "add", Path: "/fields/" + domain.FieldDescription, Value: description},
	}
	if len(t.Tags) > 0 {
		ops = append(ops, patchOp{
			Op:    "add",
			Path:  "/fields/" + domain.FieldTags,
			Value: strings.Join(t.Tags, "; "),
		})
	}

	var resp struct {
		ID int `json:"id"`
	}
	// The "$" prefix on the type segment is how the create endpoint is addressed.
	path := fmt.Sprintf("/%s/_apis/wit/workitems/$%s?api-version=%s",
		url.PathEscape(project), url.PathEscape(t.Type), apiVersion)
	if err := c.doJSON(ctx, "POST", path, jsonPatchType, ops, &resp); err != nil {
		return 0, fmt.Errorf("failed to create work item: %w", err)
	}
	return resp.ID, nil
}
