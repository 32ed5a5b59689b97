package azdo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/zapdesk/zapdesk/internal/domain"
)

// ticketFields are the work item fields fetched for normalization.
var ticketFields = []string{
	domain.FieldTitle,
	domain.FieldState,
	domain.FieldType,
	domain.FieldAssignedTo,
	domain.FieldCreatedBy,
	domain.FieldTags,
	domain.FieldDescription,
	domain.FieldCreatedDate,
	domain.FieldChangedDate,
	domain.FieldClosedDate,
	domain.FieldPriority,
}

// wiqlBatchSize is the maximum number of IDs the work item batch endpoint
// accepts per request.
const wiqlBatchSize = 200

// ListProjects lists the projects of the organization.
func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var resp struct {
		Value []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"value"`
	}

	path := "/_apis/projects?api-version=" + apiVersion
	if err := c.doJSON(ctx, "GET", path, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := make([]domain.Project, 0, len(resp.Value))
	for _, p := range resp.Value {
		projects = append(projects, domain.Project{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
		})
	}
	return projects, nil
}

// GetStates fetches the legal state values for a work item type, in the
// order configured in the project's process. These become the board columns.
func (c *Client) GetStates(ctx context.Context, project, workItemType string) ([]domain.StateDef, error) {
	var resp struct {
		Value []struct {
			Name     string `json:"name"`
			Color    string `json:"color"`
			Category string `json:"stateCategory"`
			Order    int    `json:"order"`
		} `json:"value"`
	}

	path := fmt.Sprintf("/%s/_apis/wit/workitemtypes/%s/states?api-version=%s",
		url.PathEscape(project), url.PathEscape(workItemType), apiVersion)
	if err := c.doJSON(ctx, "GET", path, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get states for %s: %w", workItemType, err)
	}

	states := make([]domain.StateDef, 0, len(resp.Value))
	for _, s := range resp.Value {
		// Removed is a tombstone category, not a board column.
		if s.Category == domain.CategoryRemoved {
			continue
		}
		states = append(states, domain.StateDef{
			Name:     s.Name,
			Category: s.Category,
			Color:    s.Color,
			Order:    s.Order,
		})
	}
	return states, nil
}

// SupportQuery builds the WIQL query selecting support tickets: work items
// of the configured type carrying the support tag, most urgent first.
func SupportQuery(workItemType, supportTag string) string {
	return fmt.Sprintf(
		"SELECT [System.Id] FROM WorkItems "+
			"WHERE [System.TeamProject] = @project "+
			"AND [System.WorkItemType] = '%s' "+
			"AND [System.Tags] CONTAINS '%s' "+
			"ORDER BY [Microsoft.VSTS.Common.Priority] ASC, [System.ChangedDate] DESC",
		strings.ReplaceAll(workItemType, "'", "''"),
		strings.ReplaceAll(supportTag, "'", "''"))
}

// QueryTickets runs a WIQL query in the project, expands the resulting
// work items in batches, and returns them normalized into tickets in the
// query's order.
func (c *Client) QueryTickets(ctx context.Context, project, wiql string) ([]domain.Ticket, error) {
	var queryResp struct {
		WorkItems []struct {
			ID int `json:"id"`
		} `json:"workItems"`
	}

	path := fmt.Sprintf("/%s/_apis/wit/wiql?api-version=%s", url.PathEscape(project), apiVersion)
	body := map[string]string{"query": wiql}
	if err := c.doJSON(ctx, "POST", path, "application/json", body, &queryResp); err != nil {
		return nil, fmt.Errorf("failed to run work item query: %w", err)
	}

	ids := make([]int, len(queryResp.WorkItems))
	for i, wi := range queryResp.WorkItems {
		ids[i] = wi.ID
	}
	if len(ids) == 0 {
		return nil, nil
	}

	byID := make(map[int]domain.Ticket, len(ids))
	for start := 0; start < len(ids); start += wiqlBatchSize {
		end := start + wiqlBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch, err := c.getWorkItems(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		for _, t := range batch {
			byID[t.ID] = t
		}
	}

	// Preserve the WIQL ORDER BY as the display order.
	tickets := make([]domain.Ticket, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			tickets = append(tickets, t)
		}
	}
	return tickets, nil
}

// getWorkItems expands a batch of work item IDs into normalized tickets.
func (c *Client) getWorkItems(ctx context.Context, ids []int) ([]domain.Ticket, error) {
	var resp struct {
		Value []struct {
			ID     int            `json:"id"`
			Fields map[string]any `json:"fields"`
			Links  struct {
				HTML struct {
					Href string `json:"href"`
				} `json:"html"`
			} `json:"_links"`
		} `json:"value"`
	}

	body := map[string]any{
		"ids":     ids,
		"fields":  ticketFields,
		"$expand": "links",
	}
	path := "/_apis/wit/workitemsbatch?api-version=" + apiVersion
	if err := c.doJSON(ctx, "POST", path, "application/json", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to get work items: %w", err)
	}

	tickets := make([]domain.Ticket, 0, len(resp.Value))
	for _, wi := range resp.Value {
		tickets = append(tickets, domain.NormalizeWorkItem(wi.ID, wi.Links.HTML.Href, wi.Fields))
	}
	return tickets, nil
}

// GetComments fetches the discussion for a work item, oldest first.
func (c *Client) GetComments(ctx context.Context, project string, id int) ([]domain.Comment, error) {
	var resp struct {
		Comments []struct {
			ID        int    `json:"id"`
			Text      string `json:"text"`
			CreatedBy *struct {
				DisplayName string `json:"displayName"`
			} `json:"createdBy"`
			CreatedDate  string `json:"createdDate"`
			ModifiedDate string `json:"modifiedDate"`
		} `json:"comments"`
	}

	path := fmt.Sprintf("/%s/_apis/wit/workItems/%s/comments?order=asc&api-version=%s",
		url.PathEscape(project), strconv.Itoa(id), commentsAPIVersion)
	if err := c.doJSON(ctx, "GET", path, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}

	comments := make([]domain.Comment, 0, len(resp.Comments))
	for _, raw := range resp.Comments {
		comment := domain.Comment{
			ID:        raw.ID,
			Body:      raw.Text,
			CreatedAt: raw.CreatedDate,
			UpdatedAt: raw.ModifiedDate,
		}
		// Handle removed users (createdBy is null).
		if raw.CreatedBy != nil {
			comment.Author = raw.CreatedBy.DisplayName
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

// Viewer returns the authenticated user's display name and account, used
// for the assigned-to-me board filter.
func (c *Client) Viewer(ctx context.Context) (string, error) {
	var resp struct {
		AuthenticatedUser struct {
			ProviderDisplayName string `json:"providerDisplayName"`
			Properties          struct {
				Account struct {
					Value string `json:"$value"`
				} `json:"Account"`
			} `json:"properties"`
		} `json:"authenticatedUser"`
	}

	path := "/_apis/connectionData?api-version=" + apiVersion + "-preview"
	if err := c.doJSON(ctx, "GET", path, "", nil, &resp); err != nil {
		return "", fmt.Errorf("failed to get connection data: %w", err)
	}

	if account := resp.AuthenticatedUser.Properties.Account.Value; account != "" {
		return account, nil
	}
	return resp.AuthenticatedUser.ProviderDisplayName, nil
}
