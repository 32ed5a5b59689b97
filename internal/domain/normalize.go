package domain

import (
	"strings"
	"time"
)

// Azure DevOps work item field reference names used during normalization.
const (
	FieldTitle       = "System.Title"
	FieldState       = "System.State"
	FieldType        = "System.WorkItemType"
	FieldAssignedTo  = "System.AssignedTo"
	FieldCreatedBy   = "System.CreatedBy"
	FieldTags        = "System.Tags"
	FieldDescription = "System.Description"
	FieldCreatedDate = "System.CreatedDate"
	FieldChangedDate = "System.ChangedDate"
	FieldClosedDate  = "Microsoft.VSTS.Common.ClosedDate"
	FieldPriority    = "Microsoft.VSTS.Common.Priority"
)

// NormalizeWorkItem maps a raw Azure DevOps work item field bag into a
// Ticket. This is the single place where the external duck-typed shape is
// probed; everything past this boundary works with the normalized record.
func NormalizeWorkItem(id int, url string, fields map[string]any) Ticket {
	t := Ticket{
		ID:          id,
		URL:         url,
		Title:       stringField(fields, FieldTitle),
		State:       stringField(fields, FieldState),
		Type:        stringField(fields, FieldType),
		Description: stringField(fields, FieldDescription),
		Assignee:    identityField(fields, FieldAssignedTo),
		Requester:   identityField(fields, FieldCreatedBy),
		Priority:    intField(fields, FieldPriority),
		Tags:        splitTags(stringField(fields, FieldTags)),
		CreatedAt:   timeField(fields, FieldCreatedDate),
		ChangedAt:   timeField(fields, FieldChangedDate),
		ClosedAt:    timeField(fields, FieldClosedDate),
	}
	return t
}

func stringField(fields map[string]any, name string) string {
	s, _ := fields[name].(string)
	return s
}

// intField accepts both float64 (JSON numbers) and int values.
func intField(fields map[string]any, name string) int {
	switch v := fields[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// identityField handles the two shapes Azure DevOps uses for identity
// values: a plain display string ("Jane Doe <jane@example.com>") or an
// expanded identity ref object with uniqueName/displayName.
func identityField(fields map[string]any, name string) string {
	switch v := fields[name].(type) {
	case string:
		return v
	case map[string]any:
		if unique, ok := v["uniqueName"].(string); ok && unique != "" {
			return unique
		}
		if display, ok := v["displayName"].(string); ok {
			return display
		}
	}
	return ""
}

func timeField(fields map[string]any, name string) time.Time {
	s, ok := fields[name].(string)
	if !ok || s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// splitTags splits the "; "-delimited System.Tags value.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
