// Package issue relays user issue reports to the support mailbox.
package issue

import (
	"errors"
	"strings"
	"time"
)

// ErrMissingFields is returned when the issue type or description is blank.
var ErrMissingFields = errors.New("issue type and description are required")

// Report is an issue submitted from the chat view.
type Report struct {
	IssueType         string `json:"issueType"`
	Description       string `json:"description"`
	ConversationID    string `json:"conversationId,omitempty"`
	ConversationTitle string `json:"conversationTitle,omitempty"`
	Timestamp         string `json:"timestamp"`
}

// Validate trims the report and checks the required fields.
func (r *Report) Validate() error {
	r.IssueType = strings.TrimSpace(r.IssueType)
	r.Description = strings.TrimSpace(r.Description)
	r.ConversationID = strings.TrimSpace(r.ConversationID)
	r.ConversationTitle = strings.TrimSpace(r.ConversationTitle)

	if r.IssueType == "" || r.Description == "" {
		return ErrMissingFields
	}
	return nil
}

// ReportedAt parses Timestamp as RFC 3339. ok is false when it is missing or
// malformed.
func (r Report) ReportedAt() (t time.Time, ok bool) {
	t, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	return t, err == nil
}

// Type describes a known issue category.
type Type struct {
	Display string
	Color   string
}

// DefaultColor is used for unknown issue types.
const DefaultColor = "#6B7280"

var types = map[string]Type{
	"outdated":   {Display: "Outdated Information", Color: "#F59E0B"},
	"incorrect":  {Display: "Incorrect Response", Color: "#EF4444"},
	"incomplete": {Display: "Incomplete Answer", Color: "#3B82F6"},
	"unclear":    {Display: "Unclear or Confusing", Color: "#8B5CF6"},
	"other":      {Display: "Other", Color: DefaultColor},
}

// TypeOf returns the display name and badge colour of issueType. Unknown
// types are shown as-is.
func TypeOf(issueType string) Type {
	if t, ok := types[issueType]; ok {
		return t
	}
	return Type{Display: issueType, Color: DefaultColor}
}
