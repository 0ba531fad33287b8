// Package api holds the request and response bodies of the knowbot JSON API.
// It is shared by the server and its clients and imports only data packages.
package api

import (
	"github.com/raphaelgruber/knowbot/internal/analytics"
	"github.com/raphaelgruber/knowbot/internal/metrics"
	"github.com/raphaelgruber/knowbot/internal/models"
)

// EventReady is sent once an event subscription is live. Events that happen
// after it are delivered to the client.
const EventReady models.EventType = "ready"

type LoginRequest struct {
	Email string `json:"email"`
}

type CreateConversationRequest struct {
	Title     string `json:"title"`
	ProjectID string `json:"projectId,omitempty"`
}

// UpdateConversationRequest renames and/or (un)archives a conversation.
// Absent fields are left unchanged.
type UpdateConversationRequest struct {
	Title    *string `json:"title,omitempty"`
	Archived *bool   `json:"archived,omitempty"`
}

type ConversationDetail struct {
	Conversation models.Conversation `json:"conversation"`
	Messages     []models.Message    `json:"messages"`
	ProjectID    string              `json:"projectId,omitempty"`
	Typing       bool                `json:"typing"`
	Suggestions  []string            `json:"suggestions"`
}

type SendMessageRequest struct {
	ConversationID string `json:"conversationId,omitempty"`
	ProjectID      string `json:"projectId,omitempty"`
	Text           string `json:"text"`
}

// SendMessageResponse is the accepted message. Warning is set when the
// message was accepted but could not be saved.
type SendMessageResponse struct {
	Conversation models.Conversation `json:"conversation"`
	Message      models.Message      `json:"message"`
	Created      bool                `json:"created"`
	Warning      string              `json:"warning,omitempty"`
}

type ProjectRequest struct {
	Name string `json:"name"`
}

type ProjectDetail struct {
	Project       models.Project        `json:"project"`
	Conversations []models.Conversation `json:"conversations"`
	Suggestions   []string              `json:"suggestions"`
}

// ReportIssueRequest is an issue submitted from the chat view.
type ReportIssueRequest struct {
	IssueType         string `json:"issueType"`
	Description       string `json:"description"`
	ConversationID    string `json:"conversationId,omitempty"`
	ConversationTitle string `json:"conversationTitle,omitempty"`
	Timestamp         string `json:"timestamp"`
}

type ReportIssueResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

type Stats struct {
	Conversations int              `json:"conversations"`
	Archived      int              `json:"archived"`
	Projects      int              `json:"projects"`
	Metrics       metrics.Snapshot `json:"metrics"`
}

// Page view models.

type ChatPage struct {
	Session      models.Session      `json:"session"`
	Active       models.Selection    `json:"active"`
	Sidebar      models.Sidebar      `json:"sidebar"`
	Conversation *ConversationDetail `json:"conversation,omitempty"`
	Project      *models.Project     `json:"project,omitempty"`
}

type ProjectPage struct {
	Session models.Session `json:"session"`
	Sidebar models.Sidebar `json:"sidebar"`
	Project ProjectDetail  `json:"project"`
}

type AnalyticsPage struct {
	Session   models.Session                  `json:"session"`
	Summary   analytics.Summary               `json:"summary"`
	Topics    analytics.Page[analytics.Topic] `json:"topics"`
	Questions []analytics.Question            `json:"questions"`
}
