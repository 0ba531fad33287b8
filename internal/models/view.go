package models

// Selection is the conversation and project currently open.
type Selection struct {
	ConversationID string `json:"conversationId,omitempty"`
	ProjectID      string `json:"projectId,omitempty"`
}

// RecencyCategory is a sidebar bucket based on time since lastUpdated.
type RecencyCategory string

const (
	RecencyToday     RecencyCategory = "TODAY"
	RecencyYesterday RecencyCategory = "YESTERDAY"
	RecencyLastWeek  RecencyCategory = "PREVIOUS 7 DAYS"
	RecencyOlder     RecencyCategory = "OLDER"
)

// RecencyGroup is one non-empty recency bucket.
type RecencyGroup struct {
	Category      RecencyCategory `json:"category"`
	Conversations []Conversation  `json:"conversations"`
}

// ProjectView is a project with its resolved, visible conversations.
type ProjectView struct {
	Project
	Conversations []Conversation `json:"conversations"`
}

// Sidebar is the navigation model of the chat view.
type Sidebar struct {
	Projects []ProjectView  `json:"projects"`
	Groups   []RecencyGroup `json:"groups"`
	Archived []Conversation `json:"archived"`
}

// Session is the current login state.
type Session struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
}
