package models

import "slices"

// Project is a user-defined folder of conversations and uploaded file metadata.
// It references conversations by ID and does not own them.
type Project struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	ConversationIDs []string      `json:"conversationIds"`
	Files           []ProjectFile `json:"files"`
	CreatedAt       int64         `json:"createdAt"`
	LastUpdated     int64         `json:"lastUpdated"`
}

// HasConversation reports whether the project contains conversationID.
func (p Project) HasConversation(conversationID string) bool {
	return slices.Contains(p.ConversationIDs, conversationID)
}

// ProjectFile describes an uploaded file. Content is never stored.
type ProjectFile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Size       int64  `json:"size,omitempty"`
	UploadedAt int64  `json:"uploadedAt"`
}

// FileMeta is the caller-supplied part of a ProjectFile.
type FileMeta struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size,omitempty"`
}
