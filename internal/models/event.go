package models

// EventType names a workspace change.
type EventType string

const (
	EventConversationCreated EventType = "conversation.created"
	EventConversationUpdated EventType = "conversation.updated"
	EventConversationDeleted EventType = "conversation.deleted"
	EventMessageAppended     EventType = "message.appended"
	EventProjectCreated      EventType = "project.created"
	EventProjectUpdated      EventType = "project.updated"
	EventProjectDeleted      EventType = "project.deleted"
	EventReplyPending        EventType = "reply.pending"
	EventReplyCancelled      EventType = "reply.cancelled"
	EventReplyFailed         EventType = "reply.failed"
)

// Event describes one change to the workspace.
type Event struct {
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversationId,omitempty"`
	ProjectID      string    `json:"projectId,omitempty"`
	Message        *Message  `json:"message,omitempty"`
}
