// Package service implements the knowbot workspace: conversations, projects,
// transcripts and the asynchronous bot reply.
package service

import (
	"fmt"
	"slices"
	"strings"

	"github.com/raphaelgruber/knowbot/internal/models"
)

// DefaultConversationTitle is used when a conversation is created without one.
const DefaultConversationTitle = "New conversation"

// ConversationStore holds conversations, newest first.
// It is not safe for concurrent use; Workspace serializes access.
type ConversationStore struct {
	items []models.Conversation
}

// NewConversationStore creates a store holding a copy of items.
func NewConversationStore(items []models.Conversation) *ConversationStore {
	return &ConversationStore{items: slices.Clone(items)}
}

// clampTimestamps raises lastUpdated to createdAt where it is earlier and
// returns the IDs it changed.
func clampTimestamps(items []models.Conversation) []string {
	var ids []string
	for i := range items {
		if fixed := bumped(items[i].CreatedAt, items[i].LastUpdated); fixed != items[i].LastUpdated {
			items[i].LastUpdated = fixed
			ids = append(ids, items[i].ID)
		}
	}
	return ids
}

// List returns a copy of all conversations in store order.
func (s *ConversationStore) List() []models.Conversation {
	return slices.Clone(s.items)
}

// Get returns the conversation with id.
func (s *ConversationStore) Get(id string) (models.Conversation, error) {
	i := s.index(id)
	if i < 0 {
		return models.Conversation{}, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	return s.items[i], nil
}

// Create inserts a new conversation at the head of the list.
func (s *ConversationStore) Create(title string, now int64) models.Conversation {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultConversationTitle
	}

	conv := models.Conversation{
		ID:          nextID("", now, s.has),
		Title:       title,
		CreatedAt:   now,
		LastUpdated: now,
	}
	s.items = slices.Insert(s.items, 0, conv)
	return conv
}

// Rename sets a new title. Blank or unchanged titles are a no-op and report
// changed=false.
func (s *ConversationStore) Rename(id, title string, now int64) (bool, error) {
	i := s.index(id)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}

	title = strings.TrimSpace(title)
	if title == "" || title == strings.TrimSpace(s.items[i].Title) {
		return false, nil
	}

	s.items[i].Title = title
	s.items[i].LastUpdated = bumped(s.items[i].CreatedAt, now)
	return true, nil
}

// SetArchived archives or unarchives a conversation. Setting the current
// state again is a no-op.
func (s *ConversationStore) SetArchived(id string, archived bool, now int64) (bool, error) {
	i := s.index(id)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	if s.items[i].Archived == archived {
		return false, nil
	}

	s.items[i].Archived = archived
	s.items[i].LastUpdated = bumped(s.items[i].CreatedAt, now)
	return true, nil
}

// Touch bumps lastUpdated, e.g. after a message was appended.
func (s *ConversationStore) Touch(id string, now int64) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	s.items[i].LastUpdated = bumped(s.items[i].CreatedAt, now)
	return nil
}

// Delete removes the conversation record.
func (s *ConversationStore) Delete(id string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

func (s *ConversationStore) has(id string) bool {
	return s.index(id) >= 0
}

func (s *ConversationStore) index(id string) int {
	return slices.IndexFunc(s.items, func(c models.Conversation) bool { return c.ID == id })
}
