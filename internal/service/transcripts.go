package service

import (
	"fmt"
	"slices"

	"github.com/raphaelgruber/knowbot/internal/models"
)

// TranscriptStore maps conversation IDs to their messages in insertion order.
// It is not safe for concurrent use; Workspace serializes access.
type TranscriptStore struct {
	byConversation map[string][]models.Message
}

// NewTranscriptStore creates a store holding a copy of transcripts.
func NewTranscriptStore(transcripts map[string][]models.Message) *TranscriptStore {
	s := &TranscriptStore{byConversation: make(map[string][]models.Message, len(transcripts))}
	for id, msgs := range transcripts {
		s.byConversation[id] = slices.Clone(msgs)
	}
	return s
}

// Append adds a message to the end of the conversation's transcript.
func (s *TranscriptStore) Append(conversationID string, sender models.Sender, text string, now int64) models.Message {
	msgs := s.byConversation[conversationID]

	base := fmt.Sprintf("%s-%d-%s", conversationID, now, sender)
	id := base
	for n := 2; slices.ContainsFunc(msgs, func(m models.Message) bool { return m.ID == id }); n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}

	msg := models.Message{ID: id, Sender: sender, Text: text, CreatedAt: now}
	s.byConversation[conversationID] = append(msgs, msg)
	return msg
}

// Messages returns a copy of the conversation's transcript.
func (s *TranscriptStore) Messages(conversationID string) []models.Message {
	return slices.Clone(s.byConversation[conversationID])
}

// Delete drops the conversation's transcript.
func (s *TranscriptStore) Delete(conversationID string) {
	delete(s.byConversation, conversationID)
}

// Snapshot returns a copy of every transcript, keyed by conversation ID.
func (s *TranscriptStore) Snapshot() map[string][]models.Message {
	out := make(map[string][]models.Message, len(s.byConversation))
	for id, msgs := range s.byConversation {
		out[id] = slices.Clone(msgs)
	}
	return out
}
