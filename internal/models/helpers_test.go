package models

import (
	"strings"
	"testing"
)

func TestTitleFromMessage(t *testing.T) {
	long := strings.Repeat("a", 60)
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "PTO question", "PTO question"},
		{"trimmed", "   hello   ", "hello"},
		{"exactly fifty", strings.Repeat("b", 50), strings.Repeat("b", 50)},
		{"truncated", long, long[:50]},
		{"multibyte kept whole", strings.Repeat("é", 55), strings.Repeat("é", 50)},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TitleFromMessage(tt.in)
			if got != tt.want {
				t.Errorf("TitleFromMessage(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSenderValid(t *testing.T) {
	if !SenderUser.Valid() || !SenderBot.Valid() {
		t.Error("user and bot must be valid senders")
	}
	if Sender("assistant").Valid() {
		t.Error("assistant is not a sender")
	}
}

func TestProjectHasConversation(t *testing.T) {
	p := Project{ConversationIDs: []string{"1", "2"}}
	if !p.HasConversation("2") {
		t.Error("expected project to contain 2")
	}
	if p.HasConversation("3") {
		t.Error("did not expect project to contain 3")
	}
}
