package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/knowbot/internal/models"
)

func TestConversationStoreCreate(t *testing.T) {
	s := NewConversationStore(nil)

	first := s.Create("  first  ", 1000)
	second := s.Create("", 1000)

	assert.Equal(t, "1000", first.ID)
	assert.Equal(t, "1001", second.ID, "taken millisecond moves to the next free one")
	assert.Equal(t, "first", first.Title)
	assert.Equal(t, DefaultConversationTitle, second.Title)
	assert.Equal(t, first.CreatedAt, first.LastUpdated)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "new conversations are prepended")
}

func TestConversationStoreRename(t *testing.T) {
	s := NewConversationStore([]models.Conversation{{ID: "1", Title: "PTO", CreatedAt: 10, LastUpdated: 20}})

	tests := []struct {
		name        string
		title       string
		wantChanged bool
		wantTitle   string
		wantUpdated int64
	}{
		{"same title after trim", "  PTO ", false, "PTO", 20},
		{"blank", "   ", false, "PTO", 20},
		{"new title", "PTO policy", true, "PTO policy", 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed, err := s.Rename("1", tt.title, 50)
			require.NoError(t, err)
			assert.Equal(t, tt.wantChanged, changed)

			c, err := s.Get("1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, c.Title)
			assert.Equal(t, tt.wantUpdated, c.LastUpdated)
		})
	}

	_, err := s.Rename("missing", "x", 60)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestConversationStoreLastUpdatedNeverBeforeCreated(t *testing.T) {
	s := NewConversationStore(nil)
	c := s.Create("clock skew", 5000)

	_, err := s.Rename(c.ID, "renamed", 1000)
	require.NoError(t, err)
	_, err = s.SetArchived(c.ID, true, 10)
	require.NoError(t, err)
	require.NoError(t, s.Touch(c.ID, 0))

	got, err := s.Get(c.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, got.CreatedAt, got.LastUpdated)
}

func TestConversationStoreArchive(t *testing.T) {
	s := NewConversationStore([]models.Conversation{{ID: "1", Title: "a", CreatedAt: 1, LastUpdated: 1}})

	changed, err := s.SetArchived("1", false, 9)
	require.NoError(t, err)
	assert.False(t, changed, "unarchiving an active conversation is a no-op")

	changed, err = s.SetArchived("1", true, 9)
	require.NoError(t, err)
	assert.True(t, changed)

	c, _ := s.Get("1")
	assert.True(t, c.Archived)
	assert.Equal(t, int64(9), c.LastUpdated)
}

func TestConversationStoreDelete(t *testing.T) {
	s := NewConversationStore([]models.Conversation{{ID: "1"}, {ID: "2"}})

	require.NoError(t, s.Delete("1"))
	assert.ErrorIs(t, s.Delete("1"), ErrConversationNotFound)
	assert.Len(t, s.List(), 1)
}

func TestProjectStoreCreate(t *testing.T) {
	s := NewProjectStore(nil)

	_, err := s.Create("   ", 1)
	assert.ErrorIs(t, err, ErrEmptyName)

	a, err := s.Create(" Benefits ", 100)
	require.NoError(t, err)
	b, err := s.Create("Finance", 100)
	require.NoError(t, err)

	assert.Equal(t, "project-100", a.ID)
	assert.Equal(t, "project-101", b.ID)
	assert.Equal(t, "Benefits", a.Name)
	assert.Empty(t, a.ConversationIDs)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID, "projects are appended")
}

func TestProjectStoreMembership(t *testing.T) {
	s := NewProjectStore(nil)
	a, _ := s.Create("A", 10)
	b, _ := s.Create("B", 10)

	changed, err := s.AddConversation(a.ID, "c1", 20)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.AddConversation(a.ID, "c1", 30)
	require.NoError(t, err)
	assert.False(t, changed, "adding twice is idempotent")

	got, _ := s.Get(a.ID)
	assert.Equal(t, []string{"c1"}, got.ConversationIDs)
	assert.Equal(t, int64(20), got.LastUpdated, "no-op does not bump")

	// moving to B removes it from A
	_, err = s.AddConversation(b.ID, "c1", 40)
	require.NoError(t, err)
	gotA, _ := s.Get(a.ID)
	gotB, _ := s.Get(b.ID)
	assert.Empty(t, gotA.ConversationIDs)
	assert.Equal(t, []string{"c1"}, gotB.ConversationIDs)
	assert.Equal(t, int64(40), gotA.LastUpdated)

	owner, ok := s.ProjectOf("c1")
	require.True(t, ok)
	assert.Equal(t, b.ID, owner.ID)

	changed, err = s.RemoveConversation(a.ID, "c1", 50)
	require.NoError(t, err)
	assert.False(t, changed, "removing a non-member is a no-op")

	changed, err = s.RemoveConversation(b.ID, "c1", 50)
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = s.AddConversation("project-missing", "c1", 60)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectStoreFiles(t *testing.T) {
	s := NewProjectStore(nil)
	p, _ := s.Create("Docs", 10)

	f, err := s.AddFile(p.ID, models.FileMeta{Name: "handbook.pdf", Type: "application/pdf", Size: 2048}, 20)
	require.NoError(t, err)
	assert.Equal(t, "file-20", f.ID)
	assert.Equal(t, int64(20), f.UploadedAt)

	_, err = s.AddFile(p.ID, models.FileMeta{Name: " "}, 20)
	assert.ErrorIs(t, err, ErrEmptyName)

	assert.ErrorIs(t, s.RemoveFile(p.ID, "file-missing", 30), ErrFileNotFound)
	require.NoError(t, s.RemoveFile(p.ID, f.ID, 30))

	got, _ := s.Get(p.ID)
	assert.Empty(t, got.Files)
	assert.Equal(t, int64(30), got.LastUpdated)
}

func TestProjectStoreRenameAndDelete(t *testing.T) {
	s := NewProjectStore(nil)
	p, _ := s.Create("Old", 10)

	changed, err := s.Rename(p.ID, "Old", 20)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = s.Rename(p.ID, "New", 20)
	require.NoError(t, err)
	assert.True(t, changed)

	require.NoError(t, s.Delete(p.ID))
	assert.ErrorIs(t, s.Delete(p.ID), ErrProjectNotFound)
}

func TestProjectStoreUnorganized(t *testing.T) {
	s := NewProjectStore([]models.Project{{ID: "p", ConversationIDs: []string{"2"}}})
	all := []models.Conversation{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	got := s.Unorganized(all)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

func TestProjectStoreListIsACopy(t *testing.T) {
	s := NewProjectStore([]models.Project{{ID: "p", ConversationIDs: []string{"1"}}})

	list := s.List()
	list[0].ConversationIDs[0] = "changed"

	got, _ := s.Get("p")
	assert.Equal(t, []string{"1"}, got.ConversationIDs)
}

func TestTranscriptStoreAppend(t *testing.T) {
	s := NewTranscriptStore(nil)

	a := s.Append("c", models.SenderUser, "hello", 100)
	b := s.Append("c", models.SenderUser, "again", 100)
	c := s.Append("c", models.SenderBot, "hi", 100)

	assert.Equal(t, "c-100-user", a.ID)
	assert.Equal(t, "c-100-user-2", b.ID, "collisions get a suffix")
	assert.Equal(t, "c-100-bot", c.ID)

	msgs := s.Messages("c")
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"hello", "again", "hi"}, []string{msgs[0].Text, msgs[1].Text, msgs[2].Text})

	s.Delete("c")
	assert.Empty(t, s.Messages("c"))
	assert.Empty(t, s.Snapshot())
}
