package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/knowbot/internal/models"
)

func TestCategoryFor(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) int64 { return models.Millis(now.Add(-d)) }

	tests := []struct {
		name string
		age  time.Duration
		want models.RecencyCategory
	}{
		{"2 hours", 2 * time.Hour, models.RecencyToday},
		{"just under a day", 24*time.Hour - time.Millisecond, models.RecencyToday},
		{"exactly a day", 24 * time.Hour, models.RecencyYesterday},
		{"30 hours", 30 * time.Hour, models.RecencyYesterday},
		{"5 days", 5 * 24 * time.Hour, models.RecencyLastWeek},
		{"exactly 7 days", 7 * 24 * time.Hour, models.RecencyOlder},
		{"10 days", 10 * 24 * time.Hour, models.RecencyOlder},
		{"future", -time.Hour, models.RecencyToday},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryFor(at(tt.age), models.Millis(now)))
		})
	}
}

func TestGroupByRecency(t *testing.T) {
	now := int64(100 * day)
	convs := []models.Conversation{
		{ID: "a", LastUpdated: now - 10*day},
		{ID: "b", LastUpdated: now - 1},
		{ID: "c", LastUpdated: now - 5*day},
		{ID: "d", LastUpdated: now - 2},
	}

	groups := GroupByRecency(convs, now)

	require.Len(t, groups, 3, "empty YESTERDAY group is omitted")
	assert.Equal(t, models.RecencyToday, groups[0].Category)
	assert.Equal(t, models.RecencyLastWeek, groups[1].Category)
	assert.Equal(t, models.RecencyOlder, groups[2].Category)

	require.Len(t, groups[0].Conversations, 2)
	assert.Equal(t, "b", groups[0].Conversations[0].ID, "input order is kept")
	assert.Equal(t, "d", groups[0].Conversations[1].ID)
}

func TestSearch(t *testing.T) {
	convs := []models.Conversation{
		{ID: "1", Title: "PTO Policy Inquiry"},
		{ID: "2", Title: "Expense Reporting"},
	}

	assert.Len(t, Search(convs, ""), 2)
	got := Search(convs, "  pto ")
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
	assert.Empty(t, Search(convs, "laptop"))
}

func TestFilterArchived(t *testing.T) {
	convs := []models.Conversation{{ID: "1"}, {ID: "2", Archived: true}}

	assert.Equal(t, "1", FilterArchived(convs, ActiveOnly)[0].ID)
	assert.Equal(t, "2", FilterArchived(convs, ArchivedOnly)[0].ID)
	assert.Len(t, FilterArchived(convs, AllConversations), 2)
}

func TestSuggestionsFor(t *testing.T) {
	assert.Contains(t, SuggestionsFor(""), "How do I submit an expense report?")

	got := SuggestionsFor("Benefits")
	require.Len(t, got, 4)
	assert.Equal(t, "What files are in the Benefits project?", got[0])
}

func TestDefaultSeed(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	seed := DefaultSeed(now)

	require.Len(t, seed.Conversations, 12)
	assert.Equal(t, "PTO Policy Inquiry", seed.Conversations[0].Title)
	assert.Equal(t, models.Millis(now.Add(-time.Hour)), seed.Conversations[0].CreatedAt)
	assert.Equal(t, models.Millis(now.Add(-30*time.Minute)), seed.Conversations[0].LastUpdated)
	for _, c := range seed.Conversations {
		assert.LessOrEqual(t, c.CreatedAt, c.LastUpdated, c.ID)
	}

	require.Len(t, seed.Messages["1"], 4)
	assert.Equal(t, "1-1-user", seed.Messages["1"][0].ID)
	assert.Equal(t, models.SenderBot, seed.Messages["1"][1].Sender)
	assert.Empty(t, seed.Projects)

	groups := GroupByRecency(seed.Conversations, models.Millis(now))
	require.Len(t, groups, 4)
	assert.Len(t, groups[0].Conversations, 2)
}

func TestParseSeedRejectsBadInput(t *testing.T) {
	now := time.Now()

	_, err := ParseSeed([]byte(`conversations: [{id: "1", created_ago: "yesterday"}]`), now)
	assert.Error(t, err)

	_, err = ParseSeed([]byte(`messages: {"1": [{id: "x", sender: "assistant", text: "hi"}]}`), now)
	assert.Error(t, err)
}
