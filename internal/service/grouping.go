package service

import (
	"strings"
	"time"

	"github.com/raphaelgruber/knowbot/internal/models"
)

// RecencyOrder lists the categories in display order.
var RecencyOrder = []models.RecencyCategory{models.RecencyToday, models.RecencyYesterday, models.RecencyLastWeek, models.RecencyOlder}

const (
	day  = int64(24 * time.Hour / time.Millisecond)
	week = 7 * day
)

// CategoryFor returns the bucket for a conversation last updated at
// lastUpdated, relative to now (both Unix milliseconds).
func CategoryFor(lastUpdated, now int64) models.RecencyCategory {
	elapsed := now - lastUpdated
	switch {
	case elapsed < day:
		return models.RecencyToday
	case elapsed < 2*day:
		return models.RecencyYesterday
	case elapsed < week:
		return models.RecencyLastWeek
	default:
		return models.RecencyOlder
	}
}

// GroupByRecency buckets convs by CategoryFor. Groups come in RecencyOrder,
// empty groups are omitted and each group keeps the input order.
func GroupByRecency(convs []models.Conversation, now int64) []models.RecencyGroup {
	buckets := make(map[models.RecencyCategory][]models.Conversation, len(RecencyOrder))
	for _, c := range convs {
		cat := CategoryFor(c.LastUpdated, now)
		buckets[cat] = append(buckets[cat], c)
	}

	groups := make([]models.RecencyGroup, 0, len(buckets))
	for _, cat := range RecencyOrder {
		if len(buckets[cat]) > 0 {
			groups = append(groups, models.RecencyGroup{Category: cat, Conversations: buckets[cat]})
		}
	}
	return groups
}

// Search returns the conversations whose title contains query, ignoring case.
// An empty query matches everything.
func Search(convs []models.Conversation, query string) []models.Conversation {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Conversation, 0, len(convs))
	for _, c := range convs {
		if query == "" || strings.Contains(strings.ToLower(c.Title), query) {
			out = append(out, c)
		}
	}
	return out
}

// ArchiveFilter selects conversations by archived state.
type ArchiveFilter int

const (
	ActiveOnly ArchiveFilter = iota
	ArchivedOnly
	AllConversations
)

// FilterArchived returns the conversations matching f.
func FilterArchived(convs []models.Conversation, f ArchiveFilter) []models.Conversation {
	if f == AllConversations {
		return convs
	}
	out := make([]models.Conversation, 0, len(convs))
	for _, c := range convs {
		if c.Archived == (f == ArchivedOnly) {
			out = append(out, c)
		}
	}
	return out
}
