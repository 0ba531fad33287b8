package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeRange
		wantErr bool
	}{
		{"", Range30Days, false},
		{"7d", Range7Days, false},
		{"90d", Range90Days, false},
		{"all", RangeAll, false},
		{"1y", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeRange(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}

	p := Paginate(items, 0)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, p.Items)
	assert.Equal(t, 8, p.Total)
	assert.True(t, p.HasMore)
	assert.Equal(t, 10, p.NextLimit)

	p = Paginate(items, p.NextLimit)
	assert.Len(t, p.Items, 8)
	assert.False(t, p.HasMore)
	assert.Zero(t, p.NextLimit)

	empty := Paginate([]int(nil), 5)
	assert.NotNil(t, empty.Items)
	assert.Zero(t, empty.Total)
}

func TestCatalogTopicsAndThreads(t *testing.T) {
	c := NewCatalog(time.Now())

	topics := c.Topics(0)
	require.Len(t, topics.Items, 5)
	assert.Equal(t, "Expense Reporting", topics.Items[0].Topic)
	assert.True(t, topics.HasMore)

	threads, err := c.Threads("1", DefaultTimeRange, 0)
	require.NoError(t, err)
	assert.Len(t, threads.Items, 5)
	assert.Equal(t, 10, threads.Total)

	threads, err = c.Threads("1", DefaultTimeRange, threads.NextLimit)
	require.NoError(t, err)
	assert.Len(t, threads.Items, 10)
	assert.False(t, threads.HasMore)

	threads, err = c.Threads("8", RangeAll, 0)
	require.NoError(t, err)
	assert.Empty(t, threads.Items, "topics without threads return an empty page")

	_, err = c.Threads("99", RangeAll, 0)
	assert.ErrorIs(t, err, ErrTopicNotFound)
}

func TestCatalogQuestionsFilteredByRange(t *testing.T) {
	now := time.Now()
	c := NewCatalog(now)
	// age the catalog by ten days
	c.now += (10 * 24 * time.Hour).Milliseconds()

	assert.Empty(t, c.Questions(Range7Days))
	qs := c.Questions(Range30Days)
	require.Len(t, qs, 8)
	assert.Equal(t, 45, qs[0].Count, "most frequent first")

	s := c.Summary(RangeAll)
	assert.Equal(t, 224, s.TotalQuestions)
	assert.Equal(t, "HR", s.TopCategory)
	assert.Equal(t, 8, s.UniqueTopics)
}
