// Package analytics serves the dashboard's usage statistics. The figures are
// static sample data anchored at construction time.
package analytics

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/raphaelgruber/knowbot/internal/models"
)

// PageStep is how many topics or threads are revealed at a time.
const PageStep = 5

var (
	ErrTopicNotFound    = errors.New("topic not found")
	ErrInvalidTimeRange = errors.New("invalid time range")
)

// Trend is the direction a topic's volume moved.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Topic aggregates questions about one subject.
type Topic struct {
	ID     string `json:"id"`
	Topic  string `json:"topic"`
	Count  int    `json:"count"`
	Trend  Trend  `json:"trend"`
	Change int    `json:"change"`
}

// Question is a frequently asked question.
type Question struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	Count     int    `json:"count"`
	Category  string `json:"category"`
	LastAsked int64  `json:"lastAsked"`
}

// Thread is an anonymized conversation filed under a topic.
type Thread struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	FirstMessage string `json:"firstMessage"`
	Date         int64  `json:"date"`
}

// TimeRange limits statistics to a recent window.
type TimeRange string

const (
	Range7Days  TimeRange = "7d"
	Range30Days TimeRange = "30d"
	Range90Days TimeRange = "90d"
	RangeAll    TimeRange = "all"
)

// DefaultTimeRange is used when none is given.
const DefaultTimeRange = Range30Days

// ParseTimeRange validates s. An empty string yields DefaultTimeRange.
func ParseTimeRange(s string) (TimeRange, error) {
	switch r := TimeRange(s); r {
	case "":
		return DefaultTimeRange, nil
	case Range7Days, Range30Days, Range90Days, RangeAll:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeRange, s)
	}
}

// Window returns the length of the range, or 0 for RangeAll.
func (r TimeRange) Window() time.Duration {
	switch r {
	case Range7Days:
		return 7 * 24 * time.Hour
	case Range30Days:
		return 30 * 24 * time.Hour
	case Range90Days:
		return 90 * 24 * time.Hour
	default:
		return 0
	}
}

// Page is a prefix of a list revealed PageStep items at a time.
type Page[T any] struct {
	Items     []T  `json:"items"`
	Total     int  `json:"total"`
	HasMore   bool `json:"hasMore"`
	NextLimit int  `json:"nextLimit,omitempty"`
}

// Paginate returns the first limit items. A non-positive limit means
// PageStep.
func Paginate[T any](items []T, limit int) Page[T] {
	if limit <= 0 {
		limit = PageStep
	}
	n := min(limit, len(items))

	p := Page[T]{
		Items:   slices.Clone(items[:n]),
		Total:   len(items),
		HasMore: n < len(items),
	}
	if p.HasMore {
		p.NextLimit = limit + PageStep
	}
	if p.Items == nil {
		p.Items = []T{}
	}
	return p
}

// Summary holds headline numbers for a time range.
type Summary struct {
	Range          TimeRange `json:"range"`
	TotalQuestions int       `json:"totalQuestions"`
	UniqueTopics   int       `json:"uniqueTopics"`
	TopCategory    string    `json:"topCategory,omitempty"`
}

// Catalog holds the sample statistics.
type Catalog struct {
	now       int64
	topics    []Topic
	questions []Question
	threads   map[string][]Thread
}

// NewCatalog builds the sample statistics relative to now.
func NewCatalog(now time.Time) *Catalog {
	c := &Catalog{
		now:     models.Millis(now),
		topics:  slices.Clone(sampleTopics),
		threads: make(map[string][]Thread, len(sampleThreads)),
	}
	for _, q := range sampleQuestions {
		c.questions = append(c.questions, Question{
			ID:        q.id,
			Question:  q.text,
			Count:     q.count,
			Category:  q.category,
			LastAsked: models.Millis(now.Add(-q.age)),
		})
	}
	for topicID, threads := range sampleThreads {
		for _, t := range threads {
			c.threads[topicID] = append(c.threads[topicID], Thread{
				ID:           t.id,
				Title:        t.title,
				FirstMessage: t.first,
				Date:         models.Millis(now.Add(-t.age)),
			})
		}
	}
	return c
}

func (c *Catalog) within(r TimeRange, at int64) bool {
	w := r.Window()
	return w == 0 || c.now-at <= w.Milliseconds()
}

// Questions returns the questions asked within r, most frequent first.
func (c *Catalog) Questions(r TimeRange) []Question {
	out := make([]Question, 0, len(c.questions))
	for _, q := range c.questions {
		if c.within(r, q.LastAsked) {
			out = append(out, q)
		}
	}
	slices.SortStableFunc(out, func(a, b Question) int { return cmp.Compare(b.Count, a.Count) })
	return out
}

// Topics returns the first limit topics by volume.
func (c *Catalog) Topics(limit int) Page[Topic] {
	return Paginate(c.topics, limit)
}

// Threads returns the first limit threads of a topic within r.
func (c *Catalog) Threads(topicID string, r TimeRange, limit int) (Page[Thread], error) {
	if !slices.ContainsFunc(c.topics, func(t Topic) bool { return t.ID == topicID }) {
		return Page[Thread]{}, fmt.Errorf("%w: %s", ErrTopicNotFound, topicID)
	}

	var threads []Thread
	for _, t := range c.threads[topicID] {
		if c.within(r, t.Date) {
			threads = append(threads, t)
		}
	}
	return Paginate(threads, limit), nil
}

// Summary returns headline numbers for r.
func (c *Catalog) Summary(r TimeRange) Summary {
	s := Summary{Range: r, UniqueTopics: len(c.topics)}

	perCategory := make(map[string]int)
	for _, q := range c.Questions(r) {
		s.TotalQuestions += q.Count
		perCategory[q.Category] += q.Count
	}
	best := 0
	for cat, n := range perCategory {
		if n > best || (n == best && cat < s.TopCategory) {
			best, s.TopCategory = n, cat
		}
	}
	return s
}
