package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/knowbot/internal/analytics"
	"github.com/raphaelgruber/knowbot/internal/api"
	"github.com/raphaelgruber/knowbot/internal/auth"
	"github.com/raphaelgruber/knowbot/internal/issue"
	"github.com/raphaelgruber/knowbot/internal/metrics"
	"github.com/raphaelgruber/knowbot/internal/models"
	"github.com/raphaelgruber/knowbot/internal/server"
	"github.com/raphaelgruber/knowbot/internal/service"
	"github.com/raphaelgruber/knowbot/internal/state"
)

type failingResponder struct{}

func (failingResponder) Respond(context.Context, service.ReplyRequest) (string, error) {
	return "", errors.New("model unavailable")
}

func newTestClient(t *testing.T, responder service.Responder) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := state.NewMemoryBackend()

	ws, err := service.Open(context.Background(), backend,
		service.WithLogger(logger),
		service.WithResponder(responder),
		service.WithSeed(func(time.Time) service.Seed {
			return service.Seed{
				Conversations: []models.Conversation{},
				Messages:      map[string][]models.Message{},
				Projects:      []models.Project{},
			}
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	srv := httptest.NewServer(server.New(server.Deps{
		Workspace: ws,
		Gate:      auth.NewGate(backend),
		Relay:     issue.NewRelay(issue.RelayConfig{Logger: logger}),
		Analytics: analytics.NewCatalog(time.Now()),
		Metrics:   metrics.NewCollector(),
		Logger:    logger,
	}).Handler())
	t.Cleanup(srv.Close)

	return New(srv.URL + "/")
}

func TestNewDefaults(t *testing.T) {
	t.Setenv("KNOWBOT_SERVER_URL", "")
	t.Setenv("KNOWBOT_CLIENT_TIMEOUT", "")

	c := New("")
	assert.Equal(t, DefaultEndpoint, c.Endpoint())
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)

	t.Setenv("KNOWBOT_SERVER_URL", "http://bot.internal:9000/")
	t.Setenv("KNOWBOT_CLIENT_TIMEOUT", "2s")
	c = New("")
	assert.Equal(t, "http://bot.internal:9000", c.Endpoint())
	assert.Equal(t, 2*time.Second, c.httpClient.Timeout)
}

func TestUnauthenticatedCallsFail(t *testing.T) {
	c := newTestClient(t, service.StaticResponder{Text: "ok"})
	ctx := context.Background()

	_, err := c.ListConversations(ctx, ListConversationsOptions{})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	_, err = c.Events(ctx)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
}

func TestSessionRoundTrip(t *testing.T) {
	c := newTestClient(t, service.StaticResponder{Text: "ok"})
	ctx := context.Background()

	s, err := c.Login(ctx, "grace@example.com")
	require.NoError(t, err)
	assert.True(t, s.Authenticated)

	s, err = c.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", s.Email)

	require.NoError(t, c.Logout(ctx))
	s, err = c.Session(ctx)
	require.NoError(t, err)
	assert.False(t, s.Authenticated)

	_, err = c.Login(ctx, "")
	assert.True(t, IsStatus(err, http.StatusBadRequest))
}

func TestAskWaitsForReply(t *testing.T) {
	c := newTestClient(t, service.StaticResponder{Text: "You have 12 days left.", Delay: 20 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.Login(ctx, "grace@example.com")
	require.NoError(t, err)

	res, err := c.Ask(ctx, api.SendMessageRequest{Text: "How much PTO is left?"})
	require.NoError(t, err)
	assert.True(t, res.Sent.Created)
	assert.Equal(t, models.SenderBot, res.Reply.Sender)
	assert.Equal(t, "You have 12 days left.", res.Reply.Text)

	// A follow-up in the same conversation gets its own reply.
	res2, err := c.Ask(ctx, api.SendMessageRequest{ConversationID: res.Sent.Conversation.ID, Text: "And sick days?"})
	require.NoError(t, err)
	assert.False(t, res2.Sent.Created)
	assert.NotEqual(t, res.Reply.ID, res2.Reply.ID)

	detail, err := c.GetConversation(ctx, res.Sent.Conversation.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Messages, 4)
}

func TestAskReportsFailure(t *testing.T) {
	c := newTestClient(t, failingResponder{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.Login(ctx, "grace@example.com")
	require.NoError(t, err)

	_, err = c.Ask(ctx, api.SendMessageRequest{Text: "hello"})
	assert.ErrorIs(t, err, ErrReplyFailed)
}

func TestConversationAndProjectCalls(t *testing.T) {
	c := newTestClient(t, service.StaticResponder{Text: "ok"})
	ctx := context.Background()
	_, err := c.Login(ctx, "grace@example.com")
	require.NoError(t, err)

	p, err := c.CreateProject(ctx, "Benefits")
	require.NoError(t, err)

	conv, err := c.CreateConversation(ctx, "Dental", p.ID)
	require.NoError(t, err)

	active, err := c.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, active.ConversationID)
	require.NoError(t, c.ClearActive(ctx))

	conv, err = c.RenameConversation(ctx, conv.ID, "Dental plan")
	require.NoError(t, err)
	assert.Equal(t, "Dental plan", conv.Title)

	conv, err = c.SetArchived(ctx, conv.ID, true)
	require.NoError(t, err)
	assert.True(t, conv.Archived)

	archived, err := c.ListConversations(ctx, ListConversationsOptions{Archived: "true", Query: "dental"})
	require.NoError(t, err)
	assert.Len(t, archived, 1)

	sb, err := c.Sidebar(ctx, "")
	require.NoError(t, err)
	require.Len(t, sb.Projects, 1)
	assert.Empty(t, sb.Projects[0].Conversations)
	assert.Len(t, sb.Archived, 1)

	f, err := c.AddFile(ctx, p.ID, models.FileMeta{Name: "plan.pdf", Type: "application/pdf"})
	require.NoError(t, err)
	require.NoError(t, c.RemoveFile(ctx, p.ID, f.ID))

	p, err = c.RemoveFromProject(ctx, p.ID, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, p.ConversationIDs)
	p, err = c.AddToProject(ctx, p.ID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{conv.ID}, p.ConversationIDs)

	p, err = c.RenameProject(ctx, p.ID, "Health")
	require.NoError(t, err)
	detail, err := c.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Health", detail.Project.Name)

	require.NoError(t, c.DeleteProject(ctx, p.ID))
	projects, err := c.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)

	require.NoError(t, c.DeleteConversation(ctx, conv.ID))
	_, err = c.GetConversation(ctx, conv.ID)
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestAnalyticsAndReportCalls(t *testing.T) {
	c := newTestClient(t, service.StaticResponder{Text: "ok"})
	ctx := context.Background()
	_, err := c.Login(ctx, "grace@example.com")
	require.NoError(t, err)

	summary, err := c.AnalyticsSummary(ctx, analytics.TimeRange("90d"))
	require.NoError(t, err)
	assert.Positive(t, summary.TotalQuestions)

	topics, err := c.Topics(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, topics.Items)

	_, err = c.Threads(ctx, topics.Items[0].ID, analytics.DefaultTimeRange, 0)
	require.NoError(t, err)

	qs, err := c.Questions(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, qs)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Conversations)

	res, err := c.ReportIssue(ctx, api.ReportIssueRequest{IssueType: "unclear", Description: "vague answer"})
	require.NoError(t, err)
	assert.True(t, res.Success)

	_, err = c.ReportIssue(ctx, api.ReportIssueRequest{IssueType: "unclear"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Issue type and description are required", apiErr.Message)
}
