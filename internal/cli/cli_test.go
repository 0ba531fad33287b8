package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/knowbot/internal/analytics"
	"github.com/raphaelgruber/knowbot/internal/auth"
	"github.com/raphaelgruber/knowbot/internal/issue"
	"github.com/raphaelgruber/knowbot/internal/metrics"
	"github.com/raphaelgruber/knowbot/internal/models"
	"github.com/raphaelgruber/knowbot/internal/server"
	"github.com/raphaelgruber/knowbot/internal/service"
	"github.com/raphaelgruber/knowbot/internal/state"
)

func newTestServer(t *testing.T) (*httptest.Server, *service.Workspace) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := state.NewMemoryBackend()

	ws, err := service.Open(context.Background(), backend,
		service.WithLogger(logger),
		service.WithResponder(service.StaticResponder{Text: "Check the HR portal.", Delay: 10 * time.Millisecond}),
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
	return srv, ws
}

// run executes one CLI invocation against srv and returns its output.
func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	t.Setenv("KNOWBOT_LOG_FILE", filepath.Join(t.TempDir(), "cli.log"))
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", srv.URL}, args...))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func mustRun(t *testing.T, srv *httptest.Server, args ...string) string {
	t.Helper()
	out, err := run(t, srv, args...)
	require.NoError(t, err, out)
	return out
}

func TestLoginFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	out := mustRun(t, srv, "whoami")
	assert.Contains(t, out, "Not signed in")

	_, err := run(t, srv, "conversations", "list")
	assert.Error(t, err)

	out = mustRun(t, srv, "login", "lin@example.com")
	assert.Contains(t, out, "Signed in as lin@example.com")
	assert.Equal(t, "lin@example.com\n", mustRun(t, srv, "whoami"))

	mustRun(t, srv, "logout")
	assert.Contains(t, mustRun(t, srv, "whoami"), "Not signed in")
}

func TestAskCreatesConversation(t *testing.T) {
	srv, ws := newTestServer(t)
	mustRun(t, srv, "login", "lin@example.com")

	out := mustRun(t, srv, "ask", "Where", "is", "the", "W-2", "form?")
	assert.Contains(t, out, "New conversation")
	assert.Contains(t, out, "Bot: Check the HR portal.")

	convs := ws.Conversations(service.AllConversations)
	require.Len(t, convs, 1)
	assert.Equal(t, "Where is the W-2 form?", convs[0].Title)

	// Without --new the open conversation continues.
	out = mustRun(t, srv, "ask", "Thanks")
	assert.NotContains(t, out, "New conversation")
	assert.Len(t, ws.Conversations(service.AllConversations), 1)

	out = mustRun(t, srv, "ask", "--new", "Another topic")
	assert.Contains(t, out, "New conversation")
	assert.Len(t, ws.Conversations(service.AllConversations), 2)

	out = mustRun(t, srv, "conversations", "show", convs[0].ID)
	assert.Contains(t, out, "You: Where is the W-2 form?")
	assert.Contains(t, out, "You: Thanks")
	assert.Contains(t, out, "Suggested questions:")
}

func TestConversationCommands(t *testing.T) {
	srv, ws := newTestServer(t)
	mustRun(t, srv, "login", "lin@example.com")

	out := mustRun(t, srv, "conversations", "new", "Travel policy")
	assert.Contains(t, out, "Created conversation")
	id := ws.Active().ConversationID
	require.NotEmpty(t, id)

	assert.Contains(t, mustRun(t, srv, "conv", "rename", id, "Travel", "per", "diem"), `"Travel per diem"`)
	assert.Contains(t, mustRun(t, srv, "conv", "list"), "Travel per diem")

	mustRun(t, srv, "conv", "archive", id)
	assert.Contains(t, mustRun(t, srv, "conv", "list"), "No conversations found.")
	assert.Contains(t, mustRun(t, srv, "conv", "list", "--archived"), "(archived)")
	assert.Contains(t, mustRun(t, srv, "sidebar"), "ARCHIVED")

	mustRun(t, srv, "conv", "unarchive", id)
	assert.Contains(t, mustRun(t, srv, "sidebar"), "TODAY")

	mustRun(t, srv, "conv", "delete", id)
	_, err := run(t, srv, "conv", "show", id)
	assert.Error(t, err)
}

func TestProjectCommands(t *testing.T) {
	srv, ws := newTestServer(t)
	mustRun(t, srv, "login", "lin@example.com")

	mustRun(t, srv, "projects", "create", "Q3", "Planning")
	projects := ws.Projects()
	require.Len(t, projects, 1)
	pid := projects[0].ID

	conv, err := ws.CreateConversation(context.Background(), "Budget", "")
	require.NoError(t, err)

	mustRun(t, srv, "projects", "add", pid, conv.ID)
	out := mustRun(t, srv, "projects", "show", pid)
	assert.Contains(t, out, "Q3 Planning")
	assert.Contains(t, out, "Budget")

	out = mustRun(t, srv, "projects", "attach", pid, "roadmap.pdf")
	assert.Contains(t, out, "Attached roadmap.pdf")
	p, err := ws.Project(pid)
	require.NoError(t, err)
	require.Len(t, p.Files, 1)
	assert.Equal(t, "application/pdf", p.Files[0].Type)

	mustRun(t, srv, "projects", "detach", pid, p.Files[0].ID)
	mustRun(t, srv, "projects", "remove", pid, conv.ID)
	mustRun(t, srv, "projects", "rename", pid, "Q4")
	assert.Contains(t, mustRun(t, srv, "projects", "list"), "Q4")

	mustRun(t, srv, "projects", "delete", pid)
	assert.Contains(t, mustRun(t, srv, "projects", "list"), "No projects yet")
	_, err = ws.Conversation(conv.ID)
	assert.NoError(t, err)
}

func TestReportCommand(t *testing.T) {
	srv, _ := newTestServer(t)

	_, err := run(t, srv, "report", "--type", "outdated")
	assert.Error(t, err)

	out := mustRun(t, srv, "report", "-t", "outdated", "-d", "Old holiday list")
	assert.Contains(t, out, "Issue report submitted successfully")
}

func TestAnalyticsCommand(t *testing.T) {
	srv, _ := newTestServer(t)
	mustRun(t, srv, "login", "lin@example.com")

	out := mustRun(t, srv, "analytics", "--range", "all")
	assert.Contains(t, out, "Total questions:")
	assert.Contains(t, out, "Top topics")
	assert.Contains(t, out, "more with --topics 10")

	out = mustRun(t, srv, "analytics", "--threads", "1", "--range", "all")
	assert.Contains(t, out, "Threads (")

	_, err := run(t, srv, "analytics", "--range", "1y")
	assert.Error(t, err)
}

func TestStatsCommand(t *testing.T) {
	srv, _ := newTestServer(t)
	mustRun(t, srv, "login", "lin@example.com")

	out := mustRun(t, srv, "stats")
	assert.Contains(t, out, "Conversations: 0 (0 archived)")
	assert.Contains(t, out, "HTTP Requests:")
}

func TestTrend(t *testing.T) {
	assert.Equal(t, "up 12%", trend(analytics.Topic{Trend: analytics.TrendUp, Change: 12}))
	assert.Equal(t, "down 5%", trend(analytics.Topic{Trend: analytics.TrendDown, Change: -5}))
	assert.Equal(t, "stable", trend(analytics.Topic{Trend: analytics.TrendStable}))
}
