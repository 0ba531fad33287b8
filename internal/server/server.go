// Package server exposes the knowbot workspace over HTTP and WebSocket.
package server

import (
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/raphaelgruber/knowbot/internal/analytics"
	"github.com/raphaelgruber/knowbot/internal/app"
	"github.com/raphaelgruber/knowbot/internal/auth"
	"github.com/raphaelgruber/knowbot/internal/issue"
	"github.com/raphaelgruber/knowbot/internal/metrics"
	"github.com/raphaelgruber/knowbot/internal/service"
)

// Deps are the components served over HTTP.
type Deps struct {
	Workspace *service.Workspace
	Gate      *auth.Gate
	Relay     *issue.Relay
	Analytics *analytics.Catalog
	Metrics   *metrics.Collector
	Logger    *slog.Logger

	// ReportLimiter throttles issue reports. Nil disables throttling.
	ReportLimiter *rate.Limiter
}

// DepsFromApp collects the dependencies held by a.
func DepsFromApp(a *app.App) Deps {
	return Deps{
		Workspace:     a.Workspace,
		Gate:          a.Gate,
		Relay:         a.Relay,
		Analytics:     a.Analytics,
		Metrics:       a.Metrics,
		Logger:        a.Logger,
		ReportLimiter: NewReportLimiter(a.Config.ReportRatePerMin, a.Config.ReportBurst),
	}
}

// NewReportLimiter allows perMinute issue reports with the given burst.
// A non-positive rate returns nil.
func NewReportLimiter(perMinute float64, burst int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perMinute/60), burst)
}

// Server routes HTTP requests to the workspace.
type Server struct {
	deps   Deps
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a server and registers its routes.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{deps: deps, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return LoggingMiddleware(s.logger, s.deps.Metrics)(s.mux)
}

func (s *Server) routes() {
	page := func(h http.HandlerFunc) http.HandlerFunc { return requireAuth(s.deps.Gate, true, h) }
	gated := func(h http.HandlerFunc) http.HandlerFunc { return requireAuth(s.deps.Gate, false, h) }

	// Ungated
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/logout", s.handleLogout)
	s.mux.HandleFunc("GET /api/session", s.handleSession)
	s.mux.HandleFunc("POST /api/report-issue", rateLimit(s.deps.ReportLimiter, s.handleReportIssue))
	s.mux.HandleFunc("GET /login", s.handleLoginPage)

	// Pages
	s.mux.HandleFunc("GET /{$}", page(s.handleRoot))
	s.mux.HandleFunc("GET /chat", page(s.handleChatPage))
	s.mux.HandleFunc("GET /chat/{id}", page(s.handleChatPage))
	s.mux.HandleFunc("GET /project/{id}", page(s.handleProjectPage))
	s.mux.HandleFunc("GET /project/{id}/chat/{chatId}", page(s.handleChatPage))
	s.mux.HandleFunc("GET /analytics", page(s.handleAnalyticsPage))

	// Conversations
	s.mux.HandleFunc("GET /api/conversations", gated(s.handleListConversations))
	s.mux.HandleFunc("POST /api/conversations", gated(s.handleCreateConversation))
	s.mux.HandleFunc("GET /api/conversations/{id}", gated(s.handleGetConversation))
	s.mux.HandleFunc("PATCH /api/conversations/{id}", gated(s.handleUpdateConversation))
	s.mux.HandleFunc("DELETE /api/conversations/{id}", gated(s.handleDeleteConversation))
	s.mux.HandleFunc("POST /api/messages", gated(s.handleSendMessage))
	s.mux.HandleFunc("GET /api/active", gated(s.handleActive))
	s.mux.HandleFunc("DELETE /api/active", gated(s.handleClearActive))
	s.mux.HandleFunc("GET /api/sidebar", gated(s.handleSidebar))

	// Projects
	s.mux.HandleFunc("GET /api/projects", gated(s.handleListProjects))
	s.mux.HandleFunc("POST /api/projects", gated(s.handleCreateProject))
	s.mux.HandleFunc("GET /api/projects/{id}", gated(s.handleGetProject))
	s.mux.HandleFunc("PATCH /api/projects/{id}", gated(s.handleRenameProject))
	s.mux.HandleFunc("DELETE /api/projects/{id}", gated(s.handleDeleteProject))
	s.mux.HandleFunc("PUT /api/projects/{id}/conversations/{conversationId}", gated(s.handleAddToProject))
	s.mux.HandleFunc("DELETE /api/projects/{id}/conversations/{conversationId}", gated(s.handleRemoveFromProject))
	s.mux.HandleFunc("POST /api/projects/{id}/files", gated(s.handleAddFile))
	s.mux.HandleFunc("DELETE /api/projects/{id}/files/{fileId}", gated(s.handleRemoveFile))

	// Analytics and operations
	s.mux.HandleFunc("GET /api/analytics/summary", gated(s.handleAnalyticsSummary))
	s.mux.HandleFunc("GET /api/analytics/questions", gated(s.handleAnalyticsQuestions))
	s.mux.HandleFunc("GET /api/analytics/topics", gated(s.handleAnalyticsTopics))
	s.mux.HandleFunc("GET /api/analytics/topics/{id}/threads", gated(s.handleAnalyticsThreads))
	s.mux.HandleFunc("GET /api/stats", gated(s.handleStats))
	s.mux.HandleFunc("GET /api/events", gated(s.handleEvents))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
