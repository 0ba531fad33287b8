package server

import (
	"errors"
	"net/http"

	"github.com/raphaelgruber/knowbot/internal/analytics"
	"github.com/raphaelgruber/knowbot/internal/api"
	"github.com/raphaelgruber/knowbot/internal/issue"
	"github.com/raphaelgruber/knowbot/internal/models"
	"github.com/raphaelgruber/knowbot/internal/service"
)

const (
	msgIssueMissingFields = "Issue type and description are required"
	msgIssueFailed        = "Failed to process issue report"
	msgIssueSubmitted     = "Issue report submitted successfully"
)

// Session

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	session, err := s.deps.Gate.Login(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.logger.Info("user signed in", "email", session.Email)
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Gate.Logout(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.deps.Gate.Status(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Issue reports

func (s *Server) handleReportIssue(w http.ResponseWriter, r *http.Request) {
	var req api.ReportIssueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   msgIssueFailed,
			"details": err.Error(),
		})
		return
	}

	receipt, err := s.deps.Relay.Submit(r.Context(), issue.Report(req))
	switch {
	case errors.Is(err, issue.ErrMissingFields):
		writeErrorString(w, http.StatusBadRequest, msgIssueMissingFields)
		return
	case err != nil:
		s.logger.Error("issue report failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   msgIssueFailed,
			"details": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, api.ReportIssueResponse{
		Success: true,
		Message: msgIssueSubmitted,
		ID:      receipt.ID,
	})
}

// Conversations

func parseArchiveFilter(v string) service.ArchiveFilter {
	switch v {
	case "true", "only":
		return service.ArchivedOnly
	case "all":
		return service.AllConversations
	default:
		return service.ActiveOnly
	}
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	convs := service.Search(s.deps.Workspace.Conversations(parseArchiveFilter(q.Get("archived"))), q.Get("q"))
	writeJSON(w, http.StatusOK, convs)
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req api.CreateConversationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	conv, err := s.deps.Workspace.CreateConversation(r.Context(), req.Title, req.ProjectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) conversationDetail(id string) (api.ConversationDetail, error) {
	ws := s.deps.Workspace
	conv, err := ws.Conversation(id)
	if err != nil {
		return api.ConversationDetail{}, err
	}
	msgs, err := ws.Messages(id)
	if err != nil {
		return api.ConversationDetail{}, err
	}
	return api.ConversationDetail{
		Conversation: conv,
		Messages:     msgs,
		ProjectID:    ws.ConversationProject(id),
		Typing:       ws.Typing(id),
		Suggestions:  ws.Suggestions(id),
	}, nil
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	detail, err := s.conversationDetail(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleUpdateConversation(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateConversationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	id := r.PathValue("id")
	ws := s.deps.Workspace

	conv, err := ws.Conversation(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if req.Title != nil {
		if conv, _, err = ws.RenameConversation(ctx, id, *req.Title); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	if req.Archived != nil {
		if *req.Archived {
			conv, err = ws.ArchiveConversation(ctx, id)
		} else {
			conv, err = ws.UnarchiveConversation(ctx, id)
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Workspace.DeleteConversation(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req api.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.deps.Workspace.SendMessage(r.Context(), service.SendRequest{
		ConversationID: req.ConversationID,
		ProjectID:      req.ProjectID,
		Text:           req.Text,
	})
	var warning string
	switch {
	case errors.Is(err, service.ErrNotSaved):
		// accepted and the reply is scheduled; only persistence failed
		s.logger.Warn("message accepted but not saved", "conversation", res.Conversation.ID, "error", err)
		warning = err.Error()
	case err != nil:
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.SendMessageResponse{
		Conversation: res.Conversation,
		Message:      res.Message,
		Created:      res.Created,
		Warning:      warning,
	})
}

func (s *Server) handleActive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Workspace.Active())
}

// handleClearActive starts a new chat session.
func (s *Server) handleClearActive(w http.ResponseWriter, _ *http.Request) {
	s.deps.Workspace.ClearActive()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSidebar(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Workspace.Sidebar(r.URL.Query().Get("q")))
}

// Projects

func (s *Server) handleListProjects(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Workspace.Projects())
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req api.ProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := s.deps.Workspace.CreateProject(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) projectDetail(id string) (api.ProjectDetail, error) {
	ws := s.deps.Workspace
	p, err := ws.Project(id)
	if err != nil {
		return api.ProjectDetail{}, err
	}
	convs, err := ws.ProjectConversations(id)
	if err != nil {
		return api.ProjectDetail{}, err
	}
	return api.ProjectDetail{
		Project:       p,
		Conversations: convs,
		Suggestions:   service.SuggestionsFor(p.Name),
	}, nil
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	detail, err := s.projectDetail(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleRenameProject(w http.ResponseWriter, r *http.Request) {
	var req api.ProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, _, err := s.deps.Workspace.RenameProject(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Workspace.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddToProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Workspace.AddToProject(r.Context(), r.PathValue("id"), r.PathValue("conversationId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleRemoveFromProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Workspace.RemoveFromProject(r.Context(), r.PathValue("id"), r.PathValue("conversationId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAddFile(w http.ResponseWriter, r *http.Request) {
	var meta models.FileMeta
	if err := decodeJSON(w, r, &meta); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	f, err := s.deps.Workspace.AddProjectFile(r.Context(), r.PathValue("id"), meta)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleRemoveFile(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Workspace.RemoveProjectFile(r.Context(), r.PathValue("id"), r.PathValue("fileId")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Analytics

func timeRange(r *http.Request) (analytics.TimeRange, error) {
	v := r.URL.Query().Get("range")
	if v == "" {
		return analytics.DefaultTimeRange, nil
	}
	return analytics.ParseTimeRange(v)
}

func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	tr, err := timeRange(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Analytics.Summary(tr))
}

func (s *Server) handleAnalyticsQuestions(w http.ResponseWriter, r *http.Request) {
	tr, err := timeRange(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Analytics.Questions(tr))
}

func (s *Server) handleAnalyticsTopics(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Analytics.Topics(limit))
}

func (s *Server) handleAnalyticsThreads(w http.ResponseWriter, r *http.Request) {
	tr, err := timeRange(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	page, err := s.deps.Analytics.Threads(r.PathValue("id"), tr, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	var st api.Stats
	st.Conversations, st.Archived, st.Projects = s.deps.Workspace.Counts()
	if s.deps.Metrics != nil {
		st.Metrics = s.deps.Metrics.Snapshot()
	}
	writeJSON(w, http.StatusOK, st)
}
