package server

import (
	"net/http"

	"github.com/raphaelgruber/knowbot/internal/analytics"
	"github.com/raphaelgruber/knowbot/internal/api"
)

// Page routes return the view model a front-end would render.

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	session, err := s.deps.Gate.Status(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if session.Authenticated {
		http.Redirect(w, r, "/chat", http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/chat", http.StatusFound)
}

// handleChatPage serves /chat, /chat/{id} and /project/{id}/chat/{chatId}.
// A conversation in the path becomes the active selection.
func (s *Server) handleChatPage(w http.ResponseWriter, r *http.Request) {
	ws := s.deps.Workspace

	convID := r.PathValue("id")
	projectID := ""
	if chatID := r.PathValue("chatId"); chatID != "" {
		convID, projectID = chatID, r.PathValue("id")
	}
	if convID != "" {
		if err := ws.Select(convID, projectID); err != nil {
			writeServiceError(w, err)
			return
		}
	}

	session, err := s.deps.Gate.Status(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	active := ws.Active()
	page := api.ChatPage{
		Session: session,
		Active:  active,
		Sidebar: ws.Sidebar(r.URL.Query().Get("q")),
	}
	if active.ConversationID != "" {
		detail, err := s.conversationDetail(active.ConversationID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		page.Conversation = &detail
	}
	if active.ProjectID != "" {
		p, err := ws.Project(active.ProjectID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		page.Project = &p
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleProjectPage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Workspace.Select("", id); err != nil {
		writeServiceError(w, err)
		return
	}

	session, err := s.deps.Gate.Status(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	detail, err := s.projectDetail(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ProjectPage{
		Session: session,
		Sidebar: s.deps.Workspace.Sidebar(r.URL.Query().Get("q")),
		Project: detail,
	})
}

func (s *Server) handleAnalyticsPage(w http.ResponseWriter, r *http.Request) {
	tr, err := timeRange(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	session, err := s.deps.Gate.Status(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.AnalyticsPage{
		Session:   session,
		Summary:   s.deps.Analytics.Summary(tr),
		Topics:    s.deps.Analytics.Topics(analytics.PageStep),
		Questions: s.deps.Analytics.Questions(tr),
	})
}
