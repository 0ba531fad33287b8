// Package client provides an HTTP client for the knowbot server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/raphaelgruber/knowbot/internal/analytics"
	"github.com/raphaelgruber/knowbot/internal/api"
	"github.com/raphaelgruber/knowbot/internal/models"
)

// DefaultEndpoint is used when neither an endpoint nor KNOWBOT_SERVER_URL is set.
const DefaultEndpoint = "http://localhost:8484"

// Client talks to the knowbot server JSON API.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a new client.
// If endpoint is empty, uses KNOWBOT_SERVER_URL env var or defaults to localhost:8484.
// Timeout can be configured via KNOWBOT_CLIENT_TIMEOUT env var (default 30s).
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("KNOWBOT_SERVER_URL")
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	timeout := 30 * time.Second
	if t := os.Getenv("KNOWBOT_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Endpoint returns the server base URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error: %d %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Do sends a JSON request to path and decodes the response into result.
func (c *Client) Do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// =============================================================================
// SESSION
// =============================================================================

// Login signs in with email.
func (c *Client) Login(ctx context.Context, email string) (models.Session, error) {
	var s models.Session
	err := c.Do(ctx, http.MethodPost, "/api/login", api.LoginRequest{Email: email}, &s)
	return s, err
}

// Logout signs out.
func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

// Session returns the current login state.
func (c *Client) Session(ctx context.Context) (models.Session, error) {
	var s models.Session
	err := c.Do(ctx, http.MethodGet, "/api/session", nil, &s)
	return s, err
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// ListConversationsOptions filters ListConversations.
type ListConversationsOptions struct {
	// Archived is "", "true" or "all".
	Archived string
	Query    string
}

// ListConversations returns conversations, newest first.
func (c *Client) ListConversations(ctx context.Context, opts ListConversationsOptions) ([]models.Conversation, error) {
	q := url.Values{}
	if opts.Archived != "" {
		q.Set("archived", opts.Archived)
	}
	if opts.Query != "" {
		q.Set("q", opts.Query)
	}

	var convs []models.Conversation
	err := c.Do(ctx, http.MethodGet, withQuery("/api/conversations", q), nil, &convs)
	return convs, err
}

// GetConversation returns a conversation with its transcript.
func (c *Client) GetConversation(ctx context.Context, id string) (*api.ConversationDetail, error) {
	var d api.ConversationDetail
	if err := c.Do(ctx, http.MethodGet, "/api/conversations/"+url.PathEscape(id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateConversation creates an empty conversation, optionally inside a project.
func (c *Client) CreateConversation(ctx context.Context, title, projectID string) (models.Conversation, error) {
	var conv models.Conversation
	err := c.Do(ctx, http.MethodPost, "/api/conversations",
		api.CreateConversationRequest{Title: title, ProjectID: projectID}, &conv)
	return conv, err
}

// RenameConversation sets a conversation title.
func (c *Client) RenameConversation(ctx context.Context, id, title string) (models.Conversation, error) {
	return c.updateConversation(ctx, id, api.UpdateConversationRequest{Title: &title})
}

// SetArchived archives or restores a conversation.
func (c *Client) SetArchived(ctx context.Context, id string, archived bool) (models.Conversation, error) {
	return c.updateConversation(ctx, id, api.UpdateConversationRequest{Archived: &archived})
}

func (c *Client) updateConversation(ctx context.Context, id string, req api.UpdateConversationRequest) (models.Conversation, error) {
	var conv models.Conversation
	err := c.Do(ctx, http.MethodPatch, "/api/conversations/"+url.PathEscape(id), req, &conv)
	return conv, err
}

// DeleteConversation deletes a conversation and its transcript.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/api/conversations/"+url.PathEscape(id), nil, nil)
}

// SendMessage posts a user message. The bot reply arrives later.
func (c *Client) SendMessage(ctx context.Context, req api.SendMessageRequest) (api.SendMessageResponse, error) {
	var res api.SendMessageResponse
	err := c.Do(ctx, http.MethodPost, "/api/messages", req, &res)
	return res, err
}

// Active returns the open conversation and project.
func (c *Client) Active(ctx context.Context) (models.Selection, error) {
	var sel models.Selection
	err := c.Do(ctx, http.MethodGet, "/api/active", nil, &sel)
	return sel, err
}

// ClearActive starts a new chat: the next message creates a conversation.
func (c *Client) ClearActive(ctx context.Context) error {
	return c.Do(ctx, http.MethodDelete, "/api/active", nil, nil)
}

// Sidebar returns the navigation model filtered by query.
func (c *Client) Sidebar(ctx context.Context, query string) (models.Sidebar, error) {
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	var sb models.Sidebar
	err := c.Do(ctx, http.MethodGet, withQuery("/api/sidebar", q), nil, &sb)
	return sb, err
}

// =============================================================================
// PROJECTS
// =============================================================================

// ListProjects returns all projects.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var ps []models.Project
	err := c.Do(ctx, http.MethodGet, "/api/projects", nil, &ps)
	return ps, err
}

// GetProject returns a project with its conversations.
func (c *Client) GetProject(ctx context.Context, id string) (*api.ProjectDetail, error) {
	var d api.ProjectDetail
	if err := c.Do(ctx, http.MethodGet, projectPath(id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, name string) (models.Project, error) {
	var p models.Project
	err := c.Do(ctx, http.MethodPost, "/api/projects", api.ProjectRequest{Name: name}, &p)
	return p, err
}

// RenameProject renames a project.
func (c *Client) RenameProject(ctx context.Context, id, name string) (models.Project, error) {
	var p models.Project
	err := c.Do(ctx, http.MethodPatch, projectPath(id), api.ProjectRequest{Name: name}, &p)
	return p, err
}

// DeleteProject deletes a project. Its conversations are kept.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, projectPath(id), nil, nil)
}

// AddToProject moves a conversation into a project.
func (c *Client) AddToProject(ctx context.Context, projectID, conversationID string) (models.Project, error) {
	var p models.Project
	err := c.Do(ctx, http.MethodPut, projectPath(projectID)+"/conversations/"+url.PathEscape(conversationID), nil, &p)
	return p, err
}

// RemoveFromProject takes a conversation out of a project.
func (c *Client) RemoveFromProject(ctx context.Context, projectID, conversationID string) (models.Project, error) {
	var p models.Project
	err := c.Do(ctx, http.MethodDelete, projectPath(projectID)+"/conversations/"+url.PathEscape(conversationID), nil, &p)
	return p, err
}

// AddFile records file metadata on a project.
func (c *Client) AddFile(ctx context.Context, projectID string, meta models.FileMeta) (models.ProjectFile, error) {
	var f models.ProjectFile
	err := c.Do(ctx, http.MethodPost, projectPath(projectID)+"/files", meta, &f)
	return f, err
}

// RemoveFile deletes file metadata from a project.
func (c *Client) RemoveFile(ctx context.Context, projectID, fileID string) error {
	return c.Do(ctx, http.MethodDelete, projectPath(projectID)+"/files/"+url.PathEscape(fileID), nil, nil)
}

func projectPath(id string) string {
	return "/api/projects/" + url.PathEscape(id)
}

// =============================================================================
// ANALYTICS & OPERATIONS
// =============================================================================

// AnalyticsSummary returns headline numbers for a time range.
func (c *Client) AnalyticsSummary(ctx context.Context, r analytics.TimeRange) (analytics.Summary, error) {
	var s analytics.Summary
	err := c.Do(ctx, http.MethodGet, withQuery("/api/analytics/summary", rangeQuery(r)), nil, &s)
	return s, err
}

// Questions returns the most asked questions within a time range.
func (c *Client) Questions(ctx context.Context, r analytics.TimeRange) ([]analytics.Question, error) {
	var qs []analytics.Question
	err := c.Do(ctx, http.MethodGet, withQuery("/api/analytics/questions", rangeQuery(r)), nil, &qs)
	return qs, err
}

// Topics returns the first limit topics.
func (c *Client) Topics(ctx context.Context, limit int) (analytics.Page[analytics.Topic], error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var p analytics.Page[analytics.Topic]
	err := c.Do(ctx, http.MethodGet, withQuery("/api/analytics/topics", q), nil, &p)
	return p, err
}

// Threads returns the first limit threads of a topic.
func (c *Client) Threads(ctx context.Context, topicID string, r analytics.TimeRange, limit int) (analytics.Page[analytics.Thread], error) {
	q := rangeQuery(r)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var p analytics.Page[analytics.Thread]
	err := c.Do(ctx, http.MethodGet, withQuery("/api/analytics/topics/"+url.PathEscape(topicID)+"/threads", q), nil, &p)
	return p, err
}

// Stats returns workspace counts and server metrics.
func (c *Client) Stats(ctx context.Context) (api.Stats, error) {
	var s api.Stats
	err := c.Do(ctx, http.MethodGet, "/api/stats", nil, &s)
	return s, err
}

// ReportIssue submits an issue report.
func (c *Client) ReportIssue(ctx context.Context, r api.ReportIssueRequest) (api.ReportIssueResponse, error) {
	var res api.ReportIssueResponse
	err := c.Do(ctx, http.MethodPost, "/api/report-issue", r, &res)
	return res, err
}

func rangeQuery(r analytics.TimeRange) url.Values {
	q := url.Values{}
	if r != "" {
		q.Set("range", string(r))
	}
	return q
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
