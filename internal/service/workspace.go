package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/raphaelgruber/knowbot/internal/config"
	"github.com/raphaelgruber/knowbot/internal/models"
	"github.com/raphaelgruber/knowbot/internal/state"
)

// Operation names reported to the TimingRecorder.
const (
	OpReply     = "reply"
	OpStateSave = "state_save"
)

// TimingRecorder receives operation timings. *metrics.Collector satisfies it.
type TimingRecorder interface {
	RecordTiming(op string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordTiming(string, time.Duration) {}

// Option configures a Workspace.
type Option func(*Workspace)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) { w.logger = logger }
}

// WithResponder replaces the default static responder.
func WithResponder(r Responder) Option {
	return func(w *Workspace) { w.responder = r }
}

// WithSeed sets the content used for keys that were never persisted or could
// not be read.
func WithSeed(seed func(now time.Time) Seed) Option {
	return func(w *Workspace) { w.seed = seed }
}

// WithRecorder reports reply and save timings to r.
func WithRecorder(r TimingRecorder) Option {
	return func(w *Workspace) { w.recorder = r }
}

// Workspace owns one user's conversations, projects and transcripts.
// All methods are safe for concurrent use.
type Workspace struct {
	backend   state.Backend
	now       func() time.Time
	logger    *slog.Logger
	responder Responder
	recorder  TimingRecorder
	seed      func(time.Time) Seed

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	closed        bool
	conversations *ConversationStore
	projects      *ProjectStore
	transcripts   *TranscriptStore
	active        models.Selection
	pending       *PendingReply
	subs          map[int]chan models.Event
	nextSub       int
}

// Open loads the workspace from backend. Keys that are missing or unreadable
// are replaced with seed content and written back.
func Open(ctx context.Context, backend state.Backend, opts ...Option) (*Workspace, error) {
	w := &Workspace{
		backend:   backend,
		now:       time.Now,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		responder: StaticResponder{Text: config.DefaultStaticReply, Delay: config.DefaultReplyDelay},
		recorder:  nopRecorder{},
		seed:      DefaultSeed,
		subs:      make(map[int]chan models.Event),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())

	seed := w.seed(w.now())

	convs, err := loadOrSeed(ctx, w, state.KeyConversations, seed.Conversations)
	if err != nil {
		return nil, err
	}
	msgs, err := loadOrSeed(ctx, w, state.KeyMessages, seed.Messages)
	if err != nil {
		return nil, err
	}
	projects, err := loadOrSeed(ctx, w, state.KeyProjects, seed.Projects)
	if err != nil {
		return nil, err
	}

	var repaired []string
	if ids := clampTimestamps(convs); len(ids) > 0 {
		w.logger.Warn("raised lastUpdated to createdAt", "ids", ids)
		repaired = append(repaired, state.KeyConversations)
	}

	w.conversations = NewConversationStore(convs)
	w.transcripts = NewTranscriptStore(msgs)
	w.projects = NewProjectStore(projects)

	if dangling := w.pruneDangling(); len(dangling) > 0 {
		w.logger.Warn("removed references to missing conversations", "ids", dangling)
		repaired = append(repaired, state.KeyProjects)
	}
	if len(repaired) > 0 {
		w.mu.Lock()
		err := w.saveLocked(ctx, repaired...)
		w.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("save repaired state: %w", err)
		}
	}

	w.logger.Info("workspace opened",
		"conversations", len(convs),
		"projects", len(projects))
	return w, nil
}

func loadOrSeed[T any](ctx context.Context, w *Workspace, key string, seed T) (T, error) {
	var v T
	err := state.GetJSON(ctx, w.backend, key, &v)
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, state.ErrNotFound):
		w.logger.Debug("seeding state", "key", key)
	case errors.Is(err, state.ErrInvalidValue):
		w.logger.Warn("resetting unreadable state", "key", key, "error", err)
	default:
		return v, fmt.Errorf("load %s: %w", key, err)
	}

	if err := state.PutJSON(ctx, w.backend, key, seed); err != nil {
		return v, fmt.Errorf("seed %s: %w", key, err)
	}
	return seed, nil
}

// pruneDangling drops project references to conversations that do not exist.
func (w *Workspace) pruneDangling() []string {
	var dangling []string
	for _, p := range w.projects.List() {
		for _, id := range p.ConversationIDs {
			if !w.conversations.has(id) {
				dangling = append(dangling, id)
				w.projects.ForgetConversation(id, p.LastUpdated)
			}
		}
	}
	return dangling
}

// Close cancels the pending reply and waits for it to stop. Mutations after
// Close return ErrClosed.
func (w *Workspace) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.cancelReplyLocked()
	w.closed = true
	for id, ch := range w.subs {
		delete(w.subs, id)
		close(ch)
	}
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
	return nil
}

func (w *Workspace) nowMillis() int64 {
	return models.Millis(w.now())
}

// lock acquires w.mu unless the workspace is closed.
func (w *Workspace) lock() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	return nil
}

// saveLocked writes the given keys. Failures are logged and returned as
// ErrNotSaved; the in-memory change stays. Caller must hold w.mu.
func (w *Workspace) saveLocked(ctx context.Context, keys ...string) error {
	start := time.Now()
	defer func() { w.recorder.RecordTiming(OpStateSave, time.Since(start)) }()

	var (
		failed   []string
		firstErr error
	)
	for _, key := range keys {
		var value any
		switch key {
		case state.KeyConversations:
			value = w.conversations.List()
		case state.KeyMessages:
			value = w.transcripts.Snapshot()
		case state.KeyProjects:
			value = w.projects.List()
		default:
			return fmt.Errorf("unknown state key %q", key)
		}
		if err := state.PutJSON(ctx, w.backend, key, value); err != nil {
			w.logger.Error("failed to save state", "key", key, "error", err)
			failed = append(failed, key)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrNotSaved, strings.Join(failed, ", "), firstErr)
}

// Active returns the current selection.
func (w *Workspace) Active() models.Selection {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// Select opens a conversation, optionally inside a project. Empty IDs clear
// that part of the selection.
func (w *Workspace) Select(conversationID, projectID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if conversationID != "" && !w.conversations.has(conversationID) {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}
	if projectID != "" && !w.projects.has(projectID) {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	w.active = models.Selection{ConversationID: conversationID, ProjectID: projectID}
	return nil
}

// ClearActive starts a new session: the next message creates a conversation.
func (w *Workspace) ClearActive() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = models.Selection{}
}

// Typing reports whether a bot reply is pending for conversationID.
func (w *Workspace) Typing(conversationID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending != nil && w.pending.conversationID == conversationID
}

// Conversations returns the conversations matching f, newest first.
func (w *Workspace) Conversations(f ArchiveFilter) []models.Conversation {
	w.mu.Lock()
	defer w.mu.Unlock()
	return FilterArchived(w.conversations.List(), f)
}

// Conversation returns one conversation.
func (w *Workspace) Conversation(id string) (models.Conversation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conversations.Get(id)
}

// Messages returns the transcript of a conversation.
func (w *Workspace) Messages(conversationID string) ([]models.Message, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.conversations.has(conversationID) {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}
	return w.transcripts.Messages(conversationID), nil
}

// CreateConversation creates an empty conversation and makes it active. When
// projectID is set the conversation is created inside that project.
func (w *Workspace) CreateConversation(ctx context.Context, title, projectID string) (models.Conversation, error) {
	if err := w.lock(); err != nil {
		return models.Conversation{}, err
	}
	defer w.mu.Unlock()

	if projectID != "" && !w.projects.has(projectID) {
		return models.Conversation{}, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}

	now := w.nowMillis()
	conv := w.conversations.Create(title, now)
	keys := []string{state.KeyConversations}
	if projectID != "" {
		if _, err := w.projects.AddConversation(projectID, conv.ID, now); err != nil {
			return models.Conversation{}, err
		}
		keys = append(keys, state.KeyProjects)
	}
	w.active = models.Selection{ConversationID: conv.ID, ProjectID: projectID}

	w.emitLocked(models.Event{Type: models.EventConversationCreated, ConversationID: conv.ID, ProjectID: projectID})
	return conv, w.saveLocked(ctx, keys...)
}

// RenameConversation sets a new title. Blank or unchanged titles leave the
// conversation untouched and report changed=false.
func (w *Workspace) RenameConversation(ctx context.Context, id, title string) (models.Conversation, bool, error) {
	if err := w.lock(); err != nil {
		return models.Conversation{}, false, err
	}
	defer w.mu.Unlock()

	changed, err := w.conversations.Rename(id, title, w.nowMillis())
	if err != nil {
		return models.Conversation{}, false, err
	}
	conv, _ := w.conversations.Get(id)
	if !changed {
		return conv, false, nil
	}

	w.emitLocked(models.Event{Type: models.EventConversationUpdated, ConversationID: id})
	return conv, true, w.saveLocked(ctx, state.KeyConversations)
}

// ArchiveConversation archives a conversation and clears it from the
// selection if it was open.
func (w *Workspace) ArchiveConversation(ctx context.Context, id string) (models.Conversation, error) {
	return w.setArchived(ctx, id, true)
}

// UnarchiveConversation restores an archived conversation.
func (w *Workspace) UnarchiveConversation(ctx context.Context, id string) (models.Conversation, error) {
	return w.setArchived(ctx, id, false)
}

func (w *Workspace) setArchived(ctx context.Context, id string, archived bool) (models.Conversation, error) {
	if err := w.lock(); err != nil {
		return models.Conversation{}, err
	}
	defer w.mu.Unlock()

	changed, err := w.conversations.SetArchived(id, archived, w.nowMillis())
	if err != nil {
		return models.Conversation{}, err
	}
	conv, _ := w.conversations.Get(id)
	if archived && w.active.ConversationID == id {
		w.active.ConversationID = ""
	}
	if !changed {
		return conv, nil
	}

	w.emitLocked(models.Event{Type: models.EventConversationUpdated, ConversationID: id})
	return conv, w.saveLocked(ctx, state.KeyConversations)
}

// DeleteConversation removes the conversation, its transcript and every
// project reference to it. A reply pending for it is cancelled.
func (w *Workspace) DeleteConversation(ctx context.Context, id string) error {
	if err := w.lock(); err != nil {
		return err
	}
	defer w.mu.Unlock()

	if err := w.conversations.Delete(id); err != nil {
		return err
	}
	w.transcripts.Delete(id)
	changed := w.projects.ForgetConversation(id, w.nowMillis())

	if w.pending != nil && w.pending.conversationID == id {
		w.cancelReplyLocked()
	}
	if w.active.ConversationID == id {
		w.active.ConversationID = ""
	}

	w.emitLocked(models.Event{Type: models.EventConversationDeleted, ConversationID: id})
	for _, pid := range changed {
		w.emitLocked(models.Event{Type: models.EventProjectUpdated, ProjectID: pid})
	}
	return w.saveLocked(ctx, state.KeyConversations, state.KeyMessages, state.KeyProjects)
}

// SendRequest is a user message to deliver.
type SendRequest struct {
	// ConversationID targets an existing conversation. When empty the active
	// conversation is used, and when none is active a new one is created.
	ConversationID string
	// ProjectID places a newly created conversation in a project.
	ProjectID string
	Text      string
}

// SendResult describes an accepted user message.
type SendResult struct {
	Conversation models.Conversation
	Message      models.Message
	Created      bool
	Reply        *PendingReply
}

// SendMessage appends a user message and schedules the bot reply, replacing
// any reply still pending. When only the save fails the message is still
// accepted: the result is complete and the error wraps ErrNotSaved.
func (w *Workspace) SendMessage(ctx context.Context, req SendRequest) (SendResult, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return SendResult{}, ErrEmptyMessage
	}

	if err := w.lock(); err != nil {
		return SendResult{}, err
	}
	defer w.mu.Unlock()

	convID := req.ConversationID
	if convID == "" {
		convID = w.active.ConversationID
	}
	projectID := req.ProjectID
	if convID == "" && projectID == "" {
		projectID = w.active.ProjectID
	}
	if projectID != "" && !w.projects.has(projectID) {
		return SendResult{}, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}

	now := w.nowMillis()
	created := false
	if convID == "" {
		conv := w.conversations.Create(models.TitleFromMessage(text), now)
		convID = conv.ID
		created = true
		if projectID != "" {
			if _, err := w.projects.AddConversation(projectID, convID, now); err != nil {
				return SendResult{}, err
			}
		}
		w.emitLocked(models.Event{Type: models.EventConversationCreated, ConversationID: convID, ProjectID: projectID})
	} else if !w.conversations.has(convID) {
		return SendResult{}, fmt.Errorf("%w: %s", ErrConversationNotFound, convID)
	}

	if created || req.ConversationID != "" {
		w.active = models.Selection{ConversationID: convID, ProjectID: projectID}
	}

	msg, saveErr := w.appendLocked(ctx, convID, models.SenderUser, text, created)
	if saveErr != nil && !errors.Is(saveErr, ErrNotSaved) {
		return SendResult{}, saveErr
	}

	reply := w.scheduleReplyLocked(ReplyRequest{
		ConversationID: convID,
		Text:           text,
		History:        w.transcripts.Messages(convID),
	})
	w.emitLocked(models.Event{Type: models.EventReplyPending, ConversationID: convID})

	conv, _ := w.conversations.Get(convID)
	return SendResult{Conversation: conv, Message: msg, Created: created, Reply: reply}, saveErr
}

// appendLocked appends a message, bumps the conversation and saves.
// Caller must hold w.mu.
func (w *Workspace) appendLocked(ctx context.Context, convID string, sender models.Sender, text string, saveProjects bool) (models.Message, error) {
	now := w.nowMillis()
	if err := w.conversations.Touch(convID, now); err != nil {
		return models.Message{}, err
	}
	msg := w.transcripts.Append(convID, sender, text, now)

	w.emitLocked(models.Event{Type: models.EventMessageAppended, ConversationID: convID, Message: &msg})

	keys := []string{state.KeyConversations, state.KeyMessages}
	if saveProjects {
		keys = append(keys, state.KeyProjects)
	}
	return msg, w.saveLocked(ctx, keys...)
}

// Projects returns all projects in creation order.
func (w *Workspace) Projects() []models.Project {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.projects.List()
}

// Project returns one project.
func (w *Workspace) Project(id string) (models.Project, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.projects.Get(id)
}

// ProjectConversations resolves the project's conversations in membership
// order.
func (w *Workspace) ProjectConversations(id string) ([]models.Conversation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, err := w.projects.Get(id)
	if err != nil {
		return nil, err
	}
	return w.resolveLocked(p.ConversationIDs), nil
}

func (w *Workspace) resolveLocked(ids []string) []models.Conversation {
	out := make([]models.Conversation, 0, len(ids))
	for _, id := range ids {
		if c, err := w.conversations.Get(id); err == nil {
			out = append(out, c)
		}
	}
	return out
}

// Unorganized returns the non-archived conversations outside every project.
func (w *Workspace) Unorganized() []models.Conversation {
	w.mu.Lock()
	defer w.mu.Unlock()
	return FilterArchived(w.projects.Unorganized(w.conversations.List()), ActiveOnly)
}

// CreateProject creates a project and makes it the active one.
func (w *Workspace) CreateProject(ctx context.Context, name string) (models.Project, error) {
	if err := w.lock(); err != nil {
		return models.Project{}, err
	}
	defer w.mu.Unlock()

	p, err := w.projects.Create(name, w.nowMillis())
	if err != nil {
		return models.Project{}, err
	}
	w.active = models.Selection{ProjectID: p.ID}

	w.emitLocked(models.Event{Type: models.EventProjectCreated, ProjectID: p.ID})
	return p, w.saveLocked(ctx, state.KeyProjects)
}

// RenameProject sets a new name. Blank or unchanged names report
// changed=false.
func (w *Workspace) RenameProject(ctx context.Context, id, name string) (models.Project, bool, error) {
	if err := w.lock(); err != nil {
		return models.Project{}, false, err
	}
	defer w.mu.Unlock()

	changed, err := w.projects.Rename(id, name, w.nowMillis())
	if err != nil {
		return models.Project{}, false, err
	}
	p, _ := w.projects.Get(id)
	if !changed {
		return p, false, nil
	}

	w.emitLocked(models.Event{Type: models.EventProjectUpdated, ProjectID: id})
	return p, true, w.saveLocked(ctx, state.KeyProjects)
}

// DeleteProject removes the project. Its conversations become unorganized.
func (w *Workspace) DeleteProject(ctx context.Context, id string) error {
	if err := w.lock(); err != nil {
		return err
	}
	defer w.mu.Unlock()

	if err := w.projects.Delete(id); err != nil {
		return err
	}
	if w.active.ProjectID == id {
		w.active.ProjectID = ""
	}

	w.emitLocked(models.Event{Type: models.EventProjectDeleted, ProjectID: id})
	return w.saveLocked(ctx, state.KeyProjects)
}

// AddToProject moves a conversation into a project.
func (w *Workspace) AddToProject(ctx context.Context, projectID, conversationID string) (models.Project, error) {
	return w.updateMembership(ctx, projectID, conversationID, true)
}

// RemoveFromProject takes a conversation out of a project.
func (w *Workspace) RemoveFromProject(ctx context.Context, projectID, conversationID string) (models.Project, error) {
	return w.updateMembership(ctx, projectID, conversationID, false)
}

func (w *Workspace) updateMembership(ctx context.Context, projectID, conversationID string, add bool) (models.Project, error) {
	if err := w.lock(); err != nil {
		return models.Project{}, err
	}
	defer w.mu.Unlock()

	if !w.conversations.has(conversationID) {
		return models.Project{}, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}

	var before []models.Project
	if add {
		before = w.projects.List()
	}

	now := w.nowMillis()
	var (
		changed bool
		err     error
	)
	if add {
		changed, err = w.projects.AddConversation(projectID, conversationID, now)
	} else {
		changed, err = w.projects.RemoveConversation(projectID, conversationID, now)
	}
	if err != nil {
		return models.Project{}, err
	}
	p, _ := w.projects.Get(projectID)
	if !changed {
		return p, nil
	}

	// A move also updates the project the conversation came from.
	for _, old := range before {
		if old.ID != projectID && old.HasConversation(conversationID) {
			w.emitLocked(models.Event{Type: models.EventProjectUpdated, ProjectID: old.ID, ConversationID: conversationID})
		}
	}
	w.emitLocked(models.Event{Type: models.EventProjectUpdated, ProjectID: projectID, ConversationID: conversationID})
	return p, w.saveLocked(ctx, state.KeyProjects)
}

// AddProjectFile records uploaded file metadata on a project.
func (w *Workspace) AddProjectFile(ctx context.Context, projectID string, meta models.FileMeta) (models.ProjectFile, error) {
	if err := w.lock(); err != nil {
		return models.ProjectFile{}, err
	}
	defer w.mu.Unlock()

	f, err := w.projects.AddFile(projectID, meta, w.nowMillis())
	if err != nil {
		return models.ProjectFile{}, err
	}

	w.emitLocked(models.Event{Type: models.EventProjectUpdated, ProjectID: projectID})
	return f, w.saveLocked(ctx, state.KeyProjects)
}

// RemoveProjectFile deletes file metadata from a project.
func (w *Workspace) RemoveProjectFile(ctx context.Context, projectID, fileID string) error {
	if err := w.lock(); err != nil {
		return err
	}
	defer w.mu.Unlock()

	if err := w.projects.RemoveFile(projectID, fileID, w.nowMillis()); err != nil {
		return err
	}

	w.emitLocked(models.Event{Type: models.EventProjectUpdated, ProjectID: projectID})
	return w.saveLocked(ctx, state.KeyProjects)
}

// Sidebar builds the navigation model. query filters conversation titles;
// projects whose name matches keep all their conversations.
func (w *Workspace) Sidebar(query string) models.Sidebar {
	w.mu.Lock()
	defer w.mu.Unlock()

	all := w.conversations.List()
	q := strings.ToLower(strings.TrimSpace(query))

	sb := models.Sidebar{
		Projects: []models.ProjectView{},
		Groups:   GroupByRecency(Search(FilterArchived(w.projects.Unorganized(all), ActiveOnly), query), w.nowMillis()),
		Archived: Search(FilterArchived(all, ArchivedOnly), query),
	}
	for _, p := range w.projects.List() {
		convs := FilterArchived(w.resolveLocked(p.ConversationIDs), ActiveOnly)
		nameMatch := q == "" || strings.Contains(strings.ToLower(p.Name), q)
		if !nameMatch {
			convs = Search(convs, query)
			if len(convs) == 0 {
				continue
			}
		}
		sb.Projects = append(sb.Projects, models.ProjectView{Project: p, Conversations: convs})
	}
	return sb
}

// Suggestions returns follow-up prompts for a conversation, or nil when
// conversationID is empty.
func (w *Workspace) Suggestions(conversationID string) []string {
	if conversationID == "" {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.projects.ProjectOf(conversationID); ok {
		return SuggestionsFor(p.Name)
	}
	return SuggestionsFor("")
}

// ConversationProject returns the ID of the project holding conversationID,
// or "" when it is unorganized.
func (w *Workspace) ConversationProject(conversationID string) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.projects.ProjectOf(conversationID); ok {
		return p.ID
	}
	return ""
}

// Counts reports the number of conversations, archived conversations and
// projects.
func (w *Workspace) Counts() (conversations, archived, projects int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	convs := w.conversations.List()
	archived = len(slices.DeleteFunc(convs, func(c models.Conversation) bool { return !c.Archived }))
	return len(w.conversations.items), archived, len(w.projects.items)
}
