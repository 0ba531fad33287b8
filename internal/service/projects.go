package service

import (
	"fmt"
	"slices"
	"strings"

	"github.com/raphaelgruber/knowbot/internal/models"
)

// ProjectStore holds projects in creation order. A conversation belongs to at
// most one project: adding it to one removes it from the others.
// It is not safe for concurrent use; Workspace serializes access.
type ProjectStore struct {
	items []models.Project
}

// NewProjectStore creates a store holding a deep copy of items.
func NewProjectStore(items []models.Project) *ProjectStore {
	s := &ProjectStore{items: make([]models.Project, 0, len(items))}
	for _, p := range items {
		s.items = append(s.items, cloneProject(p))
	}
	return s
}

// List returns a deep copy of all projects.
func (s *ProjectStore) List() []models.Project {
	out := make([]models.Project, 0, len(s.items))
	for _, p := range s.items {
		out = append(out, cloneProject(p))
	}
	return out
}

// Get returns the project with id.
func (s *ProjectStore) Get(id string) (models.Project, error) {
	i, err := s.find(id)
	if err != nil {
		return models.Project{}, err
	}
	return cloneProject(s.items[i]), nil
}

// Create appends a new project. Blank names are rejected with ErrEmptyName.
func (s *ProjectStore) Create(name string, now int64) (models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Project{}, ErrEmptyName
	}

	p := models.Project{
		ID:              nextID("project-", now, s.has),
		Name:            name,
		ConversationIDs: []string{},
		Files:           []models.ProjectFile{},
		CreatedAt:       now,
		LastUpdated:     now,
	}
	s.items = append(s.items, p)
	return cloneProject(p), nil
}

// Rename sets a new name. Blank or unchanged names are a no-op.
func (s *ProjectStore) Rename(id, name string, now int64) (bool, error) {
	i, err := s.find(id)
	if err != nil {
		return false, err
	}

	name = strings.TrimSpace(name)
	if name == "" || name == s.items[i].Name {
		return false, nil
	}
	s.items[i].Name = name
	s.touch(i, now)
	return true, nil
}

// Delete removes the project. Its conversations are left alone.
func (s *ProjectStore) Delete(id string) error {
	i, err := s.find(id)
	if err != nil {
		return err
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

// AddConversation assigns conversationID to the project, moving it out of any
// other project. Adding an existing member is a no-op.
func (s *ProjectStore) AddConversation(projectID, conversationID string, now int64) (bool, error) {
	i, err := s.find(projectID)
	if err != nil {
		return false, err
	}
	if s.items[i].HasConversation(conversationID) {
		return false, nil
	}

	for j := range s.items {
		if j != i {
			s.removeMember(j, conversationID, now)
		}
	}
	s.items[i].ConversationIDs = append(s.items[i].ConversationIDs, conversationID)
	s.touch(i, now)
	return true, nil
}

// RemoveConversation drops conversationID from the project. Removing a
// non-member is a no-op.
func (s *ProjectStore) RemoveConversation(projectID, conversationID string, now int64) (bool, error) {
	i, err := s.find(projectID)
	if err != nil {
		return false, err
	}
	return s.removeMember(i, conversationID, now), nil
}

// ForgetConversation removes conversationID from every project and returns
// the IDs of the projects that changed.
func (s *ProjectStore) ForgetConversation(conversationID string, now int64) []string {
	var changed []string
	for i := range s.items {
		if s.removeMember(i, conversationID, now) {
			changed = append(changed, s.items[i].ID)
		}
	}
	return changed
}

// ProjectOf returns the project containing conversationID.
func (s *ProjectStore) ProjectOf(conversationID string) (models.Project, bool) {
	for _, p := range s.items {
		if p.HasConversation(conversationID) {
			return cloneProject(p), true
		}
	}
	return models.Project{}, false
}

// AddFile records file metadata on the project.
func (s *ProjectStore) AddFile(projectID string, meta models.FileMeta, now int64) (models.ProjectFile, error) {
	i, err := s.find(projectID)
	if err != nil {
		return models.ProjectFile{}, err
	}

	name := strings.TrimSpace(meta.Name)
	if name == "" {
		return models.ProjectFile{}, ErrEmptyName
	}

	file := models.ProjectFile{
		ID:         nextID("file-", now, s.fileTaken),
		Name:       name,
		Type:       meta.Type,
		Size:       meta.Size,
		UploadedAt: now,
	}
	s.items[i].Files = append(s.items[i].Files, file)
	s.touch(i, now)
	return file, nil
}

// RemoveFile deletes file metadata from the project.
func (s *ProjectStore) RemoveFile(projectID, fileID string, now int64) error {
	i, err := s.find(projectID)
	if err != nil {
		return err
	}

	j := slices.IndexFunc(s.items[i].Files, func(f models.ProjectFile) bool { return f.ID == fileID })
	if j < 0 {
		return fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}
	s.items[i].Files = slices.Delete(s.items[i].Files, j, j+1)
	s.touch(i, now)
	return nil
}

// Unorganized returns the conversations that belong to no project, keeping
// the input order.
func (s *ProjectStore) Unorganized(all []models.Conversation) []models.Conversation {
	organized := make(map[string]struct{})
	for _, p := range s.items {
		for _, id := range p.ConversationIDs {
			organized[id] = struct{}{}
		}
	}

	out := make([]models.Conversation, 0, len(all))
	for _, c := range all {
		if _, ok := organized[c.ID]; !ok {
			out = append(out, c)
		}
	}
	return out
}

func (s *ProjectStore) removeMember(i int, conversationID string, now int64) bool {
	j := slices.Index(s.items[i].ConversationIDs, conversationID)
	if j < 0 {
		return false
	}
	s.items[i].ConversationIDs = slices.Delete(s.items[i].ConversationIDs, j, j+1)
	s.touch(i, now)
	return true
}

func (s *ProjectStore) touch(i int, now int64) {
	s.items[i].LastUpdated = bumped(s.items[i].CreatedAt, now)
}

func (s *ProjectStore) find(id string) (int, error) {
	i := slices.IndexFunc(s.items, func(p models.Project) bool { return p.ID == id })
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return i, nil
}

func (s *ProjectStore) has(id string) bool {
	_, err := s.find(id)
	return err == nil
}

func (s *ProjectStore) fileTaken(id string) bool {
	for _, p := range s.items {
		if slices.ContainsFunc(p.Files, func(f models.ProjectFile) bool { return f.ID == id }) {
			return true
		}
	}
	return false
}

func cloneProject(p models.Project) models.Project {
	p.ConversationIDs = append([]string{}, p.ConversationIDs...)
	p.Files = append([]models.ProjectFile{}, p.Files...)
	return p
}
