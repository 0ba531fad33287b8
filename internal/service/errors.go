package service

import "errors"

// Sentinel errors for workspace operations.
// Use errors.Is() to check for these errors in calling code.
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrFileNotFound         = errors.New("file not found")

	// ErrEmptyName is returned when a project name is blank after trimming.
	ErrEmptyName = errors.New("name must not be empty")

	// ErrEmptyMessage is returned when a message is blank after trimming.
	ErrEmptyMessage = errors.New("message must not be empty")

	// ErrNotSaved is returned when a mutation was applied in memory but the
	// state backend rejected the write.
	ErrNotSaved = errors.New("workspace state not saved")

	// ErrClosed is returned by mutations after Workspace.Close.
	ErrClosed = errors.New("workspace closed")
)
