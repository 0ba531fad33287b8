// Package models defines the data structures of the knowbot workspace.
package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the number of characters kept when a title is derived
// from a message.
const MaxTitleLength = 50

// Millis converts t to Unix milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// TitleFromMessage derives a conversation title from the first user message:
// the trimmed text cut to MaxTitleLength characters.
func TitleFromMessage(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= MaxTitleLength {
		return text
	}
	return string([]rune(text)[:MaxTitleLength])
}
