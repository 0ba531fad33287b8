package service

import "strconv"

// nextID returns prefix followed by ms, moving to the next free millisecond
// when that ID is already taken.
func nextID(prefix string, ms int64, taken func(string) bool) string {
	for {
		id := prefix + strconv.FormatInt(ms, 10)
		if !taken(id) {
			return id
		}
		ms++
	}
}

// bumped returns the new lastUpdated value, never earlier than createdAt.
func bumped(createdAt, now int64) int64 {
	if now < createdAt {
		return createdAt
	}
	return now
}
