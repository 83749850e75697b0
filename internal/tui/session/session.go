// Package session holds the in-memory transcript shown by the terminal UI.
package session

import "time"

// Role identifies who produced a transcript entry.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Entry is one turn in the transcript.
type Entry struct {
	Role Role
	Text string
	At   time.Time
}

// Log is an append-only record of the conversation. Entries are never
// edited or reordered; Clear is the only way to remove them.
type Log struct {
	entries []Entry
}

func NewLog() *Log {
	return &Log{}
}

// Append records one turn at the end of the transcript.
func (l *Log) Append(role Role, text string) {
	l.entries = append(l.entries, Entry{Role: role, Text: text, At: time.Now()})
}

// All returns the transcript oldest-first. The returned slice is a copy.
func (l *Log) All() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	return len(l.entries)
}

// Clear drops every entry.
func (l *Log) Clear() {
	l.entries = l.entries[:0]
}
