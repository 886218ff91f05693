package watcher

import "time"

// EventType represents the type of file system event
type EventType int

const (
	// EventModified is emitted when a watched file was written or replaced (after settling)
	EventModified EventType = iota
	// EventRemoved is emitted when a watched file is deleted
	EventRemoved
)

// String returns the string representation of the event type
func (t EventType) String() string {
	switch t {
	case EventModified:
		return "modified"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event represents a change of a watched file
type Event struct {
	Type EventType

	// Path is the watched file path
	Path string

	// ModTime is the file's last modification time, zero for removals
	ModTime time.Time
}
