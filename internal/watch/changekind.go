// Package watch translates raw filesystem notifications into debounced,
// semantic change events for the index to consume.
package watch

import "time"

// ChangeKind classifies what happened to a path.
type ChangeKind int

const (
	Created ChangeKind = iota
	Modified
	Deleted
	Renamed
)

func (k ChangeKind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Renamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Change is a single debounced filesystem change delivered to callers.
// RenameFrom/RenameTo are only populated when Kind == Renamed.
type Change struct {
	Path       string
	Kind       ChangeKind
	RenameFrom string
	RenameTo   string
	Timestamp  time.Time
}
