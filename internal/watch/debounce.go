package watch

import (
	"sort"
	"sync"
	"time"
)

type pendingEvent struct {
	kind      ChangeKind
	renameTo  string
	timestamp time.Time
}

// Debouncer collapses rapid filesystem events per path into a single
// logical change over a sliding time window, per the merge rules below.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[string]pendingEvent
	duration time.Duration
}

func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{pending: make(map[string]pendingEvent), duration: duration}
}

// Add records a change for path. Merge rules against any existing pending
// entry for the same path:
//   - (Created, Deleted)  -> drop the entry entirely (net no-op)
//   - (Created, Modified) -> keep Created, discard the new event, do not
//     advance the timestamp
//   - anything else       -> overwrite with the new event and advance the
//     timestamp
func (d *Debouncer) Add(path string, kind ChangeKind, renameTo string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.pending[path]; ok {
		if existing.kind == Created && kind == Deleted {
			delete(d.pending, path)
			return
		}
		if existing.kind == Created && kind == Modified {
			return
		}
	}
	d.pending[path] = pendingEvent{kind: kind, renameTo: renameTo, timestamp: time.Now()}
}

// Flush returns and removes every entry whose timestamp is at least
// duration in the past.
func (d *Debouncer) Flush() []Change {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	var ready []Change
	for path, ev := range d.pending {
		if now.Sub(ev.timestamp) >= d.duration {
			ready = append(ready, toChange(path, ev))
			delete(d.pending, path)
		}
	}
	sortByTimestamp(ready)
	return ready
}

// FlushAll returns and clears every pending entry regardless of age.
func (d *Debouncer) FlushAll() []Change {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Change, 0, len(d.pending))
	for path, ev := range d.pending {
		out = append(out, toChange(path, ev))
	}
	d.pending = make(map[string]pendingEvent)
	sortByTimestamp(out)
	return out
}

// sortByTimestamp orders flushed changes oldest-first so consumers apply
// them in the order the debouncer last observed them.
func sortByTimestamp(changes []Change) {
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Timestamp.Before(changes[j].Timestamp)
	})
}

// HasPending reports whether any events are awaiting their debounce window.
func (d *Debouncer) HasPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending) > 0
}

// PendingCount reports how many paths currently have a debounced change
// awaiting flush, without removing or ageing any of them.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func toChange(path string, ev pendingEvent) Change {
	c := Change{Path: path, Kind: ev.kind, Timestamp: ev.timestamp}
	if ev.kind == Renamed {
		c.RenameFrom = path
		c.RenameTo = ev.renameTo
	}
	return c
}
