package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher subscribes recursively to filesystem events under root and
// feeds them, debounced, to callers via ProcessEvents. fsnotify only
// watches directories it's explicitly told about, so Watcher walks root at
// construction time and adds a watch for every directory found.
type Watcher struct {
	fsw       *fsnotify.Watcher
	root      string
	debouncer *Debouncer
	running   atomic.Bool
}

// New creates a Watcher rooted at root with the given debounce window.
func New(root string, debounceDuration time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:       fsw,
		root:      root,
		debouncer: NewDebouncer(debounceDuration),
	}
	w.running.Store(true)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" && path != root {
				return filepath.SkipDir
			}
			_ = fsw.Add(path)
		}
		return nil
	})
	if walkErr != nil {
		fsw.Close()
		return nil, walkErr
	}

	return w, nil
}

func (w *Watcher) Root() string { return w.root }

func (w *Watcher) IsRunning() bool { return w.running.Load() }

// Stop marks the watcher as no longer running and releases the underlying
// platform watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	if w.running.CompareAndSwap(true, false) {
		w.fsw.Close()
	}
}

// ProcessEvents drains any raw events queued by fsnotify since the last
// call, maps each to a ChangeKind, feeds the debouncer, and returns the
// debounced flush. Meant to be called periodically (e.g. every ~50ms) by
// a single watcher-loop goroutine - it keeps the debouncer's lock span
// short by collecting all raw events first and feeding them in one pass.
func (w *Watcher) ProcessEvents() []Change {
	var raw []fsnotify.Event
drain:
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				break drain
			}
			raw = append(raw, ev)
		default:
			break drain
		}
	}

	for _, ev := range raw {
		kind, ok := mapEventKind(ev.Op)
		if !ok {
			continue
		}
		w.debouncer.Add(ev.Name, kind, "")
		if ev.Has(fsnotify.Create) {
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
				_ = w.fsw.Add(ev.Name)
			}
		}
	}

	return w.debouncer.Flush()
}

// FlushAll forces every pending debounced change out regardless of age.
func (w *Watcher) FlushAll() []Change {
	return w.debouncer.FlushAll()
}

// PendingCount reports how many paths currently have a debounced change
// awaiting flush, without draining fsnotify's event queue or flushing the
// debouncer. Safe to call concurrently with ProcessEvents.
func (w *Watcher) PendingCount() int {
	return w.debouncer.PendingCount()
}

// mapEventKind translates an fsnotify.Op bitmask to a ChangeKind following
// the raw-to-semantic table: Create -> Created, Write -> Modified,
// Remove -> Deleted, Rename -> Deleted (fsnotify fires a bare Rename on the
// old path with no paired new-path event on most platforms; the create at
// the destination arrives separately as its own Create event).
func mapEventKind(op fsnotify.Op) (ChangeKind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return Created, true
	case op.Has(fsnotify.Write):
		return Modified, true
	case op.Has(fsnotify.Remove):
		return Deleted, true
	case op.Has(fsnotify.Rename):
		return Deleted, true
	default:
		return 0, false
	}
}
