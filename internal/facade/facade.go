// Package facade wires the index, watcher, and grep/batchio primitives
// into a single stateful handle: the one entry point the CLI/HTTP layer
// talks to.
package facade

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsindex/fsindex/internal/batchio"
	"github.com/fsindex/fsindex/internal/fserrors"
	"github.com/fsindex/fsindex/internal/fsindex"
	"github.com/fsindex/fsindex/internal/grep"
	"github.com/fsindex/fsindex/internal/watch"
)

// Options configures a Facade. AutoWatch starts a background watcher-loop
// goroutine; DebounceWindow controls how long changes sit before flush.
type Options struct {
	AutoWatch      bool
	DebounceWindow time.Duration
	Logger         *log.Logger
}

func (o Options) withDefaults() Options {
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = 100 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Facade owns the Index and an optional Watcher, and exposes the full set
// of filesystem operations over a single root.
type Facade struct {
	root    string
	index   *fsindex.Index
	watcher *watch.Watcher
	stop    atomic.Bool
	wg      sync.WaitGroup
	logger  *log.Logger
}

// New validates root, launches a background index build, and (if
// AutoWatch is set) starts a watcher-loop goroutine that feeds index
// mutations from debounced filesystem changes.
func New(root string, opts Options) (*Facade, error) {
	opts = opts.withDefaults()

	info, err := os.Stat(root)
	if err != nil {
		return nil, fserrors.PathNotFound(root)
	}
	if !info.IsDir() {
		return nil, fserrors.PathNotFound(root + " is not a directory")
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		rootAbs = root
	}

	f := &Facade{
		root:   rootAbs,
		index:  fsindex.New(rootAbs),
		logger: opts.Logger,
	}

	go func() {
		if err := f.index.Build(); err != nil {
			f.logger.Printf("facade: failed to build index: %v", err)
		}
	}()

	if opts.AutoWatch {
		w, err := watch.New(rootAbs, opts.DebounceWindow)
		if err != nil {
			f.logger.Printf("facade: failed to start file watcher: %v", err)
		} else {
			f.watcher = w
			f.wg.Add(1)
			go f.watcherLoop()
		}
	}

	return f, nil
}

// Open is a scoped constructor: the returned release func stops the
// facade, mirroring a context-manager __enter__/__exit__ pair.
func Open(root string, opts Options) (*Facade, func(), error) {
	f, err := New(root, opts)
	if err != nil {
		return nil, func() {}, err
	}
	return f, f.Close, nil
}

func (f *Facade) watcherLoop() {
	defer f.wg.Done()
	for !f.stop.Load() {
		for _, change := range f.watcher.ProcessEvents() {
			f.applyChange(change)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (f *Facade) applyChange(c watch.Change) {
	switch c.Kind {
	case watch.Created:
		if err := f.index.AddPath(c.Path); err != nil {
			f.logger.Printf("facade: failed to add path to index: %v", err)
		}
	case watch.Modified:
		if err := f.index.UpdatePath(c.Path); err != nil {
			f.logger.Printf("facade: failed to update path in index: %v", err)
		}
	case watch.Deleted:
		f.index.RemovePath(c.Path)
	case watch.Renamed:
		f.index.RemovePath(c.RenameFrom)
		if err := f.index.AddPath(c.RenameTo); err != nil {
			f.logger.Printf("facade: failed to add renamed path to index: %v", err)
		}
	}
}

// ResolvePath joins p to root when p is relative; absolute paths pass
// through unchanged.
func (f *Facade) ResolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(f.root, p)
}

func (f *Facade) List(pattern string, onlyFiles bool) ([]string, error) {
	return f.index.List(pattern, onlyFiles)
}

func (f *Facade) Glob(pattern string) ([]string, error) {
	return f.index.Glob(pattern)
}

func (f *Facade) ReadFile(path string) (string, error) {
	return batchio.ReadFile(f.ResolvePath(path))
}

func (f *Facade) ReadBatch(paths []string) map[string]string {
	full := make([]string, len(paths))
	for i, p := range paths {
		full[i] = f.ResolvePath(p)
	}
	byFull := batchio.ReadBatch(full)

	out := make(map[string]string, len(byFull))
	for i, p := range paths {
		if content, ok := byFull[full[i]]; ok {
			out[p] = content
		}
	}
	return out
}

func (f *Facade) ReadLines(path string, start, count int) ([]string, error) {
	return batchio.ReadLines(f.ResolvePath(path), start, count)
}

func (f *Facade) ReadFileRange(path string, offset int64, limit int) (string, error) {
	return batchio.ReadFileRange(f.ResolvePath(path), offset, limit)
}

func (f *Facade) WriteFile(path, content string) error {
	return batchio.WriteFile(f.ResolvePath(path), content)
}

func (f *Facade) WriteFileFast(path, content string) error {
	return batchio.WriteFileFast(f.ResolvePath(path), content)
}

func (f *Facade) EditReplace(path, old, new string, strict bool) (bool, error) {
	return batchio.EditReplace(f.ResolvePath(path), old, new, strict)
}

// Grep prefers the index's file list when ready, falling back to a fresh
// walk when the index isn't ready or the glob fails to resolve.
func (f *Facade) Grep(query, globPattern string, opts grep.Options) ([]grep.Result, error) {
	if globPattern == "" {
		globPattern = "**/*"
	}
	if f.index.IsReady() {
		if files, err := f.index.GlobPathsWithOptions(globPattern, true); err == nil {
			return grep.Grep(f.root, query, globPattern, files, opts)
		}
	}
	return grep.Grep(f.root, query, globPattern, nil, opts)
}

func (f *Facade) GetMetadata(path string) (fsindex.Entry, error) {
	entry, ok := f.index.GetMetadata(f.ResolvePath(path))
	if !ok {
		return fsindex.Entry{}, fserrors.PathNotFound(path)
	}
	return entry, nil
}

func (f *Facade) Refresh() error {
	return f.index.Refresh()
}

func (f *Facade) IsReady() bool { return f.index.IsReady() }

func (f *Facade) IsWatching() bool {
	return f.watcher != nil && !f.stop.Load()
}

// PendingChanges reports how many paths currently have a debounced change
// awaiting flush. It does not drain fsnotify's queue or flush the
// debouncer, so it never steals changes the watcher loop would otherwise
// apply to the index.
func (f *Facade) PendingChanges() int {
	if f.watcher == nil {
		return 0
	}
	return f.watcher.PendingCount()
}

// Close is idempotent and safe to call multiple times or as a deferred
// scope-exit hook. Reads after Close see whatever the index last cached,
// but no further changes are applied.
func (f *Facade) Close() {
	if !f.stop.CompareAndSwap(false, true) {
		return
	}
	if f.watcher != nil {
		f.watcher.Stop()
	}
	f.wg.Wait()
}
