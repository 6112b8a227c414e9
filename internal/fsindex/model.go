// Package fsindex maintains a concurrent, in-memory index of a directory
// tree: path -> metadata, a directory-children map, and a flat file list used
// as the iteration domain for list/glob/grep.
package fsindex

import (
	"sync"
	"sync/atomic"
)

// Entry is the metadata tracked for a single path in the index.
type Entry struct {
	Size     int64
	ModTime  float64 // seconds since epoch, fractional
	IsDir    bool
	IsBinary bool
}

// rule describes a .gitignore rule set anchored at a directory. baseAbs is
// the directory the rule lives in; baseRel is that directory relative to
// root ("." for root). Ordered root-to-leaf; a path is ignored if any rule
// set in the chain matches it, so a deeper .gitignore cannot re-include a
// path that an outer rule set ignores.
type rule struct {
	baseAbs string
	baseRel string
	ign     ignoreMatcher
}

// Index is a concurrent map of path -> Entry for everything under Root,
// kept warm by an explicit build() and incremental add/update/remove calls
// driven by the watch package.
type Index struct {
	Root string

	entries     sync.Map // absolute path -> Entry
	dirChildren sync.Map // absolute dir path -> []string (absolute child paths)

	allFilesMu sync.RWMutex
	allFiles   []string // absolute paths, files only

	isReady    atomic.Bool
	isBuilding atomic.Bool

	globCache *globCache
}

// New creates an Index rooted at root. The index is empty and not ready
// until Build completes.
func New(root string) *Index {
	return &Index{
		Root:      root,
		globCache: newGlobCache(globCacheCapacity),
	}
}

// IsReady reports whether a successful build has completed. It stays true
// until an explicit Refresh clears it.
func (ix *Index) IsReady() bool { return ix.isReady.Load() }

// GetMetadata returns the Entry for an absolute path, if indexed.
func (ix *Index) GetMetadata(path string) (Entry, bool) {
	v, ok := ix.entries.Load(path)
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}

// Len reports the number of indexed entries (files and directories).
func (ix *Index) Len() int {
	n := 0
	ix.entries.Range(func(_, _ any) bool { n++; return true })
	return n
}

func (ix *Index) snapshotAllFiles() []string {
	ix.allFilesMu.RLock()
	defer ix.allFilesMu.RUnlock()
	out := make([]string, len(ix.allFiles))
	copy(out, ix.allFiles)
	return out
}
