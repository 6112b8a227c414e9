package fsindex

import (
	"os"
	"path/filepath"
	"time"
)

func statEntry(absPath string) (Entry, error) {
	info, err := os.Lstat(absPath)
	if err != nil {
		return Entry{}, err
	}
	isDir := info.IsDir()
	size := info.Size()
	mtime := float64(info.ModTime().UnixNano()) / float64(time.Second)
	isBinary := false
	if !isDir && size > 0 {
		isBinary = sniffBinary(absPath)
	}
	return Entry{Size: size, ModTime: mtime, IsDir: isDir, IsBinary: isBinary}, nil
}

// AddPath stats absPath and inserts it into the index, appending to the
// parent's dir_children and, if it's a file, to all_files. Idempotent with
// respect to all_files: re-adding an already-present file does not
// duplicate it.
func (ix *Index) AddPath(absPath string) error {
	entry, err := statEntry(absPath)
	if err != nil {
		return err
	}
	_, existed := ix.entries.Load(absPath)
	ix.entries.Store(absPath, entry)

	parent := filepath.Dir(absPath)
	if v, ok := ix.dirChildren.Load(parent); ok {
		children := v.([]string)
		found := false
		for _, c := range children {
			if c == absPath {
				found = true
				break
			}
		}
		if !found {
			ix.dirChildren.Store(parent, append(append([]string(nil), children...), absPath))
		}
	} else {
		ix.dirChildren.Store(parent, []string{absPath})
	}

	if !entry.IsDir && !existed {
		ix.allFilesMu.Lock()
		already := false
		for _, p := range ix.allFiles {
			if p == absPath {
				already = true
				break
			}
		}
		if !already {
			ix.allFiles = append(ix.allFiles, absPath)
		}
		ix.allFilesMu.Unlock()
	}
	return nil
}

// UpdatePath re-stats absPath and refreshes its metadata in place. It does
// not touch dir_children or all_files membership - the path is assumed
// already present from a prior build or AddPath.
func (ix *Index) UpdatePath(absPath string) error {
	entry, err := statEntry(absPath)
	if err != nil {
		return err
	}
	ix.entries.Store(absPath, entry)
	return nil
}

// RemovePath purges absPath from entries, all_files, its parent's
// dir_children, and - if absPath was itself a directory - its own
// dir_children entry.
func (ix *Index) RemovePath(absPath string) {
	v, existed := ix.entries.LoadAndDelete(absPath)
	ix.dirChildren.Delete(absPath)

	parent := filepath.Dir(absPath)
	if cv, ok := ix.dirChildren.Load(parent); ok {
		children := cv.([]string)
		out := children[:0:0]
		for _, c := range children {
			if c != absPath {
				out = append(out, c)
			}
		}
		ix.dirChildren.Store(parent, out)
	}

	wasFile := existed && !v.(Entry).IsDir
	if wasFile || !existed {
		ix.allFilesMu.Lock()
		out := ix.allFiles[:0:0]
		for _, p := range ix.allFiles {
			if p != absPath {
				out = append(out, p)
			}
		}
		ix.allFiles = out
		ix.allFilesMu.Unlock()
	}
}
