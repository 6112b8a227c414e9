package fsindex

import (
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fsindex/fsindex/internal/fserrors"
)

// parallelThreshold is the iteration-domain size at or above which list/glob
// fan out across goroutines instead of scanning serially.
const parallelThreshold = 500

func (ix *Index) relPath(absPath string) string {
	rel, err := filepath.Rel(ix.Root, absPath)
	if err != nil {
		return normalizeSlash(absPath)
	}
	return normalizeSlash(rel)
}

func isFastPattern(pattern string) bool {
	return pattern == "**/*" || pattern == "**"
}

// List returns root-relative paths matching pattern. onlyFiles restricts
// the iteration domain to all_files; otherwise every indexed entry
// (files and directories) is considered.
func (ix *Index) List(pattern string, onlyFiles bool) ([]string, error) {
	if !ix.IsReady() {
		return nil, fserrors.ErrIndexNotReady
	}

	fast := isFastPattern(pattern)
	var g compiledGlob
	if !fast {
		var err error
		g, err = ix.globCache.compile(pattern)
		if err != nil {
			return nil, fserrors.Wrap(fserrors.KindGlob, err)
		}
	}

	var domain []string
	if onlyFiles {
		domain = ix.snapshotAllFiles()
	} else {
		ix.entries.Range(func(k, _ any) bool {
			domain = append(domain, k.(string))
			return true
		})
	}

	matches := func(abs string) (string, bool) {
		rel := ix.relPath(abs)
		if fast || g.match(rel) {
			return rel, true
		}
		return "", false
	}

	if len(domain) < parallelThreshold {
		out := make([]string, 0, len(domain))
		for _, abs := range domain {
			if rel, ok := matches(abs); ok {
				out = append(out, rel)
			}
		}
		return out, nil
	}

	return parallelFilter(domain, matches), nil
}

// parallelFilter applies matches concurrently over domain and returns the
// matched relative paths. Order is not guaranteed to follow domain order.
func parallelFilter(domain []string, matches func(string) (string, bool)) []string {
	const shards = 8
	chunks := chunkStrings(domain, shards)
	results := make([][]string, len(chunks))

	var g errgroup.Group
	var mu sync.Mutex
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			local := make([]string, 0, len(chunk))
			for _, abs := range chunk {
				if rel, ok := matches(abs); ok {
					local = append(local, rel)
				}
			}
			mu.Lock()
			results[i] = local
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var out []string
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func chunkStrings(in []string, n int) [][]string {
	if len(in) == 0 {
		return nil
	}
	if n > len(in) {
		n = len(in)
	}
	size := (len(in) + n - 1) / n
	var out [][]string
	for i := 0; i < len(in); i += size {
		end := i + size
		if end > len(in) {
			end = len(in)
		}
		out = append(out, in[i:end])
	}
	return out
}

// Glob is list(pattern, only_files=true).
func (ix *Index) Glob(pattern string) ([]string, error) {
	return ix.List(pattern, true)
}

// GlobPathsWithOptions returns absolute paths matching pattern, optionally
// excluding entries flagged as binary.
func (ix *Index) GlobPathsWithOptions(pattern string, skipBinary bool) ([]string, error) {
	if !ix.IsReady() {
		return nil, fserrors.ErrIndexNotReady
	}

	fast := isFastPattern(pattern)
	var g compiledGlob
	if !fast {
		var err error
		g, err = ix.globCache.compile(pattern)
		if err != nil {
			return nil, fserrors.Wrap(fserrors.KindGlob, err)
		}
	}

	domain := ix.snapshotAllFiles()
	out := make([]string, 0, len(domain))
	for _, abs := range domain {
		rel := ix.relPath(abs)
		if !fast && !g.match(rel) {
			continue
		}
		if skipBinary {
			if e, ok := ix.GetMetadata(abs); ok && e.IsBinary {
				continue
			}
		}
		out = append(out, abs)
	}
	return out, nil
}
