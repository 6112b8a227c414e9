// Package grep implements a parallel, bounded-result regex search over a
// file tree, mirroring ripgrep-style tools: mmap large files, skip binaries,
// cap total matches with early cancellation once the cap is hit.
package grep

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/sync/errgroup"

	"github.com/fsindex/fsindex/internal/fserrors"
)

// largeFileThreshold is the size above which a file is memory-mapped
// instead of read into a buffer.
const largeFileThreshold = 32 * 1024

// binarySniffBytes matches the index's NUL-sniff window.
const binarySniffBytes = 512

const defaultMaxFileSize = 10 * 1024 * 1024

// Options configures a Grep call. A zero Options is usable: case-insensitive
// search, unbounded results (MaxResults <= 0 means unbounded), a 10MiB
// per-file cap, and no context lines.
type Options struct {
	CaseSensitive bool
	MaxResults    int
	MaxFileSize   int64
	ContextLines  int
}

func (o Options) withDefaults() Options {
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = defaultMaxFileSize
	}
	return o
}

// Result is a single match.
type Result struct {
	File          string
	LineNumber    int
	Content       string
	ContextBefore []string
	ContextAfter  []string
}

// Grep searches root for query. If files is non-nil, it is used as the
// search domain verbatim (e.g. supplied by the index); otherwise Grep
// performs its own ignore-aware walk filtered by globPattern.
func Grep(root, query, globPattern string, files []string, opts Options) ([]Result, error) {
	opts = opts.withDefaults()

	re, err := compileRegex(query, opts.CaseSensitive)
	if err != nil {
		return nil, fserrors.Wrap(fserrors.KindRegex, err)
	}

	if files == nil {
		files, err = walkForGrep(root, globPattern, opts.MaxFileSize)
		if err != nil {
			return nil, err
		}
	}

	var resultCount atomic.Int64
	var cancelled atomic.Bool
	var mu sync.Mutex
	var results []Result

	maxResults := int64(opts.MaxResults)
	unbounded := maxResults <= 0

	g := new(errgroup.Group)
	g.SetLimit(runtimeParallelism())

	for _, path := range files {
		path := path
		g.Go(func() error {
			if cancelled.Load() {
				return nil
			}
			if !unbounded && resultCount.Load() >= maxResults {
				return nil
			}
			found := searchFile(root, path, re, opts, &resultCount, &cancelled, maxResults, unbounded)
			if len(found) == 0 {
				return nil
			}
			mu.Lock()
			results = append(results, found...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if !unbounded && int64(len(results)) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// runtimeParallelism bounds how many files are scanned concurrently.
func runtimeParallelism() int {
	n := runtime.NumCPU()
	if n < 2 {
		return 2
	}
	return n
}

func compileRegex(query string, caseSensitive bool) (*regexp.Regexp, error) {
	if caseSensitive {
		return regexp.Compile(query)
	}
	return regexp.Compile("(?i)" + query)
}

func searchFile(root, path string, re *regexp.Regexp, opts Options, resultCount *atomic.Int64, cancelled *atomic.Bool, maxResults int64, unbounded bool) []Result {
	if cancelled.Load() {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil
	}

	content, ok := readForSearch(path, info.Size())
	if !ok {
		return nil
	}
	if !utf8.ValidString(content) {
		return nil
	}

	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	relPath, err := filepath.Rel(root, path)
	if err != nil {
		relPath = path
	}
	relPath = strings.ReplaceAll(relPath, string(filepath.Separator), "/")

	var out []Result
	for i, line := range lines {
		if cancelled.Load() || (!unbounded && resultCount.Load() >= maxResults) {
			break
		}
		if !re.MatchString(line) {
			continue
		}

		var before, after []string
		if opts.ContextLines > 0 {
			start := i - opts.ContextLines
			if start < 0 {
				start = 0
			}
			before = append(before, lines[start:i]...)

			end := i + 1 + opts.ContextLines
			if end > len(lines) {
				end = len(lines)
			}
			after = append(after, lines[i+1:end]...)
		}

		if unbounded {
			out = append(out, Result{File: relPath, LineNumber: i + 1, Content: line, ContextBefore: before, ContextAfter: after})
			continue
		}

		prev := resultCount.Add(1) - 1
		if prev >= maxResults {
			cancelled.Store(true)
			break
		}
		out = append(out, Result{File: relPath, LineNumber: i + 1, Content: line, ContextBefore: before, ContextAfter: after})
		if prev+1 >= maxResults {
			cancelled.Store(true)
			break
		}
	}
	return out
}

// readForSearch mmaps files above largeFileThreshold and buffers the rest.
func readForSearch(path string, size int64) (string, bool) {
	if size > largeFileThreshold {
		return readMmap(path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(b), true
}

func readMmap(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return "", false
	}
	defer m.Unmap()

	if len(m) == 0 {
		return "", true
	}
	return string(m), true
}

func sniffBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	buf := make([]byte, binarySniffBytes)
	n, _ := f.Read(buf)
	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return true
		}
	}
	return false
}
