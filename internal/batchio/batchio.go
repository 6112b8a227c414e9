// Package batchio implements the raw read/write primitives the facade
// exposes: single and batch file reads, ranged and line-windowed reads,
// fast non-atomic writes, and find-and-replace edits.
package batchio

import (
	"io"
	"log"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/sync/errgroup"

	"github.com/fsindex/fsindex/internal/atomicfile"
	"github.com/fsindex/fsindex/internal/fserrors"
)

// batchParallelThreshold is the path-count at or above which ReadBatch fans
// out across goroutines instead of reading serially.
const batchParallelThreshold = 30

// mmapThreshold is the file size above which ReadLines mmaps instead of
// buffering the whole file.
const mmapThreshold = 1024 * 1024

// ReadFile returns path's content as a string. Only UTF-8 is guaranteed.
func ReadFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fserrors.PathNotFound(path)
		}
		return "", fserrors.IO(err)
	}
	return string(b), nil
}

// ReadBatch reads every path in paths, serially below batchParallelThreshold
// and concurrently at or above it. Paths that fail to read are omitted from the
// result, not reported as an error.
func ReadBatch(paths []string) map[string]string {
	out := make(map[string]string, len(paths))

	if len(paths) < batchParallelThreshold {
		for _, p := range paths {
			if content, err := ReadFile(p); err == nil {
				out[p] = content
			} else {
				log.Printf("batchio: skipping unreadable file %s: %v", p, err)
			}
		}
		return out
	}

	type kv struct {
		path    string
		content string
		ok      bool
	}
	results := make([]kv, len(paths))

	var g errgroup.Group
	g.SetLimit(16)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			content, err := ReadFile(p)
			if err != nil {
				log.Printf("batchio: skipping unreadable file %s: %v", p, err)
				return nil
			}
			results[i] = kv{path: p, content: content, ok: true}
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.ok {
			out[r.path] = r.content
		}
	}
	return out
}

// ReadLines returns the lines of path starting at the start'th (0-indexed)
// line, taking count lines if provided (count < 0 means to end). Returned
// lines have no trailing newline. Files above mmapThreshold are mmapped.
func ReadLines(path string, start int, count int) ([]string, error) {
	var content string
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fserrors.PathNotFound(path)
		}
		return nil, fserrors.IO(err)
	}

	if info.Size() > mmapThreshold {
		content, err = readMmapString(path)
	} else {
		var b []byte
		b, err = os.ReadFile(path)
		content = string(b)
	}
	if err != nil {
		return nil, fserrors.IO(err)
	}

	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	if start < 0 {
		start = 0
	}
	if start >= len(lines) {
		return []string{}, nil
	}
	end := len(lines)
	if count >= 0 && start+count < end {
		end = start + count
	}
	return append([]string(nil), lines[start:end]...), nil
}

func readMmapString(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return "", err
	}
	defer m.Unmap()
	return string(m), nil
}

// ReadFileRange seeks to offset and reads up to limit bytes, decoding the
// result as UTF-8 (failing if invalid).
func ReadFileRange(path string, offset int64, limit int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fserrors.PathNotFound(path)
		}
		return "", fserrors.IO(err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, 0); err != nil {
		return "", fserrors.IO(err)
	}

	buf := make([]byte, limit)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fserrors.IO(err)
	}
	buf = buf[:n]

	if !utf8.Valid(buf) {
		return "", fserrors.Internal("range contains invalid UTF-8")
	}
	return string(buf), nil
}

// WriteFile atomically replaces path's content.
func WriteFile(path, content string) error {
	return atomicfile.Write(path, []byte(content))
}

// WriteFileFast writes content directly, creating parent directories on
// demand but without the temp-file/rename dance. For throughput-critical
// callers that don't need atomicity.
func WriteFileFast(path, content string) error {
	dir := dirOf(path)
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fserrors.IO(err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fserrors.IO(err)
	}
	return nil
}

func dirOf(path string) string {
	idx := strings.LastIndexAny(path, "/\\")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// EditReplace reads path, counts occurrences of old, and replaces them all
// with new via an atomic write. strict=true requires exactly one
// occurrence (TextNotFound if zero, TextNotUnique(count) if more than
// one). Returns whether a replacement was made.
func EditReplace(path, old, new string, strict bool) (bool, error) {
	content, err := ReadFile(path)
	if err != nil {
		return false, err
	}

	count := strings.Count(content, old)
	if strict {
		if count == 0 {
			return false, fserrors.ErrTextNotFound
		}
		if count > 1 {
			return false, fserrors.TextNotUnique(count)
		}
	}
	if count == 0 {
		return false, nil
	}

	updated := strings.ReplaceAll(content, old, new)
	if err := atomicfile.Write(path, []byte(updated)); err != nil {
		return false, err
	}
	return true, nil
}
