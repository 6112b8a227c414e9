package batchio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsindex/fsindex/internal/fserrors"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestReadFileMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadFile(filepath.Join(dir, "nope.txt"))
	var fe *fserrors.Error
	if !errors.As(err, &fe) || fe.Kind != fserrors.KindPathNotFound {
		t.Fatalf("expected PathNotFound, got %v", err)
	}
}

func TestReadBatchSerialAndParallel(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 5; i++ {
		p := filepath.Join(dir, string(rune('a'+i))+".txt")
		write(t, p, "content")
		paths = append(paths, p)
	}
	paths = append(paths, filepath.Join(dir, "missing.txt"))

	got := ReadBatch(paths)
	if len(got) != 5 {
		t.Fatalf("expected 5 readable files, got %d", len(got))
	}

	var many []string
	for i := 0; i < 40; i++ {
		p := filepath.Join(dir, "f"+string(rune('A'+i))+".txt")
		write(t, p, "x")
		many = append(many, p)
	}
	gotMany := ReadBatch(many)
	if len(gotMany) != 40 {
		t.Fatalf("expected 40 readable files, got %d", len(gotMany))
	}
}

func TestReadLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lines.txt")
	write(t, path, "a\nb\nc\nd\n")

	lines, err := ReadLines(path, 1, 2)
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("got %v", lines)
	}
}

func TestReadFileRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "range.txt")
	write(t, path, "0123456789")

	got, err := ReadFileRange(path, 3, 4)
	if err != nil {
		t.Fatalf("ReadFileRange: %v", err)
	}
	if got != "3456" {
		t.Fatalf("got %q", got)
	}
}

func TestWriteFileFastCreatesDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "f.txt")
	if err := WriteFileFast(path, "hi"); err != nil {
		t.Fatalf("WriteFileFast: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "hi" {
		t.Fatalf("got %q", got)
	}
}

func TestEditReplaceStrict(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.txt")
	write(t, path, "Hello, World!")

	ok, err := EditReplace(path, "World", "Rust", true)
	if err != nil || !ok {
		t.Fatalf("EditReplace: ok=%v err=%v", ok, err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "Hello, Rust!" {
		t.Fatalf("got %q", got)
	}
}

func TestEditReplaceStrictNotUnique(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.txt")
	write(t, path, "Hello Hello Hello")

	_, err := EditReplace(path, "Hello", "Hi", true)
	var fe *fserrors.Error
	if !errors.As(err, &fe) || fe.Kind != fserrors.KindTextNotUnique || fe.N != 3 {
		t.Fatalf("expected TextNotUnique(3), got %v", err)
	}

	ok, err := EditReplace(path, "Hello", "Hi", false)
	if err != nil || !ok {
		t.Fatalf("EditReplace non-strict: ok=%v err=%v", ok, err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "Hi Hi Hi" {
		t.Fatalf("got %q", got)
	}
}

func TestEditReplaceStrictNotFound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.txt")
	write(t, path, "nothing to see here")

	_, err := EditReplace(path, "missing", "x", true)
	if !errors.Is(err, fserrors.ErrTextNotFound) {
		t.Fatalf("expected TextNotFound, got %v", err)
	}
}
