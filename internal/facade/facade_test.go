package facade

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func waitReady(t *testing.T, f *Facade) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !f.IsReady() {
		if time.Now().After(deadline) {
			t.Fatal("index never became ready")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestFacadeListAndGlob(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "main.go"), "package main")
	writeFile(t, filepath.Join(root, "README.md"), "hi")

	f, err := New(root, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Close()
	waitReady(t, f)

	all, err := f.List("**/*", true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 files, got %v", all)
	}

	goFiles, err := f.Glob("**/*.go")
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(goFiles) != 1 {
		t.Fatalf("expected 1 go file, got %v", goFiles)
	}
}

func TestFacadeReadWriteRoundTrip(t *testing.T) {
	root := t.TempDir()
	f, err := New(root, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Close()

	if err := f.WriteFile("a.txt", "hello"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := f.ReadFile("a.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestFacadeInvalidRoot(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing"), Options{}); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestFacadeAutoWatchDetectsNewFile(t *testing.T) {
	root := t.TempDir()
	f, err := New(root, Options{AutoWatch: true, DebounceWindow: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Close()
	waitReady(t, f)

	if !f.IsWatching() {
		t.Fatal("expected watcher active")
	}

	writeFile(t, filepath.Join(root, "new_file.txt"), "test")

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := f.GetMetadata("new_file.txt"); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("index never observed new_file.txt")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestFacadePendingChanges(t *testing.T) {
	root := t.TempDir()
	f, err := New(root, Options{AutoWatch: true, DebounceWindow: 10 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Close()
	waitReady(t, f)

	writeFile(t, filepath.Join(root, "new_file.txt"), "test")

	// The long debounce window keeps the change pending, so the count must
	// become visible without being consumed by the watcher loop.
	deadline := time.Now().Add(2 * time.Second)
	for f.PendingChanges() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("pending change count never became non-zero")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestFacadeCloseIdempotent(t *testing.T) {
	root := t.TempDir()
	f, err := New(root, Options{AutoWatch: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.Close()
	f.Close()
}
