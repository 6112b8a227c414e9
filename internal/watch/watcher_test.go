package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherDetectsCreate(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(root, "f.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	var got []Change
	for time.Now().Before(deadline) {
		got = append(got, w.ProcessEvents()...)
		if len(got) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	found := false
	for _, c := range got {
		if c.Path == path && c.Kind == Created {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Created change for %s, got %+v", path, got)
	}
}

func TestWatcherDetectsRemove(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "f.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := New(root, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()

	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	found := false
	for time.Now().Before(deadline) && !found {
		for _, c := range w.ProcessEvents() {
			if c.Path == path && c.Kind == Deleted {
				found = true
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !found {
		t.Fatalf("expected Deleted change for %s", path)
	}
}

func TestWatcherStopIdempotent(t *testing.T) {
	w, err := New(t.TempDir(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.Stop()
	w.Stop()
	if w.IsRunning() {
		t.Fatal("expected watcher stopped")
	}
}
