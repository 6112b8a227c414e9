package atomicfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")

	if err := Write(path, []byte("Hello, World!")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "Hello, World!" {
		t.Fatalf("got %q", got)
	}
}

func TestWriteOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")

	if err := Write(path, []byte("Initial")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := Write(path, []byte("Overwritten")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "Overwritten" {
		t.Fatalf("got %q", got)
	}
}

func TestWriteCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "test.txt")

	if err := Write(path, []byte("Content")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
}

func TestAppend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")

	if err := Write(path, []byte("Hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := Append(path, []byte(", World!")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "Hello, World!" {
		t.Fatalf("got %q", got)
	}
}

func TestAppendMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "new.txt")

	if err := Append(path, []byte("first")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "first" {
		t.Fatalf("got %q", got)
	}
}

func TestBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	if err := Write(path, []byte("content")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	backupPath, err := Backup(path)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	got, _ := os.ReadFile(backupPath)
	if string(got) != "content" {
		t.Fatalf("backup content mismatch: %q", got)
	}
}

func TestWritePreservePerms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	if err := Write(path, []byte("a")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := os.Chmod(path, 0o640); err != nil {
		t.Fatalf("Chmod: %v", err)
	}

	if err := WritePreservePerms(path, []byte("b")); err != nil {
		t.Fatalf("WritePreservePerms: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Fatalf("expected mode 0640, got %v", info.Mode().Perm())
	}
}
