// Package atomicfile implements the write-to-temp, fsync, rename pattern
// for atomic file updates: a reader opening path by name never observes a
// partially written file.
package atomicfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/fsindex/fsindex/internal/fserrors"
)

// Write replaces path with content, or leaves it unchanged on error.
func Write(path string, content []byte) error {
	dir := filepath.Dir(path)
	if dir == "" {
		dir = "."
	}
	if _, err := os.Stat(dir); err != nil {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fserrors.IO(err)
		}
	}

	tmpPath := filepath.Join(dir, tempName(filepath.Base(path)))
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fserrors.IO(err)
	}
	if err := writeSyncClose(f, content); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fserrors.IO(err)
	}
	return nil
}

func writeSyncClose(f *os.File, content []byte) error {
	defer f.Close()
	if _, err := f.Write(content); err != nil {
		return fserrors.IO(err)
	}
	if err := f.Sync(); err != nil {
		return fserrors.IO(err)
	}
	return nil
}

// WritePreservePerms reads path's existing mode, performs an atomic Write,
// and reapplies the mode afterward. Best-effort: the permission restore is
// not itself atomic with the rename.
func WritePreservePerms(path string, content []byte) error {
	var mode os.FileMode
	hadPerms := false
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
		hadPerms = true
	}

	if err := Write(path, content); err != nil {
		return err
	}

	if hadPerms {
		if err := os.Chmod(path, mode); err != nil {
			return fserrors.IO(err)
		}
	}
	return nil
}

// Append reads path's existing content (treating a missing file as empty),
// concatenates content, and writes the result atomically.
func Append(path string, content []byte) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fserrors.IO(err)
	}
	combined := make([]byte, 0, len(existing)+len(content))
	combined = append(combined, existing...)
	combined = append(combined, content...)
	return Write(path, combined)
}

// Backup copies path to a sibling "path.bak" and returns that path.
func Backup(path string) (string, error) {
	backupPath := path + ".bak"
	src, err := os.Open(path)
	if err != nil {
		return "", fserrors.IO(err)
	}
	defer src.Close()

	dst, err := os.Create(backupPath)
	if err != nil {
		return "", fserrors.IO(err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fserrors.IO(err)
	}
	return backupPath, nil
}

func tempName(base string) string {
	return fmt.Sprintf(".%s.%s.tmp", base, uuid.NewString())
}
