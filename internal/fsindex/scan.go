package fsindex

import (
	"os"
	"path/filepath"
	"time"
)

const binarySniffBytes = 512

// dirState is one frame of the iterative directory-walk stack, carrying the
// gitignore rule chain in effect for this directory (root-to-leaf; a match
// in any rule set ignores the path).
type dirState struct {
	absPath string
	relPath string // relative to root, "" for root itself
	rules   []rule
}

// Build scans Root and (re)populates entries, dirChildren, and allFiles. A
// concurrent call while a build is already running is a no-op success.
// Hidden files are included; .gitignore, .git/info/exclude, and a global
// gitignore are honored; .git itself is always skipped.
func (ix *Index) Build() error {
	if !ix.isBuilding.CompareAndSwap(false, true) {
		return nil
	}
	defer ix.isBuilding.Store(false)

	rootAbs, err := filepath.Abs(ix.Root)
	if err != nil {
		rootAbs = ix.Root
	}

	entries := make(map[string]Entry)
	dirChildren := make(map[string][]string)
	var allFiles []string

	var rootRules []rule
	if lines := readIgnoreLines(filepath.Join(rootAbs, ".gitignore")); len(lines) > 0 {
		rootRules = append(rootRules, rule{baseAbs: rootAbs, baseRel: ".", ign: compileIgnoreLines(lines)})
	}
	if lines := readIgnoreLines(filepath.Join(rootAbs, ".git", "info", "exclude")); len(lines) > 0 {
		rootRules = append(rootRules, rule{baseAbs: rootAbs, baseRel: ".", ign: compileIgnoreLines(lines)})
	}
	if global := GlobalGitignorePath(); global != "" {
		if lines := readIgnoreLines(global); len(lines) > 0 {
			rootRules = append(rootRules, rule{baseAbs: rootAbs, baseRel: ".", ign: compileIgnoreLines(lines)})
		}
	}

	stack := []dirState{{absPath: rootAbs, relPath: "", rules: rootRules}}

	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		des, err := os.ReadDir(d.absPath)
		if err != nil {
			continue
		}
		for _, de := range des {
			name := de.Name()
			if name == ".git" {
				continue
			}
			abs := filepath.Join(d.absPath, name)
			rel := filepath.Join(d.relPath, name)

			if ignoredByRules(d.rules, rel) {
				continue
			}

			info, err := de.Info()
			if err != nil {
				continue
			}
			isDir := de.IsDir()
			size := info.Size()
			mtime := float64(info.ModTime().UnixNano()) / float64(time.Second)
			isBinary := false
			if !isDir && size > 0 {
				isBinary = sniffBinary(abs)
			}

			entries[abs] = Entry{Size: size, ModTime: mtime, IsDir: isDir, IsBinary: isBinary}
			dirChildren[d.absPath] = append(dirChildren[d.absPath], abs)
			if !isDir {
				allFiles = append(allFiles, abs)
			} else {
				childRules := d.rules
				if lines := readIgnoreLines(filepath.Join(abs, ".gitignore")); len(lines) > 0 {
					childRules = append(append([]rule(nil), d.rules...), rule{baseAbs: abs, baseRel: rel, ign: compileIgnoreLines(lines)})
				}
				stack = append(stack, dirState{absPath: abs, relPath: rel, rules: childRules})
			}
		}
	}

	ix.entries.Range(func(k, _ any) bool { ix.entries.Delete(k); return true })
	ix.dirChildren.Range(func(k, _ any) bool { ix.dirChildren.Delete(k); return true })
	for p, e := range entries {
		ix.entries.Store(p, e)
	}
	for d, children := range dirChildren {
		ix.dirChildren.Store(d, children)
	}

	ix.allFilesMu.Lock()
	ix.allFiles = allFiles
	ix.allFilesMu.Unlock()

	ix.isReady.Store(true)
	return nil
}

// Refresh clears readiness and rebuilds from scratch.
func (ix *Index) Refresh() error {
	ix.isReady.Store(false)
	return ix.Build()
}

// sniffBinary reports whether the first 512 bytes of path contain a NUL
// byte. Read errors count as "not binary".
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
