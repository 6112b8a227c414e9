package grep

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/fsindex/fsindex/internal/fsindex"
)

// walkForGrep performs an ignore-aware walk of root, collecting files that
// match globPattern, are within maxFileSize, and are not binary. Used when
// the caller has no pre-collected file list from the index. Honors the same
// ignore sources the index walk does: per-directory .gitignore files,
// .git/info/exclude, and the global gitignore.
func walkForGrep(root, globPattern string, maxFileSize int64) ([]string, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		rootAbs = root
	}

	type dirFrame struct {
		abs   string
		rel   string
		rules []*gitignore.GitIgnore
	}

	var rootRules []*gitignore.GitIgnore
	if ign := loadIgnore(filepath.Join(rootAbs, ".gitignore")); ign != nil {
		rootRules = append(rootRules, ign)
	}
	if ign := loadIgnore(filepath.Join(rootAbs, ".git", "info", "exclude")); ign != nil {
		rootRules = append(rootRules, ign)
	}
	if global := fsindex.GlobalGitignorePath(); global != "" {
		if ign := loadIgnore(global); ign != nil {
			rootRules = append(rootRules, ign)
		}
	}

	var out []string
	stack := []dirFrame{{abs: rootAbs, rel: "", rules: rootRules}}

	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(d.abs)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if name == ".git" {
				continue
			}
			abs := filepath.Join(d.abs, name)
			rel := filepath.Join(d.rel, name)
			relSlash := strings.ReplaceAll(rel, string(filepath.Separator), "/")

			if matchesAny(d.rules, relSlash) {
				continue
			}

			if e.IsDir() {
				childRules := d.rules
				if ign := loadIgnore(filepath.Join(abs, ".gitignore")); ign != nil {
					childRules = append(append([]*gitignore.GitIgnore(nil), d.rules...), ign)
				}
				stack = append(stack, dirFrame{abs: abs, rel: rel, rules: childRules})
				continue
			}

			info, err := e.Info()
			if err != nil || info.Size() > maxFileSize {
				continue
			}
			if globPattern != "**/*" && globPattern != "**" {
				ok, err := doublestar.Match(globPattern, relSlash)
				if err != nil || !ok {
					continue
				}
			}
			if sniffBinary(abs) {
				continue
			}
			out = append(out, abs)
		}
	}
	return out, nil
}

func loadIgnore(path string) *gitignore.GitIgnore {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	ign, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return ign
}

func matchesAny(rules []*gitignore.GitIgnore, relPath string) bool {
	for _, r := range rules {
		if r.MatchesPath(relPath) {
			return true
		}
	}
	return false
}
