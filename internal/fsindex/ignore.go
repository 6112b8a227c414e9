package fsindex

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// ignoreMatcher is the subset of *gitignore.GitIgnore we depend on, kept as
// an interface so rule{} doesn't leak the third-party type everywhere.
type ignoreMatcher interface {
	MatchesPath(string) bool
}

// readIgnoreLines reads non-empty, non-comment lines from an ignore-style
// file. Missing files yield nil, not an error - absence just means no rules.
func readIgnoreLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var lines []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func compileIgnoreLines(lines []string) ignoreMatcher {
	if len(lines) == 0 {
		return nil
	}
	return gitignore.CompileIgnoreLines(lines...)
}

func normalizeSlash(p string) string { return strings.ReplaceAll(p, string(filepath.Separator), "/") }

// GlobalGitignorePath resolves git's core.excludesFile default location,
// honoring XDG_CONFIG_HOME the way git itself does when no gitconfig
// override is present. Best-effort: callers treat a missing file as "no
// global rules" rather than an error.
func GlobalGitignorePath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "git", "ignore")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "git", "ignore")
}

// ignoredByRules evaluates a root-to-leaf chain of gitignore rule sets
// against relPath (relative to root, '/'-separated) and returns whether any
// rule in the chain ignores it. Each rule is evaluated against the path
// relative to its own base directory, matching the semantics of nested
// .gitignore files.
func ignoredByRules(rules []rule, relPath string) bool {
	if len(rules) == 0 {
		return false
	}
	relNorm := normalizeSlash(relPath)
	ignored := false
	for _, r := range rules {
		if r.ign == nil {
			continue
		}
		var p string
		if r.baseRel == "." {
			p = relNorm
		} else {
			p = normalizeSlash(strings.TrimPrefix(relNorm, normalizeSlash(r.baseRel)+"/"))
		}
		if p == "" {
			continue
		}
		if r.ign.MatchesPath(p) {
			ignored = true
		}
	}
	return ignored
}
