package fsindex

import "github.com/bmatcuk/doublestar/v4"

// doublestarMatch reports whether relPath (always '/'-separated) matches
// pattern under doublestar's '**' semantics.
func doublestarMatch(pattern, relPath string) (bool, error) {
	return doublestar.Match(pattern, relPath)
}

func doublestarValidate(pattern string) error {
	_, err := doublestar.Match(pattern, "")
	return err
}
