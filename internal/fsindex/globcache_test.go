package fsindex

import (
	"fmt"
	"testing"
)

func TestGlobCacheBounded(t *testing.T) {
	c := newGlobCache(4)
	for i := 0; i < 10; i++ {
		if _, err := c.compile(fmt.Sprintf("dir%d/*.go", i)); err != nil {
			t.Fatalf("compile: %v", err)
		}
	}

	c.mu.Lock()
	n := len(c.m)
	c.mu.Unlock()
	if n > 4 {
		t.Fatalf("cache exceeded capacity: %d entries", n)
	}
}

func TestGlobCacheHitReturnsEquivalentMatcher(t *testing.T) {
	c := newGlobCache(4)
	first, err := c.compile("src/*.go")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, err := c.compile("src/*.go")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	for _, p := range []string{"src/a.go", "src/a.txt", "other/a.go"} {
		if first.match(p) != second.match(p) {
			t.Fatalf("cached matcher disagrees with fresh one on %q", p)
		}
	}
}

func TestGlobCacheInvalidPattern(t *testing.T) {
	c := newGlobCache(4)
	if _, err := c.compile("[unclosed"); err == nil {
		t.Fatal("expected error for malformed pattern")
	}
}
