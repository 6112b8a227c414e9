// Package fserrors defines the tagged error taxonomy shared by fsindex's
// core packages (fsindex, grep, atomicfile, batchio, facade).
package fserrors

import "fmt"

// Kind discriminates the category of a fsindex error.
type Kind int

const (
	KindIO Kind = iota
	KindPathNotFound
	KindPattern
	KindTextNotUnique
	KindTextNotFound
	KindIndexNotReady
	KindGlob
	KindRegex
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindPathNotFound:
		return "path_not_found"
	case KindPattern:
		return "pattern"
	case KindTextNotUnique:
		return "text_not_unique"
	case KindTextNotFound:
		return "text_not_found"
	case KindIndexNotReady:
		return "index_not_ready"
	case KindGlob:
		return "glob"
	case KindRegex:
		return "regex"
	default:
		return "internal"
	}
}

// Error is the concrete error type returned by fsindex's core. N carries the
// occurrence count for KindTextNotUnique; Err carries an underlying cause
// when one exists (wrapped, so errors.Is/As still sees through it).
type Error struct {
	Kind Kind
	Msg  string
	N    int
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTextNotUnique:
		return fmt.Sprintf("text not unique in file: found %d occurrences", e.N)
	case KindTextNotFound:
		return "text not found in file"
	case KindIndexNotReady:
		return "index is still building, please wait"
	default:
		if e.Msg != "" {
			return e.Msg
		}
		if e.Err != nil {
			return e.Err.Error()
		}
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match two *Error values purely by Kind, so callers can
// write errors.Is(err, fserrors.ErrIndexNotReady) without caring about Msg.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

func Wrap(kind Kind, err error) *Error { return &Error{Kind: kind, Err: err} }

func IO(err error) *Error { return Wrap(KindIO, err) }

func PathNotFound(path string) *Error {
	return &Error{Kind: KindPathNotFound, Msg: fmt.Sprintf("path not found: %s", path)}
}

func Pattern(msg string) *Error { return &Error{Kind: KindPattern, Msg: msg} }

func TextNotUnique(n int) *Error { return &Error{Kind: KindTextNotUnique, N: n} }

func Internal(msg string) *Error { return &Error{Kind: KindInternal, Msg: msg} }

// Sentinels for errors.Is comparisons against fixed conditions.
var (
	ErrTextNotFound  = &Error{Kind: KindTextNotFound}
	ErrIndexNotReady = &Error{Kind: KindIndexNotReady}
)
