package cache

import (
	"errors"
	"io/fs"
)

// Kind classifies what a cache load produced.
type Kind int

const (
	// Absent means there is nothing usable: the file is missing or corrupt.
	Absent Kind = iota
	// Stale means a value was read but must not be used as is.
	Stale
	// Fresh means the value can be used without a network round-trip.
	Fresh
)

func (k Kind) String() string {
	switch k {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "absent"
	}
}

// State is the outcome of loading one cache file. Reason explains why a
// state is not Fresh.
type State[T any] struct {
	Kind   Kind
	Value  T
	Reason error
}

// FreshState wraps a usable value.
func FreshState[T any](v T) State[T] {
	return State[T]{Kind: Fresh, Value: v}
}

// StaleState wraps a value that was read but is no longer usable.
func StaleState[T any](v T, reason error) State[T] {
	return State[T]{Kind: Stale, Value: v, Reason: reason}
}

// AbsentState records why nothing could be read.
func AbsentState[T any](reason error) State[T] {
	return State[T]{Kind: Absent, Reason: reason}
}

// IsFresh reports whether the value can be used.
func (s State[T]) IsFresh() bool {
	return s.Kind == Fresh
}

// Missing reports whether the state is absent because the file does not exist,
// as opposed to a file that could not be read or parsed.
func (s State[T]) Missing() bool {
	return s.Kind == Absent && errors.Is(s.Reason, fs.ErrNotExist)
}

// Corrupt reports whether the state is absent because the file could not be
// read or parsed.
func (s State[T]) Corrupt() bool {
	return s.Kind == Absent && s.Reason != nil && !s.Missing()
}
