// Package coverage holds the value types that make up a coverage report:
// hit/miss records, per line, per function and per branch details, and the
// summaries that group them for a single source file.
//
// All types are values. Combine and Clone never share maps with their inputs,
// so a combined or cloned value can be kept while the originals keep changing.
package coverage

import "errors"

// ErrInvalidArgument is returned when a detail is mutated with a negative
// branch number or execution count.
var ErrInvalidArgument = errors.New("illegal argument")

// Cloneable is implemented by values that can produce a deep copy of
// themselves.
type Cloneable[T any] interface {
	// Clone returns a copy that shares no references with the receiver.
	Clone() T
}

// Combinable is implemented by values that can be merged with another value
// of the same type.
type Combinable[T any] interface {
	// Combine merges other into a new value. Neither input is modified and
	// the result shares no references with them.
	Combine(other T) T
}
