package pysource

import "errors"

var (
	// ErrNotFound indicates a module file or member does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotContainer indicates a member lookup on an object that has no members.
	ErrNotContainer = errors.New("object has no members")

	// ErrAliasCycle indicates an import alias that resolves back to itself.
	ErrAliasCycle = errors.New("import alias cycle")
)

// IsMiss reports whether err is an ordinary lookup miss rather than an
// unexpected failure.
func IsMiss(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotContainer)
}
