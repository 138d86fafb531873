package interfaces

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("not found")

	// ErrNoItems is returned by ClaimBatch when nothing is pending
	ErrNoItems = errors.New("no pending items")

	// ErrStructural is returned when a raw payload is missing expected
	// structure; such items fail fast and are never partially processed
	ErrStructural = errors.New("malformed payload structure")
)
