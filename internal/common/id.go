package common

import (
	"github.com/google/uuid"
)

// NewLoadID generates a unique load record ID with the "load_" prefix.
// Uses UUIDv7 so IDs sort by creation time; hunt floor comparisons rely on
// this ordering.
func NewLoadID() string {
	return "load_" + uuid.Must(uuid.NewV7()).String()
}

// NewMatchID generates a unique match event ID with the "match_" prefix
func NewMatchID() string {
	return "match_" + uuid.New().String()
}
