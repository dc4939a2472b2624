package store

import "fmt"

// NotFoundError means an operation referenced a song or setlist id that is
// not present in local state. The operation aborts before any network call.
type NotFoundError struct {
	Kind string // "song" or "setlist"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found in local state", e.Kind, e.ID)
}
