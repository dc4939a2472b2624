package models

import "time"

// ChangeKind identifies what part of the store changed
type ChangeKind string

const (
	ChangeSongs        ChangeKind = "songs"
	ChangeSetlists     ChangeKind = "setlists"
	ChangeSetlistItems ChangeKind = "setlist_items"
)

// ChangeEvent is published to store subscribers after a commit point
type ChangeEvent struct {
	Kind      ChangeKind `json:"kind"`
	EntityID  string     `json:"entityId,omitempty"`
	Operation string     `json:"operation"` // create, update, delete, refresh, save_items, cancel_items
	Timestamp time.Time  `json:"timestamp"`
}
