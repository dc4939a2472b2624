package models

// SetlistItem is one slot in a setlist. Items only exist inside their
// parent setlist; the remote never updates them independently.
type SetlistItem struct {
	ID             string `json:"id"`
	SongID         string `json:"songId"`
	Position       int    `json:"position"`
	KeyOverride    string `json:"keyOverride,omitempty"`
	SingerOverride string `json:"singerOverride,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// Setlist is an ordered playlist of setlist items. Date is ISO YYYY-MM-DD
// after normalization.
type Setlist struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Venue string        `json:"venue,omitempty"`
	City  string        `json:"city,omitempty"`
	Date  string        `json:"date,omitempty"`
	Notes string        `json:"notes,omitempty"`
	Items []SetlistItem `json:"items"`

	Unconfirmed bool `json:"-"`
}

// MatchesName reports whether two setlists refer to the same logical record
// by name equality. Used when an id lookup fails right after creation,
// because the remote may assign an identifier different from the one the
// client proposed.
func (s Setlist) MatchesName(other Setlist) bool {
	return s.Name != "" && s.Name == other.Name
}

// Resequence rewrites item positions to 0..n-1 in slice order.
func Resequence(items []SetlistItem) []SetlistItem {
	out := make([]SetlistItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].Position = i
	}
	return out
}

// CloneItems returns a defensive copy of an item slice.
func CloneItems(items []SetlistItem) []SetlistItem {
	if items == nil {
		return nil
	}
	out := make([]SetlistItem, len(items))
	copy(out, items)
	return out
}
