package models

// Song is a reusable song record. The ID is opaque: it may be a small
// integer rendered as text, or a generated surrogate when the remote never
// assigned one.
type Song struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
	Singer string `json:"singer,omitempty"`
	Key    string `json:"key,omitempty"`
	Tempo  string `json:"tempo,omitempty"`
	Notes  string `json:"notes,omitempty"`

	// Unconfirmed marks a record built from locally submitted data after
	// confirmation polling gave up. Not authoritative, never serialized.
	Unconfirmed bool `json:"-"`
}

// MatchesTitleArtist reports whether two songs refer to the same logical
// record by the (title, artist) fallback rule: titles equal, and artist
// either present and equal on both sides or absent on both sides. A
// present/absent mismatch is never a match.
func (s Song) MatchesTitleArtist(other Song) bool {
	if s.Title == "" || other.Title == "" || s.Title != other.Title {
		return false
	}
	if (s.Artist == "") != (other.Artist == "") {
		return false
	}
	return s.Artist == other.Artist
}
