package normalize

import (
	"github.com/google/uuid"

	"github.com/gigstack/setlistgo/internal/models"
)

// Alias lists tried in priority order during per-element field extraction.
// The remote has drifted through several field spellings over time; the
// first present alias wins.
var (
	songIDAliases     = []string{"id", "songId", "song_id"}
	songTitleAliases  = []string{"title", "name", "songTitle"}
	songArtistAliases = []string{"artist", "artistName", "artist_name"}
	songSingerAliases = []string{"singer", "vocalist", "vocals"}
	songKeyAliases    = []string{"key", "songKey", "song_key"}
	songTempoAliases  = []string{"tempo", "bpm"}
	songNotesAliases  = []string{"notes", "note", "comments"}
)

// Songs converts an arbitrary decoded JSON value into canonical songs.
// Tolerant of every documented shape; elements that are not objects or
// carry no title are excluded rather than failing the whole payload.
// Elements without an identifier receive a generated placeholder that is
// never reused and never assumed stable across calls.
func Songs(v interface{}) []models.Song {
	elements, _ := Collection(v, "songs")
	out := make([]models.Song, 0, len(elements))
	for _, el := range elements {
		m, ok := el.(map[string]interface{})
		if !ok {
			continue
		}
		title, ok := stringField(m, songTitleAliases...)
		if !ok {
			continue
		}
		song := models.Song{Title: title}
		if id, ok := stringField(m, songIDAliases...); ok {
			song.ID = id
		} else {
			song.ID = placeholderID()
		}
		song.Artist, _ = stringField(m, songArtistAliases...)
		song.Singer, _ = stringField(m, songSingerAliases...)
		song.Key, _ = stringField(m, songKeyAliases...)
		song.Tempo, _ = stringField(m, songTempoAliases...)
		song.Notes, _ = stringField(m, songNotesAliases...)
		out = append(out, song)
	}
	return out
}

// placeholderID generates a locally unique surrogate identifier for an
// element the remote returned without one.
func placeholderID() string {
	return "local-" + uuid.NewString()
}
