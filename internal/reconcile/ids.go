package reconcile

import (
	"strconv"

	"github.com/gigstack/setlistgo/internal/models"
)

// NextID proposes a provisional identifier: the maximum parseable integer
// id in the known collection plus one, as a string. A best-effort
// convenience only; uniqueness is established once the remote commits the
// record and a later read is reconciled against it. Two proposals made
// before either write confirms can collide.
func NextID(ids []string) string {
	max := 0
	for _, id := range ids {
		if n, err := strconv.Atoi(id); err == nil && n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1)
}

// NextSongID proposes an id for a new song.
func NextSongID(songs []models.Song) string {
	ids := make([]string, 0, len(songs))
	for _, s := range songs {
		ids = append(ids, s.ID)
	}
	return NextID(ids)
}

// NextSetlistID proposes an id for a new setlist.
func NextSetlistID(setlists []models.Setlist) string {
	ids := make([]string, 0, len(setlists))
	for _, s := range setlists {
		ids = append(ids, s.ID)
	}
	return NextID(ids)
}

// NextItemID proposes an id for a new setlist item. Item identifiers are
// drawn from one global space, so every item across every known setlist
// participates in the scan.
func NextItemID(setlists []models.Setlist) string {
	var ids []string
	for _, sl := range setlists {
		for _, item := range sl.Items {
			ids = append(ids, item.ID)
		}
	}
	return NextID(ids)
}
