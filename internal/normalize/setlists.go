package normalize

import (
	"sort"

	"github.com/gigstack/setlistgo/internal/models"
)

var (
	setlistRowIDAliases = []string{"id"}
	// The identifier the remote uses to link items to a setlist. One of
	// these may carry a value different from the primary row id.
	setlistLinkIDAliases = []string{"setlistId", "setlist_id", "listId", "list_id"}
	setlistNameAliases   = []string{"name", "title", "setlistName"}
	setlistVenueAliases  = []string{"venue", "location"}
	setlistCityAliases   = []string{"city"}
	setlistDateAliases   = []string{"date", "showDate", "show_date"}
	setlistNotesAliases  = []string{"notes", "note"}

	// Nested item collections inside a setlist element.
	nestedItemKeys = []string{"items", "songs", "setlistSongs", "entries"}

	// The setlist-item song reference: four known spellings, tried in
	// order before the item is given up on.
	itemSongIDAliases   = []string{"songId", "song_id", "songID", "song"}
	itemIDAliases       = []string{"id", "itemId", "item_id"}
	itemPositionAliases = []string{"position", "pos", "order", "seq"}
	itemKeyAliases      = []string{"keyOverride", "key_override", "key"}
	itemSingerAliases   = []string{"singerOverride", "singer_override", "singer"}
	itemNotesAliases    = []string{"notes", "note"}
)

// Setlists converts an arbitrary decoded JSON value into canonical
// setlists. Item rows may arrive nested inside each setlist element or as a
// flat companion collection alongside the setlist rows; flat rows attach by
// the setlist's row id or its linking id.
func Setlists(v interface{}) []models.Setlist {
	elements, _ := Collection(v, "setlists")
	out := make([]models.Setlist, 0, len(elements))
	linkIDs := make([]string, 0, len(elements))

	for _, el := range elements {
		m, ok := el.(map[string]interface{})
		if !ok {
			continue
		}
		name, ok := stringField(m, setlistNameAliases...)
		if !ok {
			continue
		}
		sl := models.Setlist{Name: name}
		rowID, hasRowID := stringField(m, setlistRowIDAliases...)
		linkID, hasLinkID := stringField(m, setlistLinkIDAliases...)
		switch {
		case hasRowID:
			sl.ID = rowID
		case hasLinkID:
			sl.ID = linkID
		default:
			sl.ID = placeholderID()
		}
		sl.Venue, _ = stringField(m, setlistVenueAliases...)
		sl.City, _ = stringField(m, setlistCityAliases...)
		if date, ok := stringField(m, setlistDateAliases...); ok {
			sl.Date = NormalizeDate(date)
		}
		sl.Notes, _ = stringField(m, setlistNotesAliases...)
		sl.Items = nestedItems(m)

		out = append(out, sl)
		linkIDs = append(linkIDs, linkID)
	}

	attachFlatItems(v, out, linkIDs)
	for i := range out {
		sortByPosition(out[i].Items)
	}
	return out
}

// Items normalizes a standalone item collection, e.g. the reply to an
// add-item or sync-items call.
func Items(v interface{}) []models.SetlistItem {
	elements, _ := Collection(v, "items")
	out := make([]models.SetlistItem, 0, len(elements))
	for _, el := range elements {
		m, ok := el.(map[string]interface{})
		if !ok {
			continue
		}
		item, ok := parseItem(m, len(out))
		if !ok {
			continue
		}
		out = append(out, item)
	}
	sortByPosition(out)
	return out
}

// nestedItems extracts item rows embedded in a setlist element.
func nestedItems(m map[string]interface{}) []models.SetlistItem {
	for _, key := range nestedItemKeys {
		raw, ok := m[key]
		if !ok {
			continue
		}
		arr, ok := raw.([]interface{})
		if !ok {
			continue
		}
		out := make([]models.SetlistItem, 0, len(arr))
		for _, el := range arr {
			im, ok := el.(map[string]interface{})
			if !ok {
				continue
			}
			item, ok := parseItem(im, len(out))
			if !ok {
				continue
			}
			out = append(out, item)
		}
		return out
	}
	return nil
}

// attachFlatItems distributes a flat companion item collection across the
// normalized setlists. Rows that reference no known setlist are dropped.
func attachFlatItems(v interface{}, setlists []models.Setlist, linkIDs []string) {
	root, ok := v.(map[string]interface{})
	if !ok || len(setlists) == 0 {
		return
	}
	// Companion rows only occur next to an explicit setlists wrapper;
	// otherwise an item key may be the collection wrapper itself.
	if _, ok := root["setlists"]; !ok {
		return
	}
	var rows []interface{}
	for _, key := range nestedItemKeys {
		if arr, ok := root[key].([]interface{}); ok {
			rows = arr
			break
		}
	}
	for _, el := range rows {
		m, ok := el.(map[string]interface{})
		if !ok {
			continue
		}
		ref, ok := stringField(m, setlistLinkIDAliases...)
		if !ok {
			continue
		}
		for i := range setlists {
			if setlists[i].ID == ref || linkIDs[i] == ref {
				if item, ok := parseItem(m, len(setlists[i].Items)); ok {
					setlists[i].Items = append(setlists[i].Items, item)
				}
				break
			}
		}
	}
}

// parseItem builds a canonical setlist item. An element lacking any
// resolvable song reference is excluded from the result rather than
// surfacing corrupt state. fallbackPos is used when no position field
// parses.
func parseItem(m map[string]interface{}, fallbackPos int) (models.SetlistItem, bool) {
	songID, ok := songReference(m)
	if !ok {
		return models.SetlistItem{}, false
	}
	item := models.SetlistItem{SongID: songID}
	if id, ok := stringField(m, itemIDAliases...); ok {
		item.ID = id
	} else {
		item.ID = placeholderID()
	}
	if pos, ok := intField(m, itemPositionAliases...); ok {
		item.Position = pos
	} else {
		item.Position = fallbackPos
	}
	item.KeyOverride, _ = stringField(m, itemKeyAliases...)
	item.SingerOverride, _ = stringField(m, itemSingerAliases...)
	item.Notes, _ = stringField(m, itemNotesAliases...)
	return item, true
}

// songReference resolves the item's song foreign key. The "song" alias may
// hold a nested record instead of a scalar id.
func songReference(m map[string]interface{}) (string, bool) {
	if id, ok := stringField(m, itemSongIDAliases...); ok {
		return id, true
	}
	if nested, ok := m["song"].(map[string]interface{}); ok {
		return stringField(nested, songIDAliases...)
	}
	return "", false
}

func sortByPosition(items []models.SetlistItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Position < items[j].Position
	})
}
