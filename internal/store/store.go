package store

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gigstack/setlistgo/internal/gateway"
	"github.com/gigstack/setlistgo/internal/models"
	"github.com/gigstack/setlistgo/internal/reconcile"
)

// Remote is the set of gateway operations the store depends on.
type Remote interface {
	FetchSongs(ctx context.Context) ([]models.Song, error)
	SaveSong(ctx context.Context, song models.Song, mode gateway.Mode) (*gateway.SongSave, error)
	DeleteSong(ctx context.Context, id string) error
	FetchSetlists(ctx context.Context) ([]models.Setlist, error)
	SaveSetlist(ctx context.Context, setlist models.Setlist, mode gateway.Mode) (*gateway.SetlistSave, error)
	DeleteSetlist(ctx context.Context, id string) error
	AddItem(ctx context.Context, setlistID string, item models.SetlistItem) (*gateway.ItemsSave, error)
	SyncItems(ctx context.Context, setlistID string, items []models.SetlistItem) (*gateway.ItemsSave, error)
}

// Store holds the session's working copy of songs and setlists. Mutations
// apply locally first, then go to the remote; background refreshes merge
// back in without discarding unsaved edits.
//
// Per setlist the store keeps two views: the last-confirmed item collection
// inside the setlist itself, and an optional pending overlay of in-progress
// local edits. The overlay acts as an advisory lock: while it exists, a
// refresh updates the confirmed view only and the visible list keeps
// showing the overlay. Two mutations that both bypass the overlay can still
// race; that limitation is accepted rather than papered over with a queue.
type Store struct {
	mu sync.RWMutex

	remote    Remote
	confirmer *reconcile.Confirmer

	songs    []models.Song
	setlists []models.Setlist

	// pending overlays by setlist id
	pending map[string][]models.SetlistItem

	subscribers []func(models.ChangeEvent)
	loadedAt    time.Time
}

// New creates a store over the given remote.
func New(remote Remote, confirmer *reconcile.Confirmer) *Store {
	return &Store{
		remote:    remote,
		confirmer: confirmer,
		pending:   make(map[string][]models.SetlistItem),
	}
}

// Subscribe registers a callback invoked after every commit point. The
// callback runs on the mutating goroutine and must not block.
func (s *Store) Subscribe(fn func(models.ChangeEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) notify(kind models.ChangeKind, entityID, op string) {
	s.mu.RLock()
	subs := make([]func(models.ChangeEvent), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.RUnlock()

	ev := models.ChangeEvent{Kind: kind, EntityID: entityID, Operation: op, Timestamp: time.Now()}
	for _, fn := range subs {
		fn(ev)
	}
}

// Load pulls both collections from the remote and replaces local state.
func (s *Store) Load(ctx context.Context) error {
	songs, err := s.remote.FetchSongs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load songs: %w", err)
	}
	setlists, err := s.remote.FetchSetlists(ctx)
	if err != nil {
		return fmt.Errorf("failed to load setlists: %w", err)
	}

	s.mu.Lock()
	s.songs = songs
	s.setlists = setlists
	s.pending = make(map[string][]models.SetlistItem)
	s.loadedAt = time.Now()
	s.mu.Unlock()

	log.Printf("📥 Loaded %d songs, %d setlists", len(songs), len(setlists))
	s.notify(models.ChangeSongs, "", "refresh")
	s.notify(models.ChangeSetlists, "", "refresh")
	return nil
}

// Songs returns a copy of the current song collection.
func (s *Store) Songs() []models.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Song, len(s.songs))
	copy(out, s.songs)
	return out
}

// Setlists returns a copy of the current setlists with visible item lists:
// the pending overlay where one exists, the confirmed view otherwise.
func (s *Store) Setlists() []models.Setlist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Setlist, len(s.setlists))
	for i, sl := range s.setlists {
		out[i] = sl
		if overlay, ok := s.pending[sl.ID]; ok {
			out[i].Items = models.CloneItems(overlay)
		} else {
			out[i].Items = models.CloneItems(sl.Items)
		}
	}
	return out
}

// VisibleItems returns the item list the user should see for a setlist.
func (s *Store) VisibleItems(setlistID string) ([]models.SetlistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if overlay, ok := s.pending[setlistID]; ok {
		return models.CloneItems(overlay), nil
	}
	idx := s.setlistIndex(setlistID)
	if idx < 0 {
		return nil, &NotFoundError{Kind: "setlist", ID: setlistID}
	}
	return models.CloneItems(s.setlists[idx].Items), nil
}

// ConfirmedItems returns the last-confirmed item view for a setlist.
func (s *Store) ConfirmedItems(setlistID string) ([]models.SetlistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.setlistIndex(setlistID)
	if idx < 0 {
		return nil, &NotFoundError{Kind: "setlist", ID: setlistID}
	}
	return models.CloneItems(s.setlists[idx].Items), nil
}

// HasPendingEdits reports whether a pending overlay exists for a setlist.
func (s *Store) HasPendingEdits(setlistID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pending[setlistID]
	return ok
}

// Status returns a snapshot of the store for diagnostics.
func (s *Store) Status() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	unconfirmed := 0
	for _, song := range s.songs {
		if song.Unconfirmed {
			unconfirmed++
		}
	}
	for _, sl := range s.setlists {
		if sl.Unconfirmed {
			unconfirmed++
		}
	}
	editing := make([]string, 0, len(s.pending))
	for id := range s.pending {
		editing = append(editing, id)
	}

	return map[string]interface{}{
		"songs":         len(s.songs),
		"setlists":      len(s.setlists),
		"unconfirmed":   unconfirmed,
		"pending_edits": editing,
		"loaded_at":     s.loadedAt,
	}
}

// refreshAll is the post-write re-fetch every successful mutation triggers.
// Both collections are re-read and merged: confirmed views are replaced
// unconditionally, pending overlays stay untouched, and unconfirmed local
// records the remote does not know yet are preserved.
func (s *Store) refreshAll(ctx context.Context) error {
	songs, err := s.remote.FetchSongs(ctx)
	if err != nil {
		return fmt.Errorf("background refresh of songs failed: %w", err)
	}
	setlists, err := s.remote.FetchSetlists(ctx)
	if err != nil {
		return fmt.Errorf("background refresh of setlists failed: %w", err)
	}

	s.mu.Lock()
	s.songs = s.mergeSongsLocked(songs)
	s.setlists = s.mergeSetlistsLocked(setlists)
	s.mu.Unlock()

	s.notify(models.ChangeSongs, "", "refresh")
	s.notify(models.ChangeSetlists, "", "refresh")
	return nil
}

// mergeSongsLocked keeps locally unconfirmed songs the refreshed collection
// does not contain. Caller holds the write lock.
func (s *Store) mergeSongsLocked(fresh []models.Song) []models.Song {
	merged := fresh
	for _, local := range s.songs {
		if !local.Unconfirmed {
			continue
		}
		present := false
		for _, remote := range fresh {
			if remote.ID == local.ID || remote.MatchesTitleArtist(local) {
				present = true
				break
			}
		}
		if !present {
			merged = append(merged, local)
		}
	}
	return merged
}

// mergeSetlistsLocked replaces confirmed views with the refreshed
// collection, keeping unconfirmed local setlists and any setlist that is
// mid-edit but missing remotely so its visible list does not vanish.
// Caller holds the write lock.
func (s *Store) mergeSetlistsLocked(fresh []models.Setlist) []models.Setlist {
	merged := fresh
	for _, local := range s.setlists {
		_, editing := s.pending[local.ID]
		if !local.Unconfirmed && !editing {
			continue
		}
		present := false
		for _, remote := range fresh {
			if remote.ID == local.ID || remote.MatchesName(local) {
				present = true
				break
			}
		}
		if !present {
			merged = append(merged, local)
		}
	}
	return merged
}

func (s *Store) setlistIndex(id string) int {
	for i, sl := range s.setlists {
		if sl.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) songIndex(id string) int {
	for i, song := range s.songs {
		if song.ID == id {
			return i
		}
	}
	return -1
}
