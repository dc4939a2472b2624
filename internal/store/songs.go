package store

import (
	"context"
	"fmt"

	"github.com/gigstack/setlistgo/internal/gateway"
	"github.com/gigstack/setlistgo/internal/models"
	"github.com/gigstack/setlistgo/internal/reconcile"
)

// CreateSong inserts a song optimistically under a provisional id, writes
// it to the remote, and reconciles the identifier once the write is
// observable. The returned song carries the settled id on confirmation, or
// the submitted data flagged unconfirmed when polling gave up.
func (s *Store) CreateSong(ctx context.Context, song models.Song) (models.Song, error) {
	if song.Title == "" {
		return models.Song{}, fmt.Errorf("song title is required")
	}

	s.mu.Lock()
	song.ID = reconcile.NextSongID(s.songs)
	song.Unconfirmed = true
	s.songs = append(s.songs, song)
	s.mu.Unlock()
	s.notify(models.ChangeSongs, song.ID, "create")

	res, err := s.remote.SaveSong(ctx, song, gateway.ModeCreate)
	if err != nil {
		// Optimistic insert stays in place; the caller reports the failure.
		return song, err
	}

	final := song
	if res.Accepted {
		outcome := s.confirmer.ConfirmSong(ctx, s.remote.FetchSongs, song, reconcile.OpCreate)
		final = outcome.Song
	} else if found, ok := reconcile.LocateSong(res.Songs, song, reconcile.OpCreate); ok {
		final = found
	} else {
		final.Unconfirmed = false
	}

	s.adoptSong(song.ID, final)
	s.notify(models.ChangeSongs, final.ID, "update")

	if err := s.refreshAll(ctx); err != nil {
		return final, err
	}
	return final, nil
}

// UpdateSong writes changed song fields. The song must already exist in
// local state.
func (s *Store) UpdateSong(ctx context.Context, song models.Song) (models.Song, error) {
	s.mu.Lock()
	idx := s.songIndex(song.ID)
	if idx < 0 {
		s.mu.Unlock()
		return models.Song{}, &NotFoundError{Kind: "song", ID: song.ID}
	}
	s.songs[idx] = song
	s.mu.Unlock()
	s.notify(models.ChangeSongs, song.ID, "update")

	res, err := s.remote.SaveSong(ctx, song, gateway.ModeUpdate)
	if err != nil {
		return song, err
	}

	final := song
	if res.Accepted {
		outcome := s.confirmer.ConfirmSong(ctx, s.remote.FetchSongs, song, reconcile.OpUpdate)
		final = outcome.Song
	} else if found, ok := reconcile.LocateSong(res.Songs, song, reconcile.OpUpdate); ok {
		final = found
	}

	s.adoptSong(song.ID, final)

	if err := s.refreshAll(ctx); err != nil {
		return final, err
	}
	return final, nil
}

// DeleteSong removes a song and cascades: every setlist's confirmed and
// pending item views drop items referencing it, with positions
// re-sequenced contiguously.
func (s *Store) DeleteSong(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.songIndex(id)
	if idx < 0 {
		s.mu.Unlock()
		return &NotFoundError{Kind: "song", ID: id}
	}
	s.songs = append(s.songs[:idx], s.songs[idx+1:]...)
	for i := range s.setlists {
		s.setlists[i].Items = dropSongRefs(s.setlists[i].Items, id)
	}
	for key, overlay := range s.pending {
		s.pending[key] = dropSongRefs(overlay, id)
	}
	s.mu.Unlock()
	s.notify(models.ChangeSongs, id, "delete")
	s.notify(models.ChangeSetlistItems, "", "cascade")

	if err := s.remote.DeleteSong(ctx, id); err != nil {
		return err
	}
	return s.refreshAll(ctx)
}

// adoptSong replaces the optimistic entry under provisionalID with the
// reconciled record.
func (s *Store) adoptSong(provisionalID string, final models.Song) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.songIndex(provisionalID)
	if idx < 0 {
		// Refreshed away in the meantime; re-append so the record is not lost.
		s.songs = append(s.songs, final)
		return
	}
	s.songs[idx] = final
}

func dropSongRefs(items []models.SetlistItem, songID string) []models.SetlistItem {
	kept := make([]models.SetlistItem, 0, len(items))
	for _, item := range items {
		if item.SongID != songID {
			kept = append(kept, item)
		}
	}
	return models.Resequence(kept)
}
