package store

import (
	"context"
	"fmt"

	"github.com/gigstack/setlistgo/internal/gateway"
	"github.com/gigstack/setlistgo/internal/models"
	"github.com/gigstack/setlistgo/internal/reconcile"
)

// CreateSetlist inserts a setlist optimistically under a provisional id.
// After an asynchronous acceptance the confirmation poll falls back to name
// equality: the id the remote links items under is not guaranteed to be the
// one the client proposed.
func (s *Store) CreateSetlist(ctx context.Context, setlist models.Setlist) (models.Setlist, error) {
	if setlist.Name == "" {
		return models.Setlist{}, fmt.Errorf("setlist name is required")
	}

	s.mu.Lock()
	setlist.ID = reconcile.NextSetlistID(s.setlists)
	setlist.Items = models.Resequence(setlist.Items)
	setlist.Unconfirmed = true
	s.setlists = append(s.setlists, setlist)
	s.mu.Unlock()
	s.notify(models.ChangeSetlists, setlist.ID, "create")

	res, err := s.remote.SaveSetlist(ctx, setlist, gateway.ModeCreate)
	if err != nil {
		return setlist, err
	}

	final := setlist
	if res.Accepted {
		outcome := s.confirmer.ConfirmSetlist(ctx, s.remote.FetchSetlists, setlist, reconcile.OpCreate)
		final = outcome.Setlist
	} else if found, ok := reconcile.LocateSetlist(res.Setlists, setlist, reconcile.OpCreate); ok {
		final = found
	} else {
		final.Unconfirmed = false
	}

	s.adoptSetlist(setlist.ID, final)
	s.notify(models.ChangeSetlists, final.ID, "update")

	if err := s.refreshAll(ctx); err != nil {
		return final, err
	}
	return final, nil
}

// UpdateSetlist writes changed setlist metadata. The confirmed item view is
// preserved; items change only through AddItem and SaveItems.
func (s *Store) UpdateSetlist(ctx context.Context, setlist models.Setlist) (models.Setlist, error) {
	s.mu.Lock()
	idx := s.setlistIndex(setlist.ID)
	if idx < 0 {
		s.mu.Unlock()
		return models.Setlist{}, &NotFoundError{Kind: "setlist", ID: setlist.ID}
	}
	setlist.Items = s.setlists[idx].Items
	s.setlists[idx] = setlist
	s.mu.Unlock()
	s.notify(models.ChangeSetlists, setlist.ID, "update")

	res, err := s.remote.SaveSetlist(ctx, setlist, gateway.ModeUpdate)
	if err != nil {
		return setlist, err
	}

	final := setlist
	if res.Accepted {
		outcome := s.confirmer.ConfirmSetlist(ctx, s.remote.FetchSetlists, setlist, reconcile.OpUpdate)
		final = outcome.Setlist
	} else if found, ok := reconcile.LocateSetlist(res.Setlists, setlist, reconcile.OpUpdate); ok {
		final = found
	}

	s.adoptSetlist(setlist.ID, final)

	if err := s.refreshAll(ctx); err != nil {
		return final, err
	}
	return final, nil
}

// DeleteSetlist removes a setlist and any pending overlay it had.
func (s *Store) DeleteSetlist(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.setlistIndex(id)
	if idx < 0 {
		s.mu.Unlock()
		return &NotFoundError{Kind: "setlist", ID: id}
	}
	s.setlists = append(s.setlists[:idx], s.setlists[idx+1:]...)
	delete(s.pending, id)
	s.mu.Unlock()
	s.notify(models.ChangeSetlists, id, "delete")

	if err := s.remote.DeleteSetlist(ctx, id); err != nil {
		return err
	}
	return s.refreshAll(ctx)
}

// AddItem appends one item to a setlist's confirmed view and sends it to
// the remote. The referenced song must exist locally.
func (s *Store) AddItem(ctx context.Context, setlistID string, item models.SetlistItem) (models.SetlistItem, error) {
	s.mu.Lock()
	idx := s.setlistIndex(setlistID)
	if idx < 0 {
		s.mu.Unlock()
		return models.SetlistItem{}, &NotFoundError{Kind: "setlist", ID: setlistID}
	}
	if s.songIndex(item.SongID) < 0 {
		s.mu.Unlock()
		return models.SetlistItem{}, &NotFoundError{Kind: "song", ID: item.SongID}
	}
	item.ID = reconcile.NextItemID(s.setlists)
	item.Position = len(s.setlists[idx].Items)
	s.setlists[idx].Items = models.Resequence(append(s.setlists[idx].Items, item))
	name := s.setlists[idx].Name
	s.mu.Unlock()
	s.notify(models.ChangeSetlistItems, setlistID, "add_item")

	res, err := s.remote.AddItem(ctx, setlistID, item)
	if err != nil {
		return item, err
	}

	if res.Accepted {
		probe := models.Setlist{ID: setlistID, Name: name}
		outcome := s.confirmer.ConfirmSetlist(ctx, s.remote.FetchSetlists, probe, reconcile.OpUpdate)
		if outcome.State == reconcile.StateConfirmed {
			s.setConfirmedItems(setlistID, outcome.Setlist.Items)
		}
	} else if len(res.Items) > 0 {
		s.setConfirmedItems(setlistID, res.Items)
	}

	if err := s.refreshAll(ctx); err != nil {
		return item, err
	}
	return item, nil
}

// StageItems installs a pending overlay for a setlist: the in-progress,
// unsaved item list the user is editing. No network call happens until
// SaveItems.
func (s *Store) StageItems(setlistID string, items []models.SetlistItem) error {
	s.mu.Lock()
	if s.setlistIndex(setlistID) < 0 {
		s.mu.Unlock()
		return &NotFoundError{Kind: "setlist", ID: setlistID}
	}
	s.pending[setlistID] = models.CloneItems(items)
	s.mu.Unlock()
	s.notify(models.ChangeSetlistItems, setlistID, "stage_items")
	return nil
}

// SaveItems sends a setlist's pending overlay via sync-items, clears the
// overlay, and accepts the next refresh. On transport failure the overlay
// stays so the user's work is not lost.
func (s *Store) SaveItems(ctx context.Context, setlistID string) ([]models.SetlistItem, error) {
	s.mu.Lock()
	idx := s.setlistIndex(setlistID)
	if idx < 0 {
		s.mu.Unlock()
		return nil, &NotFoundError{Kind: "setlist", ID: setlistID}
	}
	overlay, ok := s.pending[setlistID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("setlist %s has no pending edits", setlistID)
	}
	name := s.setlists[idx].Name
	overlay = models.CloneItems(overlay)
	s.mu.Unlock()

	res, err := s.remote.SyncItems(ctx, setlistID, overlay)
	if err != nil {
		return nil, err
	}

	confirmed := models.Resequence(overlay)
	if res.Accepted {
		probe := models.Setlist{ID: setlistID, Name: name}
		outcome := s.confirmer.ConfirmSetlist(ctx, s.remote.FetchSetlists, probe, reconcile.OpUpdate)
		if outcome.State == reconcile.StateConfirmed {
			confirmed = models.Resequence(outcome.Setlist.Items)
		}
	} else if len(res.Items) > 0 {
		confirmed = models.Resequence(res.Items)
	}

	s.mu.Lock()
	delete(s.pending, setlistID)
	s.mu.Unlock()
	s.setConfirmedItems(setlistID, confirmed)
	s.notify(models.ChangeSetlistItems, setlistID, "save_items")

	if err := s.refreshAll(ctx); err != nil {
		return confirmed, err
	}
	return confirmed, nil
}

// CancelItems discards a setlist's pending overlay and restores the
// last-confirmed view.
func (s *Store) CancelItems(setlistID string) ([]models.SetlistItem, error) {
	s.mu.Lock()
	idx := s.setlistIndex(setlistID)
	if idx < 0 {
		s.mu.Unlock()
		return nil, &NotFoundError{Kind: "setlist", ID: setlistID}
	}
	delete(s.pending, setlistID)
	confirmed := models.CloneItems(s.setlists[idx].Items)
	s.mu.Unlock()
	s.notify(models.ChangeSetlistItems, setlistID, "cancel_items")
	return confirmed, nil
}

// adoptSetlist replaces the optimistic entry under provisionalID with the
// reconciled record, moving any pending overlay to the settled id.
func (s *Store) adoptSetlist(provisionalID string, final models.Setlist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.setlistIndex(provisionalID)
	if idx < 0 {
		s.setlists = append(s.setlists, final)
	} else {
		s.setlists[idx] = final
	}
	if final.ID != provisionalID {
		if overlay, ok := s.pending[provisionalID]; ok {
			s.pending[final.ID] = overlay
			delete(s.pending, provisionalID)
		}
	}
}

// setConfirmedItems replaces a setlist's confirmed item view.
func (s *Store) setConfirmedItems(setlistID string, items []models.SetlistItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.setlistIndex(setlistID)
	if idx < 0 {
		return
	}
	s.setlists[idx].Items = models.CloneItems(items)
}
