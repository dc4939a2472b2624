package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gigstack/setlistgo/internal/gateway"
	"github.com/gigstack/setlistgo/internal/models"
	"github.com/gigstack/setlistgo/internal/reconcile"
)

// fakeRemote implements Remote in memory. Defaults commit writes
// immediately; individual operations can be overridden per test.
type fakeRemote struct {
	mu       sync.Mutex
	songs    []models.Song
	setlists []models.Setlist
	calls    map[string]int

	saveSongFn    func(models.Song, gateway.Mode) (*gateway.SongSave, error)
	saveSetlistFn func(models.Setlist, gateway.Mode) (*gateway.SetlistSave, error)
	syncItemsFn   func(string, []models.SetlistItem) (*gateway.ItemsSave, error)
	deleteSongFn  func(string) error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{calls: make(map[string]int)}
}

func (r *fakeRemote) count(op string) {
	r.mu.Lock()
	r.calls[op]++
	r.mu.Unlock()
}

func (r *fakeRemote) callCount(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func (r *fakeRemote) FetchSongs(ctx context.Context) ([]models.Song, error) {
	r.count("fetch_songs")
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Song, len(r.songs))
	copy(out, r.songs)
	return out, nil
}

func (r *fakeRemote) SaveSong(ctx context.Context, song models.Song, mode gateway.Mode) (*gateway.SongSave, error) {
	r.count("save_song")
	if r.saveSongFn != nil {
		return r.saveSongFn(song, mode)
	}
	song.Unconfirmed = false
	r.mu.Lock()
	replaced := false
	for i := range r.songs {
		if r.songs[i].ID == song.ID {
			r.songs[i] = song
			replaced = true
			break
		}
	}
	if !replaced {
		r.songs = append(r.songs, song)
	}
	r.mu.Unlock()
	return &gateway.SongSave{Songs: []models.Song{song}}, nil
}

func (r *fakeRemote) DeleteSong(ctx context.Context, id string) error {
	r.count("delete_song")
	if r.deleteSongFn != nil {
		return r.deleteSongFn(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.songs {
		if r.songs[i].ID == id {
			r.songs = append(r.songs[:i], r.songs[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeRemote) FetchSetlists(ctx context.Context) ([]models.Setlist, error) {
	r.count("fetch_setlists")
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Setlist, len(r.setlists))
	copy(out, r.setlists)
	return out, nil
}

func (r *fakeRemote) SaveSetlist(ctx context.Context, setlist models.Setlist, mode gateway.Mode) (*gateway.SetlistSave, error) {
	r.count("save_setlist")
	if r.saveSetlistFn != nil {
		return r.saveSetlistFn(setlist, mode)
	}
	setlist.Unconfirmed = false
	r.mu.Lock()
	replaced := false
	for i := range r.setlists {
		if r.setlists[i].ID == setlist.ID {
			r.setlists[i] = setlist
			replaced = true
			break
		}
	}
	if !replaced {
		r.setlists = append(r.setlists, setlist)
	}
	r.mu.Unlock()
	return &gateway.SetlistSave{Setlists: []models.Setlist{setlist}}, nil
}

func (r *fakeRemote) DeleteSetlist(ctx context.Context, id string) error {
	r.count("delete_setlist")
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.setlists {
		if r.setlists[i].ID == id {
			r.setlists = append(r.setlists[:i], r.setlists[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeRemote) AddItem(ctx context.Context, setlistID string, item models.SetlistItem) (*gateway.ItemsSave, error) {
	r.count("add_item")
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.setlists {
		if r.setlists[i].ID == setlistID {
			r.setlists[i].Items = models.Resequence(append(r.setlists[i].Items, item))
			return &gateway.ItemsSave{Items: models.CloneItems(r.setlists[i].Items)}, nil
		}
	}
	return &gateway.ItemsSave{Items: []models.SetlistItem{item}}, nil
}

func (r *fakeRemote) SyncItems(ctx context.Context, setlistID string, items []models.SetlistItem) (*gateway.ItemsSave, error) {
	r.count("sync_items")
	if r.syncItemsFn != nil {
		return r.syncItemsFn(setlistID, items)
	}
	synced := models.Resequence(items)
	r.mu.Lock()
	for i := range r.setlists {
		if r.setlists[i].ID == setlistID {
			r.setlists[i].Items = synced
			break
		}
	}
	r.mu.Unlock()
	return &gateway.ItemsSave{Items: models.CloneItems(synced)}, nil
}

type instantClock struct{}

func (instantClock) Sleep(d time.Duration) {}

func newTestStore(remote *fakeRemote) *Store {
	confirmer := reconcile.NewConfirmer(
		reconcile.Policy{Attempts: 3, Delay: time.Millisecond},
		reconcile.Policy{Attempts: 2, Delay: time.Millisecond},
		instantClock{},
	)
	return New(remote, confirmer)
}

func TestCreateSongImmediateCommit(t *testing.T) {
	remote := newFakeRemote()
	st := newTestStore(remote)

	song, err := st.CreateSong(context.Background(), models.Song{Title: "Wonderwall", Artist: "Oasis"})
	if err != nil {
		t.Fatalf("CreateSong failed: %v", err)
	}
	if song.Unconfirmed {
		t.Error("Committed song should not stay unconfirmed")
	}
	if song.ID != "1" {
		t.Errorf("Expected provisional id 1 settled, got %q", song.ID)
	}

	songs := st.Songs()
	if len(songs) != 1 || songs[0].Title != "Wonderwall" {
		t.Errorf("Unexpected collection: %+v", songs)
	}
}

func TestCreateSongRequiresTitle(t *testing.T) {
	remote := newFakeRemote()
	st := newTestStore(remote)

	if _, err := st.CreateSong(context.Background(), models.Song{Artist: "Oasis"}); err == nil {
		t.Fatal("Expected error for missing title")
	}
	if remote.callCount("save_song") != 0 {
		t.Error("Validation failure must not reach the network")
	}
}

func TestCreateSongAdoptsRemoteID(t *testing.T) {
	// The remote acknowledges asynchronously and commits the row under id
	// 42 instead of the proposed id. The settled record must carry 42.
	remote := newFakeRemote()
	remote.saveSongFn = func(song models.Song, mode gateway.Mode) (*gateway.SongSave, error) {
		remote.mu.Lock()
		remote.songs = append(remote.songs, models.Song{ID: "42", Title: song.Title, Artist: song.Artist})
		remote.mu.Unlock()
		return &gateway.SongSave{Accepted: true, Message: "Import started"}, nil
	}
	st := newTestStore(remote)

	song, err := st.CreateSong(context.Background(), models.Song{Title: "Wonderwall", Artist: "Oasis"})
	if err != nil {
		t.Fatalf("CreateSong failed: %v", err)
	}
	if song.ID != "42" {
		t.Errorf("Expected remote id 42 adopted, got %q", song.ID)
	}
	if song.Unconfirmed {
		t.Error("Confirmed song should not be flagged")
	}

	songs := st.Songs()
	if len(songs) != 1 || songs[0].ID != "42" {
		t.Errorf("Provisional entry not replaced: %+v", songs)
	}
}

func TestCreateSongExhaustionKeepsRecord(t *testing.T) {
	// The write is accepted but never becomes observable. The local record
	// survives flagged unconfirmed; exhaustion is degraded success, not an
	// error.
	remote := newFakeRemote()
	remote.saveSongFn = func(song models.Song, mode gateway.Mode) (*gateway.SongSave, error) {
		return &gateway.SongSave{Accepted: true, Message: "queued"}, nil
	}
	st := newTestStore(remote)

	song, err := st.CreateSong(context.Background(), models.Song{Title: "Ghost Song"})
	if err != nil {
		t.Fatalf("Exhaustion should not be an error: %v", err)
	}
	if !song.Unconfirmed {
		t.Error("Exhausted song must be flagged unconfirmed")
	}

	// The refresh that follows must not drop the unconfirmed record.
	songs := st.Songs()
	if len(songs) != 1 || !songs[0].Unconfirmed {
		t.Errorf("Unconfirmed song lost during refresh: %+v", songs)
	}
}

func TestCreateSongTransportErrorKeepsOptimisticCopy(t *testing.T) {
	remote := newFakeRemote()
	remote.saveSongFn = func(song models.Song, mode gateway.Mode) (*gateway.SongSave, error) {
		return nil, &gateway.TransportError{Op: "save song", StatusCode: 502}
	}
	st := newTestStore(remote)

	_, err := st.CreateSong(context.Background(), models.Song{Title: "Offline Song"})
	var transErr *gateway.TransportError
	if !errors.As(err, &transErr) {
		t.Fatalf("Expected TransportError, got %T: %v", err, err)
	}

	songs := st.Songs()
	if len(songs) != 1 || songs[0].Title != "Offline Song" {
		t.Errorf("Optimistic copy should survive the failure: %+v", songs)
	}
}

func TestUpdateSongNotFoundBeforeNetwork(t *testing.T) {
	remote := newFakeRemote()
	st := newTestStore(remote)

	_, err := st.UpdateSong(context.Background(), models.Song{ID: "99", Title: "Nope"})
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected NotFoundError, got %T: %v", err, err)
	}
	if remote.callCount("save_song") != 0 {
		t.Error("A local miss must abort before any network call")
	}
}

func TestDeleteSongCascades(t *testing.T) {
	remote := newFakeRemote()
	remote.songs = []models.Song{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}}
	remote.setlists = []models.Setlist{{
		ID: "5", Name: "Show",
		Items: []models.SetlistItem{
			{ID: "10", SongID: "1", Position: 0},
			{ID: "11", SongID: "2", Position: 1},
			{ID: "12", SongID: "1", Position: 2},
		},
	}}
	// The remote cascades on its side too.
	remote.deleteSongFn = func(id string) error {
		remote.mu.Lock()
		defer remote.mu.Unlock()
		for i := range remote.songs {
			if remote.songs[i].ID == id {
				remote.songs = append(remote.songs[:i], remote.songs[i+1:]...)
				break
			}
		}
		for i := range remote.setlists {
			kept := remote.setlists[i].Items[:0:0]
			for _, item := range remote.setlists[i].Items {
				if item.SongID != id {
					kept = append(kept, item)
				}
			}
			remote.setlists[i].Items = models.Resequence(kept)
		}
		return nil
	}

	st := newTestStore(remote)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// A pending overlay referencing the song must cascade as well.
	overlay := []models.SetlistItem{
		{ID: "10", SongID: "1", Position: 0},
		{ID: "11", SongID: "2", Position: 1},
	}
	if err := st.StageItems("5", overlay); err != nil {
		t.Fatalf("StageItems failed: %v", err)
	}

	if err := st.DeleteSong(context.Background(), "1"); err != nil {
		t.Fatalf("DeleteSong failed: %v", err)
	}

	visible, err := st.VisibleItems("5")
	if err != nil {
		t.Fatalf("VisibleItems failed: %v", err)
	}
	if len(visible) != 1 || visible[0].SongID != "2" || visible[0].Position != 0 {
		t.Errorf("Overlay cascade wrong: %+v", visible)
	}

	confirmed, err := st.ConfirmedItems("5")
	if err != nil {
		t.Fatalf("ConfirmedItems failed: %v", err)
	}
	if len(confirmed) != 1 || confirmed[0].SongID != "2" || confirmed[0].Position != 0 {
		t.Errorf("Confirmed cascade wrong: %+v", confirmed)
	}
}

func TestPendingOverlaySurvivesRefresh(t *testing.T) {
	remote := newFakeRemote()
	remote.songs = []models.Song{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}, {ID: "3", Title: "C"}}
	remote.setlists = []models.Setlist{{
		ID: "5", Name: "Show",
		Items: []models.SetlistItem{
			{ID: "10", SongID: "1", Position: 0},
			{ID: "11", SongID: "2", Position: 1},
		},
	}}

	st := newTestStore(remote)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	overlay := []models.SetlistItem{
		{ID: "10", SongID: "1", Position: 0},
		{ID: "11", SongID: "2", Position: 1},
		{ID: "13", SongID: "3", Position: 2},
	}
	if err := st.StageItems("5", overlay); err != nil {
		t.Fatalf("StageItems failed: %v", err)
	}

	// Shrink the remote collection and trigger a refresh through an
	// unrelated mutation.
	remote.mu.Lock()
	remote.setlists[0].Items = []models.SetlistItem{{ID: "10", SongID: "1", Position: 0}}
	remote.mu.Unlock()
	if _, err := st.UpdateSong(context.Background(), models.Song{ID: "1", Title: "A edited"}); err != nil {
		t.Fatalf("UpdateSong failed: %v", err)
	}

	// The confirmed view follows the remote; the visible list stays on the
	// overlay untouched.
	confirmed, _ := st.ConfirmedItems("5")
	if len(confirmed) != 1 {
		t.Errorf("Confirmed view not refreshed: %+v", confirmed)
	}
	visible, _ := st.VisibleItems("5")
	if len(visible) != 3 || visible[2].SongID != "3" {
		t.Errorf("Overlay disturbed by refresh: %+v", visible)
	}
	if !st.HasPendingEdits("5") {
		t.Error("Overlay should still be pending")
	}
}

func TestSaveItemsCommitsOverlay(t *testing.T) {
	remote := newFakeRemote()
	remote.songs = []models.Song{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}}
	remote.setlists = []models.Setlist{{
		ID: "5", Name: "Show",
		Items: []models.SetlistItem{{ID: "10", SongID: "1", Position: 0}},
	}}

	st := newTestStore(remote)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	overlay := []models.SetlistItem{
		{ID: "11", SongID: "2", Position: 5},
		{ID: "10", SongID: "1", Position: 9},
	}
	if err := st.StageItems("5", overlay); err != nil {
		t.Fatalf("StageItems failed: %v", err)
	}

	items, err := st.SaveItems(context.Background(), "5")
	if err != nil {
		t.Fatalf("SaveItems failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	// Positions settle to 0..n-1 in overlay order.
	if items[0].SongID != "2" || items[0].Position != 0 || items[1].Position != 1 {
		t.Errorf("Items not resequenced: %+v", items)
	}
	if st.HasPendingEdits("5") {
		t.Error("Overlay should be cleared after save")
	}
	if remote.callCount("sync_items") != 1 {
		t.Errorf("Expected one sync call, got %d", remote.callCount("sync_items"))
	}
}

func TestSaveItemsIsIdempotentPerOverlay(t *testing.T) {
	// Saving again without new staged edits is an error, so a double save
	// cannot send the same overlay twice.
	remote := newFakeRemote()
	remote.songs = []models.Song{{ID: "1", Title: "A"}}
	remote.setlists = []models.Setlist{{ID: "5", Name: "Show"}}

	st := newTestStore(remote)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := st.StageItems("5", []models.SetlistItem{{ID: "10", SongID: "1"}}); err != nil {
		t.Fatalf("StageItems failed: %v", err)
	}
	if _, err := st.SaveItems(context.Background(), "5"); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	if _, err := st.SaveItems(context.Background(), "5"); err == nil {
		t.Fatal("Second save without staged edits should fail")
	}
	if remote.callCount("sync_items") != 1 {
		t.Errorf("Overlay sent %d times, want 1", remote.callCount("sync_items"))
	}
}

func TestSaveItemsTransportErrorKeepsOverlay(t *testing.T) {
	remote := newFakeRemote()
	remote.songs = []models.Song{{ID: "1", Title: "A"}}
	remote.setlists = []models.Setlist{{ID: "5", Name: "Show"}}
	remote.syncItemsFn = func(id string, items []models.SetlistItem) (*gateway.ItemsSave, error) {
		return nil, &gateway.TransportError{Op: "sync items", StatusCode: 502}
	}

	st := newTestStore(remote)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := st.StageItems("5", []models.SetlistItem{{ID: "10", SongID: "1"}}); err != nil {
		t.Fatalf("StageItems failed: %v", err)
	}

	if _, err := st.SaveItems(context.Background(), "5"); err == nil {
		t.Fatal("Expected transport error")
	}
	if !st.HasPendingEdits("5") {
		t.Error("Overlay must survive a failed save")
	}
}

func TestCancelItemsRestoresConfirmedView(t *testing.T) {
	remote := newFakeRemote()
	remote.songs = []models.Song{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}}
	remote.setlists = []models.Setlist{{
		ID: "5", Name: "Show",
		Items: []models.SetlistItem{{ID: "10", SongID: "1", Position: 0}},
	}}

	st := newTestStore(remote)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := st.StageItems("5", []models.SetlistItem{{ID: "11", SongID: "2"}}); err != nil {
		t.Fatalf("StageItems failed: %v", err)
	}

	items, err := st.CancelItems("5")
	if err != nil {
		t.Fatalf("CancelItems failed: %v", err)
	}
	if len(items) != 1 || items[0].SongID != "1" {
		t.Errorf("Expected confirmed view back, got %+v", items)
	}
	if st.HasPendingEdits("5") {
		t.Error("Overlay should be gone after cancel")
	}
	if remote.callCount("sync_items") != 0 {
		t.Error("Cancel must not touch the network")
	}
}

func TestAddItemChecksReferencesBeforeNetwork(t *testing.T) {
	remote := newFakeRemote()
	remote.songs = []models.Song{{ID: "1", Title: "A"}}
	remote.setlists = []models.Setlist{{ID: "5", Name: "Show"}}

	st := newTestStore(remote)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	var notFound *NotFoundError
	if _, err := st.AddItem(context.Background(), "99", models.SetlistItem{SongID: "1"}); !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError for unknown setlist, got %v", err)
	}
	if _, err := st.AddItem(context.Background(), "5", models.SetlistItem{SongID: "99"}); !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError for unknown song, got %v", err)
	}
	if remote.callCount("add_item") != 0 {
		t.Error("Reference misses must abort before any network call")
	}
}

func TestAddItemAssignsGlobalID(t *testing.T) {
	remote := newFakeRemote()
	remote.songs = []models.Song{{ID: "1", Title: "A"}}
	remote.setlists = []models.Setlist{
		{ID: "5", Name: "Show", Items: []models.SetlistItem{{ID: "3", SongID: "1", Position: 0}}},
		{ID: "6", Name: "Other", Items: []models.SetlistItem{{ID: "8", SongID: "1", Position: 0}}},
	}

	st := newTestStore(remote)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	item, err := st.AddItem(context.Background(), "5", models.SetlistItem{SongID: "1"})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	// Item ids come from one space across every setlist, so the proposal
	// clears id 8 in the other setlist.
	if item.ID != "9" {
		t.Errorf("Expected globally next id 9, got %q", item.ID)
	}
	if item.Position != 1 {
		t.Errorf("Expected append position 1, got %d", item.Position)
	}
}

func TestCreateSetlistAdoptsRemoteID(t *testing.T) {
	remote := newFakeRemote()
	remote.saveSetlistFn = func(setlist models.Setlist, mode gateway.Mode) (*gateway.SetlistSave, error) {
		remote.mu.Lock()
		remote.setlists = append(remote.setlists, models.Setlist{ID: "900", Name: setlist.Name})
		remote.mu.Unlock()
		return &gateway.SetlistSave{Accepted: true, Message: "processing"}, nil
	}
	st := newTestStore(remote)

	setlist, err := st.CreateSetlist(context.Background(), models.Setlist{Name: "Friday Show"})
	if err != nil {
		t.Fatalf("CreateSetlist failed: %v", err)
	}
	if setlist.ID != "900" {
		t.Errorf("Expected remote id 900 adopted by name match, got %q", setlist.ID)
	}

	setlists := st.Setlists()
	if len(setlists) != 1 || setlists[0].ID != "900" {
		t.Errorf("Provisional entry not replaced: %+v", setlists)
	}
}

func TestDeleteSetlistDropsOverlay(t *testing.T) {
	remote := newFakeRemote()
	remote.songs = []models.Song{{ID: "1", Title: "A"}}
	remote.setlists = []models.Setlist{{ID: "5", Name: "Show"}}

	st := newTestStore(remote)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := st.StageItems("5", []models.SetlistItem{{ID: "10", SongID: "1"}}); err != nil {
		t.Fatalf("StageItems failed: %v", err)
	}

	if err := st.DeleteSetlist(context.Background(), "5"); err != nil {
		t.Fatalf("DeleteSetlist failed: %v", err)
	}
	if st.HasPendingEdits("5") {
		t.Error("Overlay should die with its setlist")
	}
	if len(st.Setlists()) != 0 {
		t.Errorf("Setlist not removed: %+v", st.Setlists())
	}
}

func TestSubscribeReceivesChangeEvents(t *testing.T) {
	remote := newFakeRemote()
	st := newTestStore(remote)

	var mu sync.Mutex
	var events []models.ChangeEvent
	st.Subscribe(func(ev models.ChangeEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	if _, err := st.CreateSong(context.Background(), models.Song{Title: "A"}); err != nil {
		t.Fatalf("CreateSong failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) == 0 {
		t.Fatal("Expected change events")
	}
	if events[0].Kind != models.ChangeSongs || events[0].Operation != "create" {
		t.Errorf("Unexpected first event: %+v", events[0])
	}
}
