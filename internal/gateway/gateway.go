package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gigstack/setlistgo/internal/models"
	"github.com/gigstack/setlistgo/internal/normalize"
)

// Mode states the caller's intent explicitly. Identifier presence is not a
// reliable create/update signal once provisional identifiers exist.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
	ModeDelete Mode = "delete"
)

// Wire-only modes for setlist content operations.
const (
	modeAddItem       = "add_item"
	modeSyncItems     = "sync_items"
	modeDeleteSetlist = "delete_setlist"
)

// Endpoints holds one URL per operation category. An empty URL fails the
// category fast with a ConfigurationError.
type Endpoints struct {
	Songs    string
	Setlists string
	Items    string
}

// SongSave is the interpreted reply to a song write.
type SongSave struct {
	Accepted bool   // asynchronous acceptance: queued, not yet visible
	Message  string
	Songs    []models.Song
}

// SetlistSave is the interpreted reply to a setlist write.
type SetlistSave struct {
	Accepted bool
	Message  string
	Setlists []models.Setlist
}

// ItemsSave is the interpreted reply to an add-item or sync-items call.
type ItemsSave struct {
	Accepted bool
	Message  string
	Items    []models.SetlistItem
}

// Gateway issues typed operations against the remote store. Every call is
// exactly one network round trip; retries live in the confirmation state
// machine, nowhere else.
type Gateway struct {
	endpoints Endpoints
	client    *http.Client
}

// New creates a gateway over the configured endpoints.
func New(endpoints Endpoints) *Gateway {
	return &Gateway{
		endpoints: endpoints,
		client:    NewHTTPClient(),
	}
}

// NewHTTPClient creates the tuned HTTP client used for all remote calls.
func NewHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Client{
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			DialContext:        dialer.DialContext,
			MaxIdleConns:       100,
			IdleConnTimeout:    90 * time.Second,
			DisableCompression: true,
		},
	}
}

// FetchSongs reads the full song collection.
func (g *Gateway) FetchSongs(ctx context.Context) ([]models.Song, error) {
	body, err := g.get(ctx, "fetch songs", g.endpoints.Songs, "SONGS_URL")
	if err != nil {
		return nil, err
	}
	return normalize.Songs(body), nil
}

// SaveSong writes a song with an explicit mode.
func (g *Gateway) SaveSong(ctx context.Context, song models.Song, mode Mode) (*SongSave, error) {
	payload := map[string]interface{}{"song": song, "mode": string(mode)}
	body, err := g.post(ctx, "save song", g.endpoints.Songs, "SONGS_URL", payload)
	if err != nil {
		return nil, err
	}
	if msg, ok := normalize.Acceptance(body); ok {
		return &SongSave{Accepted: true, Message: msg}, nil
	}
	return &SongSave{Songs: normalize.Songs(body)}, nil
}

// DeleteSong removes a song by id.
func (g *Gateway) DeleteSong(ctx context.Context, id string) error {
	payload := map[string]interface{}{
		"song": map[string]string{"id": id},
		"mode": string(ModeDelete),
	}
	_, err := g.post(ctx, "delete song", g.endpoints.Songs, "SONGS_URL", payload)
	return err
}

// FetchSetlists reads the full setlist collection. A "no data yet" reply
// from a not-yet-populated store is an empty collection, not an error.
func (g *Gateway) FetchSetlists(ctx context.Context) ([]models.Setlist, error) {
	body, err := g.get(ctx, "fetch setlists", g.endpoints.Setlists, "SETLISTS_URL")
	if err != nil {
		return nil, err
	}
	if normalize.NoDataYet(body) {
		return []models.Setlist{}, nil
	}
	return normalize.Setlists(body), nil
}

// SaveSetlist writes a setlist with an explicit mode.
func (g *Gateway) SaveSetlist(ctx context.Context, setlist models.Setlist, mode Mode) (*SetlistSave, error) {
	payload := map[string]interface{}{"setlist": setlist, "mode": string(mode)}
	body, err := g.post(ctx, "save setlist", g.endpoints.Setlists, "SETLISTS_URL", payload)
	if err != nil {
		return nil, err
	}
	if msg, ok := normalize.Acceptance(body); ok {
		return &SetlistSave{Accepted: true, Message: msg}, nil
	}
	return &SetlistSave{Setlists: normalize.Setlists(body)}, nil
}

// DeleteSetlist removes a setlist by id.
func (g *Gateway) DeleteSetlist(ctx context.Context, id string) error {
	payload := map[string]interface{}{
		"setlist": map[string]string{"id": id},
		"mode":    modeDeleteSetlist,
	}
	_, err := g.post(ctx, "delete setlist", g.endpoints.Setlists, "SETLISTS_URL", payload)
	return err
}

// AddItem appends a single item to a setlist's contents.
func (g *Gateway) AddItem(ctx context.Context, setlistID string, item models.SetlistItem) (*ItemsSave, error) {
	payload := map[string]interface{}{
		"item":      item,
		"setlistId": setlistID,
		"mode":      modeAddItem,
	}
	body, err := g.post(ctx, "add item", g.endpoints.Items, "ITEMS_URL", payload)
	if err != nil {
		return nil, err
	}
	if msg, ok := normalize.Acceptance(body); ok {
		return &ItemsSave{Accepted: true, Message: msg}, nil
	}
	return &ItemsSave{Items: normalize.Items(body)}, nil
}

// SyncItems replaces a setlist's whole item collection. Positions are
// renumbered to 0..n-1 in array order before transmission, overriding
// whatever the caller supplied. That normalization is deliberate, not a
// pass-through.
func (g *Gateway) SyncItems(ctx context.Context, setlistID string, items []models.SetlistItem) (*ItemsSave, error) {
	payload := map[string]interface{}{
		"items":     models.Resequence(items),
		"setlistId": setlistID,
		"mode":      modeSyncItems,
	}
	body, err := g.post(ctx, "sync items", g.endpoints.Items, "ITEMS_URL", payload)
	if err != nil {
		return nil, err
	}
	if msg, ok := normalize.Acceptance(body); ok {
		return &ItemsSave{Accepted: true, Message: msg}, nil
	}
	return &ItemsSave{Items: normalize.Items(body)}, nil
}

// get issues a single GET round trip and decodes the JSON body.
func (g *Gateway) get(ctx context.Context, op, url, setting string) (interface{}, error) {
	if url == "" {
		return nil, &ConfigurationError{Op: op, Setting: setting}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	return g.do(op, req)
}

// post issues a single POST round trip carrying the request envelope.
func (g *Gateway) post(ctx context.Context, op, url, setting string, payload interface{}) (interface{}, error) {
	if url == "" {
		return nil, &ConfigurationError{Op: op, Setting: setting}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(op, req)
}

func (g *Gateway) do(op string, req *http.Request) (interface{}, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var body interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("malformed response payload: %w", err)}
	}
	return body, nil
}
