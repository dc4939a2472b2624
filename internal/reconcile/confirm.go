package reconcile

import (
	"context"
	"log"
	"time"

	"github.com/gigstack/setlistgo/internal/models"
)

// State of a confirmation run
type State string

const (
	StateSubmitted  State = "submitted"
	StateConfirming State = "confirming"
	StateConfirmed  State = "confirmed"
	StateExhausted  State = "exhausted"
)

// OpKind selects the polling policy. New-row propagation is typically
// slower than updates, so creates get more attempts.
type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
)

// Clock abstracts the inter-attempt delay so tests run without real sleeps.
type Clock interface {
	Sleep(d time.Duration)
}

type wallClock struct{}

func (wallClock) Sleep(d time.Duration) { time.Sleep(d) }

// Policy bounds one confirmation run: fixed delay, fixed attempt count.
// There is no wall-clock deadline beyond attempts × delay.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// Default policies
var (
	DefaultCreatePolicy = Policy{Attempts: 5, Delay: 2 * time.Second}
	DefaultUpdatePolicy = Policy{Attempts: 3, Delay: 2 * time.Second}
)

// Confirmer runs SUBMITTED → CONFIRMING → {CONFIRMED | EXHAUSTED} for
// writes the remote acknowledged asynchronously. This is the only place in
// the system where retries occur.
type Confirmer struct {
	create Policy
	update Policy
	clock  Clock
}

// NewConfirmer creates a confirmer. A nil clock means real delays.
func NewConfirmer(create, update Policy, clock Clock) *Confirmer {
	if create.Attempts <= 0 {
		create = DefaultCreatePolicy
	}
	if update.Attempts <= 0 {
		update = DefaultUpdatePolicy
	}
	if clock == nil {
		clock = wallClock{}
	}
	return &Confirmer{create: create, update: update, clock: clock}
}

// SongOutcome is the result of confirming a song write.
type SongOutcome struct {
	State    State
	Song     models.Song
	Attempts int
}

// SetlistOutcome is the result of confirming a setlist write.
type SetlistOutcome struct {
	State    State
	Setlist  models.Setlist
	Attempts int
}

func (c *Confirmer) policyFor(kind OpKind) Policy {
	if kind == OpCreate {
		return c.create
	}
	return c.update
}

// ConfirmSong polls the song read operation until the submitted song is
// observable. Match order: exact identifier against the proposed id; for
// creates, the strict (title, artist) fallback. On exhaustion the outcome
// carries the submitted song flagged unconfirmed so later logic never
// treats it as authoritative.
func (c *Confirmer) ConfirmSong(ctx context.Context, fetch func(context.Context) ([]models.Song, error), submitted models.Song, kind OpKind) SongOutcome {
	policy := c.policyFor(kind)
	log.Printf("🔎 Confirming song %q (%s, up to %d attempts)", submitted.Title, kind, policy.Attempts)

	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		c.clock.Sleep(policy.Delay)

		songs, err := fetch(ctx)
		if err != nil {
			log.Printf("⚠️ Confirmation read failed (attempt %d/%d): %v", attempt, policy.Attempts, err)
			continue
		}
		if found, ok := LocateSong(songs, submitted, kind); ok {
			log.Printf("✅ Song %q confirmed as id %s after %d attempt(s)", found.Title, found.ID, attempt)
			return SongOutcome{State: StateConfirmed, Song: found, Attempts: attempt}
		}
	}

	log.Printf("⚠️ Song %q not confirmed after %d attempts, keeping best-effort copy", submitted.Title, policy.Attempts)
	unconfirmed := submitted
	unconfirmed.Unconfirmed = true
	return SongOutcome{State: StateExhausted, Song: unconfirmed, Attempts: policy.Attempts}
}

// ConfirmSetlist polls the setlist read operation until the submitted
// setlist is observable. Creates fall back to name equality, because the
// remote may link the committed row under an identifier different from the
// one the client proposed.
func (c *Confirmer) ConfirmSetlist(ctx context.Context, fetch func(context.Context) ([]models.Setlist, error), submitted models.Setlist, kind OpKind) SetlistOutcome {
	policy := c.policyFor(kind)
	log.Printf("🔎 Confirming setlist %q (%s, up to %d attempts)", submitted.Name, kind, policy.Attempts)

	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		c.clock.Sleep(policy.Delay)

		setlists, err := fetch(ctx)
		if err != nil {
			log.Printf("⚠️ Confirmation read failed (attempt %d/%d): %v", attempt, policy.Attempts, err)
			continue
		}
		if found, ok := LocateSetlist(setlists, submitted, kind); ok {
			log.Printf("✅ Setlist %q confirmed as id %s after %d attempt(s)", found.Name, found.ID, attempt)
			return SetlistOutcome{State: StateConfirmed, Setlist: found, Attempts: attempt}
		}
	}

	log.Printf("⚠️ Setlist %q not confirmed after %d attempts, keeping best-effort copy", submitted.Name, policy.Attempts)
	unconfirmed := submitted
	unconfirmed.Unconfirmed = true
	return SetlistOutcome{State: StateExhausted, Setlist: unconfirmed, Attempts: policy.Attempts}
}

// LocateSong searches a fetched collection for the submitted song: exact
// identifier first, then for creates the strict (title, artist) rule.
func LocateSong(songs []models.Song, submitted models.Song, kind OpKind) (models.Song, bool) {
	for _, s := range songs {
		if submitted.ID != "" && s.ID == submitted.ID {
			return s, true
		}
	}
	if kind == OpCreate {
		for _, s := range songs {
			if s.MatchesTitleArtist(submitted) {
				return s, true
			}
		}
	}
	return models.Song{}, false
}

// LocateSetlist searches a fetched collection for the submitted setlist:
// exact identifier first, then for creates the name-equality rule.
func LocateSetlist(setlists []models.Setlist, submitted models.Setlist, kind OpKind) (models.Setlist, bool) {
	for _, s := range setlists {
		if submitted.ID != "" && s.ID == submitted.ID {
			return s, true
		}
	}
	if kind == OpCreate {
		for _, s := range setlists {
			if s.MatchesName(submitted) {
				return s, true
			}
		}
	}
	return models.Setlist{}, false
}
