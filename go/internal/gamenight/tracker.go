package gamenight

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/poolnhl/go/internal/models"
)

// ErrGamesUnavailable means the day's games could not be fetched. It is never
// reported as NO_GAMES.
var ErrGamesUnavailable = errors.New("games unavailable")

// GamesFetcher loads the games scheduled on a YYYY-MM-DD date.
type GamesFetcher interface {
	GamesByDate(ctx context.Context, date string) ([]models.Game, error)
}

// TrackerConfig controls how often results are refreshed.
type TrackerConfig struct {
	IdleInterval time.Duration
	LiveInterval time.Duration
	Location     *time.Location
}

// Snapshot is the last known state for one date.
type Snapshot struct {
	Date      string
	Result    Result
	FetchedAt time.Time
	// Err is set when the latest fetch failed. Result then holds the last
	// successful classification for the date, if there ever was one.
	Err error
}

// Available reports whether Result reflects a successful fetch.
func (s Snapshot) Available() bool {
	return !s.FetchedAt.IsZero()
}

// Tracker keeps classified game nights current per date.
type Tracker struct {
	fetcher GamesFetcher
	clock   clockwork.Clock
	cfg     TrackerConfig

	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

// NewTracker creates a new Tracker
func NewTracker(fetcher GamesFetcher, clock clockwork.Clock, cfg TrackerConfig) *Tracker {
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = 10 * time.Minute
	}
	if cfg.LiveInterval <= 0 {
		cfg.LiveInterval = 30 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Tracker{
		fetcher:   fetcher,
		clock:     clock,
		cfg:       cfg,
		snapshots: make(map[string]Snapshot),
	}
}

// Today returns the current date key in the tracker's location.
func (t *Tracker) Today() string {
	return t.clock.Now().In(t.cfg.Location).Format(models.DateLayout)
}

// Get returns the snapshot for date, fetching it when missing or stale.
func (t *Tracker) Get(ctx context.Context, date string) (Snapshot, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return Snapshot{}, fmt.Errorf("invalid date %q: %w", date, err)
	}

	t.mu.RLock()
	snap, ok := t.snapshots[date]
	t.mu.RUnlock()
	if ok && snap.Err == nil && t.clock.Since(snap.FetchedAt) < t.interval(snap) {
		return snap, nil
	}

	return t.Refresh(ctx, date), nil
}

// Refresh fetches and reclassifies date unconditionally.
func (t *Tracker) Refresh(ctx context.Context, date string) Snapshot {
	games, err := t.fetcher.GamesByDate(ctx, date)

	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.snapshots[date]
	snap.Date = date
	if err != nil {
		snap.Err = fmt.Errorf("%w: %v", ErrGamesUnavailable, err)
		log.Warn().Err(err).Str("date", date).Msg("failed to fetch games")
	} else {
		snap.Result = Classify(games)
		snap.FetchedAt = t.clock.Now()
		snap.Err = nil
		log.Debug().
			Str("date", date).
			Str("status", string(snap.Result.Status)).
			Int("games", len(games)).
			Msg("classified games night")
	}
	t.snapshots[date] = snap
	return snap
}

// Run refreshes today's games until ctx is cancelled, polling faster while
// games are live or the last fetch failed.
func (t *Tracker) Run(ctx context.Context) error {
	log.Info().Dur("idle_interval", t.cfg.IdleInterval).Msg("starting games night tracker")
	for {
		snap := t.Refresh(ctx, t.Today())

		timer := t.clock.NewTimer(t.interval(snap))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info().Msg("games night tracker stopped")
			return nil
		case <-timer.Chan():
		}
	}
}

func (t *Tracker) interval(snap Snapshot) time.Duration {
	if snap.Err != nil {
		return t.cfg.LiveInterval
	}
	switch snap.Result.Status {
	case models.GamesNightLive:
		return t.cfg.LiveInterval
	case models.GamesNightNotStarted, models.GamesNightCompleted, models.GamesNightNoGames:
		return t.cfg.IdleInterval
	default:
		return t.cfg.IdleInterval
	}
}
