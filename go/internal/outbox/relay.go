package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Store defines what the relay needs from the outbox repository
type Store interface {
	FetchUnsentOutbox(ctx context.Context, limit int32) ([]OutboxEvent, error)
	FetchOutboxByID(ctx context.Context, id uuid.UUID) (*OutboxEvent, error)
	MarkOutboxSent(ctx context.Context, id uuid.UUID) error
}

type RelayConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	BatchSize  int32 // Max events to fetch per batch
}

// Relay moves outbox rows onto the event bus and marks them sent.
type Relay struct {
	store     Store
	publisher Publisher
	clock     clockwork.Clock
	cfg       RelayConfig
}

func NewRelay(store Store, publisher Publisher, clock clockwork.Clock, cfg RelayConfig) *Relay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Relay{store: store, publisher: publisher, clock: clock, cfg: cfg}
}

// HandleNotification relays the event whose id arrived as a notify payload.
func (r *Relay) HandleNotification(ctx context.Context, extra string) error {
	id, err := uuid.Parse(extra)
	if err != nil {
		return fmt.Errorf("invalid event ID in notification: %w", err)
	}

	event, err := r.store.FetchOutboxByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			// already relayed by the fallback sweep
			log.Debug().Str("event_id", id.String()).Msg("outbox event already sent")
			return nil
		}
		return fmt.Errorf("failed to fetch outbox event: %w", err)
	}

	return r.relay(ctx, *event)
}

// ProcessUnsent relays every pending row in one batch and returns how many
// were sent.
func (r *Relay) ProcessUnsent(ctx context.Context) (int, error) {
	unsent, err := r.store.FetchUnsentOutbox(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, event := range unsent {
		if err := r.relay(ctx, event); err != nil {
			log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to relay event")
			continue
		}
		sent++
	}
	if len(unsent) > 0 {
		log.Info().Int("sent", sent).Int("total", len(unsent)).Msg("processed unsent outbox events")
	}
	return sent, nil
}

func (r *Relay) relay(ctx context.Context, event OutboxEvent) error {
	if err := r.publishWithRetry(ctx, event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if err := r.store.MarkOutboxSent(ctx, event.ID); err != nil {
		return err
	}
	log.Info().
		Str("event_id", event.ID.String()).
		Str("pool", event.PoolName).
		Str("event_type", event.EventType).
		Msg("published and marked event as sent")
	return nil
}

// publishWithRetry attempts to publish an outbox event with a linear backoff.
func (r *Relay) publishWithRetry(ctx context.Context, event OutboxEvent) error {
	var lastErr error

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.cfg.RetryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.clock.After(delay):
			}
		}

		if err := r.publisher.Publish(ctx, event); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("failed to publish, retrying")
			continue
		}

		if attempt > 0 {
			log.Info().
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("publish succeeded after retry")
		}
		return nil
	}

	return fmt.Errorf("publish failed after %d attempts: %w", r.cfg.MaxRetries+1, lastErr)
}
