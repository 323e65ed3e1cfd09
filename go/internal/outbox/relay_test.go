package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/poolnhl/go/internal/events"
)

type fakeStore struct {
	mu      sync.Mutex
	pending map[uuid.UUID]OutboxEvent
	order   []uuid.UUID
	sent    []uuid.UUID
}

func newFakeStore(evts ...OutboxEvent) *fakeStore {
	s := &fakeStore{pending: map[uuid.UUID]OutboxEvent{}}
	for _, e := range evts {
		s.pending[e.ID] = e
		s.order = append(s.order, e.ID)
	}
	return s
}

func (s *fakeStore) FetchUnsentOutbox(_ context.Context, limit int32) ([]OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []OutboxEvent
	for _, id := range s.order {
		if e, ok := s.pending[id]; ok && int32(len(out)) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) FetchOutboxByID(_ context.Context, id uuid.UUID) (*OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.pending[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	return &e, nil
}

func (s *fakeStore) MarkOutboxSent(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
	s.sent = append(s.sent, id)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	failFirst int
	calls     int
	published []OutboxEvent
}

func (p *fakePublisher) Publish(_ context.Context, e OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failFirst {
		return errors.New("nats: no responders")
	}
	p.published = append(p.published, e)
	return nil
}

func newEvent(t string) OutboxEvent {
	return OutboxEvent{
		ID:        uuid.New(),
		PoolName:  "pool-1",
		EventType: t,
		Payload:   json.RawMessage(`{"pool_name":"pool-1"}`),
		CreatedAt: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestRelay_ProcessUnsent(t *testing.T) {
	e1 := newEvent(string(events.EventTypeTradeSubmitted))
	e2 := newEvent(string(events.EventTypeTradeSettled))
	store := newFakeStore(e1, e2)
	pub := &fakePublisher{}
	relay := NewRelay(store, pub, clockwork.NewFakeClock(), RelayConfig{MaxRetries: 2})

	sent, err := relay.ProcessUnsent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []uuid.UUID{e1.ID, e2.ID}, store.sent)
	assert.Len(t, pub.published, 2)

	// nothing left on the next sweep
	sent, err = relay.ProcessUnsent(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestRelay_HandleNotification_AlreadySent(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	relay := NewRelay(store, pub, clockwork.NewFakeClock(), RelayConfig{})

	err := relay.HandleNotification(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Zero(t, pub.calls)
}

func TestRelay_HandleNotification_BadPayload(t *testing.T) {
	relay := NewRelay(newFakeStore(), &fakePublisher{}, clockwork.NewFakeClock(), RelayConfig{})
	assert.Error(t, relay.HandleNotification(context.Background(), "not-a-uuid"))
}

func TestRelay_RetriesWithBackoff(t *testing.T) {
	e := newEvent(string(events.EventTypeDraftPickMade))
	store := newFakeStore(e)
	pub := &fakePublisher{failFirst: 2}
	clock := clockwork.NewFakeClock()
	relay := NewRelay(store, pub, clock, RelayConfig{MaxRetries: 3, RetryDelay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- relay.HandleNotification(ctx, e.ID.String()) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(2 * time.Second)

	require.NoError(t, <-done)
	assert.Equal(t, 3, pub.calls)
	assert.Equal(t, []uuid.UUID{e.ID}, store.sent)
}

func TestRelay_GivesUpAndLeavesRowPending(t *testing.T) {
	e := newEvent(string(events.EventTypeTradeUpdated))
	store := newFakeStore(e)
	pub := &fakePublisher{failFirst: 10}
	relay := NewRelay(store, pub, clockwork.NewFakeClock(), RelayConfig{MaxRetries: 0})

	err := relay.HandleNotification(context.Background(), e.ID.String())
	require.Error(t, err)
	assert.Empty(t, store.sent)

	pending, _ := store.FetchUnsentOutbox(context.Background(), 10)
	assert.Len(t, pending, 1)
}

func TestBuildMessage(t *testing.T) {
	e := newEvent(string(events.EventTypePoolStatusChanged))

	msg, err := buildMessage("pool.events", e)
	require.NoError(t, err)
	assert.Equal(t, "pool.events.PoolStatusChanged", msg.Subject)
	assert.Equal(t, "pool-1", msg.Header.Get("Pool-Name"))
	assert.Equal(t, e.ID.String(), msg.Header.Get("Event-ID"))

	var env events.Envelope
	require.NoError(t, json.Unmarshal(msg.Data, &env))
	assert.Equal(t, e.ID, env.EventID)
	assert.Equal(t, events.EventTypePoolStatusChanged, env.EventType)
	assert.JSONEq(t, string(e.Payload), string(env.Payload))

	_, err = buildMessage("pool.events", newEvent("SomethingElse"))
	assert.Error(t, err)
}
