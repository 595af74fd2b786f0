package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-workflow/internal/model"
	"github.com/jwalitptl/clinic-workflow/pkg/logger"
	"github.com/jwalitptl/clinic-workflow/pkg/messaging"
	"github.com/jwalitptl/clinic-workflow/pkg/metrics"
)

type failedMark struct {
	status  model.OutboxStatus
	message string
	retryAt *time.Time
}

type fakeOutbox struct {
	mu         sync.Mutex
	pending    []*model.OutboxEvent
	processed  map[uuid.UUID]time.Time
	failed     map[uuid.UUID]failedMark
	pendingErr error
}

func newFakeOutbox(events ...*model.OutboxEvent) *fakeOutbox {
	return &fakeOutbox{
		pending:   events,
		processed: map[uuid.UUID]time.Time{},
		failed:    map[uuid.UUID]failedMark{},
	}
}

func (f *fakeOutbox) GetPending(_ context.Context, limit int, _ time.Time) ([]*model.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pendingErr != nil {
		return nil, f.pendingErr
	}
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeOutbox) MarkProcessed(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed[id] = at
	return nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id uuid.UUID, status model.OutboxStatus, msg string, retryAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[id] = failedMark{status: status, message: msg, retryAt: retryAt}
	return nil
}

func (f *fakeOutbox) DeleteProcessedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type fakeBroker struct {
	mu        sync.Mutex
	failures  int
	calls     int
	published []messaging.Message
	channels  []string
}

func (b *fakeBroker) Publish(_ context.Context, channel string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.calls <= b.failures {
		return errors.New("connection refused")
	}
	b.published = append(b.published, message.(messaging.Message))
	b.channels = append(b.channels, channel)
	return nil
}

func (b *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBroker) Close() error { return nil }

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newEvent(eventType string, retries int) *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:         uuid.New(),
		EventType:  eventType,
		Payload:    []byte(`{"operation":"` + eventType + `"}`),
		Status:     model.OutboxStatusPending,
		RetryCount: retries,
		CreatedAt:  now.Add(-time.Minute),
	}
}

func newProcessor(repo *fakeOutbox, broker *fakeBroker, maxDeliveries int) (*OutboxProcessor, *metrics.Metrics) {
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	p := NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		Channel:       "clinic.events",
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
		MaxDeliveries: maxDeliveries,
	}, logger.Nop(), m)
	p.now = func() time.Time { return now }
	return p, m
}

func TestProcessEventsPublishesAndMarksProcessed(t *testing.T) {
	first := newEvent("patient.registered", 0)
	second := newEvent("appointment.booked", 0)
	repo := newFakeOutbox(first, second)
	broker := &fakeBroker{}
	p, m := newProcessor(repo, broker, 0)

	require.NoError(t, p.processEvents(context.Background()))

	require.Len(t, broker.published, 2)
	assert.Equal(t, []string{"clinic.events", "clinic.events"}, broker.channels)
	msg := broker.published[0]
	assert.Equal(t, first.ID.String(), msg.ID)
	assert.Equal(t, "patient.registered", msg.Type)
	assert.Equal(t, first.CreatedAt, msg.OccurredAt)
	assert.JSONEq(t, `{"operation":"patient.registered"}`, string(msg.Payload))

	assert.Equal(t, now, repo.processed[first.ID])
	assert.Contains(t, repo.processed, second.ID)
	assert.Empty(t, repo.failed)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutboxEventsProcessed))
}

func TestProcessEventsRetriesWithinRound(t *testing.T) {
	event := newEvent("consultation.completed", 0)
	repo := newFakeOutbox(event)
	broker := &fakeBroker{failures: 2}
	p, m := newProcessor(repo, broker, 0)

	require.NoError(t, p.processEvents(context.Background()))

	assert.Equal(t, 3, broker.calls)
	assert.Contains(t, repo.processed, event.ID)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutboxRetries.WithLabelValues("consultation.completed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.OutboxEventsFailed))
}

func TestProcessEventsSchedulesRetry(t *testing.T) {
	event := newEvent("appointment.cancelled", 1)
	repo := newFakeOutbox(event)
	broker := &fakeBroker{failures: 100}
	p, m := newProcessor(repo, broker, 5)

	require.NoError(t, p.processEvents(context.Background()))

	assert.Equal(t, 3, broker.calls)
	mark, ok := repo.failed[event.ID]
	require.True(t, ok)
	assert.Equal(t, model.OutboxStatusRetry, mark.status)
	assert.Contains(t, mark.message, "connection refused")
	require.NotNil(t, mark.retryAt)
	assert.Equal(t, now.Add(6*time.Millisecond), *mark.retryAt)
	assert.NotContains(t, repo.processed, event.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxEventsFailed))
}

func TestProcessEventsMarksDead(t *testing.T) {
	event := newEvent("consultation.recorded", 4)
	repo := newFakeOutbox(event)
	broker := &fakeBroker{failures: 100}
	p, m := newProcessor(repo, broker, 5)

	require.NoError(t, p.processEvents(context.Background()))

	mark := repo.failed[event.ID]
	assert.Equal(t, model.OutboxStatusDead, mark.status)
	assert.Nil(t, mark.retryAt)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxEventsDead))
}

func TestProcessEventsRepositoryError(t *testing.T) {
	repo := newFakeOutbox()
	repo.pendingErr = errors.New("database is locked")
	p, m := newProcessor(repo, &fakeBroker{}, 0)

	err := p.processEvents(context.Background())
	assert.ErrorContains(t, err, "database is locked")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatabaseOperations.WithLabelValues("get_pending_events", "error")))
}

func TestStartStopsOnCancel(t *testing.T) {
	repo := newFakeOutbox(newEvent("patient.registered", 0))
	broker := &fakeBroker{}
	p, _ := newProcessor(repo, broker, 0)
	p.config.PollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		broker.mu.Lock()
		defer broker.mu.Unlock()
		return len(broker.published) > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("processor did not stop")
	}
}

func TestNewOutboxProcessorRejectsInvalidConfig(t *testing.T) {
	assert.Panics(t, func() {
		NewOutboxProcessor(newFakeOutbox(), &fakeBroker{}, OutboxProcessorConfig{}, logger.Nop(), nil)
	})
}

func TestMessageEnvelope(t *testing.T) {
	raw, err := json.Marshal(messaging.Message{ID: "1", Type: "patient.registered", Payload: json.RawMessage(`{"a":1}`), OccurredAt: now})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","type":"patient.registered","payload":{"a":1},"occurred_at":"2026-03-10T09:00:00Z"}`, string(raw))
}
