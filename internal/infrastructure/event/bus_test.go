package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TopUp", uuid.New(), uuid.New()),
	}
}

type testHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicWith  any
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, e)
	err, p := h.err, h.panicWith
	h.mu.Unlock()
	if p != nil {
		panic(p)
	}
	return err
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func startedBus(t *testing.T) *InMemoryEventBus {
	t.Helper()
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })
	return bus
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := startedBus(t)
	paid := newTestHandler("TopUpPaid")
	other := newTestHandler("OrderPlaced")
	all := newTestHandler()
	bus.Subscribe(paid)
	bus.Subscribe(other)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("TopUpPaid"), newTestEvent("TopUpPaid")))

	assert.Equal(t, 2, paid.count())
	assert.Equal(t, 0, other.count())
	assert.Equal(t, 2, all.count())
	delivered, failed := bus.Stats()
	assert.Equal(t, int64(4), delivered)
	assert.Zero(t, failed)
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := startedBus(t)
	h := newTestHandler("TopUpPaid")
	bus.Subscribe(h, "ClaimResolved")

	_ = bus.Publish(context.Background(), newTestEvent("TopUpPaid"), newTestEvent("ClaimResolved"))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_FailuresDoNotStopDelivery(t *testing.T) {
	bus := startedBus(t)
	failing := newTestHandler("TopUpPaid")
	failing.err = errors.New("boom")
	panicking := newTestHandler("TopUpPaid")
	panicking.panicWith = "kaboom"
	healthy := newTestHandler("TopUpPaid")
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("TopUpPaid")))

	assert.Equal(t, 1, healthy.count())
	delivered, failed := bus.Stats()
	assert.Equal(t, int64(1), delivered)
	assert.Equal(t, int64(2), failed)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := startedBus(t)
	h := newTestHandler("TopUpPaid")
	bus.Subscribe(h)

	_ = bus.Publish(context.Background(), newTestEvent("TopUpPaid"))
	bus.Unsubscribe(h)
	_ = bus.Publish(context.Background(), newTestEvent("TopUpPaid"))

	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_DropsWhenStopped(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := newTestHandler("TopUpPaid")
	bus.Subscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("TopUpPaid")))
	assert.Equal(t, 0, h.count())

	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("TopUpPaid")))
	assert.Equal(t, 1, h.count())

	require.NoError(t, bus.Stop(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("TopUpPaid")))
	assert.Equal(t, 1, h.count())
}
