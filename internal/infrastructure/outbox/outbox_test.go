package outbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type named string

func (n named) EventName() string { return string(n) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e.EventName())
	return p.err
}

func TestBusDeliversInPublishOrder(t *testing.T) {
	bus := NewBus(nil)
	ctx := context.Background()

	var mu sync.Mutex
	var seen []string
	bus.Subscribe("a", func(_ context.Context, e domoutbox.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, "a")
		return nil
	})
	bus.Subscribe("b", func(_ context.Context, e domoutbox.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, "b")
		return errors.New("handler failed")
	})
	bus.Start(ctx)
	t.Cleanup(func() { bus.Stop(ctx) })

	require.NoError(t, bus.Publish(ctx, named("a")))
	require.NoError(t, bus.Publish(ctx, named("b")))
	require.NoError(t, bus.Publish(ctx, named("a")))
	require.NoError(t, bus.Publish(ctx, nil))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a", "b", "a"}, seen)
}

func TestBusSurvivesPanickingHandler(t *testing.T) {
	bus := NewBus(nil)
	ctx := context.Background()

	var calls atomic.Int32
	bus.Subscribe("boom", func(context.Context, domoutbox.Event) error { panic("bad handler") })
	bus.Subscribe("boom", func(context.Context, domoutbox.Event) error {
		calls.Add(1)
		return nil
	})
	bus.Start(ctx)
	t.Cleanup(func() { bus.Stop(ctx) })

	require.NoError(t, bus.Publish(ctx, named("boom")))
	require.NoError(t, bus.Publish(ctx, named("boom")))
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestBusRejectsAfterStop(t *testing.T) {
	bus := NewBus(nil)
	ctx := context.Background()
	bus.Start(ctx)
	bus.Stop(ctx)
	bus.Stop(ctx)

	assert.ErrorIs(t, bus.Publish(ctx, named("late")), ErrBusStopped)
}

func TestMirrorReturnsOnlyPrimaryErrors(t *testing.T) {
	ctx := context.Background()
	primary := &recordingPublisher{}
	copyA := &recordingPublisher{err: errors.New("kafka down")}
	copyB := &recordingPublisher{}

	m := NewMirror(primary, nil, copyA, copyB)
	require.NoError(t, m.Publish(ctx, named("order.created")))
	assert.Equal(t, []string{"order.created"}, primary.events)
	assert.Equal(t, []string{"order.created"}, copyA.events)
	assert.Equal(t, []string{"order.created"}, copyB.events)

	primary.err = errors.New("bus stopped")
	assert.Error(t, m.Publish(ctx, named("order.failed")))
	assert.Len(t, copyB.events, 1)
}
