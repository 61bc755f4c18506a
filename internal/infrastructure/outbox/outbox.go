package outbox

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
)

const (
	componentOutbox = "outbox"
	handlerTimeout  = 30 * time.Second
)

var ErrBusStopped = errors.New("outbox: bus stopped")

// Bus is the in-process event bus the services talk through. Delivery is at-least-once from
// the handlers' point of view: a handler may see the same event again after a redelivery, so
// every subscriber is idempotent. It is not durable.
type Bus struct {
	mu          sync.RWMutex
	subs        map[string][]domoutbox.Handler
	queue       chan domoutbox.Event
	done        chan struct{}
	startOnce   sync.Once
	stopOnce    sync.Once
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	concurrency int
	log         observability.Logger
	handled     observability.Counter
}

func NewBus(tel observability.Observability) *Bus {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Bus{
		subs:        make(map[string][]domoutbox.Handler),
		queue:       make(chan domoutbox.Event, 1024),
		done:        make(chan struct{}),
		concurrency: 8,
		log:         tel.Logger().With(observability.F("component", componentOutbox)),
		handled:     tel.Metrics().Counter(observability.MEventsHandled),
	}
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		bg, cancel := context.WithCancel(ctx)
		b.cancel = cancel
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.dispatchLoop(bg)
		}()
		logctx.FromOr(ctx, b.log).Info("event_bus_started")
	})
}

// Stop stops dispatching and waits for in-flight handlers. Events still queued are dropped.
func (b *Bus) Stop(ctx context.Context) {
	b.stopOnce.Do(func() {
		close(b.done)
		if b.cancel != nil {
			b.cancel()
		}
		b.wg.Wait()
		logctx.FromOr(ctx, b.log).Info("event_bus_stopped",
			observability.F("dropped", len(b.queue)),
		)
	})
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	logger := logctx.FromOr(ctx, b.log).With(observability.F("event", e.EventName()))
	select {
	case <-b.done:
		return ErrBusStopped
	default:
	}
	select {
	case b.queue <- e:
		logger.Debug("event_enqueued")
		return nil
	case <-b.done:
		return ErrBusStopped
	case <-ctx.Done():
		logger.Warn("event_enqueue_aborted", observability.F("error", ctx.Err()))
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-b.queue:
			b.fanout(ctx, e)
		}
	}
}

func (b *Bus) fanout(ctx context.Context, e domoutbox.Event) {
	name := e.EventName()

	b.mu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	b.mu.RUnlock()

	logger := b.log.With(observability.F("event", name))
	if len(handlers) == 0 {
		logger.Debug("event_dropped_no_subscriber")
		return
	}

	ctx = context.WithoutCancel(ctx)
	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	for _, h := range handlers {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			outcome := "success"
			defer func() {
				if r := recover(); r != nil {
					outcome = "panic"
					logger.Error("event_handler_panic",
						observability.F("panic", r),
						observability.F("stack", string(debug.Stack())),
					)
				}
				b.handled.Add(1, observability.L("event", name), observability.L("outcome", outcome))
				<-sem
				wg.Done()
			}()

			hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
			defer cancel()
			if err := h(logctx.With(hctx, logger), e); err != nil {
				outcome = "error"
				logger.Warn("event_handler_error", observability.F("error", err.Error()))
			}
		}()
	}

	wg.Wait()
	logger.Debug("event_fanned_out", observability.F("handlers", len(handlers)))
}
