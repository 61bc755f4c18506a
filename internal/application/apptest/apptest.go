// Package apptest holds fakes shared by the application and presentation tests.
package apptest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

// Publisher records every published event.
type Publisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
	Err    error
}

func (p *Publisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *Publisher) Events() []domoutbox.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domoutbox.Event(nil), p.events...)
}

// Names lists the published event names in order.
func (p *Publisher) Names() []string {
	var names []string
	for _, e := range p.Events() {
		names = append(names, e.EventName())
	}
	return names
}

// Count is how many events with the given name were published.
func (p *Publisher) Count(name string) int {
	n := 0
	for _, e := range p.Events() {
		if e.EventName() == name {
			n++
		}
	}
	return n
}

// IDs generates predictable ids: prefix-1, prefix-2, ...
type IDs struct {
	Prefix string
	n      atomic.Int64
}

func (g *IDs) NewID() string {
	return fmt.Sprintf("%s-%d", g.Prefix, g.n.Add(1))
}

// Telemetry records counter totals per key and label set; logs and spans are discarded.
type Telemetry struct {
	mu     sync.Mutex
	totals map[string]float64
}

func (t *Telemetry) Tracer() observability.Tracer { return observability.NopTracer() }
func (t *Telemetry) Logger() observability.Logger { return observability.NopLogger() }
func (t *Telemetry) Metrics() observability.Metrics { return t }

func (t *Telemetry) Counter(name observability.MetricKey) observability.Counter {
	return counter{t: t, key: string(name)}
}

func (t *Telemetry) Histogram(observability.MetricKey) observability.Histogram {
	return observability.NopHistogram()
}

// Total is the sum added to key with exactly the given label value (label keys are ignored),
// e.g. Total(observability.MStockUnits, "reserved").
func (t *Telemetry) Total(key observability.MetricKey, labelValues ...string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totals[seriesKey(string(key), labelValues)]
}

type counter struct {
	t   *Telemetry
	key string
}

func (c counter) Add(delta float64, labels ...observability.Label) {
	values := make([]string, 0, len(labels))
	for _, l := range labels {
		values = append(values, l.Value)
	}
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	if c.t.totals == nil {
		c.t.totals = make(map[string]float64)
	}
	c.t.totals[seriesKey(c.key, values)] += delta
}

func seriesKey(key string, values []string) string {
	return fmt.Sprint(key, values)
}
