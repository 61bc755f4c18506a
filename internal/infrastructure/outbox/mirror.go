package outbox

import (
	"context"

	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
)

// Mirror publishes to the primary publisher and copies every event to the mirrors (e.g. a
// Kafka topic for services outside this process). Only the primary's error is returned;
// mirror failures are logged.
type Mirror struct {
	primary domoutbox.Publisher
	mirrors []domoutbox.Publisher
	log     observability.Logger
}

func NewMirror(primary domoutbox.Publisher, log observability.Logger, mirrors ...domoutbox.Publisher) *Mirror {
	if log == nil {
		log = observability.NopLogger()
	}
	return &Mirror{primary: primary, mirrors: mirrors, log: log.With(observability.F("component", "outbox_mirror"))}
}

func (m *Mirror) Publish(ctx context.Context, e domoutbox.Event) error {
	if err := m.primary.Publish(ctx, e); err != nil {
		return err
	}
	for _, p := range m.mirrors {
		if err := p.Publish(ctx, e); err != nil {
			logctx.FromOr(ctx, m.log).Warn("event_mirror_failed",
				observability.F("event", e.EventName()),
				observability.F("error", err.Error()),
			)
		}
	}
	return nil
}
