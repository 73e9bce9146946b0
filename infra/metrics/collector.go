package metrics

import (
	"context"

	"github.com/kilianp07/evsched/core/events"
	coremetrics "github.com/kilianp07/evsched/core/metrics"
	"github.com/kilianp07/evsched/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and forwards run events to
// sinks that record them. It stops when the context is canceled or the bus
// is closed. The returned channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus eventbus.Bus[events.RunEvent], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	rec, ok := sink.(coremetrics.RunEventRecorder)
	if bus == nil || !ok {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				_ = rec.RecordRunEvent(ev)
			}
		}
	}()
	return done
}
