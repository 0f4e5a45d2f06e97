package notify

import (
	"context"
	"time"

	"github.com/clinicdesk/clinic-booking/internal/metrics"
	"github.com/clinicdesk/clinic-booking/pkg/logging"
)

const defaultPollInterval = 30 * time.Second

// Poller drives the Detector on a fixed cadence and hands emitted events
// to the sink. Cycles never overlap: one goroutine runs fetch, diff and
// snapshot-replace to completion before the next tick is considered.
// Cancelling the context stops future cycles; an in-flight cycle is left
// to finish.
type Poller struct {
	detector *Detector
	sink     Sink
	logger   *logging.Logger
	metrics  *metrics.SchedulingMetrics
	interval time.Duration
}

func NewPoller(detector *Detector, sink Sink, logger *logging.Logger, m *metrics.SchedulingMetrics) *Poller {
	if logger == nil {
		logger = logging.Default()
	}
	return &Poller{
		detector: detector,
		sink:     sink,
		logger:   logger,
		metrics:  m,
		interval: defaultPollInterval,
	}
}

func (p *Poller) WithInterval(d time.Duration) *Poller {
	if d > 0 {
		p.interval = d
	}
	return p
}

// Run blocks until ctx is cancelled. The first cycle runs immediately to
// seed the snapshot; it never emits.
func (p *Poller) Run(ctx context.Context) {
	p.cycle(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	obs, err := p.detector.Cycle(ctx)
	if err != nil {
		// Recoverable: the snapshot is untouched and the next tick
		// retries, so a missed cycle never under- or over-reports.
		p.metrics.ObservePollCycle("error")
		p.logger.Warn("poll cycle failed", "error", err)
		return
	}

	p.metrics.ObservePollCycle("ok")

	if obs.Event == nil {
		return
	}

	if err := p.sink.Deliver(ctx, *obs.Event); err != nil {
		p.logger.Warn("notification delivery failed",
			"count", obs.Event.Count,
			"error", err,
		)
		return
	}

	p.metrics.ObserveEventEmitted(obs.Event.Count)
	p.logger.Info("notification delivered", "count", obs.Event.Count)
}
