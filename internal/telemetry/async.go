package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sweeney/smart-clock/internal/logger"
	"github.com/sweeney/smart-clock/internal/logic"
)

// DefaultReportTimeout bounds one delivery attempt.
const DefaultReportTimeout = 5 * time.Second

// Stats counts Async outcomes.
type Stats struct {
	Submitted uint64
	Reported  uint64
	Failed    uint64
	Dropped   uint64
}

// Async moves delivery off the control loop. It holds at most one pending
// record; Submit never blocks and drops the record when the slot is taken.
type Async struct {
	r       Reporter
	timeout time.Duration
	log     *logger.Logger

	// OnResult, if set, is called with "ok", "error" or "dropped".
	// Set it before the first Submit.
	OnResult func(result string)

	queue chan logic.TelemetryRecord
	done  chan struct{}

	mu     sync.Mutex
	closed bool

	submitted atomic.Uint64
	reported  atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// NewAsync starts the delivery worker for r.
func NewAsync(r Reporter, timeout time.Duration, log *logger.Logger) *Async {
	if timeout <= 0 {
		timeout = DefaultReportTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	a := &Async{
		r:       r,
		timeout: timeout,
		log:     log,
		queue:   make(chan logic.TelemetryRecord, 1),
		done:    make(chan struct{}),
	}
	go a.worker()
	return a
}

// Submit queues rec for delivery. It reports false if the record was dropped.
func (a *Async) Submit(rec logic.TelemetryRecord) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return false
	}

	select {
	case a.queue <- rec:
		a.submitted.Add(1)
		return true
	default:
		a.dropped.Add(1)
		a.result("dropped")
		a.log.Debugw("telemetry busy, record dropped", "datetime", rec.Time().Format(time.RFC3339))
		return false
	}
}

func (a *Async) worker() {
	defer close(a.done)
	for rec := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		err := a.r.Report(ctx, rec)
		cancel()

		if err != nil {
			a.failed.Add(1)
			a.result("error")
			a.log.Warnw("telemetry report failed", "error", err)
			continue
		}
		a.reported.Add(1)
		a.result("ok")
	}
}

func (a *Async) result(r string) {
	if a.OnResult != nil {
		a.OnResult(r)
	}
}

// Stats returns the outcome counters.
func (a *Async) Stats() Stats {
	return Stats{
		Submitted: a.submitted.Load(),
		Reported:  a.reported.Load(),
		Failed:    a.failed.Load(),
		Dropped:   a.dropped.Load(),
	}
}

// Close stops accepting records, waits for the pending one and closes the
// underlying reporter.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return a.r.Close()
}
