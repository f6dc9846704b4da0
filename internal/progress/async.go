package progress

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Async hands events to Inner on its own goroutine, so a slow or stuck
// reporter never holds up the caller. Events that arrive while the queue is
// full are dropped and counted. Inner sees events one at a time, in order.
type Async struct {
	inner  Reporter
	logger *slog.Logger
	queue  chan Event
	done   chan struct{}

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewAsync starts delivering to inner through a queue of size events.
func NewAsync(inner Reporter, size int, logger *slog.Logger) *Async {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &Async{
		inner:  inner,
		logger: logger,
		queue:  make(chan Event, size),
		done:   make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Async) loop() {
	defer close(a.done)
	for e := range a.queue {
		a.inner.Emit(e)
	}
}

// Emit queues e without blocking. Events after Close are dropped.
func (a *Async) Emit(e Event) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.dropped.Add(1)
		return
	}
	select {
	case a.queue <- e:
	default:
		a.dropped.Add(1)
	}
}

// Dropped is the number of events that were not queued.
func (a *Async) Dropped() int64 { return a.dropped.Load() }

// Close stops accepting events and waits up to timeout for the queue to
// drain. It reports whether everything queued was delivered.
func (a *Async) Close(timeout time.Duration) bool {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	t := time.NewTimer(timeout)
	defer t.Stop()
	drained := true
	select {
	case <-a.done:
	case <-t.C:
		drained = false
		a.logger.Warn("progress: reporter did not drain in time", slog.Int("pending", len(a.queue)))
	}
	if n := a.dropped.Load(); n > 0 {
		a.logger.Warn("progress: events dropped", slog.Int64("dropped", n))
	}
	return drained
}
