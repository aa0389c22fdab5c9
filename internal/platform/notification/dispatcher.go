package notification

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sink stores notifications durably.
type Sink interface {
	Write(ctx context.Context, n Notification) error
}

// Dispatcher queues notifications for a Sink on a background worker. When
// the queue is full the notification is dropped; the request path never
// waits on the activity log.
type Dispatcher struct {
	sink    Sink
	queue   chan Notification
	logger  zerolog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

func NewDispatcher(sink Sink, size int, logger zerolog.Logger) *Dispatcher {
	if size <= 0 {
		size = 100
	}
	d := &Dispatcher{
		sink:    sink,
		queue:   make(chan Notification, size),
		logger:  logger,
		timeout: 5 * time.Second,
	}
	d.wg.Add(1)
	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for n := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.sink.Write(ctx, n); err != nil {
			d.logger.Error().Err(err).Str("notification_id", n.ID).Msg("activity log write failed")
		}
		cancel()
	}
}

// Record implements Recorder. It is a no-op after Close.
func (d *Dispatcher) Record(n Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- n:
	default:
		d.logger.Warn().Str("notification_id", n.ID).Msg("activity queue full, dropping notification")
	}
}

// Close drains the queue and stops the worker.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
