// Package logagg serializes log records from many producers into per-tag
// files. A single consumer goroutine owns every file handle; producers only
// enqueue records on a bounded queue and block when it is full.
package logagg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultQueueSize is the queue depth used when Config.QueueSize is unset.
const DefaultQueueSize = 1000

// ErrClosed is returned by Send once the aggregator is stopping or stopped.
var ErrClosed = errors.New("log aggregator is closed")

// Record is one routed log entry.
type Record struct {
	Tag     string
	Payload []byte
}

// Config holds aggregator settings.
type Config struct {
	QueueSize int `yaml:"queueSize"`
}

// item is what travels on the queue; stop marks the shutdown sentinel.
type item struct {
	rec  Record
	stop bool
}

// Aggregator owns the tag -> handler mapping and the consumer loop.
type Aggregator struct {
	queue    chan item
	handlers map[string]io.Writer
	local    *zap.Logger

	mu       sync.Mutex
	started  bool
	stopping atomic.Bool
	stopOnce sync.Once
	done     chan struct{}

	handled atomic.Int64
	dropped atomic.Int64
}

// New creates an aggregator. local receives the aggregator's own diagnostics
// and must not route back into this aggregator.
func New(cfg Config, local *zap.Logger) *Aggregator {
	size := cfg.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	if local == nil {
		local = zap.NewNop()
	}
	return &Aggregator{
		queue:    make(chan item, size),
		handlers: make(map[string]io.Writer),
		local:    local.Named("logging"),
		done:     make(chan struct{}),
	}
}

// Register binds a handler to a tag. Handlers can only be registered before Start.
func (a *Aggregator) Register(tag string, handler io.Writer) error {
	if tag == "" {
		return errors.New("tag is required")
	}
	if handler == nil {
		return errors.New("handler is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return fmt.Errorf("register %q after start", tag)
	}
	a.handlers[tag] = handler
	return nil
}

// Start launches the consumer. Calling it more than once is a no-op.
func (a *Aggregator) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started || a.stopping.Load() {
		return
	}
	a.started = true
	go a.run()
	a.local.Info("start logging server", zap.Int("queue_size", cap(a.queue)))
}

// Send enqueues a record, blocking while the queue is full.
func (a *Aggregator) Send(ctx context.Context, rec Record) error {
	if a.stopping.Load() {
		return ErrClosed
	}
	select {
	case a.queue <- item{rec: rec}:
		return nil
	case <-a.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop enqueues the sentinel and waits until the consumer has drained every
// record sent before it. Handlers implementing io.Closer are closed afterwards.
func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() {
		a.local.Info("stopping logging server")
		a.stopping.Store(true)

		a.mu.Lock()
		started := a.started
		a.mu.Unlock()

		if started {
			a.queue <- item{stop: true}
			<-a.done
		} else {
			close(a.done)
		}

		for tag, h := range a.handlers {
			if c, ok := h.(io.Closer); ok {
				if err := c.Close(); err != nil {
					a.local.Error("close log handler failed", zap.String("tag", tag), zap.Error(err))
				}
			}
		}
		a.local.Info("logging server stopped",
			zap.Int64("handled", a.handled.Load()),
			zap.Int64("unrouted", a.dropped.Load()))
	})
}

// Done is closed once the consumer loop has exited.
func (a *Aggregator) Done() <-chan struct{} {
	return a.done
}

// Pending reports the number of queued records.
func (a *Aggregator) Pending() int {
	return len(a.queue)
}

func (a *Aggregator) run() {
	defer close(a.done)
	for it := range a.queue {
		if it.stop {
			a.local.Debug("got the stop sentinel, exit")
			return
		}
		a.dispatch(it.rec)
	}
}

func (a *Aggregator) dispatch(rec Record) {
	h, ok := a.handlers[rec.Tag]
	if !ok {
		a.dropped.Add(1)
		a.local.Warn("logging server got a record with an unregistered tag", zap.String("tag", rec.Tag))
		return
	}
	if _, err := h.Write(rec.Payload); err != nil {
		a.local.Error("write log record failed", zap.String("tag", rec.Tag), zap.Error(err))
		return
	}
	a.handled.Add(1)
}
