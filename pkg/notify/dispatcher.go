// Package notify delivers business notifications to third-party channels
// through a fire-and-forget queue: enqueuing never blocks the trading path,
// and delivery failures are logged, not surfaced.
package notify

import (
	"sync"

	"go.uber.org/zap"
)

// Sender performs the actual delivery to a notification channel.
type Sender interface {
	Send(message string, attachments []string) error
}

type message struct {
	body        string
	attachments []string
}

// Dispatcher feeds a single background worker from an unbounded in-memory
// queue. A Dispatcher built with a nil sender is disabled and drops
// everything silently.
type Dispatcher struct {
	sender Sender
	logger *zap.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []message
	closed bool
	done   chan struct{}
}

func NewDispatcher(sender Sender, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		sender: sender,
		logger: logger,
		done:   make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	if sender != nil {
		go d.work()
	} else {
		close(d.done)
	}
	return d
}

// Enqueue queues a notification for delivery and returns immediately.
func (d *Dispatcher) Enqueue(body string, attachments ...string) {
	if d.sender == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.queue = append(d.queue, message{body: body, attachments: attachments})
	d.cond.Signal()
}

func (d *Dispatcher) work() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 && d.closed {
			d.mu.Unlock()
			return
		}
		msg := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()

		if err := d.sender.Send(msg.body, msg.attachments); err != nil {
			d.logger.Warn("notification delivery failed", zap.Error(err))
		}
	}
}

// Close stops the worker after the queued messages are delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.cond.Signal()
	d.mu.Unlock()
	<-d.done
}
