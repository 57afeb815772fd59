// Package poller runs the recurring background sync of the active channel.
// At most one polling handle is alive at a time: Start stops the previous
// handle, and waits for its goroutine to exit, before launching a new one.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parsascontentcorner/discordlite/internal/session"
)

// Task is one poll tick. Ticks of a handle never overlap.
type Task func(ctx context.Context, ticket session.Ticket)

type handle struct {
	id     string
	ticket session.Ticket
	cancel context.CancelFunc
	done   chan struct{}
}

// Poller owns the single polling handle
type Poller struct {
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	current *handle
	alive   atomic.Int32
}

// New creates a poller ticking at interval
func New(interval time.Duration, logger *zap.Logger) *Poller {
	return &Poller{interval: interval, logger: logger}
}

// Interval returns the tick interval
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start replaces the current handle with one that runs task for ticket every
// interval. The first tick happens one interval after Start. It returns the
// new handle id.
func (p *Poller) Start(ticket session.Ticket, task Task) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{
		id:     uuid.NewString(),
		ticket: ticket,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	p.current = h
	p.alive.Add(1)

	go p.run(ctx, h, task)

	p.logger.Debug("started polling",
		zap.String("handle_id", h.id),
		zap.String("channel_id", ticket.ChannelID.String()),
		zap.Duration("interval", p.interval),
	)
	return h.id
}

// Stop cancels the current handle and waits for it to exit. It is a no-op
// when nothing is polling.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Poller) stopLocked() {
	if p.current == nil {
		return
	}
	h := p.current
	p.current = nil

	h.cancel()
	<-h.done

	p.logger.Debug("stopped polling",
		zap.String("handle_id", h.id),
		zap.String("channel_id", h.ticket.ChannelID.String()),
	)
}

// Current returns the id and ticket of the live handle
func (p *Poller) Current() (id string, ticket session.Ticket, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return "", session.Ticket{}, false
	}
	return p.current.id, p.current.ticket, true
}

// Alive returns how many handle goroutines are running
func (p *Poller) Alive() int {
	return int(p.alive.Load())
}

func (p *Poller) run(ctx context.Context, h *handle, task Task) {
	defer close(h.done)
	defer p.alive.Add(-1)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A tick that raced with cancellation must not run
			if ctx.Err() != nil {
				return
			}
			task(ctx, h.ticket)
		}
	}
}
