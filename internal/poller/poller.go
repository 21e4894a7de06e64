// Package poller implements client-side payment confirmation: after a
// push is initiated, the order is re-read on an interval until it is
// observed paid or the attempt budget runs out. The webhook reconciler
// is the sole source of truth; the poller only reads.
package poller

import (
	"context"
	"time"

	"github.com/vict-okello/coffee-shop/internal/domain"
)

// OrderReader is the read endpoint the poller watches.
type OrderReader interface {
	GetOrder(ctx context.Context, id string) (domain.Order, error)
}

type Status int

const (
	// StatusPaid: the order was observed paid.
	StatusPaid Status = iota
	// StatusUnconfirmed: the attempt budget ran out without confirmation.
	// This is deliberately distinct from failure: the payment may still
	// complete server-side after the client gives up.
	StatusUnconfirmed
	// StatusCancelled: the context was cancelled (e.g. the caller's UI
	// went away) before an outcome was observed.
	StatusCancelled
)

const (
	defaultInterval    = 5 * time.Second
	defaultMaxAttempts = 24
)

type Poller struct {
	reader      OrderReader
	interval    time.Duration
	maxAttempts int
}

func New(reader OrderReader, opts ...Option) *Poller {
	p := &Poller{
		reader:      reader,
		interval:    defaultInterval,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type Option func(*Poller)

// WithInterval overrides the delay between reads.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithMaxAttempts overrides the read budget.
func WithMaxAttempts(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WaitForPayment polls the order until it is paid, the attempt budget
// is exhausted, or ctx is cancelled. Read errors consume an attempt and
// the loop keeps going: a transient failure must not be reported as a
// payment failure.
func (p *Poller) WaitForPayment(ctx context.Context, orderID string) Status {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		order, err := p.reader.GetOrder(ctx, orderID)
		if err == nil && order.IsPaid {
			return StatusPaid
		}
		if ctx.Err() != nil {
			return StatusCancelled
		}
		if attempt == p.maxAttempts-1 {
			break
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return StatusCancelled
		}
	}
	return StatusUnconfirmed
}
