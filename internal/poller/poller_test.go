package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vict-okello/coffee-shop/internal/domain"
)

func TestWaitForPayment(t *testing.T) {
	t.Parallel()

	t.Run("returns paid once observed", func(t *testing.T) {
		t.Parallel()

		reader := &scriptedReader{paidAfter: 3}
		p := New(reader, WithInterval(time.Millisecond), WithMaxAttempts(10))

		status := p.WaitForPayment(context.Background(), "order-1")
		if status != StatusPaid {
			t.Fatalf("expected StatusPaid, got %v", status)
		}
		if reader.calls != 3 {
			t.Fatalf("expected 3 reads, got %d", reader.calls)
		}
	})

	t.Run("unconfirmed after budget exhausted", func(t *testing.T) {
		t.Parallel()

		reader := &scriptedReader{paidAfter: 100}
		p := New(reader, WithInterval(time.Millisecond), WithMaxAttempts(5))

		status := p.WaitForPayment(context.Background(), "order-1")
		if status != StatusUnconfirmed {
			t.Fatalf("expected StatusUnconfirmed, got %v", status)
		}
		if reader.calls != 5 {
			t.Fatalf("expected 5 reads, got %d", reader.calls)
		}
	})

	t.Run("read errors consume attempts without failing", func(t *testing.T) {
		t.Parallel()

		reader := &scriptedReader{paidAfter: 3, errUntil: 2}
		p := New(reader, WithInterval(time.Millisecond), WithMaxAttempts(10))

		status := p.WaitForPayment(context.Background(), "order-1")
		if status != StatusPaid {
			t.Fatalf("expected StatusPaid despite transient errors, got %v", status)
		}
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		reader := &scriptedReader{paidAfter: 100, onCall: func(n int) {
			if n == 1 {
				cancel()
			}
		}}
		p := New(reader, WithInterval(time.Hour), WithMaxAttempts(10))

		done := make(chan Status, 1)
		go func() {
			done <- p.WaitForPayment(ctx, "order-1")
		}()

		select {
		case status := <-done:
			if status != StatusCancelled {
				t.Fatalf("expected StatusCancelled, got %v", status)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("poller did not stop after cancellation")
		}
	})
}

type scriptedReader struct {
	calls     int
	paidAfter int
	errUntil  int
	onCall    func(n int)
}

func (r *scriptedReader) GetOrder(_ context.Context, id string) (domain.Order, error) {
	r.calls++
	if r.onCall != nil {
		r.onCall(r.calls)
	}
	if r.calls <= r.errUntil {
		return domain.Order{}, errors.New("temporarily unavailable")
	}
	paid := r.calls >= r.paidAfter
	return domain.Order{
		ID:     id,
		IsPaid: paid,
		Status: domain.OrderStatusPending,
	}, nil
}
