package app

import (
	"context"

	"github.com/vict-okello/coffee-shop/internal/clock"
	"github.com/vict-okello/coffee-shop/internal/daraja"
	"github.com/vict-okello/coffee-shop/internal/domain"
)

type ReconcileRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// GetOrderByCheckoutID locks and returns the order whose payment
	// attempt carries the checkout id, or nil when none matches.
	GetOrderByCheckoutID(ctx context.Context, checkoutID string) (*domain.Order, error)
	SavePaymentResult(ctx context.Context, order domain.Order) error
}

type ReconcileService struct {
	repo  ReconcileRepository
	clock clock.Clock
}

func NewReconcileService(repo ReconcileRepository, clk clock.Clock) *ReconcileService {
	return &ReconcileService{
		repo:  repo,
		clock: clk,
	}
}

// ReconcileOutcome describes what a callback did, for logging and
// metrics. The HTTP handler acknowledges the gateway identically in
// every case; outcomes never travel back to the caller.
type ReconcileOutcome struct {
	Matched bool
	Paid    bool
	OrderID string
}

// HandleCallback applies a gateway callback to the matching order.
// Orders are looked up by the gateway-issued checkout id only: the
// webhook is unauthenticated, and that id is the one trustworthy
// server-generated key the gateway echoes back. A malformed or
// unmatched body is a no-op, not an error.
func (s *ReconcileService) HandleCallback(ctx context.Context, body []byte) (ReconcileOutcome, error) {
	res, ok := daraja.ParseCallback(body)
	if !ok {
		return ReconcileOutcome{}, nil
	}

	now := s.clock.Now()
	var outcome ReconcileOutcome

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderByCheckoutID(txCtx, res.CheckoutRequestID)
		if err != nil {
			return err
		}
		if order == nil {
			return nil
		}

		order.ApplyPaymentResult(res.PaymentResult, now)
		if err := s.repo.SavePaymentResult(txCtx, *order); err != nil {
			return err
		}

		outcome = ReconcileOutcome{
			Matched: true,
			Paid:    order.IsPaid,
			OrderID: order.ID,
		}
		return nil
	})
	if err != nil {
		return ReconcileOutcome{}, err
	}
	return outcome, nil
}
