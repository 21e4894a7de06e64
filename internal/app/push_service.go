package app

import (
	"context"
	"math"
	"time"

	"github.com/vict-okello/coffee-shop/internal/clock"
	"github.com/vict-okello/coffee-shop/internal/daraja"
	"github.com/vict-okello/coffee-shop/internal/domain"
	"github.com/vict-okello/coffee-shop/internal/phone"
)

type PushOrderRepository interface {
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	SavePushAttempt(ctx context.Context, order domain.Order) error
}

// Gateway is the slice of the Daraja client the push flow needs: token
// acquisition and the push itself are separate calls so a validation
// failure provably makes neither.
type Gateway interface {
	AccessToken(ctx context.Context) (string, error)
	STKPush(ctx context.Context, token string, in daraja.PushInput) (domain.PushAck, error)
}

type PushService struct {
	repo    PushOrderRepository
	gateway Gateway
	clock   clock.Clock
	grace   time.Duration
}

func NewPushService(repo PushOrderRepository, gateway Gateway, clk clock.Clock, opts ...PushServiceOption) *PushService {
	svc := &PushService{
		repo:    repo,
		gateway: gateway,
		clock:   clk,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type PushServiceOption func(*PushService)

// WithPushGracePeriod rejects a new push while one sent within d is
// still awaiting its callback. Zero (the default) disables the guard.
func WithPushGracePeriod(d time.Duration) PushServiceOption {
	return func(s *PushService) {
		if d > 0 {
			s.grace = d
		}
	}
}

type InitiatePushInput struct {
	OrderID string
	Phone   string
}

type InitiatePushResult struct {
	Message           string
	MerchantRequestID string
	CheckoutRequestID string
}

// InitiatePush starts a payment attempt: it validates locally, asks the
// gateway to prompt the payer's phone, and persists the correlation ids
// on the order before returning so a callback racing ahead of the
// response can still be matched. The gateway ack means "accepted for
// processing"; the outcome arrives later on the callback endpoint.
func (s *PushService) InitiatePush(ctx context.Context, in InitiatePushInput) (InitiatePushResult, error) {
	order, err := s.repo.GetOrder(ctx, in.OrderID)
	if err != nil {
		return InitiatePushResult{}, err
	}

	payer, err := phone.Normalize(in.Phone)
	if err != nil {
		return InitiatePushResult{}, err
	}

	// The order total is the source of truth for the amount; the gateway
	// only takes whole units.
	amount := int64(math.Round(order.Totals.Total))
	if amount <= 0 {
		return InitiatePushResult{}, domain.ErrInvalidAmount
	}

	now := s.clock.Now()
	if order.Payment.InFlight(now, s.grace) {
		return InitiatePushResult{}, domain.ErrPushInFlight
	}

	token, err := s.gateway.AccessToken(ctx)
	if err != nil {
		return InitiatePushResult{}, err
	}

	ack, err := s.gateway.STKPush(ctx, token, daraja.PushInput{
		Phone:   payer,
		Amount:  amount,
		OrderID: order.ID,
	})
	if err != nil {
		return InitiatePushResult{}, err
	}

	order.BeginPaymentAttempt(payer, amount, ack, now)
	if err := s.repo.SavePushAttempt(ctx, order); err != nil {
		return InitiatePushResult{}, err
	}

	message := ack.CustomerMessage
	if message == "" {
		message = "STK push sent. Check your phone."
	}
	return InitiatePushResult{
		Message:           message,
		MerchantRequestID: ack.MerchantRequestID,
		CheckoutRequestID: ack.CheckoutRequestID,
	}, nil
}
