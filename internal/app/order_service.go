package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/vict-okello/coffee-shop/internal/clock"
	"github.com/vict-okello/coffee-shop/internal/domain"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order domain.Order) error
	GetOrder(ctx context.Context, id string) (domain.Order, error)
}

type OrderService struct {
	repo  OrderRepository
	clock clock.Clock
}

func NewOrderService(repo OrderRepository, clk clock.Clock) *OrderService {
	return &OrderService{
		repo:  repo,
		clock: clk,
	}
}

type CreateOrderInput struct {
	Customer      domain.Customer
	Items         []domain.OrderItem
	Totals        domain.Totals
	PaymentMethod domain.PaymentMethod
}

func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (domain.Order, error) {
	if in.Customer.FullName == "" || in.Customer.Phone == "" || in.Customer.Address == "" {
		return domain.Order{}, domain.ErrCustomerInfoRequired
	}
	if len(in.Items) == 0 {
		return domain.Order{}, domain.ErrOrderItemsRequired
	}
	if in.Totals.Total < 0 {
		return domain.Order{}, domain.ErrTotalsRequired
	}

	method := in.PaymentMethod
	if method == "" {
		method = domain.PaymentMethodCash
	}
	if !domain.ValidPaymentMethod(method) {
		return domain.Order{}, domain.ErrInvalidPaymentMethod
	}

	now := s.clock.Now()
	order := domain.Order{
		ID:            uuid.NewString(),
		Customer:      in.Customer,
		Items:         in.Items,
		Totals:        in.Totals,
		Status:        domain.OrderStatusPending,
		PaymentMethod: method,
		Payment:       domain.PaymentAttempt{Status: domain.PaymentStatusUnsent},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return s.repo.GetOrder(ctx, id)
}
