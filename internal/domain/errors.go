package domain

import "errors"

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidID            = errors.New("invalid id")
	ErrInvalidPhone         = errors.New("invalid phone; use 07XXXXXXXX or 2547XXXXXXXX")
	ErrInvalidAmount        = errors.New("invalid order total")
	ErrPushInFlight         = errors.New("payment request already in flight")
	ErrGatewayAuth          = errors.New("gateway authentication failed")
	ErrGatewayPush          = errors.New("gateway push request failed")
	ErrCustomerInfoRequired = errors.New("customer info is required")
	ErrOrderItemsRequired   = errors.New("order items are required")
	ErrTotalsRequired       = errors.New("order totals are required")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)
