package domain

import "time"

type PaymentStatus string

const (
	// PaymentStatusUnsent is the zero state: no push has been issued yet.
	PaymentStatusUnsent PaymentStatus = "unsent"
	// PaymentStatusSent means the gateway accepted the push request and
	// the correlation ids are stored; the outcome is still unknown.
	PaymentStatusSent PaymentStatus = "sent"
	// PaymentStatusConfirmed and PaymentStatusDeclined are terminal.
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusDeclined  PaymentStatus = "declined"
)

// PaymentAttempt is the bookkeeping for a mobile-money push against an
// order. It is part of the order's permanent audit trail and is never
// deleted; a new push overwrites it in place.
type PaymentAttempt struct {
	Status PaymentStatus

	PayerPhone      string
	RequestedAmount int64

	MerchantRequestID string
	// CheckoutRequestID is the reconciliation key: the gateway echoes it
	// back in the callback, and it is the only server-generated value a
	// webhook can be matched on.
	CheckoutRequestID string

	// ResultCode is nil until a callback arrives; 0 means success.
	ResultCode *int
	ResultDesc string

	ReceiptNumber   string
	TransactionDate string

	SentAt *time.Time
}

// InFlight reports whether a push was sent within the grace period and
// has not produced a result yet. A zero grace disables the check.
func (a PaymentAttempt) InFlight(now time.Time, grace time.Duration) bool {
	if grace <= 0 {
		return false
	}
	if a.Status != PaymentStatusSent || a.ResultCode != nil || a.SentAt == nil {
		return false
	}
	return now.Sub(*a.SentAt) < grace
}

// PushAck is the gateway's synchronous acknowledgement of a push
// request. It means "accepted for processing", not "paid".
type PushAck struct {
	MerchantRequestID string
	CheckoutRequestID string
	CustomerMessage   string
}

// BeginPaymentAttempt records a freshly acknowledged push on the order.
// Bookkeeping fields are overwritten and result fields reset, but a
// prior successful payment (IsPaid, PaidAt, status paid) is never
// cleared: a stale callback for the old checkout id simply won't match.
func (o *Order) BeginPaymentAttempt(phone string, amount int64, ack PushAck, now time.Time) {
	o.Payment = PaymentAttempt{
		Status:            PaymentStatusSent,
		PayerPhone:        phone,
		RequestedAmount:   amount,
		MerchantRequestID: ack.MerchantRequestID,
		CheckoutRequestID: ack.CheckoutRequestID,
		ResultDesc:        ack.CustomerMessage,
		SentAt:            &now,
	}
	o.UpdatedAt = now
}

// PaymentResult is the outcome extracted from a gateway callback.
type PaymentResult struct {
	ResultCode      int
	ResultDesc      string
	ReceiptNumber   string
	AmountPaid      float64
	TransactionDate string
}

// ApplyPaymentResult reconciles a callback outcome onto the order.
// Descriptive fields are overwritten unconditionally so re-delivered
// callbacks converge on the same state. The paid transition happens
// only for ResultCode 0 and is idempotent; a confirmed attempt never
// transitions away, and IsPaid is never cleared.
func (o *Order) ApplyPaymentResult(res PaymentResult, now time.Time) {
	code := res.ResultCode
	o.Payment.ResultCode = &code
	o.Payment.ResultDesc = res.ResultDesc
	if res.ReceiptNumber != "" {
		o.Payment.ReceiptNumber = res.ReceiptNumber
	}
	if res.TransactionDate != "" {
		o.Payment.TransactionDate = res.TransactionDate
	}

	if o.Payment.Status != PaymentStatusConfirmed {
		if res.ResultCode == 0 {
			o.Payment.Status = PaymentStatusConfirmed
		} else {
			o.Payment.Status = PaymentStatusDeclined
		}
	}

	if res.ResultCode == 0 && !o.IsPaid {
		o.IsPaid = true
		o.PaidAt = &now
		o.Status = OrderStatusPaid
	}
	o.UpdatedAt = now
}
