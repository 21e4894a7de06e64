package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vict-okello/coffee-shop/internal/domain"
)

// OrderRepository persists orders with their embedded payment attempt.
// Customer, items and totals live in JSONB columns; the attempt is
// flattened into dedicated columns so the checkout request id can carry
// a unique index and serve as the webhook reconciliation key.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const orderColumns = `
id, customer, items, totals, status, payment_method, is_paid, paid_at,
mpesa_status, mpesa_phone, mpesa_amount,
COALESCE(mpesa_merchant_request_id, ''), COALESCE(mpesa_checkout_request_id, ''),
mpesa_result_code, mpesa_result_desc, mpesa_receipt_number, mpesa_transaction_date,
mpesa_sent_at, created_at, updated_at`

func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	customer, items, totals, err := marshalOrderDocs(order)
	if err != nil {
		return err
	}

	const stmt = `
INSERT INTO orders (
	id, customer, items, totals, status, payment_method, is_paid, paid_at,
	mpesa_status, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.exec(ctx, stmt,
		order.ID,
		customer,
		items,
		totals,
		order.Status,
		order.PaymentMethod,
		order.IsPaid,
		order.PaidAt,
		order.Payment.Status,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.queryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// GetOrderByCheckoutID locks the matching order row for the duration of
// the enclosing transaction, so near-simultaneous duplicate callbacks
// serialize instead of interleaving. No match returns nil, not an
// error: an unmatched callback is a no-op for the reconciler.
func (r *OrderRepository) GetOrderByCheckoutID(ctx context.Context, checkoutID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE mpesa_checkout_request_id = $1 FOR UPDATE`

	order, err := scanOrder(r.queryRow(ctx, query, checkoutID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get order by checkout id: %w", err)
	}
	return &order, nil
}

// SavePushAttempt writes the attempt bookkeeping recorded at push time.
// It deliberately leaves is_paid/paid_at/status alone: a new attempt
// must never clear a prior successful payment.
func (r *OrderRepository) SavePushAttempt(ctx context.Context, order domain.Order) error {
	const stmt = `
UPDATE orders SET
	mpesa_status = $2,
	mpesa_phone = $3,
	mpesa_amount = $4,
	mpesa_merchant_request_id = NULLIF($5, ''),
	mpesa_checkout_request_id = NULLIF($6, ''),
	mpesa_result_code = NULL,
	mpesa_result_desc = $7,
	mpesa_receipt_number = '',
	mpesa_transaction_date = '',
	mpesa_sent_at = $8,
	updated_at = $9
WHERE id = $1`

	tag, err := r.exec(ctx, stmt,
		order.ID,
		order.Payment.Status,
		order.Payment.PayerPhone,
		order.Payment.RequestedAmount,
		order.Payment.MerchantRequestID,
		order.Payment.CheckoutRequestID,
		order.Payment.ResultDesc,
		order.Payment.SentAt,
		order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("save push attempt: checkout id already tracked: %w", err)
		}
		return fmt.Errorf("save push attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) SavePaymentResult(ctx context.Context, order domain.Order) error {
	const stmt = `
UPDATE orders SET
	status = $2,
	is_paid = $3,
	paid_at = $4,
	mpesa_status = $5,
	mpesa_result_code = $6,
	mpesa_result_desc = $7,
	mpesa_receipt_number = $8,
	mpesa_transaction_date = $9,
	updated_at = $10
WHERE id = $1`

	tag, err := r.exec(ctx, stmt,
		order.ID,
		order.Status,
		order.IsPaid,
		order.PaidAt,
		order.Payment.Status,
		order.Payment.ResultCode,
		order.Payment.ResultDesc,
		order.Payment.ReceiptNumber,
		order.Payment.TransactionDate,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save payment result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func marshalOrderDocs(order domain.Order) (customer, items, totals []byte, err error) {
	if customer, err = json.Marshal(order.Customer); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal customer: %w", err)
	}
	if items, err = json.Marshal(order.Items); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal items: %w", err)
	}
	if totals, err = json.Marshal(order.Totals); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal totals: %w", err)
	}
	return customer, items, totals, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o        domain.Order
		customer []byte
		items    []byte
		totals   []byte
		status   string
		method   string
		mpStatus string
	)
	err := row.Scan(
		&o.ID, &customer, &items, &totals, &status, &method, &o.IsPaid, &o.PaidAt,
		&mpStatus, &o.Payment.PayerPhone, &o.Payment.RequestedAmount,
		&o.Payment.MerchantRequestID, &o.Payment.CheckoutRequestID,
		&o.Payment.ResultCode, &o.Payment.ResultDesc, &o.Payment.ReceiptNumber,
		&o.Payment.TransactionDate, &o.Payment.SentAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	o.PaymentMethod = domain.PaymentMethod(method)
	o.Payment.Status = domain.PaymentStatus(mpStatus)

	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return domain.Order{}, fmt.Errorf("unmarshal customer: %w", err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return domain.Order{}, fmt.Errorf("unmarshal items: %w", err)
	}
	if err := json.Unmarshal(totals, &o.Totals); err != nil {
		return domain.Order{}, fmt.Errorf("unmarshal totals: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
