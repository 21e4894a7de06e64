package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vict-okello/coffee-shop/internal/domain"
	"github.com/vict-okello/coffee-shop/internal/testutil"
)

func TestOrderRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewOrderRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("CreateOrder and GetOrder roundtrip", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		now := time.Now().UTC().Truncate(time.Millisecond)
		order := domain.Order{
			ID:            uuid.NewString(),
			Customer:      domain.Customer{FullName: "Jane Wanjiku", Phone: "0712345678", Address: "Nairobi CBD"},
			Items:         []domain.OrderItem{{Name: "Flat white", Price: 250, Qty: 2}},
			Totals:        domain.Totals{Subtotal: 500, Total: 500},
			Status:        domain.OrderStatusPending,
			PaymentMethod: domain.PaymentMethodMpesa,
			Payment:       domain.PaymentAttempt{Status: domain.PaymentStatusUnsent},
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := repo.CreateOrder(ctx, order); err != nil {
			t.Fatalf("create order: %v", err)
		}

		got, err := repo.GetOrder(ctx, order.ID)
		if err != nil {
			t.Fatalf("get order: %v", err)
		}
		if got.Customer.FullName != "Jane Wanjiku" || len(got.Items) != 1 || got.Totals.Total != 500 {
			t.Fatalf("unexpected order: %+v", got)
		}
		if got.Status != domain.OrderStatusPending || got.Payment.Status != domain.PaymentStatusUnsent {
			t.Fatalf("unexpected statuses: %s / %s", got.Status, got.Payment.Status)
		}
		if got.IsPaid || got.PaidAt != nil {
			t.Fatalf("fresh order must not be paid: %+v", got)
		}
	})

	t.Run("GetOrder maps missing and malformed ids", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		if _, err := repo.GetOrder(ctx, uuid.NewString()); err != domain.ErrOrderNotFound {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
		if _, err := repo.GetOrder(ctx, "not-a-uuid"); err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("SavePushAttempt stores ids and GetOrderByCheckoutID finds them", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		id := testutil.InsertOrder(t, ctx, pool, domain.Order{Totals: domain.Totals{Total: 500}})

		order, err := repo.GetOrder(ctx, id)
		if err != nil {
			t.Fatalf("get order: %v", err)
		}
		order.BeginPaymentAttempt("254712345678", 500, domain.PushAck{
			MerchantRequestID: "mr-1",
			CheckoutRequestID: "ws_CO_abc",
		}, time.Now().UTC())

		if err := repo.SavePushAttempt(ctx, order); err != nil {
			t.Fatalf("save push attempt: %v", err)
		}

		err = repo.WithTx(ctx, func(txCtx context.Context) error {
			got, err := repo.GetOrderByCheckoutID(txCtx, "ws_CO_abc")
			if err != nil {
				t.Fatalf("get by checkout id: %v", err)
			}
			if got == nil || got.ID != id {
				t.Fatalf("expected order %s, got %+v", id, got)
			}
			if got.Payment.Status != domain.PaymentStatusSent || got.Payment.PayerPhone != "254712345678" {
				t.Fatalf("unexpected attempt: %+v", got.Payment)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("tx failed: %v", err)
		}

		got, err := repo.GetOrderByCheckoutID(ctx, "ws_CO_missing")
		if err != nil {
			t.Fatalf("get by unknown checkout id: %v", err)
		}
		if got != nil {
			t.Fatalf("expected nil for unknown checkout id, got %+v", got)
		}
	})

	t.Run("SavePushAttempt resets result fields but keeps paid state", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		id := testutil.InsertOrder(t, ctx, pool, domain.Order{Totals: domain.Totals{Total: 500}})

		order, err := repo.GetOrder(ctx, id)
		if err != nil {
			t.Fatalf("get order: %v", err)
		}
		now := time.Now().UTC()
		order.BeginPaymentAttempt("254712345678", 500, domain.PushAck{CheckoutRequestID: "ws_CO_first"}, now)
		if err := repo.SavePushAttempt(ctx, order); err != nil {
			t.Fatalf("save first attempt: %v", err)
		}
		order.ApplyPaymentResult(domain.PaymentResult{ResultCode: 0, ResultDesc: "Success", ReceiptNumber: "ABC123"}, now)
		if err := repo.SavePaymentResult(ctx, order); err != nil {
			t.Fatalf("save result: %v", err)
		}

		// Second push on the same order keeps the paid columns intact.
		order, err = repo.GetOrder(ctx, id)
		if err != nil {
			t.Fatalf("reload order: %v", err)
		}
		order.BeginPaymentAttempt("254712345678", 500, domain.PushAck{CheckoutRequestID: "ws_CO_second"}, now.Add(time.Minute))
		if err := repo.SavePushAttempt(ctx, order); err != nil {
			t.Fatalf("save second attempt: %v", err)
		}

		got, err := repo.GetOrder(ctx, id)
		if err != nil {
			t.Fatalf("reload order: %v", err)
		}
		if !got.IsPaid || got.PaidAt == nil || got.Status != domain.OrderStatusPaid {
			t.Fatalf("paid state must survive a new push: %+v", got)
		}
		if got.Payment.CheckoutRequestID != "ws_CO_second" || got.Payment.ResultCode != nil {
			t.Fatalf("expected reset attempt: %+v", got.Payment)
		}
		if got.Payment.ReceiptNumber != "" {
			t.Fatalf("expected receipt cleared on new attempt, got %q", got.Payment.ReceiptNumber)
		}
	})

	t.Run("SavePaymentResult marks paid and re-applies cleanly", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		id := testutil.InsertOrder(t, ctx, pool, domain.Order{Totals: domain.Totals{Total: 750}})

		order, err := repo.GetOrder(ctx, id)
		if err != nil {
			t.Fatalf("get order: %v", err)
		}
		now := time.Now().UTC()
		order.BeginPaymentAttempt("254798765432", 750, domain.PushAck{CheckoutRequestID: "ws_CO_pay"}, now)
		if err := repo.SavePushAttempt(ctx, order); err != nil {
			t.Fatalf("save attempt: %v", err)
		}

		result := domain.PaymentResult{ResultCode: 0, ResultDesc: "Success", ReceiptNumber: "XYZ789", TransactionDate: "20250201120000"}
		order.ApplyPaymentResult(result, now)
		if err := repo.SavePaymentResult(ctx, order); err != nil {
			t.Fatalf("save result: %v", err)
		}

		got, err := repo.GetOrder(ctx, id)
		if err != nil {
			t.Fatalf("reload order: %v", err)
		}
		if !got.IsPaid || got.Payment.Status != domain.PaymentStatusConfirmed {
			t.Fatalf("expected confirmed paid order: %+v", got)
		}
		if got.Payment.ReceiptNumber != "XYZ789" || got.Payment.TransactionDate != "20250201120000" {
			t.Fatalf("unexpected result fields: %+v", got.Payment)
		}
		firstPaidAt := got.PaidAt

		// Re-delivered callback converges on the same row.
		got.ApplyPaymentResult(result, now.Add(time.Minute))
		if err := repo.SavePaymentResult(ctx, got); err != nil {
			t.Fatalf("re-save result: %v", err)
		}
		again, err := repo.GetOrder(ctx, id)
		if err != nil {
			t.Fatalf("reload order: %v", err)
		}
		if !again.IsPaid || !again.PaidAt.Equal(*firstPaidAt) {
			t.Fatalf("re-delivery must not move paid_at: %v vs %v", again.PaidAt, firstPaidAt)
		}
	})

	t.Run("checkout id is unique across orders", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		firstID := testutil.InsertOrder(t, ctx, pool, domain.Order{Totals: domain.Totals{Total: 100}})
		secondID := testutil.InsertOrder(t, ctx, pool, domain.Order{Totals: domain.Totals{Total: 200}})

		now := time.Now().UTC()
		first, err := repo.GetOrder(ctx, firstID)
		if err != nil {
			t.Fatalf("get first: %v", err)
		}
		first.BeginPaymentAttempt("254712345678", 100, domain.PushAck{CheckoutRequestID: "ws_CO_dup"}, now)
		if err := repo.SavePushAttempt(ctx, first); err != nil {
			t.Fatalf("save first attempt: %v", err)
		}

		second, err := repo.GetOrder(ctx, secondID)
		if err != nil {
			t.Fatalf("get second: %v", err)
		}
		second.BeginPaymentAttempt("254712345678", 200, domain.PushAck{CheckoutRequestID: "ws_CO_dup"}, now)
		if err := repo.SavePushAttempt(ctx, second); err == nil {
			t.Fatalf("expected unique violation for duplicate checkout id")
		}
	})
}
