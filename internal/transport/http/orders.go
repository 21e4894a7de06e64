package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/vict-okello/coffee-shop/internal/app"
	"github.com/vict-okello/coffee-shop/internal/domain"
)

// OrderCreator is the minimal interface needed to create an order.
type OrderCreator interface {
	CreateOrder(ctx context.Context, in app.CreateOrderInput) (domain.Order, error)
}

// OrderGetter is the minimal interface behind the order read endpoint,
// which doubles as the confirmation poller's data source.
type OrderGetter interface {
	GetOrder(ctx context.Context, id string) (domain.Order, error)
}

// HandleCreateOrder returns an HTTP handler for creating orders.
func HandleCreateOrder(svc OrderCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createOrderRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		order, err := svc.CreateOrder(r.Context(), app.CreateOrderInput{
			Customer:      req.Customer,
			Items:         req.Items,
			Totals:        req.Totals,
			PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		})
		if err != nil {
			switch err {
			case domain.ErrCustomerInfoRequired:
				writeError(w, http.StatusBadRequest, codeCustomerInfoRequired, err.Error())
			case domain.ErrOrderItemsRequired:
				writeError(w, http.StatusBadRequest, codeOrderItemsRequired, err.Error())
			case domain.ErrTotalsRequired:
				writeError(w, http.StatusBadRequest, codeTotalsRequired, err.Error())
			case domain.ErrInvalidPaymentMethod:
				writeError(w, http.StatusBadRequest, codeInvalidPaymentMethod, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(toOrderResponse(order))
	}
}

// HandleGetOrder returns an HTTP handler for reading a single order.
func HandleGetOrder(svc OrderGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		id, ok := parseOrderPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		order, err := svc.GetOrder(r.Context(), id)
		if err != nil {
			switch err {
			case domain.ErrOrderNotFound, domain.ErrInvalidID:
				writeError(w, http.StatusNotFound, codeOrderNotFound, domain.ErrOrderNotFound.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toOrderResponse(order))
	}
}

func parseOrderPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] != "orders" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type createOrderRequest struct {
	Customer      domain.Customer    `json:"customer"`
	Items         []domain.OrderItem `json:"items"`
	Totals        domain.Totals      `json:"totals"`
	PaymentMethod string             `json:"payment_method"`
}

type orderResponse struct {
	ID            string             `json:"id"`
	Customer      domain.Customer    `json:"customer"`
	Items         []domain.OrderItem `json:"items"`
	Totals        domain.Totals      `json:"totals"`
	Status        string             `json:"status"`
	PaymentMethod string             `json:"payment_method"`
	IsPaid        bool               `json:"is_paid"`
	PaidAt        *time.Time         `json:"paid_at,omitempty"`
	Payment       paymentResponse    `json:"payment"`
	CreatedAt     time.Time          `json:"created_at"`
}

type paymentResponse struct {
	Status            string `json:"status"`
	PayerPhone        string `json:"payer_phone,omitempty"`
	RequestedAmount   int64  `json:"requested_amount,omitempty"`
	MerchantRequestID string `json:"merchant_request_id,omitempty"`
	CheckoutRequestID string `json:"checkout_request_id,omitempty"`
	ResultCode        *int   `json:"result_code,omitempty"`
	ResultDesc        string `json:"result_desc,omitempty"`
	ReceiptNumber     string `json:"receipt_number,omitempty"`
	TransactionDate   string `json:"transaction_date,omitempty"`
}

func toOrderResponse(order domain.Order) orderResponse {
	return orderResponse{
		ID:            order.ID,
		Customer:      order.Customer,
		Items:         order.Items,
		Totals:        order.Totals,
		Status:        string(order.Status),
		PaymentMethod: string(order.PaymentMethod),
		IsPaid:        order.IsPaid,
		PaidAt:        order.PaidAt,
		Payment: paymentResponse{
			Status:            string(order.Payment.Status),
			PayerPhone:        order.Payment.PayerPhone,
			RequestedAmount:   order.Payment.RequestedAmount,
			MerchantRequestID: order.Payment.MerchantRequestID,
			CheckoutRequestID: order.Payment.CheckoutRequestID,
			ResultCode:        order.Payment.ResultCode,
			ResultDesc:        order.Payment.ResultDesc,
			ReceiptNumber:     order.Payment.ReceiptNumber,
			TransactionDate:   order.Payment.TransactionDate,
		},
		CreatedAt: order.CreatedAt,
	}
}
