package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vict-okello/coffee-shop/internal/app"
	"github.com/vict-okello/coffee-shop/internal/domain"
	"github.com/vict-okello/coffee-shop/internal/metrics"
)

// PushInitiator is the minimal interface needed to start a push payment.
type PushInitiator interface {
	InitiatePush(ctx context.Context, in app.InitiatePushInput) (app.InitiatePushResult, error)
}

// HandleStkPush returns an HTTP handler for initiating push payments.
// A success response only means the gateway accepted the request; the
// caller is expected to poll the order until the callback lands.
func HandleStkPush(svc PushInitiator, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req stkPushRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.OrderID == "" || req.Phone == "" {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "order_id and phone are required")
			return
		}

		res, err := svc.InitiatePush(r.Context(), app.InitiatePushInput{
			OrderID: req.OrderID,
			Phone:   req.Phone,
		})
		if err != nil {
			metrics.PushesFailed.Inc()
			switch {
			case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrInvalidID):
				writeError(w, http.StatusNotFound, codeOrderNotFound, domain.ErrOrderNotFound.Error())
			case errors.Is(err, domain.ErrInvalidPhone):
				writeError(w, http.StatusBadRequest, codeInvalidPhone, err.Error())
			case errors.Is(err, domain.ErrInvalidAmount):
				writeError(w, http.StatusBadRequest, codeInvalidAmount, err.Error())
			case errors.Is(err, domain.ErrPushInFlight):
				writeError(w, http.StatusConflict, codePushInFlight, err.Error())
			case errors.Is(err, domain.ErrGatewayAuth), errors.Is(err, domain.ErrGatewayPush):
				// Full detail goes to the log; the response carries the
				// gateway's diagnostics so operators can act on it.
				logger.Errorw("stk push failed", "order_id", req.OrderID, "error", err)
				writeErrorDetail(w, http.StatusBadGateway, codeGatewayError, "payment request failed", err.Error())
			default:
				logger.Errorw("stk push failed", "order_id", req.OrderID, "error", err)
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		metrics.PushesInitiated.Inc()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stkPushResponse{
			OK:                true,
			Message:           res.Message,
			MerchantRequestID: res.MerchantRequestID,
			CheckoutRequestID: res.CheckoutRequestID,
		})
	}
}

type stkPushRequest struct {
	OrderID string `json:"order_id"`
	Phone   string `json:"phone"`
}

type stkPushResponse struct {
	OK                bool   `json:"ok"`
	Message           string `json:"message"`
	MerchantRequestID string `json:"merchant_request_id"`
	CheckoutRequestID string `json:"checkout_request_id"`
}
