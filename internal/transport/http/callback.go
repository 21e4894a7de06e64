package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/vict-okello/coffee-shop/internal/app"
	"github.com/vict-okello/coffee-shop/internal/metrics"
)

const maxCallbackBody = 1 << 20

// CallbackReconciler is the minimal interface needed to apply a gateway
// callback.
type CallbackReconciler interface {
	HandleCallback(ctx context.Context, body []byte) (app.ReconcileOutcome, error)
}

// HandleMpesaCallback returns the handler for the gateway's result
// webhook. The contract with the gateway is to always acknowledge with
// a success body: the gateway retries on anything else, and a malformed
// or unmatched delivery must not cause a retry storm. Internal failures
// are logged, never surfaced.
//
// When secret is non-empty, deliveries must carry it in the ?secret=
// query parameter; mismatches are acknowledged identically but ignored,
// so probing reveals nothing.
func HandleMpesaCallback(svc CallbackReconciler, logger *zap.SugaredLogger, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		defer acknowledge(w)

		metrics.CallbacksReceived.Inc()

		if secret != "" {
			got := r.URL.Query().Get("secret")
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				logger.Warnw("callback rejected: bad secret", "remote", r.RemoteAddr)
				return
			}
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
		if err != nil {
			logger.Errorw("callback body read failed", "error", err)
			return
		}

		outcome, err := svc.HandleCallback(r.Context(), body)
		if err != nil {
			logger.Errorw("callback reconciliation failed", "error", err)
			return
		}
		if !outcome.Matched {
			logger.Infow("callback ignored: no matching order")
			return
		}

		metrics.CallbacksMatched.Inc()
		if outcome.Paid {
			metrics.PaymentsConfirmed.Inc()
		}
		logger.Infow("callback reconciled", "order_id", outcome.OrderID, "paid", outcome.Paid)
	}
}

func acknowledge(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ResultCode": 0,
		"ResultDesc": "Accepted",
	})
}
