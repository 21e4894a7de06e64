package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeMethodNotAllowed      = "method_not_allowed"
	codeNotFound              = "not_found"
	codeInvalidRequestBody    = "invalid_request_body"
	codeOrderNotFound         = "order_not_found"
	codeInvalidID             = "invalid_id"
	codeInvalidPhone          = "invalid_phone"
	codeInvalidAmount         = "invalid_amount"
	codePushInFlight          = "push_in_flight"
	codeGatewayError          = "gateway_error"
	codeCustomerInfoRequired  = "customer_info_required"
	codeOrderItemsRequired    = "order_items_required"
	codeTotalsRequired        = "totals_required"
	codeInvalidPaymentMethod  = "invalid_payment_method"
	codeForbidden             = "forbidden"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	// Detail carries gateway-provided diagnostics for operator use.
	Detail string `json:"detail,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorDetail(w, status, code, msg, "")
}

func writeErrorDetail(w http.ResponseWriter, status int, code, msg, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error:  msg,
		Code:   code,
		Detail: detail,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}
