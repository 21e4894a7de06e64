package daraja

import (
	"encoding/json"
	"strconv"

	"github.com/vict-okello/coffee-shop/internal/domain"
)

// The gateway posts a nested envelope:
//
//	{ "Body": { "stkCallback": {
//	    "CheckoutRequestID": ..., "ResultCode": ..., "ResultDesc": ...,
//	    "CallbackMetadata": { "Item": [ {"Name":..., "Value":...}, ... ] } } } }
//
// Metadata values are untyped JSON (numbers for Amount and
// TransactionDate, strings for the receipt), so they are decoded as any
// and coerced.
type callbackEnvelope struct {
	Body struct {
		STKCallback *stkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type stkCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  struct {
		Item []metadataItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

type metadataItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

// CallbackResult is the reconciliation-relevant content of a callback.
type CallbackResult struct {
	CheckoutRequestID string
	domain.PaymentResult
}

// ParseCallback extracts the result envelope from a raw callback body.
// A body without the expected shape is not an error, just not a
// callback: ok is false and the caller acknowledges and moves on.
func ParseCallback(body []byte) (CallbackResult, bool) {
	var env callbackEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return CallbackResult{}, false
	}
	stk := env.Body.STKCallback
	if stk == nil || stk.CheckoutRequestID == "" {
		return CallbackResult{}, false
	}

	res := CallbackResult{
		CheckoutRequestID: stk.CheckoutRequestID,
		PaymentResult: domain.PaymentResult{
			ResultCode: stk.ResultCode,
			ResultDesc: stk.ResultDesc,
		},
	}
	for _, item := range stk.CallbackMetadata.Item {
		switch item.Name {
		case "MpesaReceiptNumber":
			res.ReceiptNumber = asString(item.Value)
		case "Amount":
			res.AmountPaid = asFloat(item.Value)
		case "TransactionDate":
			res.TransactionDate = asString(item.Value)
		}
	}
	return res, true
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	}
	return 0
}
