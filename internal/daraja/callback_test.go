package daraja

import "testing"

func TestParseCallback(t *testing.T) {
	t.Parallel()

	t.Run("successful callback with metadata", func(t *testing.T) {
		t.Parallel()

		body := []byte(`{
  "Body": {
    "stkCallback": {
      "MerchantRequestID": "merch-1",
      "CheckoutRequestID": "ws_CO_1",
      "ResultCode": 0,
      "ResultDesc": "The service request is processed successfully.",
      "CallbackMetadata": {
        "Item": [
          {"Name": "Amount", "Value": 500},
          {"Name": "MpesaReceiptNumber", "Value": "ABC123"},
          {"Name": "TransactionDate", "Value": 20240101120000},
          {"Name": "PhoneNumber", "Value": 254712345678}
        ]
      }
    }
  }
}`)

		res, ok := ParseCallback(body)
		if !ok {
			t.Fatalf("expected callback to parse")
		}
		if res.CheckoutRequestID != "ws_CO_1" {
			t.Fatalf("expected ws_CO_1, got %s", res.CheckoutRequestID)
		}
		if res.ResultCode != 0 {
			t.Fatalf("expected result code 0, got %d", res.ResultCode)
		}
		if res.ReceiptNumber != "ABC123" {
			t.Fatalf("expected receipt ABC123, got %s", res.ReceiptNumber)
		}
		if res.AmountPaid != 500 {
			t.Fatalf("expected amount 500, got %v", res.AmountPaid)
		}
		if res.TransactionDate != "20240101120000" {
			t.Fatalf("expected transaction date 20240101120000, got %s", res.TransactionDate)
		}
	})

	t.Run("declined callback without metadata", func(t *testing.T) {
		t.Parallel()

		body := []byte(`{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_2","ResultCode":1032,"ResultDesc":"Request cancelled by user"}}}`)

		res, ok := ParseCallback(body)
		if !ok {
			t.Fatalf("expected callback to parse")
		}
		if res.ResultCode != 1032 {
			t.Fatalf("expected result code 1032, got %d", res.ResultCode)
		}
		if res.ReceiptNumber != "" {
			t.Fatalf("expected empty receipt, got %s", res.ReceiptNumber)
		}
	})

	t.Run("missing envelope is not a callback", func(t *testing.T) {
		t.Parallel()

		for _, body := range []string{
			`{}`,
			`{"Body":{}}`,
			`{"Body":{"stkCallback":{}}}`,
			`not json`,
			``,
		} {
			if _, ok := ParseCallback([]byte(body)); ok {
				t.Fatalf("expected %q not to parse as a callback", body)
			}
		}
	})
}
