// Package metrics exposes the service's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PushesInitiated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mpesa_pushes_initiated_total",
		Help: "Push payment requests acknowledged by the gateway.",
	})
	PushesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mpesa_pushes_failed_total",
		Help: "Push payment requests rejected locally or by the gateway.",
	})
	CallbacksReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mpesa_callbacks_received_total",
		Help: "Callback deliveries received, including malformed ones.",
	})
	CallbacksMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mpesa_callbacks_matched_total",
		Help: "Callback deliveries matched to an order.",
	})
	PaymentsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mpesa_payments_confirmed_total",
		Help: "Matched callbacks that left the order in a paid state.",
	})
)
