// Package metrics exposes Prometheus counters for the order and account
// paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shopmall",
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Orders successfully created.",
	})

	OrdersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shopmall",
		Subsystem: "orders",
		Name:      "cancelled_total",
		Help:      "Orders cancelled (user or admin).",
	})

	PaymentVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopmall",
		Subsystem: "payments",
		Name:      "verifications_total",
		Help:      "Payment gateway verification attempts by result.",
	}, []string{"result"})

	AccountLockouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shopmall",
		Subsystem: "accounts",
		Name:      "lockouts_total",
		Help:      "Accounts locked after repeated login failures.",
	})
)
