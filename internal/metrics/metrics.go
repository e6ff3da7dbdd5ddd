package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Settlement holds the collectors for the payment-settlement workflow.
// All methods are nil-receiver safe so tests can pass a nil instance.
type Settlement struct {
	reconcileApplied   *prometheus.CounterVec
	reconcileDuplicate prometheus.Counter
	reconcileRejected  prometheus.Counter
	ordersFailed       prometheus.Counter
	webhookAuthFailed  prometheus.Counter
	gatewayDuration    *prometheus.HistogramVec
}

func New() *Settlement {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors on a caller-supplied
// registry; tests use this to gather in isolation.
func NewWithRegisterer(registerer prometheus.Registerer) *Settlement {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Settlement{
		reconcileApplied: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "festora_reconcile_applied_total",
			Help: "Settlements applied, by resulting payment status",
		}, []string{"status"}),
		reconcileDuplicate: registerCounter(registerer, prometheus.CounterOpts{
			Name: "festora_reconcile_duplicate_total",
			Help: "Reconciliation signals skipped by the idempotency guard",
		}),
		reconcileRejected: registerCounter(registerer, prometheus.CounterOpts{
			Name: "festora_reconcile_rejected_total",
			Help: "Invalid status transitions rejected",
		}),
		ordersFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "festora_orders_failed_total",
			Help: "Orders marked failed",
		}),
		webhookAuthFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "festora_webhook_auth_failures_total",
			Help: "Webhook requests rejected for bad authorization",
		}),
		gatewayDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "festora_gateway_request_duration_seconds",
			Help:    "Duration of PhonePe API calls, by logical endpoint",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

func (s *Settlement) ReconcileApplied(status string) {
	if s == nil {
		return
	}
	s.reconcileApplied.WithLabelValues(status).Inc()
}

func (s *Settlement) ReconcileDuplicate() {
	if s == nil {
		return
	}
	s.reconcileDuplicate.Inc()
}

func (s *Settlement) ReconcileRejected() {
	if s == nil {
		return
	}
	s.reconcileRejected.Inc()
}

func (s *Settlement) OrderFailed() {
	if s == nil {
		return
	}
	s.ordersFailed.Inc()
}

func (s *Settlement) WebhookAuthFailure() {
	if s == nil {
		return
	}
	s.webhookAuthFailed.Inc()
}

// ObserveGateway records a gateway call duration. The endpoint label
// must be a fixed operation name, never a request path: interpolated
// ids would mint a new series per order.
func (s *Settlement) ObserveGateway(endpoint string, d time.Duration) {
	if s == nil {
		return
	}
	s.gatewayDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}
