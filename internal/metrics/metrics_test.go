package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewWithRegisterer(reg)
	require.NotNil(t, s)

	s.ReconcileApplied("completed")
	s.ReconcileApplied("pending_upfront")
	s.ReconcileDuplicate()
	s.ReconcileRejected()
	s.OrderFailed()
	s.WebhookAuthFailure()
	s.ObserveGateway("create_checkout", 120*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["festora_reconcile_applied_total"])
	assert.True(t, names["festora_gateway_request_duration_seconds"])
}

func TestDuplicateRegistrationReturnsExisting(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewWithRegisterer(reg)
	second := NewWithRegisterer(reg)

	assert.NotNil(t, first)
	assert.NotNil(t, second)
}

func TestNilReceiverIsSafe(t *testing.T) {
	var s *Settlement
	assert.NotPanics(t, func() {
		s.ReconcileApplied("completed")
		s.ReconcileDuplicate()
		s.ReconcileRejected()
		s.OrderFailed()
		s.WebhookAuthFailure()
		s.ObserveGateway("order_status", time.Millisecond)
	})
}
