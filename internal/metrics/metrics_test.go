package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveTransition("create", "ok")
	m.ObserveTransition("create", "conflict")
	m.ObserveTransition("create", "conflict")
	m.ObserveSlotQuery("ok", 0.01)
	m.ObserveAutoBook("not_found")
	m.ObserveEvent("appointment.created", "published")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitionsTotal.WithLabelValues("create", "conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.autoBookTotal.WithLabelValues("not_found")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveTransition("confirm", "ok")
	m.ObserveSlotQuery("ok", 1)
	m.ObserveAutoBook("ok")
	m.ObserveEvent("appointment.created", "failed")
}
