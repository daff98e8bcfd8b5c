package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewWithRegisterer("test", prometheus.NewRegistry())

	m.IncReservationOperation("create", "ok")
	m.IncReservationOperation("create", "ok")
	m.IncCapacityRejection("aggregate")
	m.ObserveDBQuery("select", 0.01, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReservationOperations.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CapacityRejections.WithLabelValues("aggregate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("select")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.IncReservationOperation("create", "ok")
		m.IncCapacityRejection("party")
		m.IncTxRetry("serializable")
		m.ObserveHTTPRequest("GET", "/x", "200", 0.1)
		m.ObserveDBQuery("select", 0.1, nil)
		m.IncRelayPublished("created")
		m.IncRelayError("publish")
	})
}
