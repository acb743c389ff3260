package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/mmynk/weighbill/internal/models"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	hooks := m.Hooks()
	hooks.LineCommitted(models.LineItem{LineTotal: 5})
	hooks.LineCommitted(models.LineItem{LineTotal: 7})
	hooks.BillSaved(models.Receipt{Total: 12})
	hooks.PersistFailed("bills", errors.New("full"))
	m.ObserveRPC("/weighbill.v1.BillService/SaveBill", "ok", 3*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LinesCommitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BillsSaved))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WriteFailures.WithLabelValues("bills")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCRequests.WithLabelValues("/weighbill.v1.BillService/SaveBill", "ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.BillTotal))

	t.Run("registering twice reuses collectors", func(t *testing.T) {
		again := New(reg)
		again.LinesCommitted.Inc()
		assert.Equal(t, 3.0, testutil.ToFloat64(m.LinesCommitted))
	})

	t.Run("subscriber gauge reads the live count", func(t *testing.T) {
		n := 2
		m.RegisterSubscriberGauge(func() int { return n })
		n = 4
		count, err := testutil.GatherAndCount(reg, "weighbill_mini_subscribers")
		assert.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}
