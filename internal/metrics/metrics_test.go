package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("test_endpoint")
		ObserveSaga(150 * time.Millisecond)
	})
}

func TestCounters(t *testing.T) {
	before := counterValue(t, effects.WithLabelValues("refund", "failed"))
	IncEffect("refund", "failed")
	assert.Equal(t, before+1, counterValue(t, effects.WithLabelValues("refund", "failed")))

	before = counterValue(t, cancellations.WithLabelValues("success"))
	IncCancellation("success")
	assert.Equal(t, before+1, counterValue(t, cancellations.WithLabelValues("success")))

	before = counterValue(t, refunds.WithLabelValues("issued"))
	IncRefund("issued")
	assert.Equal(t, before+1, counterValue(t, refunds.WithLabelValues("issued")))
}
