package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/mycophonic/raop/metrics"
)

type fakeFormat struct{ format string }

func (f fakeFormat) SelectedFormat() string { return f.format }

func TestCollectorReportsCounters(t *testing.T) {
	counters := &metrics.Counters{}
	counters.Admitted.Add(3)
	counters.DecodeErrors.Add(1)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(metrics.NewCollector(counters, fakeFormat{"ALAC"}, time.Now())))

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			values[fam.GetName()] = metricValue(m)
		}
	}

	require.Contains(t, values, "raop_buffer_admitted_total")
	require.Equal(t, float64(3), values["raop_buffer_admitted_total"])
	require.Equal(t, float64(1), values["raop_decode_errors_total"])
}

func metricValue(m *dto.Metric) float64 {
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue()
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue()
	default:
		return 0
	}
}
