package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Value reads the current value of a single counter or gauge.
// It is meant for tests that need to observe metric side effects.
func Value(c prometheus.Collector) (float64, error) {
	ch := make(chan prometheus.Metric, 1)
	go func() {
		c.Collect(ch)
		close(ch)
	}()

	var value float64
	for m := range ch {
		pb := &dto.Metric{}
		if err := m.Write(pb); err != nil {
			return 0, err
		}
		switch {
		case pb.Counter != nil:
			value = pb.Counter.GetValue()
		case pb.Gauge != nil:
			value = pb.Gauge.GetValue()
		}
	}
	return value, nil
}

// CounterValue reads one child of a CounterVec.
func CounterValue(metric *prometheus.CounterVec, labels ...string) (float64, error) {
	return Value(metric.WithLabelValues(labels...))
}

// GaugeValue reads one child of a GaugeVec.
func GaugeValue(metric *prometheus.GaugeVec, labels ...string) (float64, error) {
	return Value(metric.WithLabelValues(labels...))
}
