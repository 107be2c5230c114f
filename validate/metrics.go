package validate

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
)

// Metrics counts validation outcomes per route and method.
type Metrics struct {
	validated *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg when it is
// non-nil. Registering twice with the same registry reuses the existing
// collector.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		validated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swaggerwrap",
			Name:      "requests_validated_total",
			Help:      "Requests checked by the parameter validator, by outcome.",
		}, []string{"route", "method", "outcome"}),
	}
	if reg == nil {
		return m, nil
	}
	if err := reg.Register(m.validated); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if !errors.As(err, &alreadyRegErr) {
			return nil, err
		}
		existing, ok := alreadyRegErr.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		m.validated = existing
	}
	return m, nil
}

// Validated returns the counter for one label set.
func (m *Metrics) Validated(route, method, outcome string) prometheus.Counter {
	return m.validated.WithLabelValues(route, method, outcome)
}

func (m *Metrics) observe(route, method, outcome string) {
	if m == nil {
		return
	}
	m.Validated(route, method, outcome).Inc()
}
