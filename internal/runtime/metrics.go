package runtime

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks pipeline execution.
type Metrics struct {
	RunsTotal            *prometheus.CounterVec
	StepsTotal           *prometheus.CounterVec
	StepLatency          *prometheus.HistogramVec
	ConstraintViolations *prometheus.CounterVec
	RowsProcessed        prometheus.Counter
}

// NewMetrics creates the runtime metrics and registers them on registry.
// Collectors already registered by another context are reused.
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{}

	m.RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tupa",
		Subsystem: "runtime",
		Name:      "runs_total",
		Help:      "Total number of pipeline runs by outcome",
	}, []string{"pipeline", "status"})

	m.StepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tupa",
		Subsystem: "runtime",
		Name:      "steps_total",
		Help:      "Total number of executed steps",
	}, []string{"step"})

	m.StepLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tupa",
		Subsystem: "runtime",
		Name:      "step_latency_seconds",
		Help:      "Step latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"step"})

	m.ConstraintViolations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tupa",
		Subsystem: "runtime",
		Name:      "constraint_violations_total",
		Help:      "Total number of failed constraints",
	}, []string{"pipeline", "metric"})

	m.RowsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tupa",
		Subsystem: "runtime",
		Name:      "rows_processed_total",
		Help:      "Total number of input values fed to pipelines",
	})

	var err error
	if m.RunsTotal, err = register(registry, m.RunsTotal); err != nil {
		return nil, err
	}
	if m.StepsTotal, err = register(registry, m.StepsTotal); err != nil {
		return nil, err
	}
	if m.StepLatency, err = register(registry, m.StepLatency); err != nil {
		return nil, err
	}
	if m.ConstraintViolations, err = register(registry, m.ConstraintViolations); err != nil {
		return nil, err
	}
	if m.RowsProcessed, err = register(registry, m.RowsProcessed); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](registry prometheus.Registerer, c C) (C, error) {
	err := registry.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, errors.Wrap(err, "failed to register runtime metrics")
}
