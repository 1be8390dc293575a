// Package runtime interprets execution plans over numeric data. All mutable
// state (function registry, PRNG, metrics) lives in a Context built per run.
package runtime

import (
	"math/rand/v2"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tupa-lang/tupa/internal/plan"
)

// StepFunc transforms the pipeline data. Implementations must not modify data
// in place.
type StepFunc func(c *Context, data []float64, args []string) ([]float64, error)

// MetricFunc reduces the pipeline data to a single value.
type MetricFunc func(data []float64, args []string) (float64, error)

// Context bundles the function registry, the PRNG and the observability
// hooks of one pipeline execution.
type Context struct {
	seed     int64
	rng      *rand.Rand
	steps    map[string]StepFunc
	reducers map[string]MetricFunc
	log      *zap.Logger
	registry *prometheus.Registry
	metrics  *Metrics
}

// Option customizes a Context.
type Option func(*Context)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *Context) { c.log = log }
}

// WithRegistry registers the runtime metrics on registry instead of a
// private one. Contexts sharing a registry share their counters.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *Context) { c.registry = registry }
}

// WithStep registers or replaces a step function under ref.
func WithStep(ref string, fn StepFunc) Option {
	return func(c *Context) { c.steps[ref] = fn }
}

// WithMetric registers or replaces a metric function under ref.
func WithMetric(ref string, fn MetricFunc) Option {
	return func(c *Context) { c.reducers[ref] = fn }
}

// NewContext returns a context seeded with seed and holding the std registry.
// It fails when the runtime metrics clash with collectors already on the
// registry.
func NewContext(seed int64, opts ...Option) (*Context, error) {
	c := &Context{
		seed:     seed,
		rng:      rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9E3779B97F4A7C15)),
		steps:    make(map[string]StepFunc, len(stdSteps)),
		reducers: make(map[string]MetricFunc, len(stdMetrics)),
		log:      zap.NewNop(),
	}
	for name, fn := range stdSteps {
		c.steps[plan.StepRef(plan.DefaultModule, name)] = fn
	}
	for name, fn := range stdMetrics {
		c.reducers[plan.FunctionRef(plan.DefaultModule, name)] = fn
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = prometheus.NewRegistry()
	}
	metrics, err := NewMetrics(c.registry)
	if err != nil {
		return nil, err
	}
	c.metrics = metrics
	return c, nil
}

// Seed returns the seed the PRNG was built from.
func (c *Context) Seed() int64 { return c.seed }

// Rand exposes the context PRNG to step functions.
func (c *Context) Rand() *rand.Rand { return c.rng }

// Registry returns the prometheus registry holding the runtime metrics.
func (c *Context) Registry() *prometheus.Registry { return c.registry }

// Step looks up a step function by reference.
func (c *Context) Step(ref string) (StepFunc, error) {
	fn, ok := c.steps[ref]
	if !ok {
		return nil, &UnknownFunctionError{Ref: ref}
	}
	return fn, nil
}

// Metric looks up a metric function by reference.
func (c *Context) Metric(ref string) (MetricFunc, error) {
	fn, ok := c.reducers[ref]
	if !ok {
		return nil, &UnknownFunctionError{Ref: ref}
	}
	return fn, nil
}
