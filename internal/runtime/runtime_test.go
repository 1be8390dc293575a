package runtime

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tupa-lang/tupa/internal/plan"
)

func step(name string, args ...string) plan.Step {
	return plan.Step{Name: name, FunctionRef: plan.StepRef(plan.DefaultModule, name), Effects: []string{}, Args: args}
}

func newContext(t *testing.T, seed int64, opts ...Option) *Context {
	t.Helper()
	c, err := NewContext(seed, opts...)
	require.NoError(t, err)
	return c
}

func TestStdSteps(t *testing.T) {
	tests := []struct {
		name string
		args []string
		in   []float64
		want []float64
	}{
		{"normalize", nil, []float64{2, 4, 6}, []float64{0, 0.5, 1}},
		{"normalize", nil, []float64{3, 3}, []float64{0, 0}},
		{"standardize", nil, []float64{1, 3}, []float64{-1, 1}},
		{"sort", nil, []float64{3, 1, 2}, []float64{1, 2, 3}},
		{"dedupe", nil, []float64{1, 2, 1, 3, 2}, []float64{1, 2, 3}},
		{"drop_nan", nil, []float64{1, math.NaN(), 2}, []float64{1, 2}},
		{"clip", []string{"0", "1"}, []float64{-1, 0.5, 2}, []float64{0, 0.5, 1}},
		{"abs", nil, []float64{-1, 2, -3.5}, []float64{1, 2, 3.5}},
	}

	c := newContext(t, 1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := c.Step(plan.StepRef(plan.DefaultModule, tt.name))
			require.NoError(t, err)
			in := slices.Clone(tt.in)
			out, err := fn(c, in, tt.args)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, out, 1e-12)
			assert.Equal(t, len(tt.in), len(in))
		})
	}
}

func TestStdMetrics(t *testing.T) {
	data := []float64{4, 1, 3, 2}
	tests := []struct {
		name string
		args []string
		want float64
	}{
		{"count", nil, 4},
		{"sum", nil, 10},
		{"mean", nil, 2.5},
		{"variance", nil, 1.25},
		{"stddev", nil, math.Sqrt(1.25)},
		{"min", nil, 1},
		{"max", nil, 4},
		{"quantile", []string{"0.5"}, 2.5},
		{"quantile", []string{"1"}, 4},
		{"quantile", []string{"0"}, 1},
	}

	c := newContext(t, 1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := c.Metric(plan.FunctionRef(plan.DefaultModule, tt.name))
			require.NoError(t, err)
			got, err := fn(data, tt.args)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestArgumentErrors(t *testing.T) {
	c := newContext(t, 1)
	clip, err := c.Step(plan.StepRef(plan.DefaultModule, "clip"))
	require.NoError(t, err)
	quantile, err := c.Metric(plan.FunctionRef(plan.DefaultModule, "quantile"))
	require.NoError(t, err)

	var aerr *ArgumentError
	_, err = clip(c, []float64{1}, []string{"0"})
	require.ErrorAs(t, err, &aerr)
	_, err = clip(c, []float64{1}, []string{"2", "1"})
	require.ErrorAs(t, err, &aerr)
	_, err = clip(c, []float64{1}, []string{"x", "1"})
	require.ErrorAs(t, err, &aerr)
	_, err = quantile([]float64{1}, []string{"1.5"})
	require.ErrorAs(t, err, &aerr)

	_, err = quantile(nil, []string{"0.5"})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestShuffleIsSeeded(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	p := &plan.Plan{Name: "p", Steps: []plan.Step{step("shuffle")}}

	first, err := newContext(t, 42).Run(context.Background(), p, data)
	require.NoError(t, err)
	second, err := newContext(t, 42).Run(context.Background(), p, data)
	require.NoError(t, err)
	assert.Equal(t, first.Output, second.Output)

	sorted := slices.Clone(first.Output)
	slices.Sort(sorted)
	assert.Equal(t, data, sorted)
}

func TestRunPipeline(t *testing.T) {
	p := &plan.Plan{
		Name:  "clean",
		Seed:  3,
		Steps: []plan.Step{step("drop_nan"), step("clip", "0", "10"), step("sort")},
		Constraints: []plan.Constraint{
			{Metric: "avg", Comparator: plan.Less, Threshold: 5},
			{Metric: "n", Comparator: plan.GreaterEqual, Threshold: 10},
			{Metric: "budget", Comparator: plan.Equal, Threshold: 2},
			{Metric: "missing", Comparator: plan.Less, Threshold: 1},
		},
		Metrics: map[string]float64{"budget": 2},
		MetricPlans: []plan.MetricPlan{
			{Name: "avg", FunctionRef: "std::mean", Args: []string{}},
			{Name: "n", FunctionRef: "std::count", Args: []string{}},
		},
	}

	c := newContext(t, p.Seed, WithLogger(zaptest.NewLogger(t)))
	res, err := c.Run(context.Background(), p, []float64{12, math.NaN(), -3, 4})
	require.NoError(t, err)

	assert.Equal(t, "clean", res.Pipeline)
	assert.Equal(t, int64(3), res.Seed)
	assert.Equal(t, []float64{0, 4, 10}, res.Output)
	assert.Equal(t, map[string]float64{"budget": 2, "avg": 14.0 / 3, "n": 3}, res.Metrics)
	require.Len(t, res.Constraints, 4)
	assert.True(t, res.Constraints[0].Passed)
	assert.False(t, res.Constraints[1].Passed)
	assert.True(t, res.Constraints[2].Passed)
	assert.True(t, res.Constraints[3].Missing)
	assert.False(t, res.Passed)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.RunsTotal.WithLabelValues("clean", "violated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.StepsTotal.WithLabelValues("sort")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ConstraintViolations.WithLabelValues("clean", "n")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ConstraintViolations.WithLabelValues("clean", "missing")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.metrics.RowsProcessed))
}

func TestRunEnforcesEffects(t *testing.T) {
	poison := func(_ *Context, data []float64, _ []string) ([]float64, error) {
		return append(slices.Clone(data), math.Inf(1)), nil
	}
	c := newContext(t, 1, WithStep("lab::step_poison", poison))

	p := &plan.Plan{Name: "p", Steps: []plan.Step{
		{Name: "poison", FunctionRef: "lab::step_poison", Effects: []string{"nan", "inf"}},
	}}
	_, err := c.Run(context.Background(), p, []float64{1})
	var eerr *EffectViolationError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, "inf", eerr.Effect)
	assert.Equal(t, 1, eerr.Index)

	p.Steps[0].Effects = []string{"nan", "positive"}
	res, err := c.Run(context.Background(), p, []float64{1})
	require.NoError(t, err)
	assert.Len(t, res.Output, 2)
}

func TestRunUnknownFunction(t *testing.T) {
	c := newContext(t, 1)
	var uerr *UnknownFunctionError

	_, err := c.Run(context.Background(), &plan.Plan{Name: "p", Steps: []plan.Step{step("teleport")}}, nil)
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "std::step_teleport", uerr.Ref)

	_, err = c.Run(context.Background(), &plan.Plan{
		Name:        "p",
		Steps:       []plan.Step{step("sort")},
		MetricPlans: []plan.MetricPlan{{Name: "m", FunctionRef: "std::median"}},
	}, []float64{1})
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "std::median", uerr.Ref)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.metrics.RunsTotal.WithLabelValues("p", "error")))
}

func TestCustomMetric(t *testing.T) {
	spread := func(data []float64, _ []string) (float64, error) {
		return slices.Max(data) - slices.Min(data), nil
	}
	c := newContext(t, 9, WithMetric("lab::spread", spread))
	assert.Equal(t, int64(9), c.Seed())

	res, err := c.Run(context.Background(), &plan.Plan{
		Name:        "p",
		MetricPlans: []plan.MetricPlan{{Name: "range", FunctionRef: "lab::spread"}},
		Constraints: []plan.Constraint{{Metric: "range", Comparator: plan.LessEqual, Threshold: 5}},
	}, []float64{4, -1, 3})
	require.NoError(t, err)
	assert.Equal(t, 5.0, res.Metrics["range"])
	assert.Equal(t, int64(9), res.Seed)
	assert.True(t, res.Passed)
}

func TestSharedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	p := &plan.Plan{Name: "p", Steps: []plan.Step{step("sort")}}

	first := newContext(t, 1, WithRegistry(registry))
	second := newContext(t, 2, WithRegistry(registry))
	assert.Same(t, registry, second.Registry())

	_, err := first.Run(context.Background(), p, []float64{2, 1})
	require.NoError(t, err)
	_, err = second.Run(context.Background(), p, []float64{3})
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(first.metrics.RunsTotal.WithLabelValues("p", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(second.metrics.RowsProcessed))
}

func TestRegistryConflict(t *testing.T) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tupa",
		Subsystem: "runtime",
		Name:      "runs_total",
		Help:      "Something else entirely",
	}))

	c, err := NewContext(1, WithRegistry(registry))
	assert.Nil(t, c)
	assert.ErrorContains(t, err, "failed to register runtime metrics")
}

func TestRunStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newContext(t, 1).Run(ctx, &plan.Plan{Name: "p", Steps: []plan.Step{step("sort")}}, []float64{1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadInput(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    []float64
		wantErr bool
	}{
		{name: "array", data: "[1, 2.5, -3]", want: []float64{1, 2.5, -3}},
		{name: "object", data: `{"values": [4, 5], "label": "x"}`, want: []float64{4, 5}},
		{name: "empty array", data: "[]", want: []float64{}},
		{name: "two arrays", data: `{"a": [1], "b": [2]}`, wantErr: true},
		{name: "no array", data: `{"a": 1}`, wantErr: true},
		{name: "string element", data: `[1, "2"]`, wantErr: true},
		{name: "scalar", data: "7", wantErr: true},
		{name: "malformed", data: "[1,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadInput([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := LoadInput([]byte("[1, null]"))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got[1]))
}
