package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tupa-lang/tupa/internal/diag"
	"github.com/tupa-lang/tupa/internal/parser"
)

const pipelineSrc = `
fn normalize(xs: [f64]) -> Safe<[f64], !nan, !inf> { return xs; }

fn helper(x: i64) -> i64 { return x + 1; }

fn clean(data: [f64], limit: i64) {
    let seed = 7;
    let budget = 10;
    let ratio = -0.5;
    normalize();
    clip(0.0, 1.5);
    let avg = mean();
    let q = quantile(0.9);
    avg < 0.5;
    q >= -1;
    let ignored = helper(2) + 1;
}
`

func build(t *testing.T, src string, opts Options) ([]*Plan, error) {
	t.Helper()
	prog, err := parser.ParseProgram(src)
	require.NoError(t, err)
	return Build(prog, opts)
}

func TestBuildPipeline(t *testing.T) {
	plans, err := build(t, pipelineSrc, Options{})
	require.NoError(t, err)
	require.Len(t, plans, 1)

	p := plans[0]
	assert.Equal(t, "clean", p.Name)
	assert.Equal(t, DefaultVersion, p.Version)
	assert.Equal(t, int64(7), p.Seed)
	assert.Equal(t, map[string]string{"data": "[f64]", "limit": "i64"}, p.InputSchema)

	assert.Equal(t, []Step{
		{Name: "normalize", FunctionRef: "std::step_normalize", Effects: []string{"nan", "inf"}},
		{Name: "clip", FunctionRef: "std::step_clip", Effects: []string{}, Args: []string{"0", "1.5"}},
	}, p.Steps)
	assert.Equal(t, map[string]float64{"budget": 10, "ratio": -0.5}, p.Metrics)
	assert.Equal(t, []MetricPlan{
		{Name: "avg", FunctionRef: "std::mean", Args: []string{}},
		{Name: "q", FunctionRef: "std::quantile", Args: []string{"0.9"}},
	}, p.MetricPlans)
	assert.Equal(t, []Constraint{
		{Metric: "avg", Comparator: Less, Threshold: 0.5},
		{Metric: "q", Comparator: GreaterEqual, Threshold: -1},
	}, p.Constraints)
}

func TestBuildOptions(t *testing.T) {
	plans, err := build(t, "fn p() { sort(); }", Options{Module: "lab", Version: "2.0.0", Seed: 99})
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "lab::step_sort", plans[0].Steps[0].FunctionRef)
	assert.Equal(t, "2.0.0", plans[0].Version)
	assert.Equal(t, int64(99), plans[0].Seed)
}

func TestBuildSkipsNonPipelines(t *testing.T) {
	plans, err := build(t, "fn f(x: i64) -> i64 { return x; } fn g() { let a = 1; } fn h(a: i64, b: i64) { a < b; let seed = 1.5; }", Options{})
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func TestIsPipeline(t *testing.T) {
	prog, err := parser.ParseProgram(`
fn a() { sort(); }
fn b() { let m = mean(); }
fn c() { if true { sort(); } }
fn d() { x.run(); }
`)
	require.NoError(t, err)

	var got []bool
	for _, fn := range prog.Functions() {
		got = append(got, IsPipeline(fn))
	}
	assert.Equal(t, []bool{true, false, false, false}, got)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		reason string
	}{
		{"non-literal step arg", "fn p(x: f64) { clip(x, 1.0); }", "argument 1 must be a literal"},
		{"non-literal seed", "fn p() { let seed = 1.5; sort(); }", "seed must be an integer literal"},
		{"non-literal threshold", "fn p() { sort(); let m = mean(); m < limit; }", "constraint threshold must be a number literal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := build(t, tt.src, Options{})
			var berr *BuildError
			require.ErrorAs(t, err, &berr)
			assert.Equal(t, "p", berr.Function)
			assert.Equal(t, tt.reason, berr.Reason)

			d := berr.ToDiagnostic()
			assert.Equal(t, diag.StagePlan, d.Stage)
			assert.Equal(t, diag.CodePlanInvalid, d.Code)
			assert.Equal(t, berr.Span.Start, d.Span.Start)
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	plans, err := build(t, pipelineSrc, Options{})
	require.NoError(t, err)

	data, err := Marshal(plans)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"function_ref": "std::step_normalize"`)
	assert.Contains(t, string(data), `"metric_plans": [`)
	assert.NotContains(t, string(data), `"args": null`)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, plans, decoded)

	found, ok := Find(decoded, "clean")
	require.True(t, ok)
	assert.Equal(t, "clean", found.Name)
	_, ok = Find(decoded, "missing")
	assert.False(t, ok)
}

func TestUnmarshalValidates(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{"},
		{"no name", `[{"steps": []}]`},
		{"bad ref", `[{"name": "p", "steps": [{"name": "s", "function_ref": "nomodule"}]}]`},
		{"bad comparator", `[{"name": "p", "constraints": [{"metric": "m", "comparator": "~", "threshold": 1}]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestComparatorHolds(t *testing.T) {
	assert.True(t, Less.Holds(1, 2))
	assert.False(t, Less.Holds(2, 2))
	assert.True(t, LessEqual.Holds(2, 2))
	assert.True(t, Greater.Holds(3, 2))
	assert.True(t, GreaterEqual.Holds(2, 2))
	assert.True(t, Equal.Holds(2, 2))
	assert.True(t, NotEqual.Holds(1, 2))
	assert.False(t, Comparator("~").Holds(1, 1))
}

func TestSplitFunctionRef(t *testing.T) {
	module, name, err := SplitFunctionRef("std::step_sort")
	require.NoError(t, err)
	assert.Equal(t, "std", module)
	assert.Equal(t, "step_sort", name)

	for _, bad := range []string{"", "std", "::x", "std::"} {
		_, _, err := SplitFunctionRef(bad)
		assert.Error(t, err, bad)
	}
}
