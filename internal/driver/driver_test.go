package driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tupa-lang/tupa/internal/config"
	"github.com/tupa-lang/tupa/internal/diag"
	"github.com/tupa-lang/tupa/internal/plan"
)

const pipelineSrc = `
fn prepare(data: [f64]) {
    let seed = 11;
    drop_nan();
    clip(0.0, 100.0);
    shuffle();
    let avg = mean();
    let spread = stddev();
    avg < 50;
    spread >= 0;
}
`

func newDriver(t *testing.T) *Driver {
	return New(config.Default(), zaptest.NewLogger(t))
}

func TestCheckAndCodegen(t *testing.T) {
	d := newDriver(t)

	prog, err := d.Check("fn sq(x: i64) -> i64 { return x * x; }")
	require.NoError(t, err)
	assert.Len(t, prog.Functions(), 1)

	ir, err := d.Codegen("fn sq(x: i64) -> i64 { return x * x; }")
	require.NoError(t, err)
	assert.Contains(t, ir, "define i64 @sq(i64 %arg.x) {")
}

func TestStageDiagnostics(t *testing.T) {
	tests := []struct {
		name  string
		run   func(d *Driver) error
		stage diag.Stage
		code  diag.Code
	}{
		{
			name:  "lexer",
			run:   func(d *Driver) error { _, err := d.Lex("let a = 1 @ 2;"); return err },
			stage: diag.StageLexer,
			code:  diag.CodeLexerUnexpectedChar,
		},
		{
			name:  "parser",
			run:   func(d *Driver) error { _, err := d.Check("fn f(a: i64) { a + 1 a; }"); return err },
			stage: diag.StageParser,
			code:  diag.CodeParseMissingSemicolon,
		},
		{
			name:  "checker",
			run:   func(d *Driver) error { _, err := d.Check("fn f() { let a: i64 = true; }"); return err },
			stage: diag.StageTypeCheck,
			code:  diag.CodeTypeMismatch,
		},
		{
			name:  "plan",
			run:   func(d *Driver) error { _, err := d.Plans("fn p() { sort(); let m = mean(); m < limit; }"); return err },
			stage: diag.StagePlan,
			code:  diag.CodePlanInvalid,
		},
		{
			name:  "codegen",
			run:   func(d *Driver) error { _, err := d.Codegen(`fn f() { let s = "x"; }`); return err },
			stage: diag.StageCodegen,
			code:  diag.CodeGenUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(newDriver(t))
			require.Error(t, err)
			d, ok := Diagnose(err)
			require.True(t, ok)
			assert.Equal(t, tt.stage, d.Stage)
			assert.Equal(t, tt.code, d.Code)
		})
	}

	_, ok := Diagnose(assert.AnError)
	assert.False(t, ok)
}

func TestPlansAndRun(t *testing.T) {
	d := newDriver(t)

	plans, err := d.Plans(pipelineSrc)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, int64(11), plans[0].Seed)

	planFile, err := plan.Marshal(plans)
	require.NoError(t, err)

	input := []byte(`{"readings": [10, null, 250, 30, 20]}`)
	res, rc, err := d.Run(context.Background(), planFile, "prepare", input)
	require.NoError(t, err)
	require.NotNil(t, rc)
	assert.Len(t, res.Output, 4)
	assert.ElementsMatch(t, []float64{10, 100, 30, 20}, res.Output)
	assert.InDelta(t, 40.0, res.Metrics["avg"], 1e-12)
	assert.True(t, res.Passed)

	again, rc2, err := d.Run(context.Background(), planFile, "prepare", input)
	require.NoError(t, err)
	assert.Equal(t, res.Output, again.Output)
	assert.Same(t, d.Registry(), rc.Registry())
	assert.Same(t, rc.Registry(), rc2.Registry())
	assert.Equal(t, int64(11), rc2.Seed())

	families, err := d.Registry().Gather()
	require.NoError(t, err)
	var runs float64
	for _, mf := range families {
		if mf.GetName() == "tupa_runtime_runs_total" {
			for _, m := range mf.GetMetric() {
				runs += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, runs)

	_, _, err = d.Run(context.Background(), planFile, "missing", input)
	assert.Error(t, err)
}

func TestAnalyzeSplitsPipelines(t *testing.T) {
	d := newDriver(t)

	prog, plans, err := d.Analyze(pipelineSrc + "fn sq(x: i64) -> i64 { return x * x; }")
	require.NoError(t, err)
	assert.Len(t, prog.Functions(), 2)
	require.Len(t, plans, 1)
	assert.Equal(t, "prepare", plans[0].Name)

	// The checker alone rejects the metric comparison.
	_, err = d.Check(pipelineSrc)
	dg, ok := Diagnose(err)
	require.True(t, ok)
	assert.Equal(t, diag.CodeTypeInvalidBinary, dg.Code)

	prog, _, err = d.Analyze(pipelineSrc + "fn bad() { let x: i64 = f(); }")
	require.NotNil(t, prog)
	dg, ok = Diagnose(err)
	require.True(t, ok)
	assert.Equal(t, diag.CodeTypeMismatch, dg.Code)

	prog, _, err = d.Analyze("fn f( {")
	assert.Nil(t, prog)
	assert.Error(t, err)
}

func TestPlansUseConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Plan.Module = "lab"
	cfg.Plan.Seed = 5
	d := New(cfg, nil)

	plans, err := d.Plans("fn p() { sort(); }")
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "lab::step_sort", plans[0].Steps[0].FunctionRef)
	assert.Equal(t, int64(5), plans[0].Seed)
}

func TestHash(t *testing.T) {
	d := newDriver(t)

	bare, err := d.Hash(pipelineSrc, nil)
	require.NoError(t, err)
	withInput, err := d.Hash(pipelineSrc, []byte("[1, 2]"))
	require.NoError(t, err)
	reformatted, err := d.Hash(pipelineSrc, []byte("[ 1,2 ]"))
	require.NoError(t, err)

	assert.NotEqual(t, bare, withInput)
	assert.Equal(t, withInput, reformatted)

	_, err = d.Hash(pipelineSrc, []byte("[1,"))
	assert.Error(t, err)
}
