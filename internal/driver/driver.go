// Package driver runs the toolchain stages in order. The CLI and the REPL
// both go through it so stage logging and error wrapping stay uniform.
package driver

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tupa-lang/tupa/internal/ast"
	"github.com/tupa-lang/tupa/internal/audit"
	"github.com/tupa-lang/tupa/internal/codegen/llvm"
	"github.com/tupa-lang/tupa/internal/config"
	"github.com/tupa-lang/tupa/internal/diag"
	"github.com/tupa-lang/tupa/internal/lexer"
	"github.com/tupa-lang/tupa/internal/parser"
	"github.com/tupa-lang/tupa/internal/plan"
	"github.com/tupa-lang/tupa/internal/runtime"
	"github.com/tupa-lang/tupa/internal/types"
)

// Driver sequences lexing, parsing, checking and the back ends.
type Driver struct {
	cfg      *config.Config
	log      *zap.Logger
	registry *prometheus.Registry
}

// New returns a driver. A nil logger discards output.
func New(cfg *config.Config, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{cfg: cfg, log: log, registry: prometheus.NewRegistry()}
}

// Config returns the driver configuration.
func (d *Driver) Config() *config.Config { return d.cfg }

// Registry returns the registry every run of this driver records metrics on.
func (d *Driver) Registry() *prometheus.Registry { return d.registry }

// Lex tokenizes src.
func (d *Driver) Lex(src string) ([]lexer.Token, error) {
	toks, err := lexer.Lex(src)
	if err != nil {
		return nil, err
	}
	d.log.Debug("lexed", zap.Int("tokens", len(toks)))
	return toks, nil
}

// Parse parses src into a program.
func (d *Driver) Parse(src string) (*ast.Program, error) {
	prog, err := parser.ParseProgram(src)
	if err != nil {
		return nil, err
	}
	d.log.Debug("parsed", zap.Int("items", len(prog.Items)))
	return prog, nil
}

// Check parses and type checks src.
func (d *Driver) Check(src string) (*ast.Program, error) {
	prog, err := d.Parse(src)
	if err != nil {
		return nil, err
	}
	if err := types.CheckProgram(prog); err != nil {
		return nil, err
	}
	d.log.Debug("checked", zap.Int("functions", len(prog.Functions())))
	return prog, nil
}

// Codegen checks src and lowers it to LLVM IR text.
func (d *Driver) Codegen(src string) (string, error) {
	prog, err := d.Check(src)
	if err != nil {
		return "", err
	}
	ir, err := llvm.Generate(prog)
	if err != nil {
		return "", err
	}
	d.log.Debug("generated llvm ir", zap.Int("bytes", len(ir)))
	return ir, nil
}

// Plans analyzes src and returns its execution plans.
func (d *Driver) Plans(src string) ([]*plan.Plan, error) {
	_, plans, err := d.Analyze(src)
	if err != nil {
		return nil, err
	}
	return plans, nil
}

// Analyze parses src, builds plans for its pipeline functions and type checks
// every other function. Pipeline bodies compare metrics bound from calls,
// which the checker types as unknown, so plan.Build validates them instead.
// The program is returned whenever src parses, even if a later stage fails.
func (d *Driver) Analyze(src string) (*ast.Program, []*plan.Plan, error) {
	prog, err := d.Parse(src)
	if err != nil {
		return nil, nil, err
	}

	c := types.NewChecker(prog)
	for _, fn := range prog.Functions() {
		if plan.IsPipeline(fn) {
			continue
		}
		if err := c.CheckFunction(fn); err != nil {
			return prog, nil, err
		}
	}

	plans, err := plan.Build(prog, plan.Options{
		Module:  d.cfg.Plan.Module,
		Version: d.cfg.Plan.Version,
		Seed:    d.cfg.Plan.Seed,
	})
	if err != nil {
		return prog, nil, errors.Wrap(err, "failed to build execution plans")
	}
	d.log.Debug("analyzed", zap.Int("functions", len(prog.Functions())), zap.Int("plans", len(plans)))
	return prog, plans, nil
}

// Run executes the pipeline named pipeline from a plan file over input.
// Runs of one driver accumulate metrics on its registry.
func (d *Driver) Run(ctx context.Context, planFile []byte, pipeline string, input []byte) (*runtime.Result, *runtime.Context, error) {
	plans, err := plan.Unmarshal(planFile)
	if err != nil {
		return nil, nil, err
	}
	p, ok := plan.Find(plans, pipeline)
	if !ok {
		return nil, nil, errors.Errorf("pipeline %q not found in plan file", pipeline)
	}
	data, err := runtime.LoadInput(input)
	if err != nil {
		return nil, nil, err
	}

	rc, err := runtime.NewContext(p.Seed,
		runtime.WithLogger(d.log.Named("runtime")),
		runtime.WithRegistry(d.registry))
	if err != nil {
		return nil, nil, err
	}
	res, err := rc.Run(ctx, p, data)
	if err != nil {
		return nil, rc, errors.Wrapf(err, "failed to run pipeline %s", pipeline)
	}
	return res, rc, nil
}

// Hash parses src and digests it together with the optional JSON input.
func (d *Driver) Hash(src string, input []byte) (string, error) {
	prog, err := d.Parse(src)
	if err != nil {
		return "", err
	}
	var inputs any
	if input != nil {
		if !json.Valid(input) {
			return "", errors.New("input is not valid JSON")
		}
		inputs = json.RawMessage(input)
	}
	return audit.Hash(d.cfg.Plan.Version, prog, inputs)
}

// Diagnose extracts the diagnostic of the stage error wrapped in err.
func Diagnose(err error) (diag.Diagnostic, bool) {
	var d diag.Diagnoser
	if errors.As(err, &d) {
		return d.ToDiagnostic(), true
	}
	return diag.Diagnostic{}, false
}
