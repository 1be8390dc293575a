package plan

import (
	"fmt"
	"strconv"

	"github.com/tupa-lang/tupa/internal/ast"
	"github.com/tupa-lang/tupa/internal/diag"
	"github.com/tupa-lang/tupa/internal/lexer"
)

// Options configures plan building.
type Options struct {
	// Module prefixes every function reference. Defaults to "std".
	Module string
	// Version is recorded in every plan.
	Version string
	// Seed is used when a pipeline does not bind `seed`.
	Seed int64
}

// DefaultModule is the runtime's built-in registry module.
const DefaultModule = "std"

// DefaultVersion is the plan version used when none is configured.
const DefaultVersion = "0.1.0"

// BuildError reports a pipeline statement that cannot be planned.
type BuildError struct {
	Function string
	Reason   string
	Span     lexer.Span
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("pipeline %s: %s at %d..%d", e.Function, e.Reason, e.Span.Start, e.Span.End)
}

// ToDiagnostic converts the error into a diagnostic.
func (e *BuildError) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StagePlan,
		Severity: diag.SeverityError,
		Code:     diag.CodePlanInvalid,
		Message:  fmt.Sprintf("in pipeline %s: %s", e.Function, e.Reason),
		Span:     diag.Span{Start: e.Span.Start, End: e.Span.End},
	}
}

var comparators = map[ast.BinaryOp]Comparator{
	ast.OpLess:         Less,
	ast.OpLessEqual:    LessEqual,
	ast.OpGreater:      Greater,
	ast.OpGreaterEqual: GreaterEqual,
	ast.OpEqual:        Equal,
	ast.OpNotEqual:     NotEqual,
}

// Build extracts a plan from every pipeline function of prog, in declaration
// order. A pipeline is a function whose top-level body calls at least one
// step:
//
//	normalize();              // step std::step_normalize
//	clip(0.0, 1.0);           // step with literal args
//	let seed = 42;            // plan seed
//	let budget = 10;          // static metric
//	let avg = mean();         // metric plan std::mean
//	avg < 0.5;                // constraint
//
// Other statements are ignored.
func Build(prog *ast.Program, opts Options) ([]*Plan, error) {
	if opts.Module == "" {
		opts.Module = DefaultModule
	}
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}

	var plans []*Plan
	for _, fn := range prog.Functions() {
		if !IsPipeline(fn) {
			continue
		}
		p, err := buildPlan(prog, fn, opts)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// IsPipeline reports whether fn calls a step at the top level of its body.
func IsPipeline(fn *ast.FnDecl) bool {
	if fn.Body == nil {
		return false
	}
	for _, stmt := range fn.Body.Stmts {
		es, ok := stmt.(*ast.ExprStmt)
		if !ok {
			continue
		}
		if call, ok := es.Expr.(*ast.CallExpr); ok {
			if _, ok := call.Callee.(*ast.Ident); ok {
				return true
			}
		}
	}
	return false
}

func buildPlan(prog *ast.Program, fn *ast.FnDecl, opts Options) (*Plan, error) {
	p := &Plan{
		Name:        fn.Name.Name,
		Version:     opts.Version,
		Seed:        opts.Seed,
		InputSchema: make(map[string]string, len(fn.Params)),
		Steps:       []Step{},
		Constraints: []Constraint{},
		Metrics:     map[string]float64{},
		MetricPlans: []MetricPlan{},
	}
	for _, param := range fn.Params {
		p.InputSchema[param.Name.Name] = ast.TypeString(param.Type)
	}

	fail := func(reason string, node ast.Node) error {
		return &BuildError{Function: fn.Name.Name, Reason: reason, Span: node.Span()}
	}

	for _, stmt := range fn.Body.Stmts {
		switch s := stmt.(type) {
		case *ast.ExprStmt:
			switch e := s.Expr.(type) {
			case *ast.CallExpr:
				callee, ok := e.Callee.(*ast.Ident)
				if !ok {
					continue
				}
				args, err := literalArgs(e.Args)
				if err != nil {
					return nil, fail(err.Error(), e)
				}
				p.Steps = append(p.Steps, Step{
					Name:        callee.Name,
					FunctionRef: StepRef(opts.Module, callee.Name),
					Effects:     effectsOf(prog, callee.Name),
					Args:        args,
				})
			case *ast.BinaryExpr:
				cmp, ok := comparators[e.Op]
				metric, isIdent := e.Left.(*ast.Ident)
				if !ok || !isIdent {
					continue
				}
				threshold, ok := numericLiteral(e.Right)
				if !ok {
					return nil, fail("constraint threshold must be a number literal", e.Right)
				}
				p.Constraints = append(p.Constraints, Constraint{Metric: metric.Name, Comparator: cmp, Threshold: threshold})
			}

		case *ast.LetStmt:
			name := s.Name.Name
			if name == "seed" {
				seed, ok := intLiteral(s.Value)
				if !ok {
					return nil, fail("seed must be an integer literal", s.Value)
				}
				p.Seed = seed
				continue
			}
			if value, ok := numericLiteral(s.Value); ok {
				p.Metrics[name] = value
				continue
			}
			if call, ok := s.Value.(*ast.CallExpr); ok {
				callee, ok := call.Callee.(*ast.Ident)
				if !ok {
					continue
				}
				args, err := literalArgs(call.Args)
				if err != nil {
					return nil, fail(err.Error(), call)
				}
				if args == nil {
					args = []string{}
				}
				p.MetricPlans = append(p.MetricPlans, MetricPlan{
					Name:        name,
					FunctionRef: FunctionRef(opts.Module, callee.Name),
					Args:        args,
				})
			}
		}
	}
	return p, nil
}

// effectsOf returns the Safe constraints on the declared return type of the
// step function name, if the program declares it.
func effectsOf(prog *ast.Program, name string) []string {
	effects := []string{}
	fn := prog.Function(name)
	if fn == nil {
		return effects
	}
	if safe, ok := fn.ReturnType.(*ast.SafeType); ok {
		effects = append(effects, safe.Constraints...)
	}
	return effects
}

func intLiteral(expr ast.Expr) (int64, bool) {
	switch e := expr.(type) {
	case *ast.IntLit:
		return e.Value, true
	case *ast.UnaryExpr:
		if v, ok := intLiteral(e.Operand); ok && e.Op == ast.OpNeg {
			return -v, true
		}
	}
	return 0, false
}

func numericLiteral(expr ast.Expr) (float64, bool) {
	switch e := expr.(type) {
	case *ast.IntLit:
		return float64(e.Value), true
	case *ast.FloatLit:
		return e.Value, true
	case *ast.UnaryExpr:
		if v, ok := numericLiteral(e.Operand); ok && e.Op == ast.OpNeg {
			return -v, true
		}
	}
	return 0, false
}

// literalArgs renders call arguments, which must be literals, as strings.
func literalArgs(args []ast.Expr) ([]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]string, len(args))
	for i, arg := range args {
		s, ok := literalString(arg)
		if !ok {
			return nil, fmt.Errorf("argument %d must be a literal", i+1)
		}
		out[i] = s
	}
	return out, nil
}

func literalString(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.IntLit:
		return strconv.FormatInt(e.Value, 10), true
	case *ast.FloatLit:
		return strconv.FormatFloat(e.Value, 'g', -1, 64), true
	case *ast.StringLit:
		return e.Value, true
	case *ast.BoolLit:
		return strconv.FormatBool(e.Value), true
	case *ast.UnaryExpr:
		if s, ok := literalString(e.Operand); ok && e.Op == ast.OpNeg {
			return "-" + s, true
		}
	}
	return "", false
}
