package runtime

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tupa-lang/tupa/internal/plan"
)

// ConstraintResult is the outcome of one plan constraint.
type ConstraintResult struct {
	plan.Constraint
	Value   float64 `json:"value"`
	Missing bool    `json:"missing,omitempty"`
	Passed  bool    `json:"passed"`
}

// Result is the outcome of a pipeline run.
type Result struct {
	Pipeline    string             `json:"pipeline"`
	Seed        int64              `json:"seed"`
	Output      []float64          `json:"output"`
	Metrics     map[string]float64 `json:"metrics"`
	Constraints []ConstraintResult `json:"constraints"`
	Passed      bool               `json:"passed"`
}

// Run executes p over data: steps in order, then metric plans, then
// constraints. A failing constraint is reported in the result, not as an
// error. Cancellation of ctx is observed between steps.
func (c *Context) Run(ctx context.Context, p *plan.Plan, data []float64) (*Result, error) {
	log := c.log.With(zap.String("pipeline", p.Name), zap.Int64("seed", c.Seed()))
	c.metrics.RowsProcessed.Add(float64(len(data)))

	res, err := c.run(ctx, log, p, data)
	status := "ok"
	switch {
	case err != nil:
		status = "error"
		log.Info("pipeline failed", zap.Error(err))
	case !res.Passed:
		status = "violated"
		log.Info("pipeline finished with violated constraints")
	default:
		log.Info("pipeline finished", zap.Int("rows", len(res.Output)))
	}
	c.metrics.RunsTotal.WithLabelValues(p.Name, status).Inc()
	return res, err
}

func (c *Context) run(ctx context.Context, log *zap.Logger, p *plan.Plan, data []float64) (*Result, error) {
	current := append([]float64{}, data...)
	for _, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "pipeline %s interrupted before step %s", p.Name, step.Name)
		}
		fn, err := c.Step(step.FunctionRef)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve step %s", step.Name)
		}

		start := time.Now()
		out, err := fn(c, current, step.Args)
		c.metrics.StepLatency.WithLabelValues(step.Name).Observe(time.Since(start).Seconds())
		c.metrics.StepsTotal.WithLabelValues(step.Name).Inc()
		if err != nil {
			return nil, errors.Wrapf(err, "step %s failed", step.Name)
		}
		if err := checkEffects(step, out); err != nil {
			return nil, err
		}
		log.Debug("step done", zap.String("step", step.Name), zap.Int("rows", len(out)))
		current = out
	}
	if current == nil {
		current = []float64{}
	}

	res := &Result{
		Pipeline:    p.Name,
		Seed:        c.Seed(),
		Output:      current,
		Metrics:     make(map[string]float64, len(p.Metrics)+len(p.MetricPlans)),
		Constraints: make([]ConstraintResult, 0, len(p.Constraints)),
		Passed:      true,
	}
	for name, v := range p.Metrics {
		res.Metrics[name] = v
	}
	for _, mp := range p.MetricPlans {
		fn, err := c.Metric(mp.FunctionRef)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve metric %s", mp.Name)
		}
		v, err := fn(current, mp.Args)
		if err != nil {
			return nil, errors.Wrapf(err, "metric %s failed", mp.Name)
		}
		res.Metrics[mp.Name] = v
	}

	for _, con := range p.Constraints {
		cr := ConstraintResult{Constraint: con}
		v, ok := res.Metrics[con.Metric]
		if ok {
			cr.Value = v
			cr.Passed = con.Comparator.Holds(v, con.Threshold)
		} else {
			cr.Missing = true
		}
		if !cr.Passed {
			res.Passed = false
			c.metrics.ConstraintViolations.WithLabelValues(p.Name, con.Metric).Inc()
			log.Debug("constraint violated",
				zap.String("metric", con.Metric),
				zap.String("comparator", string(con.Comparator)),
				zap.Float64("threshold", con.Threshold),
				zap.Bool("missing", cr.Missing))
		}
		res.Constraints = append(res.Constraints, cr)
	}
	return res, nil
}

// checkEffects enforces the `!nan` and `!inf` refinements of a step. Other
// effect names are not checked at run time.
func checkEffects(step plan.Step, out []float64) error {
	for _, effect := range step.Effects {
		var bad func(float64) bool
		switch effect {
		case "nan":
			bad = math.IsNaN
		case "inf":
			bad = func(v float64) bool { return math.IsInf(v, 0) }
		default:
			continue
		}
		for i, v := range out {
			if bad(v) {
				return &EffectViolationError{Step: step.Name, Effect: effect, Index: i, Value: v}
			}
		}
	}
	return nil
}
