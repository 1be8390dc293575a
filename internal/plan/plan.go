// Package plan builds and serializes execution plans: the declarative form of
// a pipeline function consumed by the runtime.
package plan

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// Comparator is the operator of a constraint.
type Comparator string

const (
	Less         Comparator = "<"
	LessEqual    Comparator = "<="
	Greater      Comparator = ">"
	GreaterEqual Comparator = ">="
	Equal        Comparator = "=="
	NotEqual     Comparator = "!="
)

// Holds reports whether `value <cmp> threshold` is true.
func (c Comparator) Holds(value, threshold float64) bool {
	switch c {
	case Less:
		return value < threshold
	case LessEqual:
		return value <= threshold
	case Greater:
		return value > threshold
	case GreaterEqual:
		return value >= threshold
	case Equal:
		return value == threshold
	case NotEqual:
		return value != threshold
	}
	return false
}

// Valid reports whether c is a known comparator.
func (c Comparator) Valid() bool {
	switch c {
	case Less, LessEqual, Greater, GreaterEqual, Equal, NotEqual:
		return true
	}
	return false
}

// Step is one transformation applied to the pipeline input.
type Step struct {
	Name        string   `json:"name"`
	FunctionRef string   `json:"function_ref"`
	Effects     []string `json:"effects"`
	Args        []string `json:"args,omitempty"`
}

// Constraint is a check on a metric evaluated after the run.
type Constraint struct {
	Metric     string     `json:"metric"`
	Comparator Comparator `json:"comparator"`
	Threshold  float64    `json:"threshold"`
}

// MetricPlan computes a metric by calling a registry function over the
// transformed data.
type MetricPlan struct {
	Name        string   `json:"name"`
	FunctionRef string   `json:"function_ref"`
	Args        []string `json:"args"`
}

// Plan is the serialized form of one pipeline.
type Plan struct {
	Name        string             `json:"name"`
	Version     string             `json:"version"`
	Seed        int64              `json:"seed"`
	InputSchema map[string]string  `json:"input_schema"`
	Steps       []Step             `json:"steps"`
	Constraints []Constraint       `json:"constraints"`
	Metrics     map[string]float64 `json:"metrics"`
	MetricPlans []MetricPlan       `json:"metric_plans"`
}

// FunctionRef joins a module and a function name into a registry key.
func FunctionRef(module, name string) string {
	return module + "::" + name
}

// StepRef is the registry key of a step function.
func StepRef(module, name string) string {
	return FunctionRef(module, "step_"+name)
}

// SplitFunctionRef splits "<module>::<name>".
func SplitFunctionRef(ref string) (module, name string, err error) {
	module, name, ok := strings.Cut(ref, "::")
	if !ok || module == "" || name == "" {
		return "", "", errors.Errorf("malformed function reference %q", ref)
	}
	return module, name, nil
}

// Validate checks the structural invariants of a decoded plan.
func (p *Plan) Validate() error {
	if p.Name == "" {
		return errors.New("plan has no name")
	}
	for _, s := range p.Steps {
		if _, _, err := SplitFunctionRef(s.FunctionRef); err != nil {
			return errors.Wrapf(err, "plan %s: step %s", p.Name, s.Name)
		}
	}
	for _, m := range p.MetricPlans {
		if _, _, err := SplitFunctionRef(m.FunctionRef); err != nil {
			return errors.Wrapf(err, "plan %s: metric %s", p.Name, m.Name)
		}
	}
	for _, c := range p.Constraints {
		if !c.Comparator.Valid() {
			return errors.Errorf("plan %s: constraint on %s has unknown comparator %q", p.Name, c.Metric, c.Comparator)
		}
	}
	return nil
}

// Marshal encodes plans as an indented JSON array.
func Marshal(plans []*Plan) ([]byte, error) {
	data, err := json.MarshalIndent(plans, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode plans")
	}
	return append(data, '\n'), nil
}

// Unmarshal decodes and validates a plan file.
func Unmarshal(data []byte) ([]*Plan, error) {
	var plans []*Plan
	if err := json.Unmarshal(data, &plans); err != nil {
		return nil, errors.Wrap(err, "failed to decode plan file")
	}
	for _, p := range plans {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

// Find returns the plan named name.
func Find(plans []*Plan, name string) (*Plan, bool) {
	for _, p := range plans {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}
