package runtime

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrEmptyInput is returned by metrics that are undefined on empty data.
var ErrEmptyInput = errors.New("metric is undefined on empty data")

// UnknownFunctionError reports a plan reference missing from the registry.
type UnknownFunctionError struct {
	Ref string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown function %q", e.Ref)
}

// EffectViolationError reports step output that breaks a declared effect.
type EffectViolationError struct {
	Step   string
	Effect string
	Index  int
	Value  float64
}

func (e *EffectViolationError) Error() string {
	return fmt.Sprintf("step %s violates !%s: element %d is %v", e.Step, e.Effect, e.Index, e.Value)
}

// ArgumentError reports bad literal arguments to a registry function.
type ArgumentError struct {
	Function string
	Reason   string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Function, e.Reason)
}
