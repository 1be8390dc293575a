package runtime

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
)

var stdSteps = map[string]StepFunc{
	"normalize":   stepNormalize,
	"standardize": stepStandardize,
	"shuffle":     stepShuffle,
	"sort":        stepSort,
	"dedupe":      stepDedupe,
	"drop_nan":    stepDropNaN,
	"clip":        stepClip,
	"abs":         stepAbs,
}

var stdMetrics = map[string]MetricFunc{
	"count":    metricCount,
	"sum":      metricSum,
	"mean":     metricMean,
	"variance": metricVariance,
	"stddev":   metricStddev,
	"min":      metricMin,
	"max":      metricMax,
	"quantile": metricQuantile,
}

func floatArgs(fn string, args []string, want int) ([]float64, error) {
	if len(args) != want {
		return nil, &ArgumentError{Function: fn, Reason: fmt.Sprintf("takes %d arguments, got %d", want, len(args))}
	}
	out := make([]float64, want)
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, &ArgumentError{Function: fn, Reason: fmt.Sprintf("argument %d is not a number: %q", i+1, a)}
		}
		out[i] = v
	}
	return out, nil
}

func mapValues(data []float64, f func(float64) float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = f(v)
	}
	return out
}

// stepNormalize rescales data to [0, 1]. Constant data maps to zeros.
func stepNormalize(_ *Context, data []float64, args []string) ([]float64, error) {
	if _, err := floatArgs("normalize", args, 0); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []float64{}, nil
	}
	lo, hi := slices.Min(data), slices.Max(data)
	span := hi - lo
	return mapValues(data, func(v float64) float64 {
		if span == 0 {
			return 0
		}
		return (v - lo) / span
	}), nil
}

// stepStandardize shifts data to zero mean and unit population deviation.
func stepStandardize(_ *Context, data []float64, args []string) ([]float64, error) {
	if _, err := floatArgs("standardize", args, 0); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []float64{}, nil
	}
	mean := sum(data) / float64(len(data))
	sd := math.Sqrt(variance(data))
	return mapValues(data, func(v float64) float64 {
		if sd == 0 {
			return 0
		}
		return (v - mean) / sd
	}), nil
}

func stepShuffle(c *Context, data []float64, args []string) ([]float64, error) {
	if _, err := floatArgs("shuffle", args, 0); err != nil {
		return nil, err
	}
	out := slices.Clone(data)
	c.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}

func stepSort(_ *Context, data []float64, args []string) ([]float64, error) {
	if _, err := floatArgs("sort", args, 0); err != nil {
		return nil, err
	}
	out := slices.Clone(data)
	slices.Sort(out)
	return out, nil
}

// stepDedupe keeps the first occurrence of every value.
func stepDedupe(_ *Context, data []float64, args []string) ([]float64, error) {
	if _, err := floatArgs("dedupe", args, 0); err != nil {
		return nil, err
	}
	seen := make(map[float64]bool, len(data))
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if math.IsNaN(v) {
			out = append(out, v)
			continue
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out, nil
}

func stepDropNaN(_ *Context, data []float64, args []string) ([]float64, error) {
	if _, err := floatArgs("drop_nan", args, 0); err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// stepClip bounds every value to [lo, hi].
func stepClip(_ *Context, data []float64, args []string) ([]float64, error) {
	bounds, err := floatArgs("clip", args, 2)
	if err != nil {
		return nil, err
	}
	lo, hi := bounds[0], bounds[1]
	if lo > hi {
		return nil, &ArgumentError{Function: "clip", Reason: fmt.Sprintf("lower bound %v exceeds upper bound %v", lo, hi)}
	}
	return mapValues(data, func(v float64) float64 {
		return math.Min(math.Max(v, lo), hi)
	}), nil
}

func stepAbs(_ *Context, data []float64, args []string) ([]float64, error) {
	if _, err := floatArgs("abs", args, 0); err != nil {
		return nil, err
	}
	return mapValues(data, math.Abs), nil
}

func sum(data []float64) float64 {
	var total float64
	for _, v := range data {
		total += v
	}
	return total
}

// variance is the population variance.
func variance(data []float64) float64 {
	mean := sum(data) / float64(len(data))
	var acc float64
	for _, v := range data {
		d := v - mean
		acc += d * d
	}
	return acc / float64(len(data))
}

func metricCount(data []float64, args []string) (float64, error) {
	if _, err := floatArgs("count", args, 0); err != nil {
		return 0, err
	}
	return float64(len(data)), nil
}

func metricSum(data []float64, args []string) (float64, error) {
	if _, err := floatArgs("sum", args, 0); err != nil {
		return 0, err
	}
	return sum(data), nil
}

func metricMean(data []float64, args []string) (float64, error) {
	if _, err := floatArgs("mean", args, 0); err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, ErrEmptyInput
	}
	return sum(data) / float64(len(data)), nil
}

func metricVariance(data []float64, args []string) (float64, error) {
	if _, err := floatArgs("variance", args, 0); err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, ErrEmptyInput
	}
	return variance(data), nil
}

func metricStddev(data []float64, args []string) (float64, error) {
	if _, err := floatArgs("stddev", args, 0); err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, ErrEmptyInput
	}
	return math.Sqrt(variance(data)), nil
}

func metricMin(data []float64, args []string) (float64, error) {
	if _, err := floatArgs("min", args, 0); err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, ErrEmptyInput
	}
	return slices.Min(data), nil
}

func metricMax(data []float64, args []string) (float64, error) {
	if _, err := floatArgs("max", args, 0); err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, ErrEmptyInput
	}
	return slices.Max(data), nil
}

// metricQuantile interpolates linearly between the closest ranks.
func metricQuantile(data []float64, args []string) (float64, error) {
	q, err := floatArgs("quantile", args, 1)
	if err != nil {
		return 0, err
	}
	if q[0] < 0 || q[0] > 1 {
		return 0, &ArgumentError{Function: "quantile", Reason: fmt.Sprintf("quantile %v outside [0, 1]", q[0])}
	}
	if len(data) == 0 {
		return 0, ErrEmptyInput
	}
	sorted := slices.Clone(data)
	slices.Sort(sorted)
	pos := q[0] * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac, nil
}

// StdSteps returns the names of the built-in step functions, sorted.
func StdSteps() []string {
	return slices.Sorted(maps.Keys(stdSteps))
}

// StdMetrics returns the names of the built-in metric functions, sorted.
func StdMetrics() []string {
	return slices.Sorted(maps.Keys(stdMetrics))
}
