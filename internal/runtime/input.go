package runtime

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

// LoadInput decodes pipeline input: either a JSON array of numbers or an
// object with exactly one array-valued field. `null` elements load as NaN.
func LoadInput(data []byte) ([]float64, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode input")
	}

	switch v := raw.(type) {
	case []any:
		return toFloats(v)
	case map[string]any:
		var (
			found []any
			count int
		)
		for _, field := range v {
			if arr, ok := field.([]any); ok {
				found = arr
				count++
			}
		}
		if count != 1 {
			return nil, errors.Errorf("input object must hold exactly one array field, found %d", count)
		}
		return toFloats(found)
	}
	return nil, errors.New("input must be a JSON array or an object holding one array")
}

func toFloats(items []any) ([]float64, error) {
	out := make([]float64, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return nil, errors.Wrapf(err, "input element %d", i)
			}
			out[i] = f
		case nil:
			out[i] = math.NaN()
		default:
			return nil, errors.Errorf("input element %d is not a number", i)
		}
	}
	return out, nil
}
