package evaluator

import (
	"fmt"
	"math"

	"github.com/oarkflow/json"
)

// ValueToJSON marshals a Value to JSON bytes.
// Whole numbers are written without a decimal point. Values JSON cannot
// represent (non-finite numbers, callables) are written as their display text.
func ValueToJSON(v Value) ([]byte, error) {
	return json.Marshal(valueToRaw(v))
}

// ValueToJSONString is a convenience that returns a string.
func ValueToJSONString(v Value) string {
	b, err := ValueToJSON(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func valueToRaw(v Value) any {
	switch val := v.(type) {
	case nil, Nil:
		return nil
	case Bool:
		return val.Value
	case Number:
		if math.IsInf(val.Value, 0) || math.IsNaN(val.Value) {
			return val.String()
		}
		// Output integers without decimal point
		if val.Value == math.Trunc(val.Value) && math.Abs(val.Value) < 1<<53 {
			return int64(val.Value)
		}
		return val.Value
	case String:
		return val.Value
	}
	return v.String()
}

// ValueFromJSON converts a JSON scalar (null, boolean, number or string)
// into a Value. Arrays and objects have no lox counterpart.
func ValueFromJSON(data []byte) (Value, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return FromJSONValue(raw)
}

// FromJSONValue converts an already-decoded JSON scalar into a Value.
func FromJSONValue(raw any) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return NewNil(), nil
	case bool:
		return NewBool(val), nil
	case float64:
		return NewNumber(val), nil
	case int:
		return NewNumber(float64(val)), nil
	case int64:
		return NewNumber(float64(val)), nil
	case string:
		return NewString(val), nil
	}
	return nil, fmt.Errorf("unsupported JSON value of type %T", raw)
}
