package stdlib

import (
	"time"

	"github.com/loxwalk/lox/pkg/evaluator"
)

// Clock returns the `clock` native: no arguments, the current wall-clock time
// in seconds since the Unix epoch as a fractional number. now supplies the
// time; nil means time.Now.
func Clock(now func() time.Time) *evaluator.NativeFn {
	if now == nil {
		now = time.Now
	}
	return &evaluator.NativeFn{
		Name:   "clock",
		Params: 0,
		Fn: func(_ []evaluator.Value) (evaluator.Value, error) {
			return evaluator.NewNumber(float64(now().UnixNano()) / 1e9), nil
		},
	}
}

// RegisterDefaults adds the default natives.
func RegisterDefaults(r *Registry) {
	r.Register(Clock(nil))
}

// Default returns a registry holding the default natives.
func Default() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
