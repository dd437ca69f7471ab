// Package evaluator implements the lox tree-walking interpreter.
package evaluator

import (
	"strconv"

	"github.com/loxwalk/lox/pkg/formatter"
)

// Value is the interface for all lox runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	// String is the display text used by print.
	String() string
	loxValue() // sealed marker
}

// Nil is the nil value.
type Nil struct{}

func (Nil) loxValue()      {}
func (Nil) String() string { return "nil" }

// Bool is a boolean value.
type Bool struct {
	Value bool
}

func (Bool) loxValue()        {}
func (b Bool) String() string { return strconv.FormatBool(b.Value) }

// Number is a 64-bit IEEE-754 number.
type Number struct {
	Value float64
}

func (Number) loxValue()        {}
func (n Number) String() string { return formatter.Number(n.Value) }

// String is an immutable string value.
type String struct {
	Value string
}

func (String) loxValue()        {}
func (s String) String() string { return s.Value }

// NewNil creates a nil value.
func NewNil() Value {
	return Nil{}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Bool{Value: b}
}

// NewNumber creates a numeric value.
func NewNumber(n float64) Value {
	return Number{Value: n}
}

// NewString creates a string value.
func NewString(s string) Value {
	return String{Value: s}
}

// FromLiteral converts a parsed literal payload into a runtime value.
func FromLiteral(lit any) Value {
	switch v := lit.(type) {
	case bool:
		return Bool{Value: v}
	case float64:
		return Number{Value: v}
	case string:
		return String{Value: v}
	}
	return Nil{}
}

// IsTruthy reports the truthiness of v: nil and false are falsy, everything
// else (including 0 and "") is truthy.
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case nil, Nil:
		return false
	case Bool:
		return val.Value
	}
	return true
}

// Equal compares two values. Values of different types are never equal;
// callables compare by identity. NaN is not equal to itself.
func Equal(a, b Value) bool {
	if a == nil {
		a = Nil{}
	}
	if b == nil {
		b = Nil{}
	}
	switch av := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av.Value == bv.Value
	case Number:
		bv, ok := b.(Number)
		return ok && av.Value == bv.Value
	case String:
		bv, ok := b.(String)
		return ok && av.Value == bv.Value
	case *NativeFn:
		bv, ok := b.(*NativeFn)
		return ok && av == bv
	case *Function:
		bv, ok := b.(*Function)
		return ok && av == bv
	}
	return false
}

// TypeName returns a short name for the type of v.
func TypeName(v Value) string {
	switch v.(type) {
	case nil, Nil:
		return "nil"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case *NativeFn, *Function:
		return "function"
	}
	return "unknown"
}
