package evaluator

import (
	"github.com/loxwalk/lox/pkg/ast"
)

// Callable is a value that can be invoked with a call expression.
// The set of callables is closed to this package.
type Callable interface {
	Value
	Arity() int
	call(in *Interpreter, args []Value) (Value, error)
}

// NativeFn is a function implemented by the host.
// Natives always use pointer identity; two distinct *NativeFn are never equal.
type NativeFn struct {
	Name   string
	Params int
	Fn     func(args []Value) (Value, error)
}

func (*NativeFn) loxValue()      {}
func (*NativeFn) String() string { return "<native fn>" }
func (f *NativeFn) Arity() int   { return f.Params }

func (f *NativeFn) call(_ *Interpreter, args []Value) (Value, error) {
	v, err := f.Fn(args)
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = Nil{}
	}
	return v, nil
}

// Function is a user-declared function paired with the scope it was declared in.
type Function struct {
	Decl    *ast.Function
	Closure *Env
}

func (*Function) loxValue()        {}
func (f *Function) String() string { return "<fn " + f.Decl.Name.Lexeme + ">" }
func (f *Function) Arity() int     { return len(f.Decl.Params) }

// call binds parameters in a fresh scope whose parent is the closure and runs
// the body there. The Returned outcome stops at this boundary; falling off
// the end of the body yields nil.
func (f *Function) call(in *Interpreter, args []Value) (Value, error) {
	env := NewEnv(f.Closure)
	for i, param := range f.Decl.Params {
		env.Define(param.Lexeme, args[i])
	}
	out := in.executeBlock(f.Decl.Body, env)
	switch out.Kind {
	case Failed:
		return nil, out.Err
	case Returned:
		return out.Value, nil
	}
	return Nil{}, nil
}
