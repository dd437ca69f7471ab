package evaluator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/loxwalk/lox/pkg/ast"
	"github.com/loxwalk/lox/pkg/diagnostics"
	"github.com/loxwalk/lox/pkg/token"
)

// RuntimeError is a runtime failure located at the offending token.
type RuntimeError struct {
	Token   token.Token
	Message string
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Line returns the source line of the offending token.
func (e *RuntimeError) Line() int {
	return e.Token.Line
}

// Diagnostic converts the error to an E_RUNTIME diagnostic.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.ERuntime, e.Token.Line, "", e.Message)
}

// OutcomeKind classifies how a statement finished.
type OutcomeKind int

const (
	Completed OutcomeKind = iota
	Returned
	Failed
)

// Outcome is the result of executing a statement. Value is set for Returned,
// Err for Failed. A Returned outcome travels outward through enclosing
// statements until a function call boundary consumes it.
type Outcome struct {
	Kind  OutcomeKind
	Value Value
	Err   error
}

func completed() Outcome       { return Outcome{Kind: Completed} }
func returned(v Value) Outcome { return Outcome{Kind: Returned, Value: v} }
func failed(err error) Outcome { return Outcome{Kind: Failed, Err: err} }

// Reporter receives the message and line of a runtime error.
type Reporter func(message string, line int)

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithStdout sets the writer print statements write to. Defaults to os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(in *Interpreter) {
		in.stdout = w
	}
}

// WithContext makes loops and calls fail with "Execution cancelled." once
// ctx is done.
func WithContext(ctx context.Context) Option {
	return func(in *Interpreter) {
		in.ctx = ctx
	}
}

// WithMaxCallDepth turns call nesting deeper than n into a "Stack overflow."
// runtime error. n <= 0 means unlimited.
func WithMaxCallDepth(n int) Option {
	return func(in *Interpreter) {
		in.limits.MaxCallDepth = n
	}
}

// WithNatives defines host functions in the global scope.
func WithNatives(fns ...*NativeFn) Option {
	return func(in *Interpreter) {
		for _, fn := range fns {
			in.globals.Define(fn.Name, fn)
		}
	}
}

// Interpreter executes statements against a persistent global scope.
// An Interpreter is not safe for concurrent use.
type Interpreter struct {
	globals *Env
	env     *Env
	stdout  io.Writer
	ctx     context.Context
	limits  Limits
	track   tracker
}

// New creates an interpreter with an empty global scope.
func New(opts ...Option) *Interpreter {
	globals := NewEnv(nil)
	in := &Interpreter{
		globals: globals,
		env:     globals,
		stdout:  os.Stdout,
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Globals returns the global scope.
func (in *Interpreter) Globals() *Env {
	return in.globals
}

// DefineGlobal binds name in the global scope.
func (in *Interpreter) DefineGlobal(name string, v Value) {
	in.globals.Define(name, v)
}

// Interpret executes stmts in order. The first runtime error is passed to
// reporter (when non-nil) and returned; the remaining statements are not run.
// A return statement at top level ends the run without error.
func (in *Interpreter) Interpret(stmts []ast.Stmt, reporter Reporter) error {
	for _, stmt := range stmts {
		out := in.Execute(stmt)
		switch out.Kind {
		case Failed:
			if reporter != nil {
				line := 0
				var rerr *RuntimeError
				if errors.As(out.Err, &rerr) {
					line = rerr.Line()
				}
				reporter(out.Err.Error(), line)
			}
			return out.Err
		case Returned:
			return nil
		}
	}
	return nil
}

// Execute runs a single statement in the current scope.
func (in *Interpreter) Execute(stmt ast.Stmt) Outcome {
	switch s := stmt.(type) {
	case *ast.Expression:
		if _, err := in.Evaluate(s.Expr); err != nil {
			return failed(err)
		}
		return completed()

	case *ast.Print:
		v, err := in.Evaluate(s.Expr)
		if err != nil {
			return failed(err)
		}
		fmt.Fprintln(in.stdout, v.String())
		return completed()

	case *ast.Var:
		var v Value = Nil{}
		if s.Init != nil {
			var err error
			if v, err = in.Evaluate(s.Init); err != nil {
				return failed(err)
			}
		}
		in.env.Define(s.Name.Lexeme, v)
		return completed()

	case *ast.Block:
		return in.executeBlock(s.Stmts, in.env.Child())

	case *ast.If:
		cond, err := in.Evaluate(s.Cond)
		if err != nil {
			return failed(err)
		}
		if IsTruthy(cond) {
			return in.Execute(s.Then)
		}
		if s.Else != nil {
			return in.Execute(s.Else)
		}
		return completed()

	case *ast.While:
		for {
			if err := in.countIteration(s.Keyword); err != nil {
				return failed(err)
			}
			cond, err := in.Evaluate(s.Cond)
			if err != nil {
				return failed(err)
			}
			if !IsTruthy(cond) {
				return completed()
			}
			if out := in.Execute(s.Body); out.Kind != Completed {
				return out
			}
		}

	case *ast.Function:
		in.env.Define(s.Name.Lexeme, &Function{Decl: s, Closure: in.env})
		return completed()

	case *ast.Return:
		var v Value = Nil{}
		if s.Value != nil {
			var err error
			if v, err = in.Evaluate(s.Value); err != nil {
				return failed(err)
			}
		}
		return returned(v)
	}

	return failed(fmt.Errorf("unknown statement type %T", stmt))
}

// executeBlock runs stmts with env as the current scope, restoring the
// previous scope on every exit path.
func (in *Interpreter) executeBlock(stmts []ast.Stmt, env *Env) Outcome {
	prev := in.env
	in.env = env
	defer func() { in.env = prev }()

	for _, stmt := range stmts {
		if out := in.Execute(stmt); out.Kind != Completed {
			return out
		}
	}
	return completed()
}

// Evaluate computes the value of expr in the current scope.
func (in *Interpreter) Evaluate(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return FromLiteral(e.Value), nil

	case *ast.Grouping:
		return in.Evaluate(e.Inner)

	case *ast.Unary:
		return in.evalUnary(e)

	case *ast.Binary:
		return in.evalBinary(e)

	case *ast.Logical:
		left, err := in.Evaluate(e.Left)
		if err != nil {
			return nil, err
		}
		if e.Op.Kind == token.Or {
			if IsTruthy(left) {
				return left, nil
			}
		} else if !IsTruthy(left) {
			return left, nil
		}
		return in.Evaluate(e.Right)

	case *ast.Variable:
		return in.env.Get(e.Name)

	case *ast.Assign:
		v, err := in.Evaluate(e.Value)
		if err != nil {
			return nil, err
		}
		if err := in.env.Assign(e.Name, v); err != nil {
			return nil, err
		}
		return v, nil

	case *ast.Call:
		return in.evalCall(e)

	case *ast.Get:
		return nil, &RuntimeError{Token: e.Name, Message: "Property access is not supported."}
	case *ast.Set:
		return nil, &RuntimeError{Token: e.Name, Message: "Property assignment is not supported."}
	case *ast.This:
		return nil, &RuntimeError{Token: e.Keyword, Message: "'this' is not supported."}
	case *ast.Super:
		return nil, &RuntimeError{Token: e.Keyword, Message: "'super' is not supported."}
	}

	return nil, fmt.Errorf("unknown expression type %T", expr)
}

func (in *Interpreter) evalUnary(e *ast.Unary) (Value, error) {
	operand, err := in.Evaluate(e.Operand)
	if err != nil {
		return nil, err
	}
	switch e.Op.Kind {
	case token.Minus:
		n, ok := operand.(Number)
		if !ok {
			return nil, &RuntimeError{Token: e.Op, Message: "Operand must be a number."}
		}
		return Number{Value: -n.Value}, nil
	case token.Bang:
		return Bool{Value: !IsTruthy(operand)}, nil
	}
	return nil, &RuntimeError{Token: e.Op, Message: fmt.Sprintf("Unknown unary operator '%s'.", e.Op.Lexeme)}
}

func (in *Interpreter) evalBinary(e *ast.Binary) (Value, error) {
	left, err := in.Evaluate(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.Evaluate(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.EqualEqual:
		return Bool{Value: Equal(left, right)}, nil
	case token.BangEqual:
		return Bool{Value: !Equal(left, right)}, nil

	case token.Plus:
		switch l := left.(type) {
		case Number:
			if r, ok := right.(Number); ok {
				return Number{Value: l.Value + r.Value}, nil
			}
		case String:
			if r, ok := right.(String); ok {
				return String{Value: l.Value + r.Value}, nil
			}
		}
		return nil, &RuntimeError{Token: e.Op, Message: "Operands must be two numbers or two strings."}
	}

	l, lok := left.(Number)
	r, rok := right.(Number)
	if !lok || !rok {
		return nil, &RuntimeError{Token: e.Op, Message: "Operand must be a number."}
	}

	switch e.Op.Kind {
	case token.Minus:
		return Number{Value: l.Value - r.Value}, nil
	case token.Star:
		return Number{Value: l.Value * r.Value}, nil
	case token.Slash:
		// IEEE-754: x/0 is ±Inf or NaN, never an error.
		return Number{Value: l.Value / r.Value}, nil
	case token.Greater:
		return Bool{Value: l.Value > r.Value}, nil
	case token.GreaterEqual:
		return Bool{Value: l.Value >= r.Value}, nil
	case token.Less:
		return Bool{Value: l.Value < r.Value}, nil
	case token.LessEqual:
		return Bool{Value: l.Value <= r.Value}, nil
	}
	return nil, &RuntimeError{Token: e.Op, Message: fmt.Sprintf("Unknown binary operator '%s'.", e.Op.Lexeme)}
}

func (in *Interpreter) evalCall(e *ast.Call) (Value, error) {
	callee, err := in.Evaluate(e.Callee)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(Callable)
	if !ok {
		return nil, &RuntimeError{Token: e.Paren, Message: "Can only call functions and classes."}
	}

	args := make([]Value, 0, len(e.Args))
	for _, argExpr := range e.Args {
		arg, err := in.Evaluate(argExpr)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if len(args) != fn.Arity() {
		return nil, &RuntimeError{
			Token:   e.Paren,
			Message: fmt.Sprintf("Expected %d arguments but got %d.", fn.Arity(), len(args)),
		}
	}

	if err := in.enterCall(e.Paren); err != nil {
		return nil, err
	}
	defer in.leaveCall()

	v, err := fn.call(in, args)
	if err != nil {
		var rerr *RuntimeError
		if !errors.As(err, &rerr) {
			// Host errors from natives are located at the call site.
			return nil, &RuntimeError{Token: e.Paren, Message: err.Error()}
		}
		return nil, err
	}
	return v, nil
}
