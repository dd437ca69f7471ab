package evaluator_test

import (
	"errors"
	"sort"
	"testing"

	"github.com/loxwalk/lox/pkg/evaluator"
	"github.com/loxwalk/lox/pkg/token"
)

func ident(name string, line int) token.Token {
	return token.New(token.Identifier, name, line)
}

func TestEnvDefineAndGet(t *testing.T) {
	env := evaluator.NewEnv(nil)
	env.Define("a", evaluator.NewNumber(1))
	env.Define("a", evaluator.NewNumber(2)) // redefinition overwrites

	v, err := env.Get(ident("a", 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !evaluator.Equal(v, evaluator.NewNumber(2)) {
		t.Errorf("got %v, want 2", v)
	}
}

func TestEnvChainLookup(t *testing.T) {
	global := evaluator.NewEnv(nil)
	global.Define("a", evaluator.NewString("outer"))
	inner := global.Child()
	inner.Define("b", evaluator.NewString("inner"))

	if v, _ := inner.Get(ident("a", 1)); v.String() != "outer" {
		t.Errorf("expected outer binding visible, got %v", v)
	}
	if _, ok := global.Lookup("b"); ok {
		t.Error("inner binding must not leak to parent")
	}
	if inner.Parent() != global {
		t.Error("Parent should return the enclosing scope")
	}
}

func TestEnvShadowing(t *testing.T) {
	global := evaluator.NewEnv(nil)
	global.Define("x", evaluator.NewNumber(1))
	inner := global.Child()
	inner.Define("x", evaluator.NewNumber(2))

	if v, _ := inner.Lookup("x"); v.String() != "2" {
		t.Errorf("inner got %v", v)
	}
	if v, _ := global.Lookup("x"); v.String() != "1" {
		t.Errorf("global got %v", v)
	}
}

func TestEnvAssignUpdatesNearestBinding(t *testing.T) {
	global := evaluator.NewEnv(nil)
	global.Define("x", evaluator.NewNumber(1))
	inner := global.Child()

	if err := inner.Assign(ident("x", 1), evaluator.NewNumber(5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := global.Lookup("x"); v.String() != "5" {
		t.Errorf("expected assignment to reach global, got %v", v)
	}
	if len(inner.Names()) != 0 {
		t.Errorf("assign must not create a binding, got %v", inner.Names())
	}
}

func TestEnvUndefined(t *testing.T) {
	env := evaluator.NewEnv(nil)

	_, err := env.Get(ident("missing", 4))
	var rerr *evaluator.RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RuntimeError, got %T", err)
	}
	if rerr.Message != "Undefined variable 'missing'." || rerr.Line() != 4 {
		t.Errorf("unexpected error: %q line %d", rerr.Message, rerr.Line())
	}

	err = env.Assign(ident("missing", 7), evaluator.NewNil())
	if !errors.As(err, &rerr) || rerr.Line() != 7 {
		t.Fatalf("expected runtime error at line 7, got %v", err)
	}
	if _, ok := env.Lookup("missing"); ok {
		t.Error("failed assignment must not define the name")
	}
}

func TestEnvNames(t *testing.T) {
	env := evaluator.NewEnv(nil)
	env.Define("b", evaluator.NewNil())
	env.Define("a", evaluator.NewNil())
	names := env.Names()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("got %v", names)
	}
}
