package ast_test

import (
	"testing"

	"github.com/loxwalk/lox/pkg/ast"
	"github.com/loxwalk/lox/pkg/token"
)

func TestNodeKinds(t *testing.T) {
	name := token.New(token.Identifier, "x", 1)
	lit := &ast.Literal{Value: 1.0, AtLine: 1}

	nodes := []ast.Node{
		lit,
		&ast.Grouping{Inner: lit},
		&ast.Unary{Op: token.New(token.Minus, "-", 1), Operand: lit},
		&ast.Binary{Left: lit, Op: token.New(token.Plus, "+", 1), Right: lit},
		&ast.Logical{Left: lit, Op: token.New(token.Or, "or", 1), Right: lit},
		&ast.Variable{Name: name},
		&ast.Assign{Name: name, Value: lit},
		&ast.Call{Callee: &ast.Variable{Name: name}},
		&ast.Get{Object: lit, Name: name},
		&ast.Set{Object: lit, Name: name, Value: lit},
		&ast.This{},
		&ast.Super{},
		&ast.Expression{Expr: lit},
		&ast.Print{Expr: lit},
		&ast.Var{Name: name},
		&ast.Block{},
		&ast.If{Cond: lit},
		&ast.While{Cond: lit},
		&ast.Function{Name: name},
		&ast.Return{},
	}

	expected := []string{
		"Literal", "Grouping", "Unary", "Binary", "Logical", "Variable",
		"Assign", "Call", "Get", "Set", "This", "Super",
		"Expression", "Print", "Var", "Block", "If", "While", "Function", "Return",
	}

	for i, node := range nodes {
		if got := node.Kind(); got != expected[i] {
			t.Errorf("node %d: got Kind() = %q, want %q", i, got, expected[i])
		}
	}
}

func TestExprInterface(t *testing.T) {
	var _ ast.Expr = &ast.Literal{}
	var _ ast.Expr = &ast.Grouping{}
	var _ ast.Expr = &ast.Unary{}
	var _ ast.Expr = &ast.Binary{}
	var _ ast.Expr = &ast.Logical{}
	var _ ast.Expr = &ast.Variable{}
	var _ ast.Expr = &ast.Assign{}
	var _ ast.Expr = &ast.Call{}
	var _ ast.Expr = &ast.Get{}
	var _ ast.Expr = &ast.Set{}
	var _ ast.Expr = &ast.This{}
	var _ ast.Expr = &ast.Super{}
}

func TestStmtInterface(t *testing.T) {
	var _ ast.Stmt = &ast.Expression{}
	var _ ast.Stmt = &ast.Print{}
	var _ ast.Stmt = &ast.Var{}
	var _ ast.Stmt = &ast.Block{}
	var _ ast.Stmt = &ast.If{}
	var _ ast.Stmt = &ast.While{}
	var _ ast.Stmt = &ast.Function{}
	var _ ast.Stmt = &ast.Return{}
}

func TestNodeLines(t *testing.T) {
	plus := token.New(token.Plus, "+", 7)
	paren := token.New(token.RightParen, ")", 9)
	lit := &ast.Literal{Value: "s", AtLine: 3}

	tests := []struct {
		name string
		node ast.Node
		want int
	}{
		{"literal", lit, 3},
		{"grouping follows inner", &ast.Grouping{Inner: lit}, 3},
		{"binary uses operator", &ast.Binary{Left: lit, Op: plus, Right: lit}, 7},
		{"call uses closing paren", &ast.Call{Callee: lit, Paren: paren}, 9},
		{"expression stmt follows expr", &ast.Expression{Expr: lit}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.Line(); got != tt.want {
				t.Errorf("Line() = %d, want %d", got, tt.want)
			}
		})
	}
}
