// Package formatter renders lox syntax trees as canonical parenthesized
// S-expressions, e.g. `-123 * (45.67)` prints as `(* (- 123) (group 45.67))`.
package formatter

import (
	"math"
	"strconv"
	"strings"

	"github.com/loxwalk/lox/pkg/ast"
)

// Program renders each statement on its own line.
func Program(stmts []ast.Stmt) string {
	var b strings.Builder
	for _, s := range stmts {
		b.WriteString(Stmt(s))
		b.WriteByte('\n')
	}
	return b.String()
}

// Stmt renders a single statement.
func Stmt(s ast.Stmt) string {
	var b strings.Builder
	writeStmt(&b, s)
	return b.String()
}

// Expr renders a single expression.
func Expr(e ast.Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

// Number renders a number in shortest decimal form: no exponent, no trailing
// ".0", and inf, -inf or NaN for non-finite values.
func Number(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Literal renders a literal payload the way print displays it.
func Literal(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return Number(v)
	case string:
		return v
	}
	return "?"
}

func writeStmt(b *strings.Builder, s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Expression:
		paren(b, ";", s.Expr)
	case *ast.Print:
		paren(b, "print", s.Expr)
	case *ast.Var:
		if s.Init == nil {
			b.WriteString("(var " + s.Name.Lexeme + ")")
			return
		}
		b.WriteString("(var " + s.Name.Lexeme + " ")
		writeExpr(b, s.Init)
		b.WriteByte(')')
	case *ast.Block:
		b.WriteString("(block")
		writeStmts(b, s.Stmts)
		b.WriteByte(')')
	case *ast.If:
		b.WriteString("(if ")
		writeExpr(b, s.Cond)
		b.WriteByte(' ')
		writeStmt(b, s.Then)
		if s.Else != nil {
			b.WriteByte(' ')
			writeStmt(b, s.Else)
		}
		b.WriteByte(')')
	case *ast.While:
		b.WriteString("(while ")
		writeExpr(b, s.Cond)
		b.WriteByte(' ')
		writeStmt(b, s.Body)
		b.WriteByte(')')
	case *ast.Function:
		b.WriteString("(fun " + s.Name.Lexeme + " (")
		for i, p := range s.Params {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(p.Lexeme)
		}
		b.WriteByte(')')
		writeStmts(b, s.Body)
		b.WriteByte(')')
	case *ast.Return:
		if s.Value == nil {
			b.WriteString("(return)")
			return
		}
		paren(b, "return", s.Value)
	}
}

func writeStmts(b *strings.Builder, stmts []ast.Stmt) {
	for _, s := range stmts {
		b.WriteByte(' ')
		writeStmt(b, s)
	}
}

func writeExpr(b *strings.Builder, e ast.Expr) {
	switch e := e.(type) {
	case *ast.Literal:
		b.WriteString(Literal(e.Value))
	case *ast.Grouping:
		paren(b, "group", e.Inner)
	case *ast.Unary:
		paren(b, e.Op.Lexeme, e.Operand)
	case *ast.Binary:
		paren(b, e.Op.Lexeme, e.Left, e.Right)
	case *ast.Logical:
		paren(b, e.Op.Lexeme, e.Left, e.Right)
	case *ast.Variable:
		b.WriteString(e.Name.Lexeme)
	case *ast.Assign:
		paren(b, "= "+e.Name.Lexeme, e.Value)
	case *ast.Call:
		paren(b, "call", append([]ast.Expr{e.Callee}, e.Args...)...)
	case *ast.Get:
		paren(b, ".", e.Object, &ast.Variable{Name: e.Name})
	case *ast.Set:
		paren(b, "set", e.Object, &ast.Variable{Name: e.Name}, e.Value)
	case *ast.This:
		b.WriteString("this")
	case *ast.Super:
		b.WriteString("(super " + e.Method.Lexeme + ")")
	}
}

func paren(b *strings.Builder, name string, exprs ...ast.Expr) {
	b.WriteByte('(')
	b.WriteString(name)
	for _, e := range exprs {
		b.WriteByte(' ')
		writeExpr(b, e)
	}
	b.WriteByte(')')
}
