// Package validator implements static checks over parsed lox programs.
package validator

import (
	"github.com/loxwalk/lox/pkg/ast"
	"github.com/loxwalk/lox/pkg/diagnostics"
	"github.com/loxwalk/lox/pkg/token"
)

type validator struct {
	diags []diagnostics.Diagnostic
	depth int // enclosing function bodies
}

// Validate performs static analysis on a parsed program and returns diagnostics.
// It never mutates the tree.
func Validate(stmts []ast.Stmt) []diagnostics.Diagnostic {
	v := &validator{}
	v.validateStatements(stmts)
	return v.diags
}

func (v *validator) addDiag(code string, tok token.Token, msg string) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, tok.Line, diagnostics.At(tok), msg))
}

func (v *validator) validateStatements(stmts []ast.Stmt) {
	for _, s := range stmts {
		v.validateStmt(s)
	}
}

func (v *validator) validateStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.Block:
		v.validateStatements(st.Stmts)
	case *ast.If:
		v.validateStmt(st.Then)
		if st.Else != nil {
			v.validateStmt(st.Else)
		}
	case *ast.While:
		v.validateStmt(st.Body)
	case *ast.Function:
		v.depth++
		v.validateStatements(st.Body)
		v.depth--
	case *ast.Return:
		if v.depth == 0 {
			v.addDiag(diagnostics.EReturnTop, st.Keyword, "Can't return from top-level code.")
		}
	}
}
