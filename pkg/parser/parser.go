// Package parser implements the lox recursive-descent parser.
//
// Syntax errors are collected as diagnostics. After an error the parser
// discards tokens up to the next statement boundary and resumes, so a single
// source can report several independent errors.
package parser

import (
	"github.com/loxwalk/lox/pkg/ast"
	"github.com/loxwalk/lox/pkg/diagnostics"
	"github.com/loxwalk/lox/pkg/lexer"
	"github.com/loxwalk/lox/pkg/token"
)

// MaxArgs is the largest number of call arguments or function parameters.
const MaxArgs = 255

// bailout unwinds the parser to the enclosing declaration after a syntax
// error has been recorded.
type bailout struct{}

type parser struct {
	tokens []token.Token
	pos    int
	diags  []diagnostics.Diagnostic
}

func newParser(tokens []token.Token) *parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != token.EOF {
		line := 1
		if len(tokens) > 0 {
			line = tokens[len(tokens)-1].Line
		}
		tokens = append(tokens, token.New(token.EOF, "", line))
	}
	return &parser{tokens: tokens}
}

// Parse parses a token stream (ending in EOF) into statements. Declarations
// that fail to parse are dropped from the result.
func Parse(tokens []token.Token) ([]ast.Stmt, []diagnostics.Diagnostic) {
	p := newParser(tokens)
	stmts := []ast.Stmt{}
	for !p.atEnd() {
		if stmt := p.declarationOrSync(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, p.diags
}

// ScanAndParse scans and parses source. When scanning reports errors the
// parser does not run and only the lexical diagnostics are returned.
func ScanAndParse(source string) ([]ast.Stmt, []diagnostics.Diagnostic) {
	tokens, diags := lexer.Scan(source)
	if len(diags) > 0 {
		return nil, diags
	}
	return Parse(tokens)
}

// ParseExpression parses source as a single expression with nothing after it.
func ParseExpression(source string) (expr ast.Expr, diags []diagnostics.Diagnostic) {
	tokens, lexDiags := lexer.Scan(source)
	if len(lexDiags) > 0 {
		return nil, lexDiags
	}
	p := newParser(tokens)
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			expr, diags = nil, p.diags
		}
	}()
	expr = p.expression()
	if !p.atEnd() {
		p.errorAt(p.current(), "Expect end of expression.")
	}
	if len(p.diags) > 0 {
		return nil, p.diags
	}
	return expr, nil
}

// --- token helpers ---

func (p *parser) current() token.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) previous() token.Token {
	return p.tokens[p.pos-1]
}

func (p *parser) peek() token.Kind {
	return p.current().Kind
}

func (p *parser) atEnd() bool {
	return p.peek() == token.EOF
}

func (p *parser) advance() token.Token {
	tok := p.current()
	if !p.atEnd() {
		p.pos++
	}
	return tok
}

func (p *parser) check(kind token.Kind) bool {
	return p.peek() == kind
}

// match consumes the current token if it has one of the given kinds.
func (p *parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes a token of the given kind or fails the current declaration.
func (p *parser) expect(kind token.Kind, msg string) token.Token {
	if p.check(kind) {
		return p.advance()
	}
	p.fail(p.current(), msg)
	return token.Token{} // unreachable
}

// errorAt records a syntax error without unwinding.
func (p *parser) errorAt(tok token.Token, msg string) {
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, tok.Line, diagnostics.At(tok), msg))
}

// fail records a syntax error and abandons the current declaration.
func (p *parser) fail(tok token.Token, msg string) {
	p.errorAt(tok, msg)
	panic(bailout{})
}

// synchronize skips to just after a ';' or just before a token that starts
// a declaration or statement.
func (p *parser) synchronize() {
	p.advance()
	for !p.atEnd() {
		if p.previous().Kind == token.Semicolon {
			return
		}
		switch p.peek() {
		case token.Class, token.Fun, token.Var, token.For, token.If,
			token.While, token.Print, token.Return:
			return
		}
		p.advance()
	}
}

// --- declarations ---

func (p *parser) declarationOrSync() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			p.synchronize()
			stmt = nil
		}
	}()
	return p.declaration()
}

func (p *parser) declaration() ast.Stmt {
	switch {
	case p.match(token.Fun):
		return p.function("function")
	case p.match(token.Var):
		return p.varDeclaration()
	default:
		return p.statement()
	}
}

func (p *parser) function(kind string) *ast.Function {
	name := p.expect(token.Identifier, "Expect "+kind+" name.")
	p.expect(token.LeftParen, "Expect '(' after "+kind+" name.")

	params := []token.Token{}
	if !p.check(token.RightParen) {
		for {
			if len(params) >= MaxArgs {
				p.errorAt(p.current(), "Can't have more than 255 parameters.")
			}
			params = append(params, p.expect(token.Identifier, "Expect parameter name."))
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.expect(token.RightParen, "Expect ')' after parameters.")
	p.expect(token.LeftBrace, "Expect '{' after "+kind+" body.")
	body := p.block()
	return &ast.Function{Name: name, Params: params, Body: body}
}

func (p *parser) varDeclaration() *ast.Var {
	name := p.expect(token.Identifier, "Expect variable name.")
	var init ast.Expr
	if p.match(token.Equal) {
		init = p.expression()
	}
	p.expect(token.Semicolon, "Expect ';' after variable declaration.")
	return &ast.Var{Name: name, Init: init}
}

// --- statements ---

func (p *parser) statement() ast.Stmt {
	switch {
	case p.match(token.For):
		return p.forStatement()
	case p.match(token.If):
		return p.ifStatement()
	case p.match(token.Print):
		return p.printStatement()
	case p.match(token.Return):
		return p.returnStatement()
	case p.match(token.While):
		return p.whileStatement()
	case p.match(token.LeftBrace):
		line := p.previous().Line
		return &ast.Block{Stmts: p.block(), AtLine: line}
	default:
		return p.expressionStatement()
	}
}

// forStatement desugars
//
//	for (init; cond; incr) body
//
// into
//
//	{ init; while (cond) { body; incr; } }
//
// omitting the outer block when there is no initializer and the inner block
// when there is no increment. A missing condition is `true`.
func (p *parser) forStatement() ast.Stmt {
	keyword := p.previous()
	p.expect(token.LeftParen, "Expect '(' after 'for'.")

	var init ast.Stmt
	switch {
	case p.match(token.Semicolon):
	case p.match(token.Var):
		init = p.varDeclaration()
	default:
		init = p.expressionStatement()
	}

	var cond ast.Expr
	if !p.check(token.Semicolon) {
		cond = p.expression()
	}
	p.expect(token.Semicolon, "Expect ';' after loop condition.")

	var incr ast.Expr
	if !p.check(token.RightParen) {
		incr = p.expression()
	}
	p.expect(token.RightParen, "Expect ')' after for clauses.")

	body := p.statement()

	if incr != nil {
		body = &ast.Block{
			Stmts:  []ast.Stmt{body, &ast.Expression{Expr: incr}},
			AtLine: body.Line(),
		}
	}
	if cond == nil {
		cond = &ast.Literal{Value: true, AtLine: keyword.Line}
	}
	var loop ast.Stmt = &ast.While{Keyword: keyword, Cond: cond, Body: body}
	if init != nil {
		loop = &ast.Block{Stmts: []ast.Stmt{init, loop}, AtLine: keyword.Line}
	}
	return loop
}

func (p *parser) ifStatement() *ast.If {
	keyword := p.previous()
	p.expect(token.LeftParen, "Expect '(' after 'if'.")
	cond := p.expression()
	p.expect(token.RightParen, "Expect ')' after 'if'.")

	then := p.statement()
	var els ast.Stmt
	// A dangling else binds to the nearest if.
	if p.match(token.Else) {
		els = p.statement()
	}
	return &ast.If{Keyword: keyword, Cond: cond, Then: then, Else: els}
}

func (p *parser) printStatement() *ast.Print {
	keyword := p.previous()
	value := p.expression()
	p.expect(token.Semicolon, "Expect ';' after value.")
	return &ast.Print{Keyword: keyword, Expr: value}
}

func (p *parser) returnStatement() *ast.Return {
	keyword := p.previous()
	var value ast.Expr
	if !p.check(token.Semicolon) {
		value = p.expression()
	}
	p.expect(token.Semicolon, "Expect ';' after return value.")
	return &ast.Return{Keyword: keyword, Value: value}
}

func (p *parser) whileStatement() *ast.While {
	keyword := p.previous()
	p.expect(token.LeftParen, "Expect '(' after 'while'.")
	cond := p.expression()
	p.expect(token.RightParen, "Expect ')' after condition.")
	body := p.statement()
	return &ast.While{Keyword: keyword, Cond: cond, Body: body}
}

// block parses declarations up to the closing brace. The opening brace has
// already been consumed.
func (p *parser) block() []ast.Stmt {
	stmts := []ast.Stmt{}
	for !p.check(token.RightBrace) && !p.atEnd() {
		if stmt := p.declarationOrSync(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	p.expect(token.RightBrace, "Expect '}' after block.")
	return stmts
}

func (p *parser) expressionStatement() *ast.Expression {
	expr := p.expression()
	p.expect(token.Semicolon, "Expect ';' after value.")
	return &ast.Expression{Expr: expr}
}

// --- expressions, lowest precedence first ---

func (p *parser) expression() ast.Expr {
	return p.assignment()
}

func (p *parser) assignment() ast.Expr {
	expr := p.or()

	if p.match(token.Equal) {
		equals := p.previous()
		value := p.assignment()

		switch target := expr.(type) {
		case *ast.Variable:
			return &ast.Assign{Name: target.Name, Value: value}
		case *ast.Get:
			return &ast.Set{Object: target.Object, Name: target.Name, Value: value}
		}
		// Reported but not fatal: the parser is not confused.
		p.errorAt(equals, "Invalid assignment target.")
	}
	return expr
}

func (p *parser) or() ast.Expr {
	expr := p.and()
	for p.match(token.Or) {
		op := p.previous()
		right := p.and()
		expr = &ast.Logical{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *parser) and() ast.Expr {
	expr := p.equality()
	for p.match(token.And) {
		op := p.previous()
		right := p.equality()
		expr = &ast.Logical{Left: expr, Op: op, Right: right}
	}
	return expr
}

// binaryLeft parses a left-associative chain of operand (op operand)*.
func (p *parser) binaryLeft(operand func() ast.Expr, ops ...token.Kind) ast.Expr {
	expr := operand()
	for p.match(ops...) {
		op := p.previous()
		right := operand()
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *parser) equality() ast.Expr {
	return p.binaryLeft(p.comparison, token.BangEqual, token.EqualEqual)
}

func (p *parser) comparison() ast.Expr {
	return p.binaryLeft(p.term, token.Greater, token.GreaterEqual, token.Less, token.LessEqual)
}

func (p *parser) term() ast.Expr {
	return p.binaryLeft(p.factor, token.Minus, token.Plus)
}

func (p *parser) factor() ast.Expr {
	return p.binaryLeft(p.unary, token.Slash, token.Star)
}

func (p *parser) unary() ast.Expr {
	if p.match(token.Bang, token.Minus) {
		op := p.previous()
		operand := p.unary()
		return &ast.Unary{Op: op, Operand: operand}
	}
	return p.call()
}

func (p *parser) call() ast.Expr {
	expr := p.primary()
	for {
		switch {
		case p.match(token.LeftParen):
			expr = p.finishCall(expr)
		case p.match(token.Dot):
			name := p.expect(token.Identifier, "Expect property name after '.'.")
			expr = &ast.Get{Object: expr, Name: name}
		default:
			return expr
		}
	}
}

func (p *parser) finishCall(callee ast.Expr) *ast.Call {
	args := []ast.Expr{}
	if !p.check(token.RightParen) {
		for {
			if len(args) >= MaxArgs {
				p.errorAt(p.current(), "Can't have more than 255 arguments.")
			}
			args = append(args, p.expression())
			if !p.match(token.Comma) {
				break
			}
		}
	}
	paren := p.expect(token.RightParen, "Expect ')' after arguments.")
	return &ast.Call{Callee: callee, Paren: paren, Args: args}
}

func (p *parser) primary() ast.Expr {
	tok := p.current()
	switch tok.Kind {
	case token.False:
		p.advance()
		return &ast.Literal{Value: false, AtLine: tok.Line}
	case token.True:
		p.advance()
		return &ast.Literal{Value: true, AtLine: tok.Line}
	case token.Nil:
		p.advance()
		return &ast.Literal{Value: nil, AtLine: tok.Line}
	case token.Number, token.String:
		p.advance()
		return &ast.Literal{Value: tok.Literal, AtLine: tok.Line}
	case token.This:
		p.advance()
		return &ast.This{Keyword: tok}
	case token.Super:
		p.advance()
		p.expect(token.Dot, "Expect '.' after 'super'.")
		method := p.expect(token.Identifier, "Expect superclass method name.")
		return &ast.Super{Keyword: tok, Method: method}
	case token.Identifier:
		p.advance()
		return &ast.Variable{Name: tok}
	case token.LeftParen:
		p.advance()
		inner := p.expression()
		p.expect(token.RightParen, "Expect ')' after expression.")
		return &ast.Grouping{Inner: inner}
	}
	p.fail(tok, "Expect expression.")
	return nil // unreachable
}
