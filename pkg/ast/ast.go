// Package ast defines the lox syntax tree.
//
// Expr and Stmt are closed sets: every node type lives in this file and the
// interfaces carry unexported marker methods, so passes dispatch with a type
// switch over the full set.
package ast

import "github.com/loxwalk/lox/pkg/token"

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	// Line is the source line used when reporting errors about the node.
	Line() int
}

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// --- Stmt is the interface for all statement nodes ---

type Stmt interface {
	Node
	stmtNode() // sealed marker
}

// --- Expressions ---

// Literal is nil, a bool, a float64 or a string.
type Literal struct {
	Value  any
	AtLine int
}

func (n *Literal) Kind() string { return "Literal" }
func (n *Literal) Line() int    { return n.AtLine }
func (n *Literal) exprNode()    {}

type Grouping struct {
	Inner Expr
}

func (n *Grouping) Kind() string { return "Grouping" }
func (n *Grouping) Line() int    { return n.Inner.Line() }
func (n *Grouping) exprNode()    {}

type Unary struct {
	Op      token.Token
	Operand Expr
}

func (n *Unary) Kind() string { return "Unary" }
func (n *Unary) Line() int    { return n.Op.Line }
func (n *Unary) exprNode()    {}

type Binary struct {
	Left  Expr
	Op    token.Token
	Right Expr
}

func (n *Binary) Kind() string { return "Binary" }
func (n *Binary) Line() int    { return n.Op.Line }
func (n *Binary) exprNode()    {}

// Logical is a short-circuiting `and` / `or`.
type Logical struct {
	Left  Expr
	Op    token.Token
	Right Expr
}

func (n *Logical) Kind() string { return "Logical" }
func (n *Logical) Line() int    { return n.Op.Line }
func (n *Logical) exprNode()    {}

type Variable struct {
	Name token.Token
}

func (n *Variable) Kind() string { return "Variable" }
func (n *Variable) Line() int    { return n.Name.Line }
func (n *Variable) exprNode()    {}

type Assign struct {
	Name  token.Token
	Value Expr
}

func (n *Assign) Kind() string { return "Assign" }
func (n *Assign) Line() int    { return n.Name.Line }
func (n *Assign) exprNode()    {}

// Call keeps the closing paren token for error reporting.
type Call struct {
	Callee Expr
	Paren  token.Token
	Args   []Expr
}

func (n *Call) Kind() string { return "Call" }
func (n *Call) Line() int    { return n.Paren.Line }
func (n *Call) exprNode()    {}

// --- Object-model placeholders (parsed, not evaluated) ---

type Get struct {
	Object Expr
	Name   token.Token
}

func (n *Get) Kind() string { return "Get" }
func (n *Get) Line() int    { return n.Name.Line }
func (n *Get) exprNode()    {}

type Set struct {
	Object Expr
	Name   token.Token
	Value  Expr
}

func (n *Set) Kind() string { return "Set" }
func (n *Set) Line() int    { return n.Name.Line }
func (n *Set) exprNode()    {}

type This struct {
	Keyword token.Token
}

func (n *This) Kind() string { return "This" }
func (n *This) Line() int    { return n.Keyword.Line }
func (n *This) exprNode()    {}

type Super struct {
	Keyword token.Token
	Method  token.Token
}

func (n *Super) Kind() string { return "Super" }
func (n *Super) Line() int    { return n.Keyword.Line }
func (n *Super) exprNode()    {}

// --- Statements ---

type Expression struct {
	Expr Expr
}

func (n *Expression) Kind() string { return "Expression" }
func (n *Expression) Line() int    { return n.Expr.Line() }
func (n *Expression) stmtNode()    {}

type Print struct {
	Keyword token.Token
	Expr    Expr
}

func (n *Print) Kind() string { return "Print" }
func (n *Print) Line() int    { return n.Keyword.Line }
func (n *Print) stmtNode()    {}

// Var declares Name; Init is nil when there is no initializer.
type Var struct {
	Name token.Token
	Init Expr
}

func (n *Var) Kind() string { return "Var" }
func (n *Var) Line() int    { return n.Name.Line }
func (n *Var) stmtNode()    {}

type Block struct {
	Stmts  []Stmt
	AtLine int
}

func (n *Block) Kind() string { return "Block" }
func (n *Block) Line() int    { return n.AtLine }
func (n *Block) stmtNode()    {}

// If has a nil Else when there is no else branch.
type If struct {
	Keyword token.Token
	Cond    Expr
	Then    Stmt
	Else    Stmt
}

func (n *If) Kind() string { return "If" }
func (n *If) Line() int    { return n.Keyword.Line }
func (n *If) stmtNode()    {}

type While struct {
	Keyword token.Token
	Cond    Expr
	Body    Stmt
}

func (n *While) Kind() string { return "While" }
func (n *While) Line() int    { return n.Keyword.Line }
func (n *While) stmtNode()    {}

// Function is a named declaration. Its body is shared by every closure the
// declaration produces and must not be mutated after parsing.
type Function struct {
	Name   token.Token
	Params []token.Token
	Body   []Stmt
}

func (n *Function) Kind() string { return "Function" }
func (n *Function) Line() int    { return n.Name.Line }
func (n *Function) stmtNode()    {}

// Return has a nil Value for a bare `return;`.
type Return struct {
	Keyword token.Token
	Value   Expr
}

func (n *Return) Kind() string { return "Return" }
func (n *Return) Line() int    { return n.Keyword.Line }
func (n *Return) stmtNode()    {}
