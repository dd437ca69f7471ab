package parser_test

import (
	"strings"
	"testing"

	"github.com/loxwalk/lox/pkg/ast"
	"github.com/loxwalk/lox/pkg/diagnostics"
	"github.com/loxwalk/lox/pkg/formatter"
	"github.com/loxwalk/lox/pkg/parser"
)

// helper: parse source and assert no diagnostics
func mustParse(t *testing.T, source string) []ast.Stmt {
	t.Helper()
	stmts, diags := parser.ScanAndParse(source)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diagnostics.FormatDiagnostics(diags, false))
	}
	return stmts
}

// helper: parse source and return its rendered diagnostics
func mustFail(t *testing.T, source string) []string {
	t.Helper()
	_, diags := parser.ScanAndParse(source)
	if len(diags) == 0 {
		t.Fatalf("expected diagnostics for %q, got none", source)
	}
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = diagnostics.FormatDiagnostic(d, false)
	}
	return out
}

// helper: parse and render the whole program canonically
func render(t *testing.T, source string) string {
	t.Helper()
	return strings.TrimSuffix(formatter.Program(mustParse(t, source)), "\n")
}

// ---------------------------------------------------------------------------
// Test: expressions and precedence
// ---------------------------------------------------------------------------
func TestPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3;", "(; (+ 1 (* 2 3)))"},
		{"(1 + 2) * 3;", "(; (* (group (+ 1 2)) 3))"},
		{"8 / 4 / 2;", "(; (/ (/ 8 4) 2))"},
		{"-a - -b;", "(; (- (- a) (- b)))"},
		{"a == b != c;", "(; (!= (== a b) c))"},
		{"a < b == c > d;", "(; (== (< a b) (> c d)))"},
		{"a or b or c;", "(; (or (or a b) c))"},
		{"a and b or c and d;", "(; (or (and a b) (and c d)))"},
		{"a = b or c;", "(; (= a (or b c)))"},
		{"x = y = 3;", "(; (= x (= y 3)))"},
		{"!a == b;", "(; (== (! a) b))"},
		{"f()();", "(; (call (call f)))"},
		{"f(a, b + 1);", "(; (call f a (+ b 1)))"},
		{"-f(1);", "(; (- (call f 1)))"},
		{`"a" + "b";`, "(; (+ a b))"},
		{"nil;", "(; nil)"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := render(t, tt.src); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseExpressionPrinterRoundTrip(t *testing.T) {
	expr, diags := parser.ParseExpression("-123 * (45.67)")
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if got := formatter.Expr(expr); got != "(* (- 123) (group 45.67))" {
		t.Errorf("got %q", got)
	}
}

func TestParseExpressionTrailingTokens(t *testing.T) {
	_, diags := parser.ParseExpression("1 2")
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	if got := diagnostics.FormatDiagnostic(diags[0], false); got != "[line 1] Error at '2': Expect end of expression." {
		t.Errorf("got %q", got)
	}
}

func TestParseExpressionError(t *testing.T) {
	expr, diags := parser.ParseExpression("1 +")
	if expr != nil {
		t.Errorf("expected nil expression, got %T", expr)
	}
	if len(diags) != 1 || diags[0].Message != "Expect expression." || diags[0].Where != " at end" {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
}

// ---------------------------------------------------------------------------
// Test: statements
// ---------------------------------------------------------------------------
func TestStatements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"var without init", "var a;", "(var a)"},
		{"var with init", "var a = 1;", "(var a 1)"},
		{"print", "print 1;", "(print 1)"},
		{"empty block", "{}", "(block)"},
		{"nested block", "{ var a; { print a; } }", "(block (var a) (block (print a)))"},
		{"if", "if (a) print 1;", "(if a (print 1))"},
		{"if else", "if (a) print 1; else print 2;", "(if a (print 1) (print 2))"},
		{"dangling else binds inner", "if (a) if (b) print 1; else print 2;", "(if a (if b (print 1) (print 2)))"},
		{"while", "while (a) a = a - 1;", "(while a (; (= a (- a 1))))"},
		{"fun", "fun f(a, b) { return a; }", "(fun f (a b) (return a))"},
		{"fun no params", "fun f() {}", "(fun f ())"},
		{"bare return", "fun f() { return; }", "(fun f () (return))"},
		{"top-level return parses", "return 1;", "(return 1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, tt.src); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: for-loop desugaring
// ---------------------------------------------------------------------------
func TestForDesugaring(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"all clauses",
			"for (var i = 0; i < 3; i = i + 1) print i;",
			"(block (var i 0) (while (< i 3) (block (print i) (; (= i (+ i 1))))))",
		},
		{
			"no clauses",
			"for (;;) print 1;",
			"(while true (print 1))",
		},
		{
			"expression initializer no increment",
			"for (x = 0; x < 1;) print x;",
			"(block (; (= x 0)) (while (< x 1) (print x)))",
		},
		{
			"increment only",
			"for (; a; a = false) {}",
			"(while a (block (block) (; (= a false))))",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, tt.src); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestForKeepsKeywordLine(t *testing.T) {
	stmts := mustParse(t, "\n\nfor (;;) {}")
	w, ok := stmts[0].(*ast.While)
	if !ok {
		t.Fatalf("expected *ast.While, got %T", stmts[0])
	}
	if w.Keyword.Lexeme != "for" || w.Line() != 3 {
		t.Errorf("expected for keyword on line 3, got %q line %d", w.Keyword.Lexeme, w.Line())
	}
}

// ---------------------------------------------------------------------------
// Test: node details
// ---------------------------------------------------------------------------
func TestCallKeepsClosingParen(t *testing.T) {
	stmts := mustParse(t, "f(1,\n2\n);")
	call := stmts[0].(*ast.Expression).Expr.(*ast.Call)
	if call.Paren.Lexeme != ")" || call.Paren.Line != 3 {
		t.Errorf("expected ')' on line 3, got %q line %d", call.Paren.Lexeme, call.Paren.Line)
	}
	if len(call.Args) != 2 {
		t.Errorf("expected 2 args, got %d", len(call.Args))
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"a.b;", "(; (. a b))"},
		{"a.b.c();", "(; (call (. (. a b) c)))"},
		{"a.b = 1;", "(; (set a b 1))"},
		{"this;", "(; this)"},
		{"super.go();", "(; (call (super go)))"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := render(t, tt.src); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: syntax errors
// ---------------------------------------------------------------------------
func TestSyntaxErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"missing semicolon at end", "print 1", "[line 1] Error at end: Expect ';' after value."},
		{"missing expression", "print ;", "[line 1] Error at ';': Expect expression."},
		{"expression stmt semicolon", "1 + 2 3;", "[line 1] Error at '3': Expect ';' after value."},
		{"var name", "var 1 = 2;", "[line 1] Error at '1': Expect variable name."},
		{"var semicolon", "var a = 1 print a;", "[line 1] Error at 'print': Expect ';' after variable declaration."},
		{"unclosed group", "print (1 + 2;", "[line 1] Error at ';': Expect ')' after expression."},
		{"if paren", "if a) print 1;", "[line 1] Error at 'a': Expect '(' after 'if'."},
		{"if close paren", "if (a print 1;", "[line 1] Error at 'print': Expect ')' after 'if'."},
		{"while paren", "while a) {}", "[line 1] Error at 'a': Expect '(' after 'while'."},
		{"while close paren", "while (a {}", "[line 1] Error at '{': Expect ')' after condition."},
		{"for paren", "for a", "[line 1] Error at 'a': Expect '(' after 'for'."},
		{"for condition", "for (;a) {}", "[line 1] Error at ')': Expect ';' after loop condition."},
		{"for clauses", "for (;;a {}", "[line 1] Error at '{': Expect ')' after for clauses."},
		{"fun name", "fun (a) {}", "[line 1] Error at '(': Expect function name."},
		{"fun paren", "fun f a) {}", "[line 1] Error at 'a': Expect '(' after function name."},
		{"param name", "fun f(1) {}", "[line 1] Error at '1': Expect parameter name."},
		{"params close", "fun f(a b) {}", "[line 1] Error at 'b': Expect ')' after parameters."},
		{"fun body", "fun f() print 1;", "[line 1] Error at 'print': Expect '{' after function body."},
		{"unclosed block", "{ print 1;", "[line 1] Error at end: Expect '}' after block."},
		{"call args", "f(1;", "[line 1] Error at ';': Expect ')' after arguments."},
		{"return semicolon", "return 1 2;", "[line 1] Error at '2': Expect ';' after return value."},
		{"property name", "a.1;", "[line 1] Error at '1': Expect property name after '.'."},
		{"super dot", "super;", "[line 1] Error at ';': Expect '.' after 'super'."},
		{"class is unsupported", "class A {}", "[line 1] Error at 'class': Expect expression."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustFail(t, tt.src)
			if got[0] != tt.want {
				t.Errorf("got %q, want %q", got[0], tt.want)
			}
		})
	}
}

func TestInvalidAssignmentTargetIsNotFatal(t *testing.T) {
	stmts, diags := parser.ScanAndParse("1 = 2;\nprint 3;")
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	if got := diagnostics.FormatDiagnostic(diags[0], false); got != "[line 1] Error at '=': Invalid assignment target." {
		t.Errorf("got %q", got)
	}
	// Both statements survive: the error does not trigger synchronization.
	if len(stmts) != 2 {
		t.Errorf("expected 2 statements, got %d", len(stmts))
	}
}

func TestTooManyArguments(t *testing.T) {
	args := make([]string, 256)
	for i := range args {
		args[i] = "1"
	}
	stmts, diags := parser.ScanAndParse("f(" + strings.Join(args, ", ") + ");")
	if len(diags) != 1 || diags[0].Message != "Can't have more than 255 arguments." {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(stmts) != 1 {
		t.Errorf("call should still parse, got %d statements", len(stmts))
	}
}

func TestTooManyParameters(t *testing.T) {
	params := make([]string, 256)
	for i := range params {
		params[i] = "p" + strings.Repeat("x", i%7) + string(rune('a'+i%26))
	}
	_, diags := parser.ScanAndParse("fun f(" + strings.Join(params, ", ") + ") {}")
	if len(diags) != 1 || diags[0].Message != "Can't have more than 255 parameters." {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestErrorRecoveryReportsEachError(t *testing.T) {
	src := "print 1 +;\nprint 2;\nvar = 3;"
	stmts, diags := parser.ScanAndParse(src)
	if len(diags) != 2 {
		t.Fatalf("expected exactly 2 diagnostics, got %d:\n%s", len(diags), diagnostics.FormatDiagnostics(diags, false))
	}
	if diags[0].Line != 1 || diags[1].Line != 3 {
		t.Errorf("expected errors on lines 1 and 3, got %d and %d", diags[0].Line, diags[1].Line)
	}
	if len(stmts) != 1 || formatter.Stmt(stmts[0]) != "(print 2)" {
		t.Errorf("expected only the valid statement to survive, got %d statements", len(stmts))
	}
}

func TestErrorRecoveryInsideBlock(t *testing.T) {
	stmts, diags := parser.ScanAndParse("fun f() { print ; print 2; }")
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	if len(stmts) != 1 {
		t.Fatalf("expected the function to survive, got %d statements", len(stmts))
	}
	if got := formatter.Stmt(stmts[0]); got != "(fun f () (print 2))" {
		t.Errorf("got %q", got)
	}
}

func TestLexErrorsStopBeforeParsing(t *testing.T) {
	stmts, diags := parser.ScanAndParse("print @;\nprint (;")
	if stmts != nil {
		t.Errorf("expected no statements, got %d", len(stmts))
	}
	if len(diags) != 1 || diags[0].Code != diagnostics.ELex {
		t.Fatalf("expected a single lexical diagnostic, got %v", diags)
	}
}

func TestParseWithoutEOF(t *testing.T) {
	stmts, diags := parser.Parse(nil)
	if len(diags) != 0 || len(stmts) != 0 {
		t.Errorf("expected empty result, got %d stmts %d diags", len(stmts), len(diags))
	}
}
