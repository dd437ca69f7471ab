// Package help holds the text shown by `lox help`.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/loxwalk/lox/pkg/stdlib"
)

// Version is the language reference version.
const Version = "v0.1"

// QUICKREF is shown by `lox help` with no topic.
var QUICKREF = `lox ` + Version + ` quick reference

  var x = 1;               declare a variable (nil when no initializer)
  x = x + 1;               assign an existing variable
  print x;                 print a value and a newline
  { ... }                  block with its own scope
  if (c) a; else b;        conditional; only nil and false are falsey
  while (c) body;          loop
  for (init; cond; step)   loop; any clause may be empty
  fun name(a, b) { ... }   function declaration; closures capture scope
  return v;                return from a function

Run a file:    lox run file.lox   (or lox file.lox)
Interactive:   lox repl           (or lox with no arguments)
Topics:        lox help <topic>   syntax values natives errors repl server examples
`

// Topics maps topic names to their help text.
var Topics = map[string]string{
	"syntax": `Syntax

Programs are sequences of declarations:
  declaration := "fun" function | "var" IDENT ("=" expr)? ";" | statement
  statement   := expr ";" | "print" expr ";" | "return" expr? ";"
               | "if" "(" expr ")" statement ("else" statement)?
               | "while" "(" expr ")" statement
               | "for" "(" (varDecl | expr ";" | ";") expr? ";" expr? ")" statement
               | "{" declaration* "}"

Operator precedence, lowest first:
  =  or  and  == !=  < <= > >=  + -  * /  unary ! -  call ()

Comments start with // and run to end of line. Strings use double quotes,
have no escape sequences and may span lines. Functions take at most 255
parameters; calls take at most 255 arguments.
`,
	"values": `Values

  nil        the absence of a value
  true false booleans
  1  2.5     numbers are 64-bit floats; whole numbers print without ".0"
  "text"     strings; + concatenates two strings
  <fn name>  user functions, <native fn> host functions

Truthiness: nil and false are falsey; everything else, including 0 and "",
is truthy. == never converts types: 0 == "0" is false. Division by zero
follows IEEE 754 (1/0 prints inf). and/or return an operand, not a boolean.
`,
	"natives": "", // filled by init from the native registry
	"errors": `Errors

Lexical and syntax errors are reported before anything runs:
  [line 1] Error: Unexpected character: @.
  [line 3] Error at ';': Expect expression.
  [line 7] Error at end: Expect '}' after block.
Runtime errors stop the program:
  Operand must be a number.
  [line 4]

Exit codes: 0 ok, 64 usage, 65 syntax or static error, 70 runtime error,
74 file not readable. --json prints diagnostics as JSON objects with
code, line, where and message fields.
`,
	"repl": `REPL

Globals persist between entries. A bare expression (1 + 2) prints its value.
Unfinished blocks and strings continue on the next line; an empty
continuation line submits the input as typed.
  :help  :env  :quit
History is kept in repl.history_file (default ~/.lox_history).
`,
	"server": `Playground server (lox serve)

  GET  /healthz
  POST /run    {"source": "...", "globals": {"name": 1}}
  POST /check  {"source": "..."}
  POST /ast    {"source": "..."}
  POST /eval   {"expression": "...", "globals": {...}}

Every request runs in a fresh global scope bounded by server.timeout and
server.max_call_depth. Globals must be JSON scalars.
`,
	"examples": `Examples

  fun fib(n) {
    if (n < 2) return n;
    return fib(n - 1) + fib(n - 2);
  }
  print fib(20);

  fun makeCounter() {
    var i = 0;
    fun count() { i = i + 1; return i; }
    return count;
  }
  var c = makeCounter();
  c(); print c();            // 2

  var start = clock();
  for (var i = 0; i < 100000; i = i + 1) {}
  print clock() - start;
`,
}

// TopicList is the display order of topics.
var TopicList = []string{"syntax", "values", "natives", "errors", "repl", "server", "examples"}

func init() {
	Topics["natives"] = "Native functions\n\n" + NativesIndex()
}

// MatchTopic resolves an exact topic name or a unique prefix.
func MatchTopic(query string) (string, string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if content, ok := Topics[query]; ok && query != "" {
		return query, content, nil
	}
	var matches []string
	for _, name := range TopicList {
		if query != "" && strings.HasPrefix(name, query) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", fmt.Errorf("unknown topic %q; available: %s", query, strings.Join(TopicList, ", "))
	default:
		sort.Strings(matches)
		return "", "", fmt.Errorf("ambiguous topic %q: %s", query, strings.Join(matches, ", "))
	}
}

// NativesIndex lists the default native functions with their arity.
func NativesIndex() string {
	var b strings.Builder
	all := stdlib.Default().All()
	for _, fn := range all {
		params := make([]string, fn.Arity())
		for i := range params {
			params[i] = fmt.Sprintf("a%d", i+1)
		}
		fmt.Fprintf(&b, "  %s(%s)\n", fn.Name, strings.Join(params, ", "))
	}
	fmt.Fprintf(&b, "\nclock() returns seconds since the Unix epoch as a number.\n")
	fmt.Fprintf(&b, "Total: %d functions\n", len(all))
	return b.String()
}
