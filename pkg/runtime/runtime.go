// Package runtime provides the top-level lox runtime orchestrator.
package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dgraph-io/ristretto"
	"github.com/oarkflow/log"
	"github.com/oarkflow/xid"

	"github.com/loxwalk/lox/pkg/ast"
	"github.com/loxwalk/lox/pkg/diagnostics"
	"github.com/loxwalk/lox/pkg/evaluator"
	"github.com/loxwalk/lox/pkg/formatter"
	"github.com/loxwalk/lox/pkg/parser"
	"github.com/loxwalk/lox/pkg/stdlib"
	"github.com/loxwalk/lox/pkg/validator"
)

// Result holds the outcome of a program execution.
type Result struct {
	RunID string
	Stats evaluator.Stats
}

// Runtime wires together all lox components for program execution.
type Runtime struct {
	stdlib   *stdlib.Registry
	logger   *log.Logger
	cache    *ristretto.Cache
	stdout   io.Writer
	maxDepth int
	runID    string
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithStdlib sets the native function registry.
func WithStdlib(r *stdlib.Registry) Option {
	return func(rt *Runtime) {
		rt.stdlib = r
	}
}

// WithLogger sets the logger for run events.
func WithLogger(l *log.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithStdout sets the default writer for print statements.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithMaxCallDepth bounds call nesting; 0 means unlimited.
func WithMaxCallDepth(n int) Option {
	return func(rt *Runtime) {
		rt.maxDepth = n
	}
}

// WithRunID fixes the run ID instead of generating one per run.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithCache keeps up to size parsed programs keyed by source text.
// size <= 0 disables caching.
func WithCache(size int) Option {
	return func(rt *Runtime) {
		if size <= 0 {
			rt.cache = nil
			return
		}
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: int64(size * 10),
			MaxCost:     int64(size),
			BufferItems: 64,
		})
		if err != nil {
			rt.logger.Warn().Err(err).Msg("parse cache disabled")
			return
		}
		rt.cache = cache
	}
}

// New creates a new Runtime with the given options.
// By default the default natives are registered, output goes to os.Stdout,
// nothing is cached and call depth is unlimited.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		stdlib: stdlib.Default(),
		logger: &log.DefaultLogger,
		stdout: os.Stdout,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Close releases the parse cache.
func (rt *Runtime) Close() {
	if rt.cache != nil {
		rt.cache.Close()
	}
}

// Parse scans and parses source. Successful parses are cached when a cache
// is configured; the returned statements must not be modified.
func (rt *Runtime) Parse(source string) ([]ast.Stmt, []diagnostics.Diagnostic) {
	if rt.cache != nil {
		if v, ok := rt.cache.Get(source); ok {
			rt.logger.Debug().Int("bytes", len(source)).Msg("parse cache hit")
			return v.([]ast.Stmt), nil
		}
	}
	stmts, diags := parser.ScanAndParse(source)
	if len(diags) == 0 && rt.cache != nil {
		rt.cache.Set(source, stmts, 1)
	}
	return stmts, diags
}

// Check parses and validates a program without executing it.
func (rt *Runtime) Check(source string) []diagnostics.Diagnostic {
	stmts, diags := rt.Parse(source)
	if len(diags) > 0 {
		return diags
	}
	return validator.Validate(stmts)
}

// AST parses a program and renders every statement in canonical form.
func (rt *Runtime) AST(source string) (string, error) {
	stmts, diags := rt.Parse(source)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Program(stmts), nil
}

// Run executes a program in a fresh session.
func (rt *Runtime) Run(ctx context.Context, source string) (*Result, error) {
	return rt.NewSession(nil).Exec(ctx, source)
}

func (rt *Runtime) nextRunID() string {
	if rt.runID != "" {
		return rt.runID
	}
	return xid.New().String()
}

// Session keeps one global scope across several executions, as the REPL does.
// A Session is not safe for concurrent use.
type Session struct {
	rt     *Runtime
	interp *evaluator.Interpreter
}

// NewSession creates a session whose print statements write to stdout.
// A nil stdout uses the runtime's writer.
func (rt *Runtime) NewSession(stdout io.Writer) *Session {
	if stdout == nil {
		stdout = rt.stdout
	}
	interp := evaluator.New(
		evaluator.WithStdout(stdout),
		evaluator.WithMaxCallDepth(rt.maxDepth),
		rt.stdlib.Option(),
	)
	return &Session{rt: rt, interp: interp}
}

// Define binds a global in the session.
func (s *Session) Define(name string, v evaluator.Value) {
	s.interp.DefineGlobal(name, v)
}

// Lookup reads a global from the session.
func (s *Session) Lookup(name string) (evaluator.Value, bool) {
	return s.interp.Globals().Lookup(name)
}

// Globals returns the names bound in the session's global scope, sorted.
func (s *Session) Globals() []string {
	names := s.interp.Globals().Names()
	sort.Strings(names)
	return names
}

// Exec parses, validates and executes source against the session's globals.
// Static errors are returned as *DiagnosticError, runtime errors as
// *evaluator.RuntimeError. Globals defined before a runtime error persist.
func (s *Session) Exec(ctx context.Context, source string) (*Result, error) {
	rt := s.rt
	stmts, diags := rt.Parse(source)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}
	if vDiags := validator.Validate(stmts); len(vDiags) > 0 {
		return nil, &DiagnosticError{Diagnostics: vDiags}
	}

	res := &Result{RunID: rt.nextRunID()}
	rt.logger.Debug().Str("run_id", res.RunID).Int("statements", len(stmts)).Msg("run started")

	s.interp.SetContext(ctx)
	s.interp.ResetStats()
	err := s.interp.Interpret(stmts, nil)
	res.Stats = s.interp.Stats()

	if err != nil {
		rt.logger.Debug().Str("run_id", res.RunID).Err(err).Msg("runtime error")
		return res, err
	}
	rt.logger.Debug().Str("run_id", res.RunID).Int64("calls", res.Stats.Calls).Int64("iterations", res.Stats.Iterations).Msg("run finished")
	return res, nil
}

// Eval evaluates a single expression against the session's globals.
func (s *Session) Eval(ctx context.Context, source string) (evaluator.Value, error) {
	expr, diags := parser.ParseExpression(source)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}
	s.interp.SetContext(ctx)
	return s.interp.Evaluate(expr)
}

// DiagnosticError wraps static diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}
