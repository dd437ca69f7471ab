// Package repl implements the interactive lox prompt.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gofrs/flock"
	"github.com/oarkflow/log"
	"github.com/peterh/liner"

	"github.com/loxwalk/lox/pkg/diagnostics"
	"github.com/loxwalk/lox/pkg/evaluator"
	"github.com/loxwalk/lox/pkg/parser"
	"github.com/loxwalk/lox/pkg/runtime"
)

// LineReader supplies input lines. *liner.State satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// Options configures a REPL.
type Options struct {
	Prompt       string
	Continuation string
	// HistoryPath is read on start and written on exit; empty disables history.
	HistoryPath string
	Stdout      io.Writer
	Stderr      io.Writer
	Logger      *log.Logger
}

// REPL evaluates lines against one persistent session.
type REPL struct {
	opts    Options
	session *runtime.Session
	history []string
}

// New creates a REPL backed by a fresh session of rt.
func New(rt *runtime.Runtime, opts Options) *REPL {
	if opts.Prompt == "" {
		opts.Prompt = "> "
	}
	if opts.Continuation == "" {
		opts.Continuation = ". "
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = &log.DefaultLogger
	}
	return &REPL{opts: opts, session: rt.NewSession(opts.Stdout)}
}

// Run starts an interactive terminal session until EOF or :quit.
func (r *REPL) Run(ctx context.Context) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	r.loadHistory(ln)
	defer r.saveHistory(ln)

	return r.Loop(ctx, ln)
}

// Loop reads and evaluates chunks from in until EOF or :quit.
func (r *REPL) Loop(ctx context.Context, in LineReader) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		code, err := r.readChunk(in)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.opts.Stdout)
			return nil
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if quit := r.command(trimmed); quit {
				return nil
			}
			continue
		}

		r.Eval(ctx, code)
		r.history = append(r.history, strings.ReplaceAll(code, "\n", " "))
		if h, ok := in.(interface{ AppendHistory(string) }); ok {
			h.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		}
	}
}

// History returns the chunks evaluated so far, newlines folded to spaces.
func (r *REPL) History() []string {
	return r.history
}

// readChunk prompts until the accumulated input is complete. An empty
// continuation line submits what has been typed so far.
func (r *REPL) readChunk(in LineReader) (string, error) {
	var b strings.Builder
	for {
		prompt := r.opts.Prompt
		if b.Len() > 0 {
			prompt = r.opts.Continuation
		}
		line, err := in.Prompt(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) && b.Len() > 0 {
				return b.String(), nil
			}
			return "", err
		}
		if b.Len() > 0 {
			if strings.TrimSpace(line) == "" {
				return b.String(), nil
			}
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || !Incomplete(src) {
			return src, nil
		}
	}
}

// Incomplete reports whether src fails to parse only because input ended
// early: an unterminated string, or a syntax error at end of input, where
// src is not a complete expression either.
func Incomplete(src string) bool {
	_, diags := parser.ScanAndParse(src)
	if len(diags) == 0 {
		return false
	}
	if _, exprDiags := parser.ParseExpression(src); len(exprDiags) == 0 {
		return false
	}
	for _, d := range diags {
		if d.Message == "Unterminated string." {
			return true
		}
		if d.Code == diagnostics.EParse && d.Where == " at end" {
			return true
		}
	}
	return false
}

// Eval runs one chunk. Statements run as a program; a lone expression is
// evaluated and its value echoed. Errors go to stderr and the session
// continues.
func (r *REPL) Eval(ctx context.Context, code string) {
	if _, diags := parser.ScanAndParse(code); len(diags) > 0 {
		if _, exprDiags := parser.ParseExpression(code); len(exprDiags) == 0 {
			v, err := r.session.Eval(ctx, code)
			if err != nil {
				r.report(err)
				return
			}
			fmt.Fprintln(r.opts.Stdout, v.String())
			return
		}
	}
	if _, err := r.session.Exec(ctx, code); err != nil {
		r.report(err)
	}
}

func (r *REPL) report(err error) {
	var derr *runtime.DiagnosticError
	var rerr *evaluator.RuntimeError
	switch {
	case errors.As(err, &derr):
		fmt.Fprintln(r.opts.Stderr, diagnostics.FormatDiagnostics(derr.Diagnostics, false))
	case errors.As(err, &rerr):
		fmt.Fprintln(r.opts.Stderr, diagnostics.FormatDiagnostic(rerr.Diagnostic(), false))
	default:
		fmt.Fprintln(r.opts.Stderr, err.Error())
	}
}

const replHelp = `Commands:
  :help   show this message
  :env    list global names
  :quit   leave the REPL
Enter statements (print 1;) or a bare expression (1 + 2) to see its value.
An unfinished block or string continues on the next line; an empty line submits it.`

func (r *REPL) command(cmd string) (quit bool) {
	switch strings.ToLower(cmd) {
	case ":quit", ":q", ":exit":
		return true
	case ":help":
		fmt.Fprintln(r.opts.Stdout, replHelp)
	case ":env":
		fmt.Fprintln(r.opts.Stdout, strings.Join(r.session.Globals(), " "))
	default:
		fmt.Fprintf(r.opts.Stdout, "unknown command %s. Type :help for help.\n", cmd)
	}
	return false
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

func (r *REPL) loadHistory(ln *liner.State) {
	if r.opts.HistoryPath == "" {
		return
	}
	lock := flock.New(r.opts.HistoryPath + ".lock")
	if err := lock.RLock(); err != nil {
		r.opts.Logger.Debug().Err(err).Msg("history lock failed")
		return
	}
	defer lock.Unlock()

	f, err := os.Open(r.opts.HistoryPath)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := ln.ReadHistory(f); err != nil {
		r.opts.Logger.Debug().Err(err).Str("path", r.opts.HistoryPath).Msg("history read failed")
	}
}

func (r *REPL) saveHistory(ln *liner.State) {
	if r.opts.HistoryPath == "" {
		return
	}
	if err := WriteLocked(r.opts.HistoryPath, func(w io.Writer) error {
		_, err := ln.WriteHistory(w)
		return err
	}); err != nil {
		r.opts.Logger.Warn().Err(err).Str("path", r.opts.HistoryPath).Msg("history write failed")
	}
}

// WriteLocked truncates path and calls write while holding an exclusive lock
// on path + ".lock", so concurrent sessions do not interleave writes.
func WriteLocked(path string, write func(io.Writer) error) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer lock.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
