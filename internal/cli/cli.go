// Package cli implements the lox command line. cmd/lox is a thin wrapper so
// the conformance tests can drive every command in-process.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/oarkflow/log"

	"github.com/loxwalk/lox/pkg/config"
	"github.com/loxwalk/lox/pkg/diagnostics"
	"github.com/loxwalk/lox/pkg/evaluator"
	"github.com/loxwalk/lox/pkg/help"
	"github.com/loxwalk/lox/pkg/repl"
	"github.com/loxwalk/lox/pkg/runtime"
	"github.com/loxwalk/lox/pkg/server"
)

// Exit codes follow sysexits.h.
const (
	ExitOK       = 0
	ExitUsage    = 64
	ExitData     = 65
	ExitSoftware = 70
	ExitIO       = 74
)

const usage = `Usage: lox [script]
       lox <command> [options]

Commands:
  run <file|->   run a program
  check <file>   report syntax and static errors without running
  ast <file>     print the parsed program in canonical form
  repl           start the interactive prompt
  serve          start the HTTP playground
  config         print the effective configuration
  help [topic]   show the language reference

Options:
  --json           print diagnostics as JSON
  --config <file>  read configuration from file
  --addr <addr>    listen address for serve`

// App holds the streams and settings for one invocation.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Dir is where .lox.yaml is looked up; empty means the working directory.
	Dir string

	cfg    *config.Config
	logger *log.Logger
	json   bool
	addr   string
}

// Main runs the command line with args (without the program name) and
// returns the process exit code.
func Main(args []string) int {
	app := &App{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
	return app.Run(args)
}

// Run dispatches args to a command.
func (a *App) Run(args []string) int {
	rest, configPath, err := a.parseFlags(args)
	if err != nil {
		fmt.Fprintln(a.Stderr, err)
		fmt.Fprintln(a.Stderr, usage)
		return ExitUsage
	}
	if code := a.loadConfig(configPath); code != ExitOK {
		return code
	}

	if len(rest) == 0 {
		return a.cmdRepl(nil)
	}
	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "run":
		return a.cmdRun(cmdArgs)
	case "check":
		return a.cmdCheck(cmdArgs)
	case "ast":
		return a.cmdAST(cmdArgs)
	case "repl":
		return a.cmdRepl(cmdArgs)
	case "serve":
		return a.cmdServe(cmdArgs)
	case "config":
		return a.cmdConfig(cmdArgs)
	case "help", "--help", "-h":
		return a.cmdHelp(cmdArgs)
	}
	if len(rest) > 1 || strings.HasPrefix(cmd, "-") {
		fmt.Fprintln(a.Stderr, usage)
		return ExitUsage
	}
	return a.cmdRun(rest)
}

// parseFlags removes the global options from args.
func (a *App) parseFlags(args []string) (rest []string, configPath string, err error) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--json":
			a.json = true
		case "--config", "--addr":
			if i+1 >= len(args) {
				return nil, "", fmt.Errorf("%s requires a value", args[i])
			}
			i++
			if args[i-1] == "--config" {
				configPath = args[i]
			} else {
				a.addr = args[i]
			}
		default:
			rest = append(rest, args[i])
		}
	}
	return rest, configPath, nil
}

func (a *App) loadConfig(path string) int {
	var err error
	if path != "" {
		a.cfg, err = config.LoadFile(path)
	} else {
		dir := a.Dir
		if dir == "" {
			dir, _ = os.Getwd()
		}
		a.cfg, err = config.Load(dir)
	}
	if err != nil {
		a.reportIO(fmt.Sprintf("cannot load configuration: %v", err))
		return ExitIO
	}
	a.logger = a.cfg.NewLogger(a.Stderr)
	return ExitOK
}

func (a *App) newRuntime(opts ...runtime.Option) *runtime.Runtime {
	base := []runtime.Option{
		runtime.WithStdout(a.Stdout),
		runtime.WithLogger(a.logger),
		runtime.WithMaxCallDepth(a.cfg.Runtime.MaxCallDepth),
		runtime.WithCache(a.cfg.Runtime.CacheSize),
	}
	return runtime.New(append(base, opts...)...)
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func (a *App) cmdRun(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(a.Stderr, "usage: lox run <file|->")
		return ExitUsage
	}
	source, code := a.readSource(args[0])
	if code != ExitOK {
		return code
	}

	rt := a.newRuntime()
	defer rt.Close()
	_, err := rt.Run(context.Background(), source)
	return a.reportRunError(err)
}

func (a *App) cmdCheck(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(a.Stderr, "usage: lox check <file|->")
		return ExitUsage
	}
	source, code := a.readSource(args[0])
	if code != ExitOK {
		return code
	}

	rt := a.newRuntime()
	defer rt.Close()
	diags := rt.Check(source)
	if len(diags) > 0 {
		fmt.Fprintln(a.Stderr, diagnostics.FormatDiagnostics(diags, a.json))
		return ExitData
	}
	if a.json {
		fmt.Fprintln(a.Stdout, "[]")
	}
	return ExitOK
}

func (a *App) cmdAST(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(a.Stderr, "usage: lox ast <file|->")
		return ExitUsage
	}
	source, code := a.readSource(args[0])
	if code != ExitOK {
		return code
	}

	rt := a.newRuntime()
	defer rt.Close()
	tree, err := rt.AST(source)
	if err != nil {
		return a.reportRunError(err)
	}
	fmt.Fprint(a.Stdout, tree)
	return ExitOK
}

func (a *App) cmdRepl(args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(a.Stderr, "usage: lox repl")
		return ExitUsage
	}
	rt := a.newRuntime()
	defer rt.Close()
	r := repl.New(rt, repl.Options{
		Prompt:       a.cfg.REPL.Prompt,
		Continuation: a.cfg.REPL.Continuation,
		HistoryPath:  a.cfg.HistoryPath(),
		Stdout:       a.Stdout,
		Stderr:       a.Stderr,
		Logger:       a.logger,
	})
	if err := r.Run(context.Background()); err != nil {
		fmt.Fprintln(a.Stderr, err)
		return ExitIO
	}
	return ExitOK
}

func (a *App) cmdServe(args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(a.Stderr, "usage: lox serve [--addr <addr>]")
		return ExitUsage
	}
	addr := a.addr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	srv := server.New(server.Config{
		Timeout:        a.cfg.ServerTimeout(),
		MaxSourceBytes: a.cfg.Server.MaxSourceBytes,
		MaxCallDepth:   a.cfg.Server.MaxCallDepth,
		CacheSize:      a.cfg.Runtime.CacheSize,
		Version:        help.Version,
		Logger:         a.logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown()
	}()

	if err := srv.Listen(addr); err != nil {
		fmt.Fprintln(a.Stderr, err)
		return ExitIO
	}
	return ExitOK
}

func (a *App) cmdConfig(args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(a.Stderr, "usage: lox config")
		return ExitUsage
	}
	out, err := a.cfg.YAML()
	if err != nil {
		fmt.Fprintln(a.Stderr, err)
		return ExitSoftware
	}
	if a.cfg.Source != "" {
		fmt.Fprintf(a.Stdout, "# source: %s\n", a.cfg.Source)
	}
	fmt.Fprint(a.Stdout, out)
	return ExitOK
}

func (a *App) cmdHelp(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.Stdout, help.QUICKREF)
		return ExitOK
	}
	_, content, err := help.MatchTopic(args[0])
	if err != nil {
		fmt.Fprintln(a.Stderr, err)
		return ExitUsage
	}
	fmt.Fprint(a.Stdout, content)
	return ExitOK
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (a *App) readSource(file string) (string, int) {
	if file == "-" {
		data, err := io.ReadAll(a.Stdin)
		if err != nil {
			a.reportIO(fmt.Sprintf("cannot read stdin: %v", err))
			return "", ExitIO
		}
		return string(data), ExitOK
	}
	data, err := os.ReadFile(file)
	if err != nil {
		a.reportIO(fmt.Sprintf("cannot read file: %s", file))
		return "", ExitIO
	}
	return string(data), ExitOK
}

func (a *App) reportIO(msg string) {
	diag := diagnostics.MakeDiag(diagnostics.EIO, 0, "", msg)
	fmt.Fprintln(a.Stderr, diagnostics.FormatDiagnostic(diag, a.json))
}

// reportRunError prints err and maps it to an exit code.
func (a *App) reportRunError(err error) int {
	if err == nil {
		return ExitOK
	}
	var derr *runtime.DiagnosticError
	var rerr *evaluator.RuntimeError
	switch {
	case errors.As(err, &derr):
		fmt.Fprintln(a.Stderr, diagnostics.FormatDiagnostics(derr.Diagnostics, a.json))
		return ExitData
	case errors.As(err, &rerr):
		fmt.Fprintln(a.Stderr, diagnostics.FormatDiagnostic(rerr.Diagnostic(), a.json))
		return ExitSoftware
	default:
		fmt.Fprintln(a.Stderr, err)
		return ExitSoftware
	}
}
