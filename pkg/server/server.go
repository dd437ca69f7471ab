// Package server exposes the interpreter over HTTP as a small playground.
//
// Every request gets a fresh session, so programs never see each other's
// globals. Runs are bounded by a timeout and a call depth limit.
package server

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/oarkflow/json"
	"github.com/oarkflow/log"

	"github.com/loxwalk/lox/pkg/diagnostics"
	"github.com/loxwalk/lox/pkg/evaluator"
	"github.com/loxwalk/lox/pkg/runtime"
)

// Config configures the playground.
type Config struct {
	Timeout        time.Duration
	MaxSourceBytes int
	MaxCallDepth   int
	CacheSize      int
	Version        string
	Logger         *log.Logger
}

type Server struct {
	app    *fiber.App
	rt     *runtime.Runtime
	config Config
	logger *log.Logger
}

// RunRequest is the body of /run, /check and /ast.
type RunRequest struct {
	Source  string         `json:"source"`
	Globals map[string]any `json:"globals,omitempty"`
}

// EvalRequest is the body of /eval.
type EvalRequest struct {
	Expression string         `json:"expression"`
	Globals    map[string]any `json:"globals,omitempty"`
}

type RunResponse struct {
	RunID       string                   `json:"run_id,omitempty"`
	OK          bool                     `json:"ok"`
	Output      string                   `json:"output"`
	Diagnostics []diagnostics.Diagnostic `json:"diagnostics,omitempty"`
	Stats       *Stats                   `json:"stats,omitempty"`
	DurationMs  float64                  `json:"duration_ms"`
}

type Stats struct {
	Calls      int64 `json:"calls"`
	Iterations int64 `json:"iterations"`
	MaxDepth   int   `json:"max_depth"`
}

type CheckResponse struct {
	Valid       bool                     `json:"valid"`
	Diagnostics []diagnostics.Diagnostic `json:"diagnostics"`
}

type ASTResponse struct {
	AST         string                   `json:"ast,omitempty"`
	Diagnostics []diagnostics.Diagnostic `json:"diagnostics,omitempty"`
}

type EvalResponse struct {
	Value       any                      `json:"value"`
	Display     string                   `json:"display"`
	Type        string                   `json:"type"`
	Diagnostics []diagnostics.Diagnostic `json:"diagnostics,omitempty"`
}

// New creates a server with routes registered.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = &log.DefaultLogger
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           func(b []byte, v any) error { return json.Unmarshal(b, v) },
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})
	s := &Server{
		app:    app,
		config: cfg,
		logger: cfg.Logger,
		rt: runtime.New(
			runtime.WithLogger(cfg.Logger),
			runtime.WithMaxCallDepth(cfg.MaxCallDepth),
			runtime.WithCache(cfg.CacheSize),
		),
	}
	s.setupRoutes()
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("playground listening")
	return s.app.Listen(addr)
}

// Shutdown stops the server and releases the parse cache.
func (s *Server) Shutdown() error {
	defer s.rt.Close()
	return s.app.Shutdown()
}

func (s *Server) setupRoutes() {
	s.app.Use(s.requestLogger)

	s.app.Get("/healthz", s.healthHandler)
	s.app.Post("/run", s.runHandler)
	s.app.Post("/check", s.checkHandler)
	s.app.Post("/ast", s.astHandler)
	s.app.Post("/eval", s.evalHandler)
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Info().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("request")
	return err
}

func (s *Server) healthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": s.config.Version,
	})
}

// parseSource decodes a RunRequest and enforces the size limit.
func (s *Server) parseSource(c *fiber.Ctx) (*RunRequest, error) {
	var req RunRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.checkSize(req.Source); err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Server) checkSize(source string) error {
	if s.config.MaxSourceBytes > 0 && len(source) > s.config.MaxSourceBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "source exceeds size limit")
	}
	return nil
}

func (s *Server) runHandler(c *fiber.Ctx) error {
	req, err := s.parseSource(c)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	session := s.rt.NewSession(&out)
	if err := defineGlobals(session, req.Globals); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	start := time.Now()
	res, err := session.Exec(ctx, req.Source)
	resp := RunResponse{
		OK:         err == nil,
		Output:     out.String(),
		DurationMs: float64(time.Since(start).Microseconds()) / 1000,
	}
	if res != nil {
		resp.RunID = res.RunID
		resp.Stats = &Stats{Calls: res.Stats.Calls, Iterations: res.Stats.Iterations, MaxDepth: res.Stats.MaxDepth}
	}

	var derr *runtime.DiagnosticError
	var rerr *evaluator.RuntimeError
	switch {
	case err == nil:
	case errors.As(err, &derr):
		resp.Diagnostics = derr.Diagnostics
		return c.Status(fiber.StatusUnprocessableEntity).JSON(resp)
	case errors.As(err, &rerr):
		resp.Diagnostics = []diagnostics.Diagnostic{rerr.Diagnostic()}
	default:
		return err
	}
	return c.JSON(resp)
}

func (s *Server) checkHandler(c *fiber.Ctx) error {
	req, err := s.parseSource(c)
	if err != nil {
		return err
	}
	diags := s.rt.Check(req.Source)
	if diags == nil {
		diags = []diagnostics.Diagnostic{}
	}
	return c.JSON(CheckResponse{Valid: len(diags) == 0, Diagnostics: diags})
}

func (s *Server) astHandler(c *fiber.Ctx) error {
	req, err := s.parseSource(c)
	if err != nil {
		return err
	}
	tree, err := s.rt.AST(req.Source)
	var derr *runtime.DiagnosticError
	if errors.As(err, &derr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ASTResponse{Diagnostics: derr.Diagnostics})
	}
	if err != nil {
		return err
	}
	return c.JSON(ASTResponse{AST: tree})
}

func (s *Server) evalHandler(c *fiber.Ctx) error {
	var req EvalRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Expression) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "expression cannot be empty")
	}
	if err := s.checkSize(req.Expression); err != nil {
		return err
	}

	session := s.rt.NewSession(&bytes.Buffer{})
	if err := defineGlobals(session, req.Globals); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	v, err := session.Eval(ctx, req.Expression)
	var derr *runtime.DiagnosticError
	var rerr *evaluator.RuntimeError
	switch {
	case errors.As(err, &derr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(EvalResponse{Diagnostics: derr.Diagnostics})
	case errors.As(err, &rerr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(EvalResponse{Diagnostics: []diagnostics.Diagnostic{rerr.Diagnostic()}})
	case err != nil:
		return err
	}

	raw, err := evaluator.ValueToJSON(v)
	if err != nil {
		return err
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return err
	}
	return c.JSON(EvalResponse{Value: value, Display: v.String(), Type: evaluator.TypeName(v)})
}

// defineGlobals binds JSON scalars as globals, in name order.
func defineGlobals(session *runtime.Session, globals map[string]any) error {
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v, err := evaluator.FromJSONValue(globals[name])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "global "+name+": "+err.Error())
		}
		session.Define(name, v)
	}
	return nil
}
