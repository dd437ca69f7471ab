package evaluator

import (
	"context"

	"github.com/loxwalk/lox/pkg/token"
)

// Limits holds optional host-imposed execution limits. Zero disables a limit.
type Limits struct {
	MaxCallDepth int
}

// Stats counts resource use during execution.
type Stats struct {
	Calls      int64
	Iterations int64
	MaxDepth   int
}

type tracker struct {
	depth int
	stats Stats
}

// checkCancelled fails with a runtime error at tok once the interpreter's
// context is done.
func (in *Interpreter) checkCancelled(tok token.Token) error {
	select {
	case <-in.ctx.Done():
		return &RuntimeError{Token: tok, Message: "Execution cancelled."}
	default:
		return nil
	}
}

func (in *Interpreter) enterCall(tok token.Token) error {
	if err := in.checkCancelled(tok); err != nil {
		return err
	}
	if in.limits.MaxCallDepth > 0 && in.track.depth >= in.limits.MaxCallDepth {
		return &RuntimeError{Token: tok, Message: "Stack overflow."}
	}
	in.track.depth++
	in.track.stats.Calls++
	if in.track.depth > in.track.stats.MaxDepth {
		in.track.stats.MaxDepth = in.track.depth
	}
	return nil
}

func (in *Interpreter) leaveCall() {
	in.track.depth--
}

func (in *Interpreter) countIteration(tok token.Token) error {
	in.track.stats.Iterations++
	return in.checkCancelled(tok)
}

// Stats returns the counters accumulated by this interpreter so far.
func (in *Interpreter) Stats() Stats {
	return in.track.stats
}

// ResetStats zeroes the counters so the next run reports only its own use.
func (in *Interpreter) ResetStats() {
	in.track.stats = Stats{}
}

// SetContext replaces the context checked by loops and calls. Use it to give
// each run on a long-lived interpreter its own deadline.
func (in *Interpreter) SetContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	in.ctx = ctx
}
