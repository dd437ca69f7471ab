// Package diagnostics defines the diagnostic records produced while scanning,
// parsing, validating and running lox programs.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/oarkflow/json"

	"github.com/loxwalk/lox/pkg/token"
)

// Diagnostic code constants.
const (
	ELex       = "E_LEX"
	EParse     = "E_PARSE"
	EReturnTop = "E_RETURN_TOP"
	ERuntime   = "E_RUNTIME"
	EIO        = "E_IO"
)

// Diagnostic is a (line, where, message) triple tagged with a code.
// Where is either empty, " at end" or " at 'lexeme'".
type Diagnostic struct {
	Code    string `json:"code"`
	Line    int    `json:"line"`
	Where   string `json:"where,omitempty"`
	Message string `json:"message"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code string, line int, where, message string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Line:    line,
		Where:   where,
		Message: message,
	}
}

// At returns the location fragment used when reporting an error at tok.
func At(tok token.Token) string {
	if tok.Kind == token.EOF {
		return " at end"
	}
	return fmt.Sprintf(" at '%s'", tok.Lexeme)
}

// Error satisfies the error interface so a single diagnostic can travel as one.
func (d Diagnostic) Error() string {
	return FormatDiagnostic(d, false)
}

// FormatDiagnostic formats a single diagnostic. Runtime diagnostics use the
// two-line "message\n[line N]" form, everything else "[line N] Error: msg".
func FormatDiagnostic(d Diagnostic, asJSON bool) string {
	if asJSON {
		b, _ := json.Marshal(d)
		return string(b)
	}
	if d.Code == ERuntime {
		return fmt.Sprintf("%s\n[line %d]", d.Message, d.Line)
	}
	if d.Line <= 0 {
		return fmt.Sprintf("Error%s: %s", d.Where, d.Message)
	}
	return fmt.Sprintf("[line %d] Error%s: %s", d.Line, d.Where, d.Message)
}

// FormatDiagnostics formats a slice of diagnostics, one per line, or as a JSON array.
func FormatDiagnostics(diags []Diagnostic, asJSON bool) string {
	if asJSON {
		if diags == nil {
			diags = []Diagnostic{}
		}
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, false)
	}
	return strings.Join(parts, "\n")
}

// Count returns how many diagnostics carry code.
func Count(diags []Diagnostic, code string) int {
	n := 0
	for _, d := range diags {
		if d.Code == code {
			n++
		}
	}
	return n
}
