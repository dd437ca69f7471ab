package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newApp(t *testing.T, stdin string) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	var out, errOut bytes.Buffer
	return &App{
		Stdin:  strings.NewReader(stdin),
		Stdout: &out,
		Stderr: &errOut,
		Dir:    t.TempDir(),
	}, &out, &errOut
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunFile(t *testing.T) {
	app, out, _ := newApp(t, "")
	path := writeFile(t, "main.lox", `print "ok";`)
	if code := app.Run([]string{"run", path}); code != ExitOK {
		t.Fatalf("exit = %d", code)
	}
	if out.String() != "ok\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestConfigFlag(t *testing.T) {
	app, _, errOut := newApp(t, "")
	cfg := writeFile(t, "custom.yaml", "runtime:\n  max_call_depth: 5\n")
	prog := writeFile(t, "main.lox", "fun f(n) { return f(n + 1); } f(0);")
	if code := app.Run([]string{"--config", cfg, "run", prog}); code != ExitSoftware {
		t.Fatalf("exit = %d", code)
	}
	if !strings.HasPrefix(errOut.String(), "Stack overflow.") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestConfigFlagMissingValue(t *testing.T) {
	app, _, errOut := newApp(t, "")
	if code := app.Run([]string{"run", "--config"}); code != ExitUsage {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(errOut.String(), "--config requires a value") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestConfigFileMissing(t *testing.T) {
	app, _, _ := newApp(t, "")
	if code := app.Run([]string{"--config", "/does/not/exist.yaml", "help"}); code != ExitIO {
		t.Fatalf("exit = %d", code)
	}
}

func TestCommandUsage(t *testing.T) {
	tests := [][]string{
		{"run"},
		{"run", "a", "b"},
		{"check"},
		{"ast"},
		{"config", "extra"},
		{"serve", "extra"},
		{"repl", "extra"},
		{"--unknown"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			app, _, _ := newApp(t, "")
			if code := app.Run(args); code != ExitUsage {
				t.Errorf("exit = %d, want %d", code, ExitUsage)
			}
		})
	}
}

func TestJSONIOError(t *testing.T) {
	app, _, errOut := newApp(t, "")
	if code := app.Run([]string{"--json", "run", "/no/such/file.lox"}); code != ExitIO {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(errOut.String(), `"code":"E_IO"`) {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestHelpQuickref(t *testing.T) {
	app, out, _ := newApp(t, "")
	if code := app.Run([]string{"help"}); code != ExitOK {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(out.String(), "quick reference") {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestASTFromStdin(t *testing.T) {
	app, out, _ := newApp(t, "var a = 1 + 2;")
	if code := app.Run([]string{"ast", "-"}); code != ExitOK {
		t.Fatalf("exit = %d", code)
	}
	if out.String() != "(var a (+ 1 2))\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestASTSyntaxError(t *testing.T) {
	app, _, errOut := newApp(t, "var;")
	if code := app.Run([]string{"ast", "-"}); code != ExitData {
		t.Fatalf("exit = %d", code)
	}
	if errOut.String() != "[line 1] Error at ';': Expect variable name.\n" {
		t.Errorf("stderr = %q", errOut.String())
	}
}
