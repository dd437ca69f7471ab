package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oarkflow/json"

	"github.com/loxwalk/lox/internal/cli"
	"github.com/loxwalk/lox/internal/testutil"
)

func TestConformance(t *testing.T) {
	// Keep the user's own configuration out of the scenarios.
	t.Setenv("HOME", t.TempDir())

	dirs, err := testutil.ListScenarios(testutil.ScenariosDir)
	if err != nil {
		t.Fatalf("failed to list scenarios: %v", err)
	}
	if len(dirs) == 0 {
		t.Fatal("no scenarios found")
	}

	for _, dir := range dirs {
		dir := dir
		t.Run(filepath.Base(dir), func(t *testing.T) {
			scenario, err := testutil.LoadScenario(dir)
			if err != nil {
				t.Fatalf("failed to load scenario: %v", err)
			}
			runScenario(t, dir, scenario)
		})
	}
}

func runScenario(t *testing.T, dir string, scenario *testutil.Scenario) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := &cli.App{
		Stdin:  strings.NewReader(scenario.Stdin),
		Stdout: &stdout,
		Stderr: &stderr,
		Dir:    dir,
	}
	exit := app.Run(testutil.ResolveArgs(dir, scenario.Cmd))

	expect := scenario.Expect
	if exit != expect.ExitCode {
		t.Errorf("exit code: got %d, want %d\nstderr: %s", exit, expect.ExitCode, stderr.String())
	}
	if expect.Stdout != nil && stdout.String() != *expect.Stdout {
		t.Errorf("stdout:\n  got:  %q\n  want: %q", stdout.String(), *expect.Stdout)
	}
	if expect.StdoutContains != "" && !strings.Contains(stdout.String(), expect.StdoutContains) {
		t.Errorf("stdout should contain %q, got: %s", expect.StdoutContains, stdout.String())
	}
	if expect.Stderr != nil && stderr.String() != *expect.Stderr {
		t.Errorf("stderr:\n  got:  %q\n  want: %q", stderr.String(), *expect.Stderr)
	}
	if expect.StderrContains != "" && !strings.Contains(stderr.String(), expect.StderrContains) {
		t.Errorf("stderr should contain %q, got: %s", expect.StderrContains, stderr.String())
	}
	if len(expect.StderrJSONSubset) > 0 {
		checkStderrJSON(t, stderr.Bytes(), expect.StderrJSONSubset)
	}
}

// checkStderrJSON requires each expected object to match some diagnostic.
// A single diagnostic object is treated as a one-element list.
func checkStderrJSON(t *testing.T, stderr []byte, expected []map[string]any) {
	t.Helper()

	var actual []map[string]any
	trimmed := bytes.TrimSpace(stderr)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		var one map[string]any
		if err := json.Unmarshal(trimmed, &one); err != nil {
			t.Fatalf("stderr is not JSON: %v\n%s", err, stderr)
		}
		actual = []map[string]any{one}
	} else if err := json.Unmarshal(trimmed, &actual); err != nil {
		t.Fatalf("stderr is not JSON: %v\n%s", err, stderr)
	}

	for _, want := range expected {
		found := false
		for _, got := range actual {
			if testutil.IsSubset(want, got) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("stderr JSON subset not found: %v\nin: %s", want, stderr)
		}
	}
}
