package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var reportLines = regexp.MustCompile(
	`^Parallel at 5000 results: \d+\.\d{5} milliseconds\nLinear at 5000 results: \d+\.\d{5} milliseconds\n`)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_Report(t *testing.T) {
	out, _, err := execute(t, "--amount", "5000", "--workers", "2", "--log-level", "error")
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !reportLines.MatchString(out) {
		t.Errorf("unexpected report:\n%s", out)
	}
}

func TestRootCmd_Metrics(t *testing.T) {
	out, _, err := execute(t, "--amount", "5000", "--workers", "2", "--metrics", "--log-level", "error")
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !strings.Contains(out, "fanout_pool_tasks_submitted_total") {
		t.Errorf("metrics missing from output:\n%s", out)
	}
}

func TestRootCmd_ConfigFileWithFlagOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	if err := os.WriteFile(path, []byte("amount: 750\nworkers: 2\nlog_level: error\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "--config", path, "--amount", "5000")
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !reportLines.MatchString(out) {
		t.Errorf("flag did not override file amount:\n%s", out)
	}
}

func TestRootCmd_FlagOverridesInvalidEnv(t *testing.T) {
	t.Setenv("FANOUT_WORKERS", "0")
	t.Setenv("FANOUT_CUTOFF", "-5")

	out, stderr, err := execute(t, "--workers", "2", "--cutoff", "8", "--amount", "5000", "--log-level", "error")
	if err != nil {
		t.Fatalf("execute() error = %v, stderr = %q", err, stderr)
	}
	if !reportLines.MatchString(out) {
		t.Errorf("unexpected report:\n%s", out)
	}
}

func TestRootCmd_InvalidEnvWithoutFlag(t *testing.T) {
	t.Setenv("FANOUT_WORKERS", "0")

	if _, _, err := execute(t, "--amount", "5000"); err == nil {
		t.Error("Expected error for zero workers from env")
	}
}

func TestRootCmd_InvalidWorkers(t *testing.T) {
	_, stderr, err := execute(t, "--workers", "0")
	if err == nil {
		t.Fatal("Expected error for zero workers")
	}
	if !strings.Contains(stderr, "workers") {
		t.Errorf("stderr = %q, want mention of workers", stderr)
	}
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	if _, _, err := execute(t, "extra"); err == nil {
		t.Error("Expected error for positional argument")
	}
}
