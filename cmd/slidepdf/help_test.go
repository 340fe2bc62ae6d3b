package main

// Notes:
// - printUsage and per-command usage: we test that required content strings
//   are present. We don't test exact formatting.
// - runHelp: we test routing to the correct help topic.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestPrintUsage - Main usage output
// ---------------------------------------------------------------------------

func TestPrintUsage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printUsage(&buf)
	output := buf.String()

	for _, s := range []string{"Usage: slidepdf", "Commands:", "render", "doctor", "version", "help"} {
		if !strings.Contains(output, s) {
			t.Errorf("printUsage output should contain %q", s)
		}
	}
}

// ---------------------------------------------------------------------------
// TestPrintRenderUsage - Every render flag is documented
// ---------------------------------------------------------------------------

func TestPrintRenderUsage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printRenderUsage(&buf)
	output := buf.String()

	flags := []string{
		"--output", "--config", "--json", "--debug", "--work-dir",
		"--format", "--width", "--height", "--margin",
		"--base-url", "--pattern", "--dir", "--ready-selector", "--nav-timeout", "--ready-timeout",
		"--backend", "--browser", "--engine-arg", "--install", "--concurrency",
		"--quiet", "--verbose", "SLIDEPDF_BROWSER_BIN", "SLIDEPDF_DEBUG", "Exit codes:",
	}
	for _, f := range flags {
		if !strings.Contains(output, f) {
			t.Errorf("render usage should document %q", f)
		}
	}
}

// ---------------------------------------------------------------------------
// TestRunHelp - Help topic routing
// ---------------------------------------------------------------------------

func TestRunHelp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no args", nil, ExitSuccess, "Commands:", ""},
		{"render", []string{"render"}, ExitSuccess, "Usage: slidepdf render", ""},
		{"doctor", []string{"doctor"}, ExitSuccess, "Usage: slidepdf doctor", ""},
		{"version", []string{"version"}, ExitSuccess, "Usage: slidepdf version", ""},
		{"help", []string{"help"}, ExitSuccess, "Usage: slidepdf help", ""},
		{"unknown", []string{"convert"}, ExitUsage, "", "Unknown command: convert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			te := newTestEnv()
			if code := runHelp(tt.args, te.Environment); code != tt.wantCode {
				t.Errorf("runHelp(%v) = %d, want %d", tt.args, code, tt.wantCode)
			}
			if !strings.Contains(te.stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want %q", te.stdout, tt.wantStdout)
			}
			if !strings.Contains(te.stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want %q", te.stderr, tt.wantStderr)
			}
		})
	}
}
