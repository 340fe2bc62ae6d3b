package main

// Notes:
// - run: we test command dispatch and exit codes. Rendering goes through the
//   fake renderer from helpers_test.go.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"context"
	"strings"
	"testing"

	slidepdf "github.com/alnah/go-slidepdf"
)

// ---------------------------------------------------------------------------
// TestRun - Command dispatch
// ---------------------------------------------------------------------------

func TestRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantRender bool
		wantStdout string
		wantStderr string
	}{
		{"no args", nil, ExitUsage, false, "", "Usage: slidepdf"},
		{"version", []string{"version"}, ExitSuccess, false, "slidepdf " + Version, ""},
		{"version flag", []string{"--version"}, ExitSuccess, false, "slidepdf " + Version, ""},
		{"help", []string{"help"}, ExitSuccess, false, "Commands:", ""},
		{"help flag", []string{"-h"}, ExitSuccess, false, "Commands:", ""},
		{"help topic", []string{"help", "doctor"}, ExitSuccess, false, "Usage: slidepdf doctor", ""},
		{"explicit render", []string{"render", "intro.html"}, ExitSuccess, true, "Created slides.pdf", ""},
		{"implicit render", []string{"intro.html", "-o", "out.pdf"}, ExitSuccess, true, "Created out.pdf", ""},
		{"implicit render with flag first", []string{"-q", "intro.html"}, ExitSuccess, true, "", ""},
		{"doctor", []string{"doctor", "--json"}, ExitGeneral, false, `"status": "errors"`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			te := newTestEnv()
			code := run(context.Background(), tt.args, te.Environment)

			if code != tt.wantCode {
				t.Errorf("run(%v) = %d, want %d; stderr: %s", tt.args, code, tt.wantCode, te.stderr)
			}
			if rendered := te.renderer.calls > 0; rendered != tt.wantRender {
				t.Errorf("rendered = %v, want %v", rendered, tt.wantRender)
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

func TestDefaultEnv(t *testing.T) {
	t.Parallel()

	env := DefaultEnv()
	if env.Now == nil || env.Stdout == nil || env.Stderr == nil || env.Getenv == nil {
		t.Fatal("DefaultEnv() left a field nil")
	}
	if env.NewRenderer == nil || env.NewResolver == nil {
		t.Fatal("DefaultEnv() left a constructor nil")
	}
	if r := env.NewResolver(slidepdf.ResolverConfig{}); len(r.Strategies()) == 0 {
		t.Error("default resolver has no strategies")
	}
	if _, err := env.NewRenderer(slidepdf.DefaultPipelineOptions()); err != nil {
		t.Errorf("NewRenderer() error = %v", err)
	}
}
