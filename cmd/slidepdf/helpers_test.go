package main

import (
	"bytes"
	"context"
	"sync"
	"time"

	slidepdf "github.com/alnah/go-slidepdf"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake renderer, stub resolver, captured output
// ---------------------------------------------------------------------------

// fakeRenderer records the last Run call and returns a scripted outcome.
type fakeRenderer struct {
	mu      sync.Mutex
	opts    slidepdf.PipelineOptions
	targets []slidepdf.RenderTarget
	output  string
	calls   int

	result *slidepdf.Result
	err    error
}

func (r *fakeRenderer) Run(_ context.Context, targets []slidepdf.RenderTarget, outputPath string) (*slidepdf.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.targets = targets
	r.output = outputPath
	if r.err != nil {
		return nil, r.err
	}
	if r.result != nil {
		return r.result, nil
	}
	return &slidepdf.Result{
		Success:    true,
		OutputPath: outputPath,
		Message:    "rendered 1 of 1 targets",
		Pages:      1,
	}, nil
}

// stubStrategy is a resolver strategy with a fixed answer.
type stubStrategy struct {
	name  string
	path  string
	found bool
}

func (s stubStrategy) Name() string { return s.name }

func (s stubStrategy) Locate(context.Context) (string, bool) { return s.path, s.found }

// testEnv bundles an Environment with its captured output.
type testEnv struct {
	*Environment
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	renderer *fakeRenderer
	vars     map[string]string
}

// newTestEnv returns an Environment with a fake renderer, an empty process
// environment and a resolver that finds nothing.
func newTestEnv() *testEnv {
	te := &testEnv{
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
		renderer: &fakeRenderer{},
		vars:     map[string]string{},
	}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	te.Environment = &Environment{
		Now:    func() time.Time { return now },
		Stdout: te.stdout,
		Stderr: te.stderr,
		Getenv: func(k string) string { return te.vars[k] },
		NewRenderer: func(opts slidepdf.PipelineOptions, options ...slidepdf.Option) (Renderer, error) {
			// Build a real pipeline so option wiring is exercised too.
			if _, err := slidepdf.NewPipeline(opts, options...); err != nil {
				return nil, err
			}
			te.renderer.opts = opts
			return te.renderer, nil
		},
		NewResolver: func(slidepdf.ResolverConfig) *slidepdf.EngineResolver {
			return slidepdf.NewEngineResolverWith(nil, stubStrategy{name: "override"})
		},
	}
	return te
}

// withResolver replaces the doctor resolver by one over strategies.
func (te *testEnv) withResolver(strategies ...slidepdf.Strategy) *testEnv {
	te.NewResolver = func(slidepdf.ResolverConfig) *slidepdf.EngineResolver {
		return slidepdf.NewEngineResolverWith(nil, strategies...)
	}
	return te
}
