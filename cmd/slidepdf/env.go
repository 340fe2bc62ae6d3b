package main

import (
	"context"
	"io"
	"os"
	"time"

	slidepdf "github.com/alnah/go-slidepdf"
)

// Renderer runs a configured pipeline. *slidepdf.Pipeline satisfies it.
type Renderer interface {
	Run(ctx context.Context, targets []slidepdf.RenderTarget, outputPath string) (*slidepdf.Result, error)
}

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string

	// NewRenderer builds the pipeline for a render command.
	NewRenderer func(opts slidepdf.PipelineOptions, options ...slidepdf.Option) (Renderer, error)
	// NewResolver builds the browser resolver used by doctor.
	NewResolver func(cfg slidepdf.ResolverConfig) *slidepdf.EngineResolver
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Getenv: os.Getenv,
		NewRenderer: func(opts slidepdf.PipelineOptions, options ...slidepdf.Option) (Renderer, error) {
			return slidepdf.NewPipeline(opts, options...)
		},
		NewResolver: func(cfg slidepdf.ResolverConfig) *slidepdf.EngineResolver {
			return slidepdf.NewEngineResolver(cfg, nil)
		},
	}
}
