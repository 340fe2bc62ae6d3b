package slidepdf

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Pipeline renders an ordered list of targets into one PDF.
// A Pipeline is safe to reuse; every Run owns its own engine and work dir.
type Pipeline struct {
	opts     PipelineOptions
	cfg      pipelineConfig
	logger   *log.Logger
	source   ContentSource
	resolver *EngineResolver
	merger   Merger
	launch   launchFunc
	newRunID func() string
}

// NewPipeline creates a pipeline. Missing option values take their
// defaults; values that cannot be defaulted are rejected.
func NewPipeline(opts PipelineOptions, options ...Option) (*Pipeline, error) {
	p := &Pipeline{
		opts:     opts.WithDefaults(),
		source:   FileSource{},
		newRunID: uuid.NewString,
	}
	for _, opt := range options {
		opt(p)
	}

	if err := p.opts.Validate(); err != nil {
		return nil, err
	}
	backend, err := ParseBackend(string(p.cfg.backend))
	if err != nil {
		return nil, err
	}
	p.cfg.backend = backend
	if p.launch == nil {
		p.launch = launcherFor(backend)
	}
	return p, nil
}

// Options returns the effective options.
func (p *Pipeline) Options() PipelineOptions {
	return p.opts
}

// Run renders targets and writes the assembled document to outputPath.
// Targets that fail are skipped and listed in Result.Skipped. The engine
// and every temp file are released before Run returns, whatever happens.
func (p *Pipeline) Run(ctx context.Context, targets []RenderTarget, outputPath string) (*Result, error) {
	if outputPath == "" {
		return nil, ErrEmptyOutputPath
	}
	if err := validateTargets(targets); err != nil {
		return nil, err
	}

	runID := p.newRunID()
	logger := p.logger
	if logger == nil {
		logger = LoggerFromContext(ctx)
	}
	logger = logger.With("run", runID)
	prog := newProgress(logger)

	janitor := NewJanitor(p.opts.Debug, logger)
	defer janitor.Release()

	store, err := NewPageStore(p.cfg.workDir, runID)
	if err != nil {
		return nil, err
	}
	janitor.TrackStore(store)

	resolver := p.resolver
	if resolver == nil {
		resolver = NewEngineResolver(ResolverConfig{
			EnginePath:      p.cfg.enginePath,
			InstallOnDemand: p.cfg.installOnDemand,
		}, logger)
	}
	session := NewEngineSession(resolver, p.cfg.backend, p.cfg.engineArgs, logger)
	session.launch = p.launch
	janitor.TrackSession(session)

	eng, err := session.Open(ctx)
	if err != nil {
		return nil, err
	}

	renderer := NewTargetRenderer(p.source, logger)
	failures := runIndexed(ctx, p.opts.Concurrency, len(targets),
		func(ctx context.Context, idx int) error {
			t := targets[idx]
			page, err := renderer.Render(ctx, eng, t, p.opts, store.PathFor(t))
			if err != nil {
				return err
			}
			return store.Add(page)
		},
		func(idx int, err error) error {
			return newRenderError(targets[idx], err)
		},
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	skipped := skippedTargets(targets, failures, logger)
	pages := store.Pages()
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: all %d targets failed", ErrNoPagesProduced, len(targets))
	}

	if err := NewAssembler(p.merger, logger).Assemble(ctx, pages, outputPath); err != nil {
		return nil, err
	}

	prog.done("document written", "output", outputPath, "pages", len(pages), "skipped", len(skipped))
	return &Result{
		Success:    true,
		OutputPath: outputPath,
		Message:    fmt.Sprintf("rendered %d of %d targets", len(pages), len(targets)),
		Pages:      len(pages),
		Skipped:    skipped,
	}, nil
}

// skippedTargets logs every failure and reports it in sequence order.
func skippedTargets(targets []RenderTarget, failures []error, logger *log.Logger) []SkippedTarget {
	var skipped []SkippedTarget
	for i, err := range failures {
		if err == nil {
			continue
		}
		t := targets[i]
		reason := err
		var re *RenderError
		if errors.As(err, &re) {
			reason = re.Err
		}
		logger.Warn("target skipped", "target", t.ID, "index", t.SequenceIndex, "err", reason)
		skipped = append(skipped, SkippedTarget{ID: t.ID, SequenceIndex: t.SequenceIndex, Reason: reason.Error()})
	}
	return skipped
}
