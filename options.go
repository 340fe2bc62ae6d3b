package slidepdf

import (
	"github.com/charmbracelet/log"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// pipelineConfig holds the engine and I/O settings of a Pipeline.
type pipelineConfig struct {
	backend         Backend
	enginePath      string
	engineArgs      []string
	installOnDemand bool
	workDir         string
}

// WithLogger sets the logger. Without it, Run uses the logger attached to
// its context (see ContextWithLogger) and otherwise discards all output.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithContentSource sets where targets are loaded from.
// Panics if src is nil (programmer error).
func WithContentSource(src ContentSource) Option {
	if src == nil {
		panic("slidepdf: WithContentSource source must not be nil")
	}
	return func(p *Pipeline) {
		p.source = src
	}
}

// WithEngineBackend selects the browser driver. Default is BackendRod.
func WithEngineBackend(b Backend) Option {
	return func(p *Pipeline) {
		p.cfg.backend = b
	}
}

// WithEnginePath forces the browser executable.
func WithEnginePath(path string) Option {
	return func(p *Pipeline) {
		p.cfg.enginePath = path
	}
}

// WithEngineArgs adds browser command-line flags, e.g. "--lang=en".
func WithEngineArgs(args ...string) Option {
	return func(p *Pipeline) {
		p.cfg.engineArgs = append(p.cfg.engineArgs, args...)
	}
}

// WithInstallOnDemand lets the resolver download a browser as last resort.
func WithInstallOnDemand(enable bool) Option {
	return func(p *Pipeline) {
		p.cfg.installOnDemand = enable
	}
}

// WithResolver replaces the default engine resolver.
func WithResolver(r *EngineResolver) Option {
	return func(p *Pipeline) {
		p.resolver = r
	}
}

// WithMerger replaces the PDF merge routine.
func WithMerger(m Merger) Option {
	return func(p *Pipeline) {
		p.merger = m
	}
}

// WithWorkDir sets the parent of per-run work directories.
// Default is os.TempDir().
func WithWorkDir(dir string) Option {
	return func(p *Pipeline) {
		p.cfg.workDir = dir
	}
}

// withLaunch overrides engine start-up. Used by tests.
func withLaunch(fn launchFunc) Option {
	return func(p *Pipeline) {
		p.launch = fn
	}
}
