package slidepdf

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Backend selects the browser automation driver.
type Backend string

// Supported backends.
const (
	BackendRod      Backend = "rod"
	BackendChromedp Backend = "chromedp"
)

// ParseBackend maps user input to a Backend. Empty input means BackendRod.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendRod:
		return BackendRod, nil
	case BackendChromedp:
		return BackendChromedp, nil
	default:
		return "", fmt.Errorf("%w: %q (must be rod or chromedp)", ErrInvalidBackend, s)
	}
}

// Viewport is the emulated device size in CSS pixels.
type Viewport struct {
	Width  int
	Height int
}

// PrintSpec describes one print-to-PDF call. Sizes are in inches.
type PrintSpec struct {
	PaperWidth  float64
	PaperHeight float64
	Margin      float64
	PageRanges  string // e.g. "1"; empty prints every page
}

// firstPageOnly keeps one target to one page; content past the paper
// height is cut instead of flowing onto extra pages.
const firstPageOnly = "1"

// Engine is a running headless browser able to open page contexts.
type Engine interface {
	// NewPage opens an isolated page context. A nil viewport keeps the
	// engine's default size.
	NewPage(ctx context.Context, vp *Viewport) (PageContext, error)
	Close() error
}

// PageContext is one browser tab. The deadline of ctx bounds every call.
type PageContext interface {
	// Navigate loads url and returns once the network is idle.
	Navigate(ctx context.Context, url string) error
	// WaitReady blocks until selector matches an element.
	WaitReady(ctx context.Context, selector string) error
	// Eval runs a function-form script and decodes its result into out.
	// A nil out discards the result.
	Eval(ctx context.Context, js string, out any) error
	PrintPDF(ctx context.Context, spec PrintSpec) ([]byte, error)
	Close() error
}

// LaunchConfig is what a backend needs to start a browser.
type LaunchConfig struct {
	Bin       string // empty means let the backend find or fetch one
	ExtraArgs []string
}

// Fixed launch flags applied by every backend.
var launchFlags = []string{
	"headless",
	"no-sandbox",
	"disable-gpu",
	"single-process",
	"disable-dev-shm-usage",
}

// launchFunc starts a browser for one backend.
type launchFunc func(ctx context.Context, cfg LaunchConfig, logger *log.Logger) (Engine, error)

func launcherFor(b Backend) launchFunc {
	if b == BackendChromedp {
		return launchChromedp
	}
	return launchRod
}

// EngineSession owns at most one browser process for the duration of a run.
type EngineSession struct {
	resolver  *EngineResolver
	backend   Backend
	extraArgs []string
	logger    *log.Logger
	launch    launchFunc

	mu        sync.Mutex
	engine    Engine
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// NewEngineSession creates a session that resolves the executable with
// resolver and starts it through backend.
func NewEngineSession(resolver *EngineResolver, backend Backend, extraArgs []string, logger *log.Logger) *EngineSession {
	if logger == nil {
		logger = discardLogger()
	}
	if resolver == nil {
		resolver = NewEngineResolver(ResolverConfig{}, logger)
	}
	return &EngineSession{
		resolver:  resolver,
		backend:   backend,
		extraArgs: extraArgs,
		logger:    logger,
		launch:    launcherFor(backend),
	}
}

// bareLaunchHint says what a launch without an executable will do.
func bareLaunchHint(b Backend) string {
	if b == BackendChromedp {
		return "chromedp never downloads a browser; install Chromium or set the engine path"
	}
	return "go-rod will download its pinned Chromium"
}

// Open starts the engine, or returns the running one.
// Every failure wraps ErrEngineUnavailable.
func (s *EngineSession) Open(ctx context.Context) (Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("%w: session closed", ErrEngineUnavailable)
	}
	if s.engine != nil {
		return s.engine, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	cfg := LaunchConfig{ExtraArgs: s.extraArgs}
	if res, ok := s.resolver.Resolve(ctx); ok {
		cfg.Bin = res.Path
		s.logger.Debug("engine resolved", "path", res.Path, "strategy", res.Strategy)
	} else {
		s.logger.Warn("no engine executable found, attempting bare launch", "backend", s.backend, "hint", bareLaunchHint(s.backend))
	}

	eng, err := s.launch(ctx, cfg, s.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	s.engine = eng
	return eng, nil
}

// Close terminates the engine. Safe to call more than once.
func (s *EngineSession) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		eng := s.engine
		s.engine = nil
		s.mu.Unlock()

		if eng != nil {
			s.closeErr = eng.Close()
		}
	})
	return s.closeErr
}

// splitArg turns "--name=value" or "name" into a flag name and value.
func splitArg(arg string) (name, value string, ok bool) {
	arg = strings.TrimPrefix(strings.TrimSpace(arg), "--")
	if arg == "" {
		return "", "", false
	}
	name, value, _ = strings.Cut(arg, "=")
	return name, value, name != ""
}
