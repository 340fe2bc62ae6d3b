package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	slidepdf "github.com/alnah/go-slidepdf"
	"github.com/alnah/go-slidepdf/internal/config"
	"github.com/alnah/go-slidepdf/internal/fileutil"
	"github.com/alnah/go-slidepdf/internal/hints"
)

// defaultOutput is written when neither --output nor run.output is set.
const defaultOutput = "slides.pdf"

// renderPlan is a fully resolved render command.
type renderPlan struct {
	cfg     *config.Config
	targets []slidepdf.RenderTarget
	output  string
}

// runRender executes the render command and returns an exit code.
func runRender(ctx context.Context, args []string, env *Environment) int {
	f, positional, err := parseRenderFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		printRenderUsage(env.Stdout)
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\nRun 'slidepdf help render' for usage.\n", err)
		return ExitUsage
	}

	plan, err := buildPlan(f, positional, env.Getenv)
	if err != nil {
		return reportFailure(env, f.common, err, hintFor(err, f))
	}

	logger := slidepdf.NewLogger(env.Stderr, logLevel(f.common))
	p, err := env.NewRenderer(pipelineOptions(plan.cfg), engineOptions(plan.cfg, logger)...)
	if err != nil {
		return reportFailure(env, f.common, err, "")
	}

	start := env.Now()
	res, err := p.Run(ctx, plan.targets, plan.output)
	if err != nil {
		return reportFailure(env, f.common, err, hintForRun(err, plan.cfg))
	}

	if f.common.json {
		writeJSON(env.Stdout, res)
		return ExitSuccess
	}
	if !f.common.quiet {
		if f.common.verbose {
			fmt.Fprintf(env.Stdout, "Created %s, %s (%v)\n", res.OutputPath, res.Message, env.Now().Sub(start).Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s, %s\n", res.OutputPath, res.Message)
		}
	}
	return ExitSuccess
}

// buildPlan loads the config, applies environment and flags (CLI wins)
// and resolves targets and output path.
func buildPlan(f *renderFlags, positional []string, getenv func(string) string) (*renderPlan, error) {
	cfg := config.DefaultConfig()
	if f.common.config != "" {
		loaded, err := config.LoadConfig(f.common.config)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}

	mergeFlags(f, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if len(positional) == 0 {
		return nil, slidepdf.ErrNoTargets
	}

	output := defaultOutput
	switch {
	case f.output != "":
		output = f.output
	case cfg.Run.Output != "":
		output = cfg.Run.Output
	}

	return &renderPlan{
		cfg:     cfg,
		targets: slidepdf.TargetsFromSources(positional),
		output:  output,
	}, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(f *renderFlags, cfg *config.Config) {
	changed := f.changed
	if changed == nil {
		changed = func(string) bool { return false }
	}

	// Page flags
	if changed("format") {
		cfg.Page.Format = f.page.format
	}
	if changed("width") {
		cfg.Page.Width = f.page.width
	}
	if changed("height") {
		cfg.Page.Height = f.page.height
	}
	if changed("margin") {
		cfg.Page.Margin = f.page.margin
	}

	// Engine flags
	if changed("backend") {
		cfg.Engine.Backend = f.engine.backend
	}
	if changed("browser") {
		cfg.Engine.Path = f.engine.browser
	}
	if len(f.engine.args) > 0 {
		cfg.Engine.Args = append(cfg.Engine.Args, f.engine.args...)
	}
	if changed("install") {
		cfg.Engine.Install = f.engine.install
	}

	// Content flags
	if changed("base-url") {
		cfg.Content.BaseURL = f.content.baseURL
	}
	if changed("pattern") {
		cfg.Content.Pattern = f.content.pattern
	}
	if changed("dir") {
		cfg.Content.Dir = f.content.dir
	}
	if changed("ready-selector") {
		cfg.Content.ReadySelector = f.content.readySelector
	}

	// Timeout flags
	if changed("nav-timeout") {
		cfg.Timeouts.Navigation = config.Duration(f.timeouts.navigation)
	}
	if changed("ready-timeout") {
		cfg.Timeouts.Ready = config.Duration(f.timeouts.ready)
	}

	// Run flags
	if changed("concurrency") {
		cfg.Run.Concurrency = slidepdf.ResolvePoolSize(f.concurrency)
	}
	if changed("debug") {
		cfg.Run.Debug = f.debug
	}
	if changed("work-dir") {
		cfg.Run.WorkDir = f.workDir
	}
}

// pipelineOptions maps config values to library options. Zero values
// select library defaults.
func pipelineOptions(cfg *config.Config) slidepdf.PipelineOptions {
	return slidepdf.PipelineOptions{
		Format:        slidepdf.ParseFormat(cfg.Page.Format),
		Width:         cfg.Page.Width,
		Height:        cfg.Page.Height,
		Margin:        cfg.Page.Margin,
		Debug:         cfg.Run.Debug,
		Concurrency:   cfg.Run.Concurrency,
		ReadySelector: cfg.Content.ReadySelector,
		Timeouts: slidepdf.Timeouts{
			Navigation:         cfg.Timeouts.Navigation.Std(),
			Ready:              cfg.Timeouts.Ready.Std(),
			ScrollSettle:       cfg.Timeouts.ScrollSettle.Std(),
			ScrollReturnSettle: cfg.Timeouts.ScrollReturnSettle.Std(),
		},
	}
}

// engineOptions returns the engine, content and I/O options of cfg.
func engineOptions(cfg *config.Config, logger *log.Logger) []slidepdf.Option {
	options := []slidepdf.Option{
		slidepdf.WithLogger(logger),
		slidepdf.WithEngineBackend(slidepdf.Backend(cfg.Engine.Backend)),
		slidepdf.WithInstallOnDemand(cfg.Engine.Install),
	}
	if cfg.Engine.Path != "" {
		options = append(options, slidepdf.WithEnginePath(cfg.Engine.Path))
	}
	if len(cfg.Engine.Args) > 0 {
		options = append(options, slidepdf.WithEngineArgs(cfg.Engine.Args...))
	}
	if cfg.Run.WorkDir != "" {
		options = append(options, slidepdf.WithWorkDir(cfg.Run.WorkDir))
	}

	if cfg.Content.BaseURL != "" {
		options = append(options, slidepdf.WithContentSource(slidepdf.DevServerSource{
			BaseURL: cfg.Content.BaseURL,
			Pattern: cfg.Content.Pattern,
		}))
	} else {
		options = append(options, slidepdf.WithContentSource(slidepdf.FileSource{Dir: cfg.Content.Dir}))
	}
	return options
}

// logLevel maps --quiet and --verbose to a log level.
func logLevel(f commonFlags) log.Level {
	switch {
	case f.verbose:
		return log.DebugLevel
	case f.quiet:
		return log.ErrorLevel
	default:
		return log.WarnLevel
	}
}

// reportFailure prints err as JSON or as text with its hint, and returns
// the exit code for err.
func reportFailure(env *Environment, f commonFlags, err error, hint string) int {
	if f.json {
		writeJSON(env.Stdout, slidepdf.FailureResult(err))
	} else {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hint)
	}
	return exitCodeFor(err)
}

// hintFor returns a hint for errors raised before the pipeline starts.
func hintFor(err error, f *renderFlags) string {
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		if fileutil.IsFilePath(f.common.config) {
			return hints.ForConfigNotFound(nil)
		}
		return hints.ForConfigNotFound(config.SearchPaths(f.common.config))
	case errors.Is(err, slidepdf.ErrNoTargets):
		return "\n  hint: pass one or more sources, e.g. slidepdf render intro outro"
	}
	return ""
}

// hintForRun returns a hint for pipeline errors.
func hintForRun(err error, cfg *config.Config) string {
	switch {
	case errors.Is(err, slidepdf.ErrEngineUnavailable):
		return hints.ForEngineUnavailable(cfg.Engine.Install)
	case errors.Is(err, slidepdf.ErrNoPagesProduced):
		return hints.ForDevServer(cfg.Content.BaseURL) + hints.ForTimeout()
	case errors.Is(err, slidepdf.ErrAssembly):
		return hints.ForOutputDirectory()
	}
	return ""
}

// writeJSON encodes v with two-space indentation.
func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
