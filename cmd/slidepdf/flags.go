package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// ErrUsage marks command-line errors: unknown flags, bad values, unknown commands.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
	json    bool
}

// pageFlags holds page geometry flags.
type pageFlags struct {
	format string
	width  int
	height int
	margin int
}

// engineFlags holds browser selection flags.
type engineFlags struct {
	backend string
	browser string
	args    []string
	install bool
}

// contentFlags holds content loading flags.
type contentFlags struct {
	baseURL       string
	pattern       string
	dir           string
	readySelector string
}

// timeoutFlags holds wait budget flags.
type timeoutFlags struct {
	navigation time.Duration
	ready      time.Duration
}

// renderFlags holds every flag of the render command.
type renderFlags struct {
	output      string
	concurrency int
	debug       bool
	workDir     string

	common   commonFlags
	page     pageFlags
	engine   engineFlags
	content  contentFlags
	timeouts timeoutFlags

	// changed reports whether a flag was given on the command line.
	changed func(name string) bool
}

// doctorFlags holds flags of the doctor command.
type doctorFlags struct {
	common commonFlags
	engine engineFlags
}

// addCommonFlags adds flags shared by every command to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only print errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "print progress and timings")
	fs.BoolVar(&f.json, "json", false, "print the result as JSON")
}

// addPageFlags adds page geometry flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVar(&f.format, "format", "", "page format: auto, fixed-page-size")
	fs.IntVar(&f.width, "width", 0, "viewport width in px")
	fs.IntVar(&f.height, "height", 0, "viewport height in px")
	fs.IntVar(&f.margin, "margin", 0, "page margin in px")
}

// addEngineFlags adds browser selection flags to a FlagSet.
func addEngineFlags(fs *flag.FlagSet, f *engineFlags) {
	fs.StringVar(&f.backend, "backend", "", "browser driver: rod, chromedp")
	fs.StringVar(&f.browser, "browser", "", "Chrome or Chromium executable")
	fs.StringArrayVar(&f.args, "engine-arg", nil, "extra browser flag, repeatable")
	fs.BoolVar(&f.install, "install", false, "download a browser when none is found")
}

// addContentFlags adds content loading flags to a FlagSet.
func addContentFlags(fs *flag.FlagSet, f *contentFlags) {
	fs.StringVar(&f.baseURL, "base-url", "", "dev server URL, e.g. http://localhost:5173")
	fs.StringVar(&f.pattern, "pattern", "", "dev server path pattern with {id}, {source} or {index}")
	fs.StringVar(&f.dir, "dir", "", "directory of local HTML sources")
	fs.StringVar(&f.readySelector, "ready-selector", "", "CSS selector marking content as ready")
}

// addTimeoutFlags adds wait budget flags to a FlagSet.
func addTimeoutFlags(fs *flag.FlagSet, f *timeoutFlags) {
	fs.DurationVar(&f.navigation, "nav-timeout", 0, "navigation budget per target (e.g. 60s)")
	fs.DurationVar(&f.ready, "ready-timeout", 0, "content-ready budget per target (e.g. 10s)")
}

// newFlagSet returns a FlagSet that leaves error reporting to the caller.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	return fs
}

// parseRenderFlags parses render command flags and returns positional args.
// A help request returns flag.ErrHelp unwrapped.
func parseRenderFlags(args []string) (*renderFlags, []string, error) {
	fs := newFlagSet("render")
	f := &renderFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output PDF path")
	fs.IntVarP(&f.concurrency, "concurrency", "w", 0, "page contexts at once (0 = auto)")
	fs.BoolVar(&f.debug, "debug", false, "keep per-target PDFs")
	fs.StringVar(&f.workDir, "work-dir", "", "parent of the per-run temp directory")

	addCommonFlags(fs, &f.common)
	addPageFlags(fs, &f.page)
	addEngineFlags(fs, &f.engine)
	addContentFlags(fs, &f.content)
	addTimeoutFlags(fs, &f.timeouts)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	f.changed = fs.Changed
	return f, fs.Args(), nil
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string) (*doctorFlags, error) {
	fs := newFlagSet("doctor")
	f := &doctorFlags{}

	addCommonFlags(fs, &f.common)
	fs.StringVar(&f.engine.browser, "browser", "", "Chrome or Chromium executable")
	fs.BoolVar(&f.engine.install, "install", false, "download a browser when none is found")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: doctor takes no arguments, got %q", ErrUsage, fs.Arg(0))
	}
	return f, nil
}
