package slidepdf

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-slidepdf/internal/fileutil"
)

// Environment variables that force a browser executable.
const (
	EnvBrowserBin    = "SLIDEPDF_BROWSER_BIN"
	EnvRodBrowserBin = "ROD_BROWSER_BIN"
)

// findTimeout bounds the shell-level cache search.
const findTimeout = 10 * time.Second

// Resolution is the outcome of a successful resolver pass.
type Resolution struct {
	Path     string
	Strategy string
}

// Strategy is one way of locating a browser executable.
type Strategy interface {
	Name() string
	Locate(ctx context.Context) (string, bool)
}

// ResolverConfig tunes the default strategy list.
type ResolverConfig struct {
	EnginePath      string              // explicit override, trusted as is
	InstallOnDemand bool                // let rod download its pinned Chromium
	Getenv          func(string) string // defaults to os.Getenv
}

// EngineResolver walks its strategies in order; the first hit wins.
type EngineResolver struct {
	strategies []Strategy
	logger     *log.Logger
}

// NewEngineResolver builds a resolver with the default strategies:
// override, hosted, known-paths, cache-search, path-lookup, install.
func NewEngineResolver(cfg ResolverConfig, logger *log.Logger) *EngineResolver {
	if logger == nil {
		logger = discardLogger()
	}
	getenv := cfg.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	return NewEngineResolverWith(logger,
		overrideStrategy{path: cfg.EnginePath, getenv: getenv},
		hostedStrategy{getenv: getenv, exists: fileutil.FileExists},
		knownPathsStrategy{paths: knownPaths(runtime.GOOS, getenv), exists: fileutil.FileExists, lookPath: launcher.LookPath},
		cacheSearchStrategy{patterns: cachePatterns(runtime.GOOS, getenv), roots: cacheRoots(runtime.GOOS, getenv), find: shellFind},
		pathLookupStrategy{names: binaryNames, lookPath: exec.LookPath},
		installStrategy{enabled: cfg.InstallOnDemand, install: rodInstall(logger)},
	)
}

// NewEngineResolverWith builds a resolver over an explicit strategy list.
func NewEngineResolverWith(logger *log.Logger, strategies ...Strategy) *EngineResolver {
	if logger == nil {
		logger = discardLogger()
	}
	return &EngineResolver{strategies: strategies, logger: logger}
}

// Strategies returns the strategy names in evaluation order.
func (r *EngineResolver) Strategies() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return names
}

// Resolve returns the first executable found. It never fails: ok is false
// when every strategy came up empty.
func (r *EngineResolver) Resolve(ctx context.Context) (Resolution, bool) {
	for _, s := range r.strategies {
		if ctx.Err() != nil {
			return Resolution{}, false
		}
		path, ok := s.Locate(ctx)
		if !ok {
			r.logger.Debug("engine strategy missed", "strategy", s.Name())
			continue
		}
		r.ensureExecutable(path)
		return Resolution{Path: path, Strategy: s.Name()}, true
	}
	return Resolution{}, false
}

// ensureExecutable makes one chmod attempt on an existing candidate.
func (r *EngineResolver) ensureExecutable(path string) {
	if !fileutil.FileExists(path) || fileutil.IsExecutable(path) {
		return
	}
	if err := fileutil.EnsureExecutable(path); err != nil {
		r.logger.Warn("engine candidate is not executable", "path", path, "err", err)
	}
}

// overrideStrategy returns an explicitly configured path without checking it.
type overrideStrategy struct {
	path   string
	getenv func(string) string
}

func (overrideStrategy) Name() string { return "override" }

func (s overrideStrategy) Locate(context.Context) (string, bool) {
	for _, p := range []string{s.path, s.getenv(EnvBrowserBin), s.getenv(EnvRodBrowserBin)} {
		if p = strings.TrimSpace(p); p != "" {
			return p, true
		}
	}
	return "", false
}

// hostedEnv is a hosting platform recognized by an environment marker.
type hostedEnv struct {
	marker string
	paths  []string
}

var hostedEnvs = []hostedEnv{
	{marker: "RENDER", paths: []string{
		"/opt/render/project/.render/chrome/opt/google/chrome/chrome",
		"/opt/render/.cache/ms-playwright/chromium/chrome-linux/chrome",
	}},
	{marker: "AWS_LAMBDA_FUNCTION_NAME", paths: []string{
		"/opt/chromium",
		"/opt/bin/chromium",
		"/tmp/chromium",
	}},
	{marker: "REPL_ID", paths: []string{
		"/nix/var/nix/profiles/default/bin/chromium",
		"/home/runner/.nix-profile/bin/chromium",
	}},
}

// hostedStrategy checks the fixed locations of detected hosting platforms.
type hostedStrategy struct {
	getenv func(string) string
	exists func(string) bool
}

func (hostedStrategy) Name() string { return "hosted" }

func (s hostedStrategy) Locate(context.Context) (string, bool) {
	for _, h := range hostedEnvs {
		if s.getenv(h.marker) == "" {
			continue
		}
		for _, p := range h.paths {
			if s.exists(p) {
				return p, true
			}
		}
	}
	return "", false
}

// knownPaths lists well-known install locations per OS.
func knownPaths(goos string, getenv func(string) string) []string {
	switch goos {
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Google Chrome for Testing.app/Contents/MacOS/Google Chrome for Testing",
			"/opt/homebrew/bin/chromium",
		}
	case "windows":
		var paths []string
		for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)", "LocalAppData"} {
			if dir := getenv(env); dir != "" {
				paths = append(paths,
					filepath.Join(dir, "Google", "Chrome", "Application", "chrome.exe"),
					filepath.Join(dir, "Chromium", "Application", "chrome.exe"))
			}
		}
		return paths
	default:
		return []string{
			"/usr/bin/google-chrome-stable",
			"/usr/bin/google-chrome",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
			"/opt/google/chrome/chrome",
			"/usr/lib/chromium/chromium",
		}
	}
}

// knownPathsStrategy checks fixed paths, then rod's own list.
type knownPathsStrategy struct {
	paths    []string
	exists   func(string) bool
	lookPath func() (string, bool)
}

func (knownPathsStrategy) Name() string { return "known-paths" }

func (s knownPathsStrategy) Locate(context.Context) (string, bool) {
	for _, p := range s.paths {
		if s.exists(p) {
			return p, true
		}
	}
	if s.lookPath != nil {
		return s.lookPath()
	}
	return "", false
}

// cacheRoots are the vendor cache directories browsers get downloaded to.
func cacheRoots(goos string, getenv func(string) string) []string {
	home := getenv("HOME")
	if goos == "windows" {
		home = getenv("USERPROFILE")
	}
	roots := []string{launcher.DefaultBrowserDir}
	if p := getenv("PLAYWRIGHT_BROWSERS_PATH"); p != "" && p != "0" {
		roots = append(roots, p)
	}
	if p := getenv("PUPPETEER_CACHE_DIR"); p != "" {
		roots = append(roots, p)
	}
	if home == "" {
		return roots
	}
	switch goos {
	case "darwin":
		roots = append(roots,
			filepath.Join(home, "Library", "Caches", "ms-playwright"),
			filepath.Join(home, ".cache", "puppeteer"))
	case "windows":
		roots = append(roots,
			filepath.Join(home, "AppData", "Local", "ms-playwright"),
			filepath.Join(home, ".cache", "puppeteer"))
	default:
		roots = append(roots,
			filepath.Join(home, ".cache", "ms-playwright"),
			filepath.Join(home, ".cache", "puppeteer"))
	}
	return roots
}

// cacheLayouts are executable paths relative to a cache root.
var cacheLayouts = map[string][]string{
	"linux": {
		"chromium-*/chrome",
		"chromium-*/chrome-linux/chrome",
		"chromium_headless_shell-*/chrome-linux/headless_shell",
		"chrome/*/chrome-linux64/chrome",
		"chrome-headless-shell/*/chrome-headless-shell-linux64/chrome-headless-shell",
	},
	"darwin": {
		"chromium-*/Chromium.app/Contents/MacOS/Chromium",
		"chromium-*/chrome-mac/Chromium.app/Contents/MacOS/Chromium",
		"chrome/*/chrome-mac-*/Google Chrome for Testing.app/Contents/MacOS/Google Chrome for Testing",
		"chrome-headless-shell/*/chrome-headless-shell-mac-*/chrome-headless-shell",
	},
	"windows": {
		"chromium-*/chrome.exe",
		"chromium-*/chrome-win/chrome.exe",
		"chrome/*/chrome-win64/chrome.exe",
		"chrome-headless-shell/*/chrome-headless-shell-win64/chrome-headless-shell.exe",
	},
}

// cachePatterns joins every cache root with the layouts for goos.
func cachePatterns(goos string, getenv func(string) string) []string {
	layouts, ok := cacheLayouts[goos]
	if !ok {
		layouts = cacheLayouts["linux"]
	}
	var patterns []string
	for _, root := range cacheRoots(goos, getenv) {
		for _, l := range layouts {
			patterns = append(patterns, filepath.Join(root, filepath.FromSlash(l)))
		}
	}
	return patterns
}

// cacheSearchStrategy globs vendor caches, then falls back to find(1).
type cacheSearchStrategy struct {
	patterns []string
	roots    []string
	find     func(ctx context.Context, roots []string) (string, bool)
}

func (cacheSearchStrategy) Name() string { return "cache-search" }

func (s cacheSearchStrategy) Locate(ctx context.Context) (string, bool) {
	for _, pattern := range s.patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil || len(matches) == 0 {
			continue
		}
		sort.Slice(matches, func(i, j int) bool {
			return newerRevision(matches[i], matches[j])
		})
		for _, m := range matches {
			if fileutil.FileExists(m) {
				return m, true
			}
		}
	}
	if s.find != nil {
		return s.find(ctx, s.roots)
	}
	return "", false
}

// newerRevision reports whether path a holds a later revision than b.
// Digit runs compare numerically, so chromium-1321438 beats chromium-999.
func newerRevision(a, b string) bool {
	for a != "" && b != "" {
		da, db := isDigit(a[0]), isDigit(b[0])
		if da && db {
			na, ra := splitDigits(a)
			nb, rb := splitDigits(b)
			if na != nb {
				if len(na) != len(nb) {
					return len(na) > len(nb)
				}
				return na > nb
			}
			a, b = ra, rb
			continue
		}
		if a[0] != b[0] {
			return a[0] > b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) > len(b)
}

// splitDigits splits s after its leading digit run, with leading zeros
// dropped from the number.
func splitDigits(s string) (num, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	num = strings.TrimLeft(s[:i], "0")
	return num, s[i:]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// findNames are the executable names find(1) looks for.
var findNames = []string{"chrome", "headless_shell", "chrome-headless-shell", "Chromium"}

// shellFind runs find(1) over the existing roots and returns the first hit.
func shellFind(ctx context.Context, roots []string) (string, bool) {
	if runtime.GOOS == "windows" {
		return "", false
	}
	var existing []string
	for _, r := range roots {
		if info, err := os.Stat(r); err == nil && info.IsDir() {
			existing = append(existing, r)
		}
	}
	if len(existing) == 0 {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, findTimeout)
	defer cancel()

	args := append([]string{}, existing...)
	args = append(args, "-maxdepth", "6", "-type", "f", "(")
	for i, n := range findNames {
		if i > 0 {
			args = append(args, "-o")
		}
		args = append(args, "-name", n)
	}
	args = append(args, ")")

	out, _ := exec.CommandContext(ctx, "find", args...).Output() // #nosec G204 -- fixed arguments
	return firstLine(out)
}

func firstLine(out []byte) (string, bool) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line, true
		}
	}
	return "", false
}

// binaryNames are looked up on PATH, most specific first.
var binaryNames = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
	"headless_shell",
	"chrome-headless-shell",
}

// pathLookupStrategy searches PATH.
type pathLookupStrategy struct {
	names    []string
	lookPath func(string) (string, error)
}

func (pathLookupStrategy) Name() string { return "path-lookup" }

func (s pathLookupStrategy) Locate(context.Context) (string, bool) {
	for _, n := range s.names {
		if p, err := s.lookPath(n); err == nil {
			return p, true
		}
	}
	return "", false
}

// installStrategy downloads a browser when enabled.
type installStrategy struct {
	enabled bool
	install func(ctx context.Context) (string, error)
}

func (installStrategy) Name() string { return "install" }

func (s installStrategy) Locate(ctx context.Context) (string, bool) {
	if !s.enabled || s.install == nil {
		return "", false
	}
	p, err := s.install(ctx)
	if err != nil || !fileutil.FileExists(p) {
		return "", false
	}
	return p, true
}

// rodInstall fetches rod's pinned Chromium build into its default cache.
func rodInstall(logger *log.Logger) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		b := launcher.NewBrowser()
		b.Context = ctx
		b.Logger = logger.StandardLog()
		logger.Info("downloading browser", "dir", b.Dir())
		p, err := b.Get()
		if err != nil {
			logger.Warn("browser download failed", "err", err)
			return "", err
		}
		return p, nil
	}
}
