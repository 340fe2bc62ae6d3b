package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	slidepdf "github.com/alnah/go-slidepdf"
	"github.com/alnah/go-slidepdf/internal/config"
	"github.com/alnah/go-slidepdf/internal/fileutil"
)

// versionTimeout bounds the "<browser> --version" probe.
const versionTimeout = 10 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Engine   engineInfo `json:"engine"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// engineInfo holds browser resolution results.
type engineInfo struct {
	Found      bool     `json:"found"`
	Path       string   `json:"path,omitempty"`
	Strategy   string   `json:"strategy,omitempty"`
	Version    string   `json:"version,omitempty"`
	Strategies []string `json:"strategies"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	BrowserBin    string `json:"slidepdf_browser_bin,omitempty"`
	RodBrowserBin string `json:"rod_browser_bin,omitempty"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
	MaxProcs     int  `json:"gomaxprocs"`
	PoolSize     int  `json:"auto_concurrency"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	f, err := parseDoctorFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		printDoctorUsage(env.Stdout)
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\nRun 'slidepdf help doctor' for usage.\n", err)
		return ExitUsage
	}

	cfg, err := doctorConfig(f, env.Getenv)
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}

	result := runDoctor(ctx, cfg, env)

	if f.common.json {
		writeJSON(env.Stdout, result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// doctorConfig resolves the engine settings doctor checks.
func doctorConfig(f *doctorFlags, getenv func(string) string) (*config.Config, error) {
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
	if f.engine.browser != "" {
		cfg.Engine.Path = f.engine.browser
	}
	if f.engine.install {
		cfg.Engine.Install = true
	}
	return cfg, nil
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, cfg *config.Config, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:            runtime.GOOS,
			Arch:          runtime.GOARCH,
			BrowserBin:    env.Getenv(slidepdf.EnvBrowserBin),
			RodBrowserBin: env.Getenv(slidepdf.EnvRodBrowserBin),
		},
	}

	checkEngine(ctx, result, cfg, env)
	checkEnvironment(result, env.Getenv)
	checkSystem(result, cfg)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkEngine runs the resolver chain the render command would use.
func checkEngine(ctx context.Context, result *doctorResult, cfg *config.Config, env *Environment) {
	resolver := env.NewResolver(slidepdf.ResolverConfig{
		EnginePath:      cfg.Engine.Path,
		InstallOnDemand: cfg.Engine.Install,
		Getenv:          env.Getenv,
	})
	result.Engine.Strategies = resolver.Strategies()

	res, ok := resolver.Resolve(ctx)
	if !ok {
		result.Errors = append(result.Errors,
			"No browser found. Install Chrome or Chromium, set "+slidepdf.EnvBrowserBin+", or pass --install")
		return
	}

	result.Engine.Found = true
	result.Engine.Path = res.Path
	result.Engine.Strategy = res.Strategy

	if res.Path == "" {
		// Bare launch: the driver picks its own browser.
		return
	}

	version, err := browserVersion(ctx, res.Path)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get browser version: %v", err))
		return
	}
	result.Engine.Version = version
}

// browserVersion runs "<path> --version".
func browserVersion(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").Output() // #nosec G204 -- path comes from the resolver
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, getenv func(string) string) {
	// Detect container (multi-signal approach)
	result.Env.Container, result.Env.ContainerHint = isContainer(getenv)

	// Detect CI environments
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	// Small /dev/shm in containers crashes Chromium on tall pages.
	if result.Env.Container {
		result.Warnings = append(result.Warnings,
			"Container detected. If the browser crashes, pass --engine-arg=--disable-dev-shm-usage")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	// Explicit override (highest priority)
	if getenv("SLIDEPDF_CONTAINER") == "1" {
		return true, "SLIDEPDF_CONTAINER=1"
	}
	// Docker
	if fileutil.FileExists("/.dockerenv") {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	// Kubernetes
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies system requirements.
func checkSystem(result *doctorResult, cfg *config.Config) {
	// Check temp directory is writable
	tmpDir := os.TempDir()
	if err := fileutil.CheckWritable(tmpDir); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		result.System.TempWritable = true
	}

	if dir := cfg.Run.WorkDir; dir != "" {
		if err := fileutil.CheckWritable(dir); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Work directory not writable: %s", dir))
		}
	}

	result.System.MaxProcs = runtime.GOMAXPROCS(0)
	result.System.PoolSize = slidepdf.ResolvePoolSize(0)
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "slidepdf doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Browser:")
	if r.Engine.Found {
		path := r.Engine.Path
		if path == "" {
			path = "(driver default)"
		}
		fmt.Fprintf(w, "  [OK] %s (via %s)\n", path, r.Engine.Strategy)
		if r.Engine.Version != "" {
			fmt.Fprintf(w, "  [OK] %s\n", r.Engine.Version)
		}
	} else {
		fmt.Fprintf(w, "  [ERROR] not found (searched: %s)\n", strings.Join(r.Engine.Strategies, ", "))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  [OK] %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [INFO] container (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [INFO] CI environment")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System:")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] temp directory writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] temp directory not writable")
	}
	fmt.Fprintf(w, "  [OK] GOMAXPROCS %d, auto concurrency %d\n", r.System.MaxProcs, r.System.PoolSize)
	fmt.Fprintln(w)

	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "[WARN] %s\n", warn)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "[ERROR] %s\n", e)
	}

	fmt.Fprintf(w, "Status: %s\n", strings.ToUpper(r.Status))
}
