// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-slidepdf/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// InCI reports whether a known CI environment variable is set.
func InCI() bool {
	return os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""
}

// ForEngineUnavailable returns hints for a browser that could not be found
// or started. installEnabled tells whether on-demand download was allowed.
func ForEngineUnavailable(installEnabled bool) string {
	var hints []string

	if InCI() || IsInContainer() {
		hints = append(hints, "install chromium and its shared libraries in the image")
	}
	if os.Getenv("SLIDEPDF_BROWSER_BIN") == "" && os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set SLIDEPDF_BROWSER_BIN to a Chrome or Chromium executable")
	}
	if !installEnabled {
		hints = append(hints, "use --install to download a browser")
	}
	hints = append(hints, "run 'slidepdf doctor' to see where browsers were searched")

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing wait budgets for slow content.
func ForTimeout() string {
	return format("for slow pages, raise --nav-timeout or --ready-timeout")
}

// ForDevServer returns a hint when targets could not be loaded from baseURL.
func ForDevServer(baseURL string) string {
	if baseURL == "" {
		return format("check that every source file exists")
	}
	return format("check that the dev server is running at " + baseURL)
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in the user config dir.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	marker := "go-slidepdf" + string(filepath.Separator)
	for _, p := range searchedPaths {
		if strings.Contains(p, marker) {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
