package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: slidepdf [command] [flags] [sources...]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render     Render sources into one PDF (default)")
	fmt.Fprintln(w, "  doctor     Check browser and system setup")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'slidepdf help <command>' for details on a specific command.")
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: slidepdf render <source>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render each source as one page, in order, and merge them into one PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  source    Target name for --base-url, or a local HTML file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>         Output PDF (default: slides.pdf)")
	fmt.Fprintln(w, "  -c, --config <name>         Config file name or path")
	fmt.Fprintln(w, "      --json                  Print the result as JSON")
	fmt.Fprintln(w, "      --debug                 Keep per-target PDFs")
	fmt.Fprintln(w, "      --work-dir <dir>        Parent of the per-run temp directory")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "      --format <s>            auto (fit content) or fixed-page-size")
	fmt.Fprintln(w, "      --width <px>            Viewport width (default: 390)")
	fmt.Fprintln(w, "      --height <px>           Viewport height (default: 844)")
	fmt.Fprintln(w, "      --margin <px>           Margin on all sides (default: 0)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Content:")
	fmt.Fprintln(w, "      --base-url <url>        Dev server, e.g. http://localhost:5173")
	fmt.Fprintln(w, "      --pattern <s>           Path pattern (default: /render?target={source})")
	fmt.Fprintln(w, "      --dir <dir>             Directory of local HTML sources")
	fmt.Fprintln(w, "      --ready-selector <s>    Ready marker (default: #root > *)")
	fmt.Fprintln(w, "      --nav-timeout <d>       Navigation budget (default: 60s)")
	fmt.Fprintln(w, "      --ready-timeout <d>     Ready marker budget (default: 10s)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Browser:")
	fmt.Fprintln(w, "      --backend <s>           Driver: rod, chromedp (default: rod)")
	fmt.Fprintln(w, "      --browser <path>        Chrome or Chromium executable")
	fmt.Fprintln(w, "      --engine-arg <flag>     Extra browser flag, repeatable")
	fmt.Fprintln(w, "      --install               Download a browser when none is found")
	fmt.Fprintln(w, "  -w, --concurrency <n>       Pages rendered at once (0 = auto, default: 1)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "General:")
	fmt.Fprintln(w, "  -q, --quiet                 Only print errors")
	fmt.Fprintln(w, "  -v, --verbose               Print progress and timings")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  SLIDEPDF_BROWSER_BIN        Browser executable")
	fmt.Fprintln(w, "  SLIDEPDF_DEBUG              Keep per-target PDFs (true/false)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes:")
	fmt.Fprintln(w, "  0 ok, 1 error, 2 usage or config, 3 I/O, 4 no browser, 5 no pages")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: slidepdf doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Report which browser would be used and check the system.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>         Config file name or path")
	fmt.Fprintln(w, "      --browser <path>        Chrome or Chromium executable")
	fmt.Fprintln(w, "      --install               Download a browser when none is found")
	fmt.Fprintln(w, "      --json                  Print the report as JSON")
}

// printVersionUsage prints usage for the version command.
func printVersionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: slidepdf version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Show version information.")
}

// runHelp prints help for the named command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "render":
		printRenderUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		printVersionUsage(env.Stdout)
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: slidepdf help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
