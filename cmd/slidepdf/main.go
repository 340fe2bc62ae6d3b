package main

import (
	"context"
	"fmt"
	"os"
	"slices"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	env := DefaultEnv()
	args := os.Args[1:]

	// Configure GOMAXPROCS with conditional logging
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if slices.Contains(args, "-v") || slices.Contains(args, "--verbose") {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(env.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	ctx, stop := notifyContext(context.Background())
	code := run(ctx, args, env)
	stop()
	os.Exit(code)
}

// run dispatches args to a command and returns the exit code.
// Arguments that do not start with a command name go to render.
func run(ctx context.Context, args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	switch args[0] {
	case "render":
		return runRender(ctx, args[1:], env)
	case "doctor":
		return runDoctorCmd(ctx, args[1:], env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "slidepdf %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(args[1:], env)
	default:
		return runRender(ctx, args, env)
	}
}
