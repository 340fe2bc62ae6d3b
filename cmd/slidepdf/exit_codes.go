package main

import (
	"errors"
	"os"

	slidepdf "github.com/alnah/go-slidepdf"
	"github.com/alnah/go-slidepdf/internal/config"
)

// Exit codes for the slidepdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Document written
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // Output could not be written
	ExitEngine  = 4 // No usable browser
	ExitNoPages = 5 // Every target failed
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, slidepdf.ErrEngineUnavailable) {
		return ExitEngine
	}

	if errors.Is(err, slidepdf.ErrNoPagesProduced) {
		return ExitNoPages
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrInputTooLarge) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, slidepdf.ErrNoTargets) ||
		errors.Is(err, slidepdf.ErrEmptyOutputPath) ||
		errors.Is(err, slidepdf.ErrDuplicateSequence) ||
		errors.Is(err, slidepdf.ErrInvalidWidth) ||
		errors.Is(err, slidepdf.ErrInvalidHeight) ||
		errors.Is(err, slidepdf.ErrInvalidMargin) ||
		errors.Is(err, slidepdf.ErrInvalidBackend) ||
		errors.Is(err, slidepdf.ErrInvalidPattern) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, slidepdf.ErrAssembly) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	return ExitGeneral
}
