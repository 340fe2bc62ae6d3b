package slidepdf

import (
	"errors"
	"fmt"
)

// Sentinel errors for pipeline operations.
var (
	// Fatal: no executable was found and the bare launch failed too.
	ErrEngineUnavailable = errors.New("rendering engine unavailable")

	// Per-target errors. The target is skipped and the run continues.
	ErrPageCreate        = errors.New("failed to create page context")
	ErrNavigationTimeout = errors.New("navigation did not reach network idle")
	ErrContentNotReady   = errors.New("content-ready marker not found")
	ErrExport            = errors.New("page export failed")

	// Recoverable: the renderer falls back to fixed viewport dimensions.
	ErrMeasurement = errors.New("content measurement failed")

	// Fatal assembly errors.
	ErrAssembly        = errors.New("document assembly failed")
	ErrNoPagesProduced = errors.New("no pages produced")

	// Input validation errors.
	ErrNoTargets         = errors.New("no render targets given")
	ErrEmptyOutputPath   = errors.New("output path cannot be empty")
	ErrDuplicateSequence = errors.New("duplicate sequence index")
	ErrInvalidWidth      = errors.New("invalid page width")
	ErrInvalidHeight     = errors.New("invalid page height")
	ErrInvalidMargin     = errors.New("invalid page margin")
	ErrInvalidBackend    = errors.New("invalid engine backend")
	ErrInvalidPattern    = errors.New("invalid content URL pattern")
)

// RenderError reports a failure to render one target.
// It never escapes the per-target loop of a pipeline run; callers of
// TargetRenderer.Render receive it directly.
type RenderError struct {
	TargetID      string
	SequenceIndex int
	Err           error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("target %q (#%d): %v", e.TargetID, e.SequenceIndex, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// newRenderError wraps err for target t. Returns nil if err is nil.
func newRenderError(t RenderTarget, err error) error {
	if err == nil {
		return nil
	}
	return &RenderError{TargetID: t.ID, SequenceIndex: t.SequenceIndex, Err: err}
}
