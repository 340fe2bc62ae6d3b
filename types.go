package slidepdf

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Format selects how exported page dimensions are chosen.
type Format string

// Supported formats.
const (
	FormatAuto  Format = "auto"            // measure rendered content
	FormatFixed Format = "fixed-page-size" // use Width x Height as is
)

// ParseFormat maps user input to a Format.
// Unrecognized values fall back to FormatAuto.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(FormatFixed), "fixed":
		return FormatFixed
	default:
		return FormatAuto
	}
}

// Page dimension defaults and limits, in CSS pixels.
const (
	DefaultWidth  = 390
	DefaultHeight = 844
	DefaultMargin = 0

	// MaxPageHeight is Chromium's 200 inch paper limit at 96 px/in.
	// Measured heights above it are clamped.
	MaxPageHeight = 200 * pixelsPerInch
	MaxPageWidth  = 200 * pixelsPerInch

	pixelsPerInch = 96
)

// DefaultReadySelector matches the first child mounted into the app root.
const DefaultReadySelector = "#root > *"

// Default wait budgets.
const (
	DefaultNavigationTimeout  = 60 * time.Second
	DefaultReadyTimeout       = 10 * time.Second
	DefaultScrollSettle       = 500 * time.Millisecond
	DefaultScrollReturnSettle = time.Second
)

// RenderTarget is one unit of content turned into one output page.
// The order of the input list defines the output order.
type RenderTarget struct {
	ID            string
	Source        string // reference resolved by a ContentSource
	SequenceIndex int
}

// TargetsFromSources builds targets in input order.
// IDs are the base names without extension.
func TargetsFromSources(sources []string) []RenderTarget {
	targets := make([]RenderTarget, len(sources))
	for i, src := range sources {
		base := filepath.Base(src)
		targets[i] = RenderTarget{
			ID:            strings.TrimSuffix(base, filepath.Ext(base)),
			Source:        src,
			SequenceIndex: i,
		}
	}
	return targets
}

// validateTargets rejects empty lists and duplicate sequence indexes.
func validateTargets(targets []RenderTarget) error {
	if len(targets) == 0 {
		return ErrNoTargets
	}
	seen := make(map[int]string, len(targets))
	for _, t := range targets {
		if prev, ok := seen[t.SequenceIndex]; ok {
			return fmt.Errorf("%w: %d used by %q and %q", ErrDuplicateSequence, t.SequenceIndex, prev, t.ID)
		}
		seen[t.SequenceIndex] = t.ID
	}
	return nil
}

// Timeouts bounds every suspension point of a target render.
type Timeouts struct {
	Navigation         time.Duration
	Ready              time.Duration
	ScrollSettle       time.Duration
	ScrollReturnSettle time.Duration
}

// PipelineOptions configures a run. Zero values mean defaults.
type PipelineOptions struct {
	Format        Format
	Width         int // px, viewport width and minimum exported width
	Height        int // px, viewport height and fixed page height
	Margin        int // px, applied to all sides
	Debug         bool
	Concurrency   int // page contexts rendering at once, 0 means 1
	ReadySelector string
	Timeouts      Timeouts
}

// DefaultPipelineOptions returns options with every field set to its default.
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{}.WithDefaults()
}

// WithDefaults returns a copy where missing or out-of-range fields
// are replaced by their documented defaults.
func (o PipelineOptions) WithDefaults() PipelineOptions {
	o.Format = ParseFormat(string(o.Format))
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Margin < 0 {
		o.Margin = DefaultMargin
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if strings.TrimSpace(o.ReadySelector) == "" {
		o.ReadySelector = DefaultReadySelector
	}
	if o.Timeouts.Navigation <= 0 {
		o.Timeouts.Navigation = DefaultNavigationTimeout
	}
	if o.Timeouts.Ready <= 0 {
		o.Timeouts.Ready = DefaultReadyTimeout
	}
	if o.Timeouts.ScrollSettle <= 0 {
		o.Timeouts.ScrollSettle = DefaultScrollSettle
	}
	if o.Timeouts.ScrollReturnSettle <= 0 {
		o.Timeouts.ScrollReturnSettle = DefaultScrollReturnSettle
	}
	return o
}

// Validate checks values that cannot be defaulted.
// Call it on options returned by WithDefaults.
func (o PipelineOptions) Validate() error {
	if o.Width > MaxPageWidth {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWidth, o.Width, MaxPageWidth)
	}
	if o.Height > MaxPageHeight {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidHeight, o.Height, MaxPageHeight)
	}
	if o.Format == FormatFixed && (2*o.Margin >= o.Width || 2*o.Margin >= o.Height) {
		return fmt.Errorf("%w: %d leaves no printable area on a %dx%d page", ErrInvalidMargin, o.Margin, o.Width, o.Height)
	}
	// Auto format adds the margin around the content.
	if o.autoSize() && o.Width+2*o.Margin > MaxPageWidth {
		return fmt.Errorf("%w: %d around a %dpx wide page exceeds %dpx", ErrInvalidMargin, o.Margin, o.Width, MaxPageWidth)
	}
	return nil
}

// autoSize reports whether content measurement is enabled.
func (o PipelineOptions) autoSize() bool {
	return o.Format != FormatFixed
}

// BoundsMethod records how MeasuredBounds were derived.
type BoundsMethod string

// Measurement methods.
const (
	MethodBoundingBoxUnion BoundsMethod = "boundingBoxUnion"
	MethodDocumentFallback BoundsMethod = "documentFallback"
	MethodFixedViewport    BoundsMethod = "fixedViewport"
)

// MeasuredBounds is the visual extent of one rendered target, in px.
type MeasuredBounds struct {
	Width   int
	Height  int
	Method  BoundsMethod
	Clamped bool // height exceeded MaxPageHeight
}

// ExportedPage is the single-page artifact of one target.
type ExportedPage struct {
	SequenceIndex int
	TargetID      string
	TempPath      string
	Bounds        MeasuredBounds
}

// sortPages orders pages by sequence index, in place.
func sortPages(pages []ExportedPage) {
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].SequenceIndex < pages[j].SequenceIndex
	})
}

// SkippedTarget names a target that contributed no page.
type SkippedTarget struct {
	ID            string `json:"id"`
	SequenceIndex int    `json:"sequenceIndex"`
	Reason        string `json:"reason"`
}

// Result is the structured outcome of a run.
type Result struct {
	Success    bool            `json:"success"`
	OutputPath string          `json:"outputPath,omitempty"`
	Message    string          `json:"message,omitempty"`
	Error      string          `json:"error,omitempty"`
	Pages      int             `json:"pages,omitempty"`
	Skipped    []SkippedTarget `json:"skipped,omitempty"`
}

// FailureResult converts a pipeline error into a failed Result.
func FailureResult(err error) *Result {
	if err == nil {
		return &Result{Success: false, Error: "unknown error"}
	}
	return &Result{Success: false, Error: err.Error()}
}
