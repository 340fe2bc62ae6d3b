package slidepdf

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Page scripts, in function form.
const (
	scrollToBottomJS = `() => { window.scrollTo(0, Math.max(document.documentElement.scrollHeight, document.body ? document.body.scrollHeight : 0)); }`
	scrollToTopJS    = `() => { window.scrollTo(0, 0); }`

	// layoutProbeJS collects the page-coordinate rects of every rendered,
	// visible, non-empty element plus the document size metrics.
	layoutProbeJS = `() => {
	const sx = window.scrollX || window.pageXOffset || 0;
	const sy = window.scrollY || window.pageYOffset || 0;
	const rects = [];
	for (const el of document.querySelectorAll('body *')) {
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden' || parseFloat(style.opacity) === 0) {
			continue;
		}
		const r = el.getBoundingClientRect();
		if (r.width <= 0 || r.height <= 0) {
			continue;
		}
		rects.push({left: r.left + sx, top: r.top + sy, right: r.right + sx, bottom: r.bottom + sy});
	}
	const d = document.documentElement;
	const b = document.body || d;
	return {
		rects: rects,
		scrollWidth: Math.max(d.scrollWidth, b.scrollWidth),
		offsetWidth: Math.max(d.offsetWidth, b.offsetWidth),
		clientWidth: Math.max(d.clientWidth, b.clientWidth),
		scrollHeight: Math.max(d.scrollHeight, b.scrollHeight),
		offsetHeight: Math.max(d.offsetHeight, b.offsetHeight),
		clientHeight: Math.max(d.clientHeight, b.clientHeight)
	};
}`
)

// rect is an element box in page coordinates.
type rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// layoutProbe is the decoded result of layoutProbeJS.
type layoutProbe struct {
	Rects        []rect  `json:"rects"`
	ScrollWidth  float64 `json:"scrollWidth"`
	OffsetWidth  float64 `json:"offsetWidth"`
	ClientWidth  float64 `json:"clientWidth"`
	ScrollHeight float64 `json:"scrollHeight"`
	OffsetHeight float64 `json:"offsetHeight"`
	ClientHeight float64 `json:"clientHeight"`
}

// unionBounds returns the size of the smallest box covering every rect.
// ok is false when no rect has a positive area.
func unionBounds(rects []rect) (width, height float64, ok bool) {
	minLeft, minTop := math.Inf(1), math.Inf(1)
	maxRight, maxBottom := math.Inf(-1), math.Inf(-1)

	for _, r := range rects {
		if r.Right <= r.Left || r.Bottom <= r.Top {
			continue
		}
		minLeft = math.Min(minLeft, r.Left)
		minTop = math.Min(minTop, r.Top)
		maxRight = math.Max(maxRight, r.Right)
		maxBottom = math.Max(maxBottom, r.Bottom)
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	return maxRight - minLeft, maxBottom - minTop, true
}

// computeBounds turns a probe into page bounds. Width never drops below
// minWidth; height is clamped to MaxPageHeight.
func computeBounds(p layoutProbe, minWidth int) MeasuredBounds {
	w, h, ok := unionBounds(p.Rects)
	method := MethodBoundingBoxUnion
	if !ok {
		w = math.Max(p.ScrollWidth, math.Max(p.OffsetWidth, p.ClientWidth))
		h = math.Max(p.ScrollHeight, math.Max(p.OffsetHeight, p.ClientHeight))
		method = MethodDocumentFallback
	}

	b := MeasuredBounds{
		Width:  int(math.Ceil(w)),
		Height: int(math.Ceil(h)),
		Method: method,
	}
	if b.Width < minWidth {
		b.Width = minWidth
	}
	if b.Width > MaxPageWidth {
		b.Width = MaxPageWidth
	}
	if b.Height < 1 {
		b.Height = 1
	}
	if b.Height > MaxPageHeight {
		b.Height = MaxPageHeight
		b.Clamped = true
	}
	return b
}

// fixedBounds are the bounds used when measurement is off or failed.
func fixedBounds(opts PipelineOptions) MeasuredBounds {
	return MeasuredBounds{Width: opts.Width, Height: opts.Height, Method: MethodFixedViewport}
}

// measure scrolls the page to trigger lazy content, returns to the top
// and probes the layout.
func measure(ctx context.Context, page PageContext, opts PipelineOptions) (MeasuredBounds, error) {
	if err := page.Eval(ctx, scrollToBottomJS, nil); err != nil {
		return MeasuredBounds{}, fmt.Errorf("%w: scrolling down: %v", ErrMeasurement, err)
	}
	if err := sleepContext(ctx, opts.Timeouts.ScrollSettle); err != nil {
		return MeasuredBounds{}, fmt.Errorf("%w: %v", ErrMeasurement, err)
	}
	if err := page.Eval(ctx, scrollToTopJS, nil); err != nil {
		return MeasuredBounds{}, fmt.Errorf("%w: scrolling up: %v", ErrMeasurement, err)
	}
	if err := sleepContext(ctx, opts.Timeouts.ScrollReturnSettle); err != nil {
		return MeasuredBounds{}, fmt.Errorf("%w: %v", ErrMeasurement, err)
	}

	var probe layoutProbe
	if err := page.Eval(ctx, layoutProbeJS, &probe); err != nil {
		return MeasuredBounds{}, fmt.Errorf("%w: probing layout: %v", ErrMeasurement, err)
	}
	return computeBounds(probe, opts.Width), nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pxToInches converts CSS pixels to inches.
func pxToInches(px int) float64 {
	return float64(px) / pixelsPerInch
}

// printSpecFor computes paper size for bounds. In auto format the margin
// is added around the content; in fixed format it sits inside the page.
func printSpecFor(b MeasuredBounds, opts PipelineOptions) PrintSpec {
	spec := PrintSpec{Margin: pxToInches(opts.Margin), PageRanges: firstPageOnly}
	if opts.autoSize() {
		spec.PaperWidth = pxToInches(b.Width + 2*opts.Margin)
		spec.PaperHeight = math.Min(pxToInches(b.Height+2*opts.Margin), pxToInches(MaxPageHeight))
		return spec
	}
	spec.PaperWidth = pxToInches(opts.Width)
	spec.PaperHeight = pxToInches(opts.Height)
	return spec
}
