package slidepdf

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/alnah/go-slidepdf/internal/fileutil"
)

// TargetRenderer turns one render target into a single-page PDF.
type TargetRenderer struct {
	source ContentSource
	logger *log.Logger
}

// NewTargetRenderer creates a renderer that loads targets from source.
func NewTargetRenderer(source ContentSource, logger *log.Logger) *TargetRenderer {
	if logger == nil {
		logger = discardLogger()
	}
	return &TargetRenderer{source: source, logger: logger}
}

// Render loads t in a fresh page context of eng, sizes and exports it, and
// writes the PDF to path. Errors are *RenderError values wrapping one of
// ErrPageCreate, ErrNavigationTimeout, ErrContentNotReady or ErrExport.
// The page context is always closed.
func (r *TargetRenderer) Render(ctx context.Context, eng Engine, t RenderTarget, opts PipelineOptions, path string) (ExportedPage, error) {
	opts = opts.WithDefaults()
	logger := r.logger.With("target", t.ID)

	if err := ctx.Err(); err != nil {
		return ExportedPage{}, newRenderError(t, err)
	}

	url, err := r.source.URLFor(t)
	if err != nil {
		return ExportedPage{}, newRenderError(t, fmt.Errorf("%w: %v", ErrNavigationTimeout, err))
	}

	var vp *Viewport
	if opts.autoSize() {
		vp = &Viewport{Width: opts.Width, Height: opts.Height}
	}
	page, err := eng.NewPage(ctx, vp)
	if err != nil {
		return ExportedPage{}, newRenderError(t, fmt.Errorf("%w: %v", ErrPageCreate, err))
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Debug("closing page context", "err", err)
		}
	}()

	navCtx, cancel := context.WithTimeout(ctx, opts.Timeouts.Navigation)
	err = page.Navigate(navCtx, url)
	cancel()
	if err != nil {
		return ExportedPage{}, newRenderError(t, fmt.Errorf("%w: %s: %v", ErrNavigationTimeout, url, err))
	}

	readyCtx, cancel := context.WithTimeout(ctx, opts.Timeouts.Ready)
	err = page.WaitReady(readyCtx, opts.ReadySelector)
	cancel()
	if err != nil {
		return ExportedPage{}, newRenderError(t, fmt.Errorf("%w: %q: %v", ErrContentNotReady, opts.ReadySelector, err))
	}

	bounds, data, err := r.export(ctx, page, opts, logger)
	if err != nil {
		return ExportedPage{}, newRenderError(t, err)
	}

	if err := fileutil.WriteFileAtomic(path, data, fileutil.FilePerm); err != nil {
		return ExportedPage{}, newRenderError(t, fmt.Errorf("%w: writing %s: %v", ErrExport, path, err))
	}

	logger.Debug("page exported", "width", bounds.Width, "height", bounds.Height, "method", bounds.Method)
	return ExportedPage{
		SequenceIndex: t.SequenceIndex,
		TargetID:      t.ID,
		TempPath:      path,
		Bounds:        bounds,
	}, nil
}

// export sizes and prints the page. In auto format a failed measurement
// or export is retried once at fixed viewport size.
func (r *TargetRenderer) export(ctx context.Context, page PageContext, opts PipelineOptions, logger *log.Logger) (MeasuredBounds, []byte, error) {
	fixed := fixedBounds(opts)
	if !opts.autoSize() {
		data, err := r.print(ctx, page, fixed, opts)
		if err != nil {
			return MeasuredBounds{}, nil, fmt.Errorf("%w: %v", ErrExport, err)
		}
		return fixed, data, nil
	}

	bounds, data, err := r.measureAndPrint(ctx, page, opts)
	if err == nil {
		if bounds.Clamped {
			logger.Warn("content taller than the page limit, clamped", "height", MaxPageHeight)
		}
		return bounds, data, nil
	}
	if ctx.Err() != nil {
		return MeasuredBounds{}, nil, fmt.Errorf("%w: %v", ErrExport, ctx.Err())
	}

	logger.Warn("measurement failure, exporting at viewport size", "err", err)
	data, ferr := r.print(ctx, page, fixed, opts)
	if ferr != nil {
		return MeasuredBounds{}, nil, fmt.Errorf("%w: %v", ErrExport, errors.Join(err, ferr))
	}
	return fixed, data, nil
}

func (r *TargetRenderer) measureAndPrint(ctx context.Context, page PageContext, opts PipelineOptions) (MeasuredBounds, []byte, error) {
	budget := opts.Timeouts.ScrollSettle + opts.Timeouts.ScrollReturnSettle + opts.Timeouts.Ready
	mctx, cancel := context.WithTimeout(ctx, budget)
	bounds, err := measure(mctx, page, opts)
	cancel()
	if err != nil {
		return MeasuredBounds{}, nil, err
	}

	data, err := r.print(ctx, page, bounds, opts)
	if err != nil {
		return MeasuredBounds{}, nil, fmt.Errorf("%w: %v", ErrExport, err)
	}
	return bounds, data, nil
}

// print exports the page at the paper size derived from bounds.
func (r *TargetRenderer) print(ctx context.Context, page PageContext, bounds MeasuredBounds, opts PipelineOptions) ([]byte, error) {
	pctx, cancel := context.WithTimeout(ctx, opts.Timeouts.Navigation)
	defer cancel()

	data, err := page.PrintPDF(pctx, printSpecFor(bounds, opts))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("engine returned an empty document")
	}
	return data, nil
}
