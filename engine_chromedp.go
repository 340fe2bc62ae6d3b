package slidepdf

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/alnah/go-slidepdf/internal/process"
)

// Compile-time interface checks
var (
	_ Engine      = (*chromedpEngine)(nil)
	_ PageContext = (*chromedpPage)(nil)
)

// chromedpEngine drives Chromium through a chromedp exec allocator.
// Cancelling the allocator kills the process and removes its temp profile.
type chromedpEngine struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	pid           int
	logger        *log.Logger
}

// allocatorOptions builds exec allocator options with the fixed flag set.
func allocatorOptions(cfg LaunchConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if cfg.Bin != "" {
		opts = append(opts, chromedp.ExecPath(cfg.Bin))
	}
	for _, f := range launchFlags {
		opts = append(opts, chromedp.Flag(f, true))
	}
	for _, arg := range cfg.ExtraArgs {
		name, value, ok := splitArg(arg)
		if !ok {
			continue
		}
		if value == "" {
			opts = append(opts, chromedp.Flag(name, true))
		} else {
			opts = append(opts, chromedp.Flag(name, value))
		}
	}
	return opts
}

// launchChromedp starts a browser. Without a Bin chromedp searches the
// usual install locations itself.
func launchChromedp(ctx context.Context, cfg LaunchConfig, logger *log.Logger) (Engine, error) {
	// The allocator outlives ctx: the browser lives until Close.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	e := &chromedpEngine{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		logger:        logger,
	}

	// The first Run binds the browser to its context, so it must get
	// browserCtx itself. ctx only aborts the start.
	stop := context.AfterFunc(ctx, browserCancel)
	err := chromedp.Run(browserCtx)
	if !stop() && err == nil {
		err = ctx.Err()
	}
	if err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	if c := chromedp.FromContext(browserCtx); c != nil && c.Browser != nil {
		if p := c.Browser.Process(); p != nil {
			e.pid = p.Pid
		}
	}

	logger.Debug("browser started", "backend", BackendChromedp, "pid", e.pid)
	return e, nil
}

func (e *chromedpEngine) NewPage(ctx context.Context, vp *Viewport) (PageContext, error) {
	tabCtx, tabCancel := chromedp.NewContext(e.browserCtx)
	p := &chromedpPage{tabCtx: tabCtx, tabCancel: tabCancel}

	// Same rule as the browser: the tab's event loop runs on tabCtx.
	stop := context.AfterFunc(ctx, tabCancel)
	err := chromedp.Run(tabCtx)
	if !stop() && err == nil {
		err = ctx.Err()
	}
	if err != nil {
		tabCancel()
		return nil, err
	}

	if vp != nil {
		err := p.run(ctx, emulation.SetDeviceMetricsOverride(int64(vp.Width), int64(vp.Height), 1, false))
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("setting viewport: %w", err)
		}
	}
	return p, nil
}

// Close kills the browser process tree. The allocator removes the profile.
func (e *chromedpEngine) Close() error {
	var err error
	if e.browserCancel != nil {
		if cerr := chromedp.Cancel(e.browserCtx); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = fmt.Errorf("closing browser: %w", cerr)
		}
		e.browserCancel()
	}
	if e.pid != 0 {
		process.KillProcessGroup(e.pid)
	}
	if e.allocCancel != nil {
		e.allocCancel()
	}
	return err
}

// chromedpPage is one chromedp tab.
type chromedpPage struct {
	tabCtx    context.Context
	tabCancel context.CancelFunc
}

// run executes actions on the tab, bounded by the deadline and
// cancellation of ctx. Cancelling ctx does not close the tab.
func (p *chromedpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	execCtx, cancel := context.WithCancel(p.tabCtx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		execCtx, cancelDeadline = context.WithDeadline(execCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(execCtx, actions...)
}

func (p *chromedpPage) Navigate(ctx context.Context, url string) error {
	idle := make(chan struct{})
	var (
		once   sync.Once
		mu     sync.Mutex
		loader cdp.LoaderID
	)

	lctx, cancel := context.WithCancel(p.tabCtx)
	defer cancel()
	chromedp.ListenTarget(lctx, func(ev any) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch {
		case e.Name == "init" && loader == "":
			loader = e.LoaderID
		case e.Name == "networkIdle" && loader != "" && e.LoaderID == loader:
			once.Do(func() { close(idle) })
		}
	})

	if err := p.run(ctx, page.SetLifecycleEventsEnabled(true), chromedp.Navigate(url)); err != nil {
		return err
	}

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.tabCtx.Done():
		return p.tabCtx.Err()
	}
}

func (p *chromedpPage) WaitReady(ctx context.Context, selector string) error {
	return p.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (p *chromedpPage) Eval(ctx context.Context, js string, out any) error {
	// Scripts are written in function form; call them.
	return p.run(ctx, chromedp.Evaluate("("+js+")()", out))
}

func (p *chromedpPage) PrintPDF(ctx context.Context, spec PrintSpec) ([]byte, error) {
	var buf []byte
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		data, _, err := page.PrintToPDF().
			WithPaperWidth(spec.PaperWidth).
			WithPaperHeight(spec.PaperHeight).
			WithMarginTop(spec.Margin).
			WithMarginBottom(spec.Margin).
			WithMarginLeft(spec.Margin).
			WithMarginRight(spec.Margin).
			WithPageRanges(spec.PageRanges).
			WithPrintBackground(true).
			Do(ctx)
		buf = data
		return err
	}))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (p *chromedpPage) Close() error {
	err := chromedp.Cancel(p.tabCtx)
	p.tabCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
