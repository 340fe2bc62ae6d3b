package slidepdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-slidepdf/internal/process"
)

// cleanupTimeout bounds the wait for the browser to exit after a kill.
const cleanupTimeout = 5 * time.Second

// Compile-time interface checks
var (
	_ Engine      = (*rodEngine)(nil)
	_ PageContext = (*rodPage)(nil)
)

// rodEngine drives Chromium through go-rod.
type rodEngine struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	logger   *log.Logger
}

// newRodLauncher builds the launcher with the fixed flag set.
func newRodLauncher(ctx context.Context, cfg LaunchConfig) *launcher.Launcher {
	l := launcher.New().Context(ctx)
	for _, f := range launchFlags {
		l = l.Set(flags.Flag(f))
	}
	for _, arg := range cfg.ExtraArgs {
		name, value, ok := splitArg(arg)
		if !ok {
			continue
		}
		if value == "" {
			l = l.Set(flags.Flag(name))
		} else {
			l = l.Set(flags.Flag(name), value)
		}
	}
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	return l
}

// launchRod starts a browser process and connects to it.
// Without a Bin the launcher downloads its pinned Chromium build.
func launchRod(ctx context.Context, cfg LaunchConfig, logger *log.Logger) (Engine, error) {
	l := newRodLauncher(ctx, cfg)

	u, err := l.Launch()
	if err != nil {
		if pid := l.PID(); pid != 0 {
			process.KillProcessGroup(pid)
		}
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		process.KillProcessGroup(l.PID())
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	logger.Debug("browser started", "backend", BackendRod, "pid", l.PID())
	return &rodEngine{launcher: l, browser: browser, logger: logger}, nil
}

func (e *rodEngine) NewPage(ctx context.Context, vp *Viewport) (PageContext, error) {
	page, err := e.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, err
	}
	// Detach from ctx so Close still works after the caller's deadline.
	page = page.Context(context.Background())

	if vp != nil {
		err := page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             vp.Width,
			Height:            vp.Height,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("setting viewport: %w", err)
		}
	}
	return &rodPage{page: page}, nil
}

// Close disconnects, kills the process tree and removes the profile dir.
func (e *rodEngine) Close() error {
	var errs []error
	if err := e.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing browser: %w", err))
	}

	pid := e.launcher.PID()
	if pid != 0 {
		process.KillProcessGroup(pid)
	}

	done := make(chan struct{})
	go func() {
		e.launcher.Cleanup()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(cleanupTimeout):
		e.logger.Warn("browser did not exit in time, profile dir kept", "pid", pid)
	}
	return errors.Join(errs...)
}

// rodPage is one go-rod tab.
type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	wait := page.WaitNavigation(proto.PageLifecycleEventNameNetworkIdle)
	if err := page.Navigate(url); err != nil {
		return err
	}
	wait()
	return ctx.Err()
}

func (p *rodPage) WaitReady(ctx context.Context, selector string) error {
	_, err := p.page.Context(ctx).Element(selector)
	return err
}

func (p *rodPage) Eval(ctx context.Context, js string, out any) error {
	res, err := p.page.Context(ctx).Eval(js)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return res.Value.Unmarshal(out)
}

func (p *rodPage) PrintPDF(ctx context.Context, spec PrintSpec) ([]byte, error) {
	reader, err := p.page.Context(ctx).PDF(&proto.PagePrintToPDF{
		PaperWidth:      floatPtr(spec.PaperWidth),
		PaperHeight:     floatPtr(spec.PaperHeight),
		MarginTop:       floatPtr(spec.Margin),
		MarginBottom:    floatPtr(spec.Margin),
		MarginLeft:      floatPtr(spec.Margin),
		MarginRight:     floatPtr(spec.Margin),
		PageRanges:      spec.PageRanges,
		PrintBackground: true,
	})
	if err != nil {
		return nil, err
	}

	buf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading PDF stream: %w", err)
	}
	return buf, nil
}

func (p *rodPage) Close() error {
	return p.page.Close()
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
