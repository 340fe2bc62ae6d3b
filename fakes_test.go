package slidepdf

// Notes:
// - Shared test doubles for the root package: fakeEngine and fakePage stand in
//   for a browser so renderer, session and pipeline tests run without Chrome
// - Per-URL behavior is scripted through pageScript; unknown URLs succeed
// - writeFixturePDF builds real single-page PDFs with seehuhn so the pdfcpu
//   merge path is exercised for real

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/document"
	"seehuhn.de/go/pdf/graphics/color"
)

// ---------------------------------------------------------------------------
// Fake engine
// ---------------------------------------------------------------------------

// pageScript decides how a page behaves once it navigates to a URL.
type pageScript struct {
	navigateErr error
	readyErr    error
	evalErr     error
	printErr    error
	probe       layoutProbe
	blockPrint  bool // PrintPDF waits for ctx to be done
	printDelay  time.Duration
}

type fakeEngine struct {
	mu         sync.Mutex
	scripts    map[string]pageScript
	pdf        []byte
	newPageErr error
	pages      []*fakePage
	closed     int
	closeErr   error
}

func newFakeEngine(pdfData []byte) *fakeEngine {
	return &fakeEngine{scripts: make(map[string]pageScript), pdf: pdfData}
}

func (e *fakeEngine) script(url string, s pageScript) *fakeEngine {
	e.mu.Lock()
	e.scripts[url] = s
	e.mu.Unlock()
	return e
}

func (e *fakeEngine) NewPage(_ context.Context, vp *Viewport) (PageContext, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.newPageErr != nil {
		return nil, e.newPageErr
	}
	p := &fakePage{engine: e, viewport: vp}
	e.pages = append(e.pages, p)
	return p, nil
}

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed++
	return e.closeErr
}

func (e *fakeEngine) closeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// openPages returns the pages that were never closed.
func (e *fakeEngine) openPages() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, p := range e.pages {
		if !p.isClosed() {
			n++
		}
	}
	return n
}

type fakePage struct {
	engine   *fakeEngine
	viewport *Viewport

	mu      sync.Mutex
	script  pageScript
	url     string
	evals   []string
	printed []PrintSpec
	closed  bool
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.engine.mu.Lock()
	s := p.engine.scripts[url]
	p.engine.mu.Unlock()

	p.mu.Lock()
	p.url, p.script = url, s
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return s.navigateErr
}

func (p *fakePage) WaitReady(ctx context.Context, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.script.readyErr
}

func (p *fakePage) Eval(ctx context.Context, js string, out any) error {
	p.mu.Lock()
	p.evals = append(p.evals, js)
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if p.script.evalErr != nil {
		return p.script.evalErr
	}
	if probe, ok := out.(*layoutProbe); ok {
		*probe = p.script.probe
	}
	return nil
}

func (p *fakePage) PrintPDF(ctx context.Context, spec PrintSpec) ([]byte, error) {
	p.mu.Lock()
	p.printed = append(p.printed, spec)
	p.mu.Unlock()

	if p.script.blockPrint {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.script.printErr != nil {
		return nil, p.script.printErr
	}
	if d := p.script.printDelay; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.engine.pdf, nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePage) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePage) prints() []PrintSpec {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PrintSpec(nil), p.printed...)
}

// Compile-time interface checks.
var (
	_ Engine      = (*fakeEngine)(nil)
	_ PageContext = (*fakePage)(nil)
)

// fakeLaunch returns a launchFunc that hands out eng and records the config.
func fakeLaunch(eng Engine, got *LaunchConfig) launchFunc {
	return func(_ context.Context, cfg LaunchConfig, _ *log.Logger) (Engine, error) {
		if got != nil {
			*got = cfg
		}
		return eng, nil
	}
}

func failingLaunch(err error) launchFunc {
	return func(context.Context, LaunchConfig, *log.Logger) (Engine, error) {
		return nil, err
	}
}

// stubStrategy is a Strategy with a fixed answer.
type stubStrategy struct {
	name  string
	path  string
	found bool
	calls *int
}

func (s stubStrategy) Name() string { return s.name }

func (s stubStrategy) Locate(context.Context) (string, bool) {
	if s.calls != nil {
		*s.calls++
	}
	return s.path, s.found
}

// emptyResolver never finds anything.
func emptyResolver() *EngineResolver {
	return NewEngineResolverWith(nil, stubStrategy{name: "none"})
}

// staticSource maps every target to "test://<id>".
var staticSource = ContentSourceFunc(func(t RenderTarget) (string, error) {
	if t.Source == "" {
		return "", errors.New("no source")
	}
	return "test://" + t.ID, nil
})

// ---------------------------------------------------------------------------
// PDF fixtures
// ---------------------------------------------------------------------------

// writeFixturePDF writes a filled single-page PDF of w x h points.
func writeFixturePDF(t *testing.T, dir, name string, w, h float64) string {
	t.Helper()

	path := filepath.Join(dir, name)
	page, err := document.CreateSinglePage(path, &pdf.Rectangle{URx: w, URy: h}, pdf.V1_7, nil)
	if err != nil {
		t.Fatalf("creating fixture %s: %v", name, err)
	}
	page.SetFillColor(color.DeviceGray(0.5))
	page.Rectangle(0, 0, w, h)
	page.Fill()
	if err := page.Close(); err != nil {
		t.Fatalf("closing fixture %s: %v", name, err)
	}
	return path
}

// fixturePDFBytes returns the bytes of a single-page PDF fixture.
func fixturePDFBytes(t *testing.T) []byte {
	t.Helper()

	path := writeFixturePDF(t, t.TempDir(), "fixture.pdf", 292.5, 633)
	data, err := os.ReadFile(path) // #nosec G304 -- test fixture
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	return data
}

// dirEntries lists names in dir, failing the test on error.
func dirEntries(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		t.Fatalf("reading %s: %v", dir, err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names
}
