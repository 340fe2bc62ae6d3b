package slidepdf

// Notes:
// - unionBounds: empty input, degenerate rects, offset and overlapping rects
// - computeBounds: union vs document fallback, minimum width, clamping
// - printSpecFor: auto format adds margins outside the content, fixed keeps
//   the page size; paper height never exceeds the engine limit
// - measure: scroll sequence, probe decoding, error wrapping

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestUnionBounds - Bounding Box Union
// ---------------------------------------------------------------------------

func TestUnionBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rects  []rect
		wantW  float64
		wantH  float64
		wantOK bool
	}{
		{
			name:   "no rects",
			rects:  nil,
			wantOK: false,
		},
		{
			name:   "only degenerate rects",
			rects:  []rect{{Left: 10, Top: 10, Right: 10, Bottom: 50}, {Left: 0, Top: 5, Right: 20, Bottom: 5}},
			wantOK: false,
		},
		{
			name:   "single rect",
			rects:  []rect{{Left: 0, Top: 0, Right: 390, Bottom: 1200}},
			wantW:  390,
			wantH:  1200,
			wantOK: true,
		},
		{
			name:   "offset rects",
			rects:  []rect{{Left: 20, Top: 40, Right: 120, Bottom: 90}, {Left: 60, Top: 100, Right: 200, Bottom: 340}},
			wantW:  180,
			wantH:  300,
			wantOK: true,
		},
		{
			name:   "degenerate rect ignored",
			rects:  []rect{{Left: 0, Top: 0, Right: 100, Bottom: 100}, {Left: 0, Top: 5000, Right: 0, Bottom: 6000}},
			wantW:  100,
			wantH:  100,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, h, ok := unionBounds(tt.rects)
			if ok != tt.wantOK {
				t.Fatalf("unionBounds() ok = %v, want %v", ok, tt.wantOK)
			}
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("unionBounds() = %vx%v, want %vx%v", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestComputeBounds - Page Size From Layout
// ---------------------------------------------------------------------------

func TestComputeBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		probe layoutProbe
		want  MeasuredBounds
	}{
		{
			name: "union rounds up",
			probe: layoutProbe{
				Rects: []rect{{Left: 0, Top: 0, Right: 390, Bottom: 1200.2}},
			},
			want: MeasuredBounds{Width: 390, Height: 1201, Method: MethodBoundingBoxUnion},
		},
		{
			name: "narrow content keeps viewport width",
			probe: layoutProbe{
				Rects: []rect{{Left: 0, Top: 0, Right: 200, Bottom: 300}},
			},
			want: MeasuredBounds{Width: 390, Height: 300, Method: MethodBoundingBoxUnion},
		},
		{
			name: "wide content grows",
			probe: layoutProbe{
				Rects: []rect{{Left: 0, Top: 0, Right: 640, Bottom: 300}},
			},
			want: MeasuredBounds{Width: 640, Height: 300, Method: MethodBoundingBoxUnion},
		},
		{
			name: "document fallback uses largest metric",
			probe: layoutProbe{
				ScrollWidth: 390, OffsetWidth: 400, ClientWidth: 380,
				ScrollHeight: 2000, OffsetHeight: 1800, ClientHeight: 844,
			},
			want: MeasuredBounds{Width: 400, Height: 2000, Method: MethodDocumentFallback},
		},
		{
			name:  "empty document gets one pixel",
			probe: layoutProbe{},
			want:  MeasuredBounds{Width: 390, Height: 1, Method: MethodDocumentFallback},
		},
		{
			name: "infinite content is clamped",
			probe: layoutProbe{
				Rects: []rect{{Left: 0, Top: 0, Right: 390, Bottom: 50000}},
			},
			want: MeasuredBounds{Width: 390, Height: MaxPageHeight, Method: MethodBoundingBoxUnion, Clamped: true},
		},
		{
			name: "exactly at the limit is not clamped",
			probe: layoutProbe{
				Rects: []rect{{Left: 0, Top: 0, Right: 390, Bottom: MaxPageHeight}},
			},
			want: MeasuredBounds{Width: 390, Height: MaxPageHeight, Method: MethodBoundingBoxUnion},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := computeBounds(tt.probe, DefaultWidth); got != tt.want {
				t.Errorf("computeBounds() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestPrintSpecFor - Paper Size
// ---------------------------------------------------------------------------

func TestPrintSpecFor(t *testing.T) {
	t.Parallel()

	const eps = 1e-9
	near := func(a, b float64) bool { return math.Abs(a-b) < eps }

	tests := []struct {
		name   string
		bounds MeasuredBounds
		opts   PipelineOptions
		want   PrintSpec
	}{
		{
			name:   "auto without margin",
			bounds: MeasuredBounds{Width: 384, Height: 960},
			opts:   DefaultPipelineOptions(),
			want:   PrintSpec{PaperWidth: 4, PaperHeight: 10},
		},
		{
			name:   "auto margin surrounds content",
			bounds: MeasuredBounds{Width: 384, Height: 960},
			opts:   PipelineOptions{Margin: 48}.WithDefaults(),
			want:   PrintSpec{PaperWidth: 5, PaperHeight: 11, Margin: 0.5},
		},
		{
			name:   "auto paper height capped",
			bounds: MeasuredBounds{Width: 384, Height: MaxPageHeight},
			opts:   PipelineOptions{Margin: 96}.WithDefaults(),
			want:   PrintSpec{PaperWidth: 6, PaperHeight: 200, Margin: 1},
		},
		{
			name:   "fixed margin inside page",
			bounds: MeasuredBounds{Width: 5000, Height: 5000},
			opts:   PipelineOptions{Format: FormatFixed, Width: 960, Height: 576, Margin: 48}.WithDefaults(),
			want:   PrintSpec{PaperWidth: 10, PaperHeight: 6, Margin: 0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := printSpecFor(tt.bounds, tt.opts)
			if !near(got.PaperWidth, tt.want.PaperWidth) || !near(got.PaperHeight, tt.want.PaperHeight) || !near(got.Margin, tt.want.Margin) {
				t.Errorf("printSpecFor() = %+v, want %+v", got, tt.want)
			}
			if got.PageRanges != "1" {
				t.Errorf("PageRanges = %q, want \"1\"", got.PageRanges)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestMeasure - Scroll And Probe
// ---------------------------------------------------------------------------

func fastOptions() PipelineOptions {
	return PipelineOptions{
		Timeouts: Timeouts{
			Navigation:         time.Second,
			Ready:              time.Second,
			ScrollSettle:       time.Millisecond,
			ScrollReturnSettle: time.Millisecond,
		},
	}.WithDefaults()
}

func TestMeasure(t *testing.T) {
	t.Parallel()

	t.Run("scrolls then probes", func(t *testing.T) {
		t.Parallel()

		eng := newFakeEngine(nil).script("test://a", pageScript{
			probe: layoutProbe{Rects: []rect{{Right: 390, Bottom: 2400}}},
		})
		page, _ := eng.NewPage(context.Background(), nil)
		fp := page.(*fakePage)
		_ = fp.Navigate(context.Background(), "test://a")

		got, err := measure(context.Background(), page, fastOptions())
		if err != nil {
			t.Fatalf("measure() unexpected error: %v", err)
		}
		want := MeasuredBounds{Width: 390, Height: 2400, Method: MethodBoundingBoxUnion}
		if got != want {
			t.Errorf("measure() = %+v, want %+v", got, want)
		}

		wantEvals := []string{scrollToBottomJS, scrollToTopJS, layoutProbeJS}
		if len(fp.evals) != len(wantEvals) {
			t.Fatalf("got %d evals, want %d", len(fp.evals), len(wantEvals))
		}
		for i := range wantEvals {
			if fp.evals[i] != wantEvals[i] {
				t.Errorf("eval[%d] ran the wrong script", i)
			}
		}
	})

	t.Run("eval failure wraps ErrMeasurement", func(t *testing.T) {
		t.Parallel()

		eng := newFakeEngine(nil).script("test://a", pageScript{evalErr: errors.New("detached")})
		page, _ := eng.NewPage(context.Background(), nil)
		_ = page.Navigate(context.Background(), "test://a")

		_, err := measure(context.Background(), page, fastOptions())
		if !errors.Is(err, ErrMeasurement) {
			t.Errorf("measure() error = %v, want ErrMeasurement", err)
		}
	})

	t.Run("canceled context wraps ErrMeasurement", func(t *testing.T) {
		t.Parallel()

		eng := newFakeEngine(nil)
		page, _ := eng.NewPage(context.Background(), nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := measure(ctx, page, fastOptions())
		if !errors.Is(err, ErrMeasurement) {
			t.Errorf("measure() error = %v, want ErrMeasurement", err)
		}
	})
}

func TestSleepContext(t *testing.T) {
	t.Parallel()

	if err := sleepContext(context.Background(), 0); err != nil {
		t.Errorf("sleepContext(0) = %v, want nil", err)
	}
	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("sleepContext(1ms) = %v, want nil", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("sleepContext(canceled) = %v, want context.Canceled", err)
	}
}
