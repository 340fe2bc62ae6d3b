// Package slidepdf renders a sequence of web pages into one PDF document
// using headless Chromium.
//
// # Quick Start
//
// Describe the targets, create a pipeline, and run it:
//
//	targets := slidepdf.TargetsFromSources([]string{"intro", "agenda", "demo"})
//
//	p, err := slidepdf.NewPipeline(slidepdf.DefaultPipelineOptions(),
//	    slidepdf.WithContentSource(slidepdf.DevServerSource{
//	        BaseURL: "http://localhost:5173",
//	        Pattern: slidepdf.DefaultContentPattern,
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := p.Run(ctx, targets, "deck.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Message)
//
// A target that fails to render is skipped and reported in Result.Skipped;
// the run only fails when no target produced a page.
//
// # Rendering Pipeline
//
// Every run follows these stages:
//
//  1. Engine resolution (override, hosted platform, known paths, caches, PATH, download)
//  2. Engine launch (go-rod or chromedp backend)
//  3. Per-target render: navigate, wait for content, measure, print one page
//  4. Assembly of the pages in sequence order via pdfcpu
//  5. Release of the engine and every temporary file
//
// # Page Formats
//
// FormatAuto sizes each page to its content: the viewport width is fixed,
// the height follows the union of visible element bounds, clamped to
// MaxPageHeight. FormatFixed prints every target at Width x Height.
//
// # Browser Requirements
//
// Rendering requires Chrome or Chromium. Set SLIDEPDF_BROWSER_BIN (or
// ROD_BROWSER_BIN) to force a binary. WithInstallOnDemand lets go-rod
// download a managed Chromium when nothing else is found.
package slidepdf
