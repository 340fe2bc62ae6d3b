package slidepdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/alnah/go-slidepdf/internal/fileutil"
)

// Merger concatenates PDF files into outFile in the given order.
type Merger interface {
	Merge(ctx context.Context, inFiles []string, outFile string) error
}

// MergerFunc adapts a function to Merger.
type MergerFunc func(ctx context.Context, inFiles []string, outFile string) error

// Merge calls f.
func (f MergerFunc) Merge(ctx context.Context, inFiles []string, outFile string) error {
	return f(ctx, inFiles, outFile)
}

// PDFCPUMerger merges with pdfcpu.
type PDFCPUMerger struct{}

// Merge writes the concatenation of inFiles to outFile.
func (PDFCPUMerger) Merge(ctx context.Context, inFiles []string, outFile string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conf := model.NewDefaultConfiguration()
	return api.MergeCreateFile(inFiles, outFile, false, conf)
}

// Assembler writes the final document from exported pages.
type Assembler struct {
	merger Merger
	logger *log.Logger
}

// NewAssembler creates an assembler. A nil merger means PDFCPUMerger.
func NewAssembler(m Merger, logger *log.Logger) *Assembler {
	if m == nil {
		m = PDFCPUMerger{}
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Assembler{merger: m, logger: logger}
}

// Assemble writes pages to outputPath in sequence order. A single page is
// copied as is; several pages are merged. The output appears atomically
// and nothing is left behind on failure.
func (a *Assembler) Assemble(ctx context.Context, pages []ExportedPage, outputPath string) error {
	if len(pages) == 0 {
		return ErrNoPagesProduced
	}
	if outputPath == "" {
		return ErrEmptyOutputPath
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrAssembly, err)
	}

	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, fileutil.DirPerm); err != nil {
		return fmt.Errorf("%w: creating output directory: %v", ErrAssembly, err)
	}

	ordered := append([]ExportedPage(nil), pages...)
	sortPages(ordered)

	if len(ordered) == 1 {
		if err := fileutil.CopyFileAtomic(ordered[0].TempPath, outputPath, fileutil.FilePerm); err != nil {
			return fmt.Errorf("%w: %v", ErrAssembly, err)
		}
		a.logger.Debug("single page copied", "output", outputPath)
		return nil
	}

	inFiles := make([]string, len(ordered))
	for i, p := range ordered {
		inFiles[i] = p.TempPath
	}
	return a.merge(ctx, inFiles, outputPath)
}

// merge writes into a temp file next to outputPath, then renames it.
func (a *Assembler) merge(ctx context.Context, inFiles []string, outputPath string) error {
	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".slidepdf-merge-*.pdf")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAssembly, err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	fail := func(err error) error {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrAssembly, err)
	}

	if err := a.merger.Merge(ctx, inFiles, tmpPath); err != nil {
		return fail(err)
	}
	if err := os.Chmod(tmpPath, fileutil.FilePerm); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		return fail(err)
	}

	a.logger.Debug("pages merged", "count", len(inFiles), "output", outputPath)
	return nil
}
