package slidepdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alnah/go-slidepdf/internal/fileutil"
)

// workDirPrefix names the per-run temp directory.
const workDirPrefix = "slidepdf-"

// maxFileIDLength bounds the target ID part of artifact names.
const maxFileIDLength = 64

// PageStore holds the single-page artifacts of one run in a private work
// directory and tracks every temp file it hands out.
type PageStore struct {
	dir string

	mu    sync.Mutex
	pages map[int]ExportedPage
	files []string
}

// NewPageStore creates the work directory <baseDir>/slidepdf-<runID>.
// An empty baseDir means os.TempDir().
func NewPageStore(baseDir, runID string) (*PageStore, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	dir := filepath.Join(baseDir, workDirPrefix+runID)
	if err := os.MkdirAll(dir, fileutil.DirPerm); err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}
	return &PageStore{dir: dir, pages: make(map[int]ExportedPage)}, nil
}

// Dir returns the work directory.
func (s *PageStore) Dir() string {
	return s.dir
}

// PathFor returns the artifact path for t and starts tracking it.
// The zero-padded index keeps directory listings in output order.
func (s *PageStore) PathFor(t RenderTarget) string {
	name := fmt.Sprintf("%04d-%s.pdf", t.SequenceIndex, fileID(t.ID))
	p := filepath.Join(s.dir, name)

	s.mu.Lock()
	s.files = append(s.files, p)
	s.mu.Unlock()
	return p
}

// Add records an exported page. Each sequence index is accepted once.
func (s *PageStore) Add(p ExportedPage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.pages[p.SequenceIndex]; ok {
		return fmt.Errorf("%w: %d already stored for %q", ErrDuplicateSequence, p.SequenceIndex, prev.TargetID)
	}
	s.pages[p.SequenceIndex] = p
	return nil
}

// Pages returns the stored pages ordered by sequence index.
func (s *PageStore) Pages() []ExportedPage {
	s.mu.Lock()
	pages := make([]ExportedPage, 0, len(s.pages))
	for _, p := range s.pages {
		pages = append(pages, p)
	}
	s.mu.Unlock()

	sortPages(pages)
	return pages
}

// TempFiles returns every path handed out by PathFor.
func (s *PageStore) TempFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.files...)
}

// fileID makes a target ID safe for use in a file name.
func fileID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxFileIDLength {
			break
		}
	}
	s := strings.Trim(b.String(), ".")
	if s == "" {
		return "target"
	}
	return s
}
