package slidepdf

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alnah/go-slidepdf/internal/fileutil"
)

// ContentSource maps a target to the URL the engine loads.
// The component markup itself is served by the implementation.
type ContentSource interface {
	URLFor(t RenderTarget) (string, error)
}

// ContentSourceFunc adapts a function to ContentSource.
type ContentSourceFunc func(t RenderTarget) (string, error)

// URLFor calls f(t).
func (f ContentSourceFunc) URLFor(t RenderTarget) (string, error) {
	return f(t)
}

// DefaultContentPattern renders a target through the dev server's render route.
const DefaultContentPattern = "/render?target={source}"

// Compile-time interface checks
var (
	_ ContentSource = DevServerSource{}
	_ ContentSource = FileSource{}
	_ ContentSource = ContentSourceFunc(nil)
)

// DevServerSource points targets at an external development server.
// Pattern placeholders {id}, {source} and {index} are query-escaped.
type DevServerSource struct {
	BaseURL string // e.g. "http://localhost:5173"
	Pattern string // defaults to DefaultContentPattern
}

// Validate checks BaseURL and Pattern.
func (s DevServerSource) Validate() error {
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base URL %q must be absolute", ErrInvalidPattern, s.BaseURL)
	}
	if p := s.pattern(); !strings.Contains(p, "{id}") && !strings.Contains(p, "{source}") && !strings.Contains(p, "{index}") {
		return fmt.Errorf("%w: %q has no {id}, {source} or {index} placeholder", ErrInvalidPattern, p)
	}
	return nil
}

func (s DevServerSource) pattern() string {
	if strings.TrimSpace(s.Pattern) == "" {
		return DefaultContentPattern
	}
	return s.Pattern
}

// URLFor expands the pattern for t and joins it with BaseURL.
func (s DevServerSource) URLFor(t RenderTarget) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	path := strings.NewReplacer(
		"{id}", url.QueryEscape(t.ID),
		"{source}", url.QueryEscape(t.Source),
		"{index}", strconv.Itoa(t.SequenceIndex),
	).Replace(s.pattern())

	base := strings.TrimRight(s.BaseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path, nil
}

// FileSource loads pre-rendered HTML files from disk.
// Sources that already are http(s) URLs are loaded as is.
type FileSource struct {
	Dir string // resolves relative sources; empty means the working directory
}

// URLFor returns a file:// URL for the absolute path of t.Source.
func (s FileSource) URLFor(t RenderTarget) (string, error) {
	if strings.TrimSpace(t.Source) == "" {
		return "", fmt.Errorf("%w: target %q has no source", ErrInvalidPattern, t.ID)
	}
	if fileutil.IsURL(t.Source) {
		return t.Source, nil
	}
	p := t.Source
	if !filepath.IsAbs(p) && s.Dir != "" {
		p = filepath.Join(s.Dir, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", t.Source, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path // Windows drive letters
	}
	return u.String(), nil
}
