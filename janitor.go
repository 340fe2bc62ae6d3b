package slidepdf

import (
	"errors"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/alnah/go-slidepdf/internal/fileutil"
)

// Janitor releases everything a run acquired. Release is meant to be
// deferred right after the janitor is created, so it runs on every exit path.
type Janitor struct {
	debug  bool
	logger *log.Logger

	mu      sync.Mutex
	session io.Closer
	store   *PageStore
	once    sync.Once
}

// NewJanitor creates a janitor. In debug mode temp files are kept.
func NewJanitor(debug bool, logger *log.Logger) *Janitor {
	if logger == nil {
		logger = discardLogger()
	}
	return &Janitor{debug: debug, logger: logger}
}

// TrackSession registers the engine session to close.
func (j *Janitor) TrackSession(s io.Closer) {
	j.mu.Lock()
	j.session = s
	j.mu.Unlock()
}

// TrackStore registers the page store whose files and work dir are removed.
func (j *Janitor) TrackStore(s *PageStore) {
	j.mu.Lock()
	j.store = s
	j.mu.Unlock()
}

// Release closes the engine, then removes temp files and the work dir
// unless in debug mode. Failures are logged, never returned. Idempotent.
func (j *Janitor) Release() {
	j.once.Do(func() {
		j.mu.Lock()
		session, store := j.session, j.store
		j.mu.Unlock()

		if session != nil {
			if err := session.Close(); err != nil {
				j.logger.Warn("closing engine", "err", err)
			}
		}
		if store == nil {
			return
		}

		if j.debug {
			for _, f := range store.TempFiles() {
				j.logger.Info("kept temp file", "path", f)
			}
			j.logger.Info("kept work directory", "path", store.Dir())
			return
		}

		for _, f := range store.TempFiles() {
			if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
				j.logger.Warn("removing temp file", "path", f, "err", err)
			}
		}
		if err := fileutil.RemoveIfEmpty(store.Dir()); err != nil {
			j.logger.Warn("removing work directory", "path", store.Dir(), "err", err)
		}
	})
}
