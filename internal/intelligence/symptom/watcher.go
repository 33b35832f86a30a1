package symptom

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymptomSense/pkg/errors"
)

// TableWatcher serves the synonym table loaded from a file and swaps in a new
// snapshot whenever the file changes.  An invalid edit is logged and the
// previous snapshot stays in service.
type TableWatcher struct {
	path    string
	current atomic.Pointer[SynonymTable]
	watcher *fsnotify.Watcher
	logger  logging.Logger

	// OnReload, when set, is called after each successful swap.
	OnReload func(*SynonymTable)
}

// NewTableWatcher loads path and starts watching its directory.  Watching the
// directory rather than the file survives editors that replace files on save.
func NewTableWatcher(path string, logger logging.Logger) (*TableWatcher, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSynonymTableInvalid, "resolve synonym table path")
	}
	table, err := LoadSynonymTable(abs)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "create file watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "watch synonym table directory")
	}

	w := &TableWatcher{path: abs, watcher: fw, logger: logger.Named("synonym-watcher")}
	w.current.Store(table)
	return w, nil
}

// Table implements TableProvider.
func (w *TableWatcher) Table() *SynonymTable { return w.current.Load() }

// Run processes file events until ctx is done or the watcher is closed.
func (w *TableWatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("synonym watcher error", logging.Err(err))
		}
	}
}

// Reload re-reads the file immediately.
func (w *TableWatcher) Reload() error {
	table, err := LoadSynonymTable(w.path)
	if err != nil {
		return err
	}
	w.current.Store(table)
	if w.OnReload != nil {
		w.OnReload(table)
	}
	return nil
}

func (w *TableWatcher) reload() {
	if err := w.Reload(); err != nil {
		w.logger.Warn("synonym table reload rejected, keeping previous table",
			logging.String("path", w.path), logging.Err(err))
		return
	}
	w.logger.Info("synonym table reloaded",
		logging.String("path", w.path), logging.Int("symptoms", w.Table().Len()))
}

// Close stops watching.
func (w *TableWatcher) Close() error { return w.watcher.Close() }
