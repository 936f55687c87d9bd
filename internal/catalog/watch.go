package catalog

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/techgear-labs/storefront/pkg/debounce"
)

// Watcher reloads a Store from a catalog file whenever the file changes on
// disk. Change bursts (editors typically write, chmod, and rename in quick
// succession) are debounced so only one reload runs per save.
type Watcher struct {
	store *Store
	path  string
	fw    *fsnotify.Watcher
	deb   *debounce.Debouncer
	lg    *zap.Logger
}

// NewWatcher watches path and installs its contents into store after each
// debounced change. The parent directory is watched rather than the file
// itself, because atomic saves replace the inode.
func NewWatcher(store *Store, path string, wait time.Duration, lg *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fs watcher")
	}

	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, errors.Wrapf(err, "watch %s", filepath.Dir(path))
	}

	return &Watcher{
		store: store,
		path:  path,
		fw:    fw,
		deb:   debounce.New(wait),
		lg:    lg,
	}, nil
}

// Run processes filesystem events until ctx is cancelled. It blocks and
// always returns a nil error on clean shutdown.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.deb.Stop()
	defer func() { _ = w.fw.Close() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			w.deb.Trigger(w.reload)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.lg.Warn("Catalog watch error", zap.Error(err))
		}
	}
}

// reload swaps in the new catalog. A failed load keeps the previous catalog:
// a broken file on disk must not take down the running store.
func (w *Watcher) reload() {
	products, err := LoadFile(w.path)
	if err != nil {
		w.lg.Error("Catalog reload failed, keeping previous catalog",
			zap.String("path", w.path),
			zap.Error(err),
		)
		return
	}
	if err := w.store.Replace(products); err != nil {
		w.lg.Error("Catalog reload rejected, keeping previous catalog",
			zap.String("path", w.path),
			zap.Error(err),
		)
		return
	}
	w.lg.Info("Catalog reloaded",
		zap.String("path", w.path),
		zap.Int("products", len(products)),
	)
}
