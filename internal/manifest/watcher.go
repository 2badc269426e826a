package manifest

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/danmuck/manifestd/internal/logging"
	"github.com/danmuck/manifestd/internal/observability"
	"github.com/danmuck/manifestd/internal/tree"
	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 250 * time.Millisecond

// WatchConfig tunes a Watcher.
type WatchConfig struct {
	Format   Format
	Debounce time.Duration
	// OnReload runs after a new store has been published.
	OnReload func(*tree.Store)
}

// Watcher reloads one manifest file when it changes and publishes the result in
// a Holder. A failed reload keeps the previous store.
type Watcher struct {
	path   string
	cfg    WatchConfig
	holder *tree.Holder
}

func NewWatcher(path string, holder *tree.Holder, cfg WatchConfig) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Format == "" {
		cfg.Format = FormatAuto
	}
	return &Watcher{path: abs, cfg: cfg, holder: holder}, nil
}

// Reload loads the file now and publishes it on success.
func (w *Watcher) Reload() error {
	log := logging.For("manifest")
	store, err := Load(w.path, w.cfg.Format)
	if err != nil {
		observability.RecordReload(false)
		log.Warn().Err(err).Str("path", w.path).Msg("manifest.Watcher reload failed, keeping previous tree")
		return err
	}
	w.holder.Swap(store)
	observability.RecordReload(true)
	log.Info().Str("path", w.path).Int("nodes", store.Len()).Msg("manifest.Watcher reloaded")
	if w.cfg.OnReload != nil {
		w.cfg.OnReload(store)
	}
	return nil
}

// Run watches the manifest's directory until ctx is done. Editors often replace
// files by rename, so events are matched by name rather than by watching the file.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("manifest: create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("manifest: watch %s: %w", filepath.Dir(w.path), err)
	}

	log := logging.For("manifest")
	log.Info().Str("path", w.path).Dur("debounce", w.cfg.Debounce).Msg("manifest.Watcher started")

	timer := time.NewTimer(w.cfg.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			log.Debug().Str("op", event.Op.String()).Msg("manifest.Watcher change")
			timer.Reset(w.cfg.Debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("manifest.Watcher error")
		case <-timer.C:
			_ = w.Reload()
		}
	}
}
