package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultReloadDebounce = 250 * time.Millisecond

// Watcher reloads configuration whenever the YAML file changes and hands the
// result to a callback. A reload that fails to load or validate is logged and skipped.
type Watcher struct {
	path      string
	overrides CLIOverrides
	logger    *zap.Logger
	onChange  func(Config)
	debounce  time.Duration

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// Watch starts watching overrides.ConfigFile. The parent directory is watched
// so that editors replacing the file atomically are still picked up.
func Watch(ctx context.Context, overrides CLIOverrides, logger *zap.Logger, onChange func(Config)) (*Watcher, error) {
	return watch(ctx, overrides, logger, onChange, defaultReloadDebounce)
}

func watch(ctx context.Context, overrides CLIOverrides, logger *zap.Logger, onChange func(Config), debounce time.Duration) (*Watcher, error) {
	if overrides.ConfigFile == "" {
		return nil, errors.New("no config file to watch")
	}

	path, err := filepath.Abs(overrides.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch config directory: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		path:      path,
		overrides: overrides,
		logger:    logger,
		onChange:  onChange,
		debounce:  debounce,
		watcher:   fsw,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	logger.Info("watching config file", zap.String("path", path))
	go w.loop(ctx)

	return w, nil
}

// Close stops the watcher and waits for the watch loop to exit.
func (w *Watcher) Close() error {
	w.cancel()
	<-w.done
	return w.watcher.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			reload = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		case <-reload:
			reload = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(&w.overrides)
	if err != nil {
		w.logger.Warn("config reload failed", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.logger.Info("config reloaded", zap.String("path", w.path))
	w.onChange(cfg)
}
