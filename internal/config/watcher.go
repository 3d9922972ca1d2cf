package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration file when it changes on disk. Editors
// and external tools often save through rename-and-replace, so the watcher
// monitors the file's directory and filters events down to the one file.
// Rapid event bursts are debounced into a single reload.
type Watcher struct {
	path     string
	debounce time.Duration
	onReload func(Config)
	logger   *log.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher watches the configuration file at path and calls onReload
// with each successfully reloaded configuration. A nil logger suppresses
// reload diagnostics.
func NewWatcher(path string, debounce time.Duration, onReload func(Config), logger *log.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	w := &Watcher{
		path:     abs,
		debounce: debounce,
		onReload: onReload,
		logger:   logger,
		fsw:      fsw,
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Printf("config: watch error: %v", err)
			}
		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		// A half-written or invalid file keeps the previous config.
		if w.logger != nil {
			w.logger.Printf("config: reload failed: %v", err)
		}
		return
	}
	if w.logger != nil {
		w.logger.Printf("config: reloaded %s", w.path)
	}
	w.onReload(cfg)
}
