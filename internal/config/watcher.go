package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dquill/sprited/internal/logger"
)

// DefaultDebounce is the quiet period after a file event before reloading.
// Editors typically fire several events per save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads the config file when it changes on disk and hands each
// successfully reloaded config to a callback. Reload failures are logged
// and the previous config stays active.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(Config)

	fsw       *fsnotify.Watcher
	closeCh   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWatcher starts watching path. The watch is placed on the directory
// because editors often replace the file wholesale on save.
func NewWatcher(path string, onChange func(Config)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		debounce: DefaultDebounce,
		onChange: onChange,
		fsw:      fsw,
		closeCh:  make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
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
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			cfg, err := Load(w.path)
			if err != nil {
				logger.Warnf("config: reload of %s failed: %v", w.path, err)
				continue
			}
			logger.Infof("config: reloaded %s", w.path)
			w.onChange(cfg)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warnf("config: watch error: %v", err)

		case <-w.closeCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// Close stops the watcher and waits for the reload loop to exit.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() { close(w.closeCh) })
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
