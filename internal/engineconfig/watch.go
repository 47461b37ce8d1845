package engineconfig

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Config from disk whenever its file changes and
// delivers the new value on Updates. Construct one with Watch; call
// Close when done.
type Watcher struct {
	w       *fsnotify.Watcher
	path    string
	updates chan Config
	errs    chan error
}

// Watch starts watching path for writes and returns a Watcher delivering
// a freshly parsed Config on every change. The caller should drain
// Updates (or Errors) from a goroutine to avoid blocking the watch loop.
func Watch(path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("engineconfig: creating watcher: %w", err)
	}

	if err := w.Add(path); err != nil {
		_ = w.Close()

		return nil, fmt.Errorf("engineconfig: watching %s: %w", path, err)
	}

	cw := &Watcher{
		w:       w,
		path:    path,
		updates: make(chan Config, 1),
		errs:    make(chan error, 1),
	}

	go cw.loop()

	return cw, nil
}

func (cw *Watcher) loop() {
	for {
		select {
		case ev, ok := <-cw.w.Events:
			if !ok {
				return
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			cfg, err := Load(cw.path)
			if err != nil {
				select {
				case cw.errs <- err:
				default:
				}

				continue
			}

			select {
			case cw.updates <- cfg:
			default:
				// Drop a stale pending update in favor of the fresh one:
				// only the latest config matters to a reloader.
				select {
				case <-cw.updates:
				default:
				}

				cw.updates <- cfg
			}
		case err, ok := <-cw.w.Errors:
			if !ok {
				return
			}

			select {
			case cw.errs <- err:
			default:
			}
		}
	}
}

// Updates delivers each successfully reloaded Config.
func (cw *Watcher) Updates() <-chan Config { return cw.updates }

// Errors delivers watch or reload failures.
func (cw *Watcher) Errors() <-chan error { return cw.errs }

// Close stops the watch loop.
func (cw *Watcher) Close() error {
	return cw.w.Close()
}
