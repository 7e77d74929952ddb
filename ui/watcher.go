package ui

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher calls a function whenever one file changes. It watches the
// file's directory so that editors which replace the file by renaming are
// noticed too.
type Watcher struct {
	path     string
	onChange func(path string)
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
}

// NewWatcher watches path and calls onChange after it is written,
// created or renamed.
func NewWatcher(path string, onChange func(path string)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		onChange: onChange,
		watcher:  fw,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins delivering change events in a new goroutine.
func (w *Watcher) Start() {
	w.started = true
	go w.run()
}

// Stop ends the watch and waits for a running callback to return.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	if w.started {
		<-w.doneCh
	}
}

func (w *Watcher) run() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				log.Debugf("%s: %s", w.path, event.Op)
				w.onChange(w.path)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("watching %s: %s", w.path, err)
		}
	}
}
