package dev

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeType represents the type of file change.
type ChangeType int

const (
	ChangeRoute ChangeType = iota
	ChangeCSS
)

// Change represents a detected file change.
type Change struct {
	Path string
	Type ChangeType
}

// Watcher monitors the routes and styles directories for changes using
// fsnotify, debouncing bursts of events into a single callback.
type Watcher struct {
	routesDir string
	stylesDir string
	debounce  time.Duration
	onChange  func(Change)

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
}

// NewWatcher creates a watcher over the given directories.
func NewWatcher(routesDir, stylesDir string, onChange func(Change)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		routesDir: routesDir,
		stylesDir: stylesDir,
		debounce:  100 * time.Millisecond,
		onChange:  onChange,
		fsw:       fsw,
		stopCh:    make(chan struct{}),
	}

	for _, dir := range []string{routesDir, stylesDir} {
		if dir != "" {
			w.watchTree(dir)
		}
	}

	return w, nil
}

// watchTree watches dir and all of its subdirectories.
func (w *Watcher) watchTree(dir string) {
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			w.fsw.Add(path)
		}
		return nil
	})
}

// Start begins watching. It returns immediately; changes are delivered on
// the callback until Stop is called.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop stops watching.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.fsw.Close()
}

func (w *Watcher) loop() {
	// One pending change per type: a stylesheet change must not be dropped
	// because a route change landed in the same debounce window.
	pending := make(map[ChangeType]Change)
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New directories must be watched too. This has to happen
			// before classify, which only recognizes files.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.watchTree(event.Name)
					continue
				}
			}
			change, ok := w.classify(event.Name)
			if !ok {
				continue
			}
			pending[change.Type] = change
			timer.Reset(w.debounce)

		case <-timer.C:
			for _, typ := range []ChangeType{ChangeRoute, ChangeCSS} {
				if change, ok := pending[typ]; ok {
					w.onChange(change)
					delete(pending, typ)
				}
			}

		case <-w.fsw.Errors:
			// Watch errors are transient in dev; keep going.
		}
	}
}

func (w *Watcher) classify(path string) (Change, bool) {
	base := filepath.Base(path)
	switch {
	case strings.HasSuffix(base, "_test.go"), strings.HasPrefix(base, "."):
		return Change{}, false
	case strings.HasSuffix(base, ".go"):
		return Change{Path: path, Type: ChangeRoute}, true
	case strings.HasSuffix(base, ".css"):
		return Change{Path: path, Type: ChangeCSS}, true
	default:
		return Change{}, false
	}
}
