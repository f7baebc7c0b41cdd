// Package watch reports file changes under a directory tree.
package watch

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Directories that never hold anything a page would load.
var ignoreDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	".idea":        true,
	".vscode":      true,
}

// Editor droppings.
var ignoreSuffixes = []string{
	".swp",
	".swx",
	"~",
	".DS_Store",
}

type Watcher struct {
	fw      *fsnotify.Watcher
	done    chan struct{}
	stopped bool
	mu      sync.Mutex
}

func NewWatcher() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:   fw,
		done: make(chan struct{}),
	}, nil
}

// Watch monitors root recursively and calls onChange with the path of every
// file written, created, removed or renamed. onChange runs on the watcher's
// goroutine.
func (w *Watcher) Watch(root string, onChange func(path string)) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	if err := w.addTree(absRoot); err != nil {
		return err
	}

	go w.loop(absRoot, onChange)
	return nil
}

// Stop ends monitoring. Safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	return w.fw.Close()
}

func (w *Watcher) loop(root string, onChange func(path string)) {
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}

			if shouldIgnorePath(root, event.Name) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						log.Printf("Warning: could not watch %s: %v", event.Name, err)
					}
				}
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				onChange(event.Name)
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Printf("Watch error: %v", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignoreDirs[d.Name()] {
			return filepath.SkipDir
		}
		return w.fw.Add(path)
	})
}

// shouldIgnorePath only looks at the part of path below root.
func shouldIgnorePath(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}

	base := filepath.Base(rel)
	for _, suffix := range ignoreSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}

	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if ignoreDirs[part] {
			return true
		}
	}
	return false
}
