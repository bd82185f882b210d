// Package watch re-runs collections when their inputs change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/sectionrank/internal/collection"
	"github.com/dgallion1/sectionrank/internal/parser"
	"github.com/fsnotify/fsnotify"
)

// RunFunc processes one collection directory.
type RunFunc func(ctx context.Context, dir string)

// Watcher monitors an input root, every collection directory and each
// collection's documents folder.
type Watcher struct {
	root     string
	layout   collection.Layout
	debounce time.Duration
	run      RunFunc
	log      *slog.Logger

	fsw *fsnotify.Watcher
	ctx context.Context

	mu      sync.Mutex
	pending map[string]*time.Timer
	fire    chan string
}

func New(root string, layout collection.Layout, debounce time.Duration, run RunFunc, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Watcher{
		root:     root,
		layout:   layout,
		debounce: debounce,
		run:      run,
		log:      log,
		fsw:      fsw,
		pending:  make(map[string]*time.Timer),
		fire:     make(chan string, 16),
		ctx:      context.Background(),
	}, nil
}

// Start registers the watch set and begins handling events in the
// background. Re-runs are serialised.
func (w *Watcher) Start(ctx context.Context) error {
	w.ctx = ctx
	if err := w.fsw.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	dirs, err := collection.Scan(w.root, w.layout)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		w.addCollection(dir)
	}
	go w.loop(ctx)
	return nil
}

// Close stops watching and cancels pending re-runs.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for dir, t := range w.pending {
		t.Stop()
		delete(w.pending, dir)
	}
	w.mu.Unlock()
	return w.fsw.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case dir := <-w.fire:
			w.log.Info("collection changed, re-running", "collection", filepath.Base(dir))
			w.run(ctx, dir)
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}
	dir, ok := w.classify(event)
	if ok {
		w.schedule(dir)
	}
}

// classify maps an event path to the collection it belongs to. Newly created
// collection and documents directories are added to the watch set.
func (w *Watcher) classify(event fsnotify.Event) (string, bool) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if match, _ := filepath.Match(w.layout.Pattern, parts[0]); !match {
		return "", false
	}
	dir := filepath.Join(w.root, parts[0])

	switch len(parts) {
	case 1:
		if event.Has(fsnotify.Create) && isDir(event.Name) {
			w.addCollection(dir)
			return dir, true
		}
	case 2:
		if parts[1] == w.layout.InputFile {
			return dir, true
		}
		if parts[1] == w.layout.DocsDir && event.Has(fsnotify.Create) && isDir(event.Name) {
			w.add(event.Name)
			return dir, true
		}
	case 3:
		if parts[1] == w.layout.DocsDir && w.accepts(parts[2]) {
			return dir, true
		}
	}
	return "", false
}

func (w *Watcher) accepts(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	if w.layout.AllFormats {
		return parser.IsSupportedExtension(name)
	}
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// schedule (re)starts the debounce timer for dir.
func (w *Watcher) schedule(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[dir]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[dir] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, dir)
		w.mu.Unlock()
		select {
		case w.fire <- dir:
		case <-w.ctx.Done():
		}
	})
}

func (w *Watcher) addCollection(dir string) {
	w.add(dir)
	docs := filepath.Join(dir, w.layout.DocsDir)
	if isDir(docs) {
		w.add(docs)
	}
}

func (w *Watcher) add(path string) {
	if err := w.fsw.Add(path); err != nil {
		w.log.Warn("watch add failed", "path", path, "error", err)
		return
	}
	w.log.Debug("watching", "path", path)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
