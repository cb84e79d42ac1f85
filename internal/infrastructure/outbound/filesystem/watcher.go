package filesystem

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sophialabs/redirectlint/internal/infrastructure/ports"
)

// Watcher watches redirect source files and triggers a callback after changes settle.
type Watcher struct {
	rootDir   string
	debounce  time.Duration
	recursive bool
	relevant  func(name string) bool
	logger    ports.Logger
	watcher   *fsnotify.Watcher
	onChange  func()
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// WatchOptions configures a Watcher.
type WatchOptions struct {
	Debounce  time.Duration
	Recursive bool
	// Relevant filters file events by path. Defaults to IsYAMLFile.
	Relevant func(name string) bool
}

// NewWatcher creates a file watcher for the given directory.
func NewWatcher(rootDir string, opts WatchOptions, logger ports.Logger, onChange func()) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	relevant := opts.Relevant
	if relevant == nil {
		relevant = IsYAMLFile
	}

	w := &Watcher{
		rootDir:   rootDir,
		debounce:  opts.Debounce,
		recursive: opts.Recursive,
		relevant:  relevant,
		logger:    logger,
		watcher:   fsWatcher,
		onChange:  onChange,
		done:      make(chan struct{}),
	}

	if err := w.addDirs(rootDir); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}

	return w, nil
}

// Start begins watching for file changes in a goroutine.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop terminates the watcher. It is idempotent.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
		w.wg.Wait()
	})
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if !w.relevant(event.Name) {
				if w.recursive && event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = w.addDirs(event.Name)
					}
				}
				continue
			}

			w.logger.Debug("file change detected", "file", event.Name, "op", event.Op.String())

			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)

		case <-timerC:
			w.logger.Info("re-running after file changes")
			w.onChange()
			timerC = nil
		}
	}
}

func (w *Watcher) addDirs(dir string) error {
	if !w.recursive {
		return w.watcher.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}
