// Package watch reruns work when the documents or scripts it tracks change
// on disk. Bursts of events are coalesced into one notification.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a change is reported.
const DefaultDebounce = 200 * time.Millisecond

// Config lists the files to watch.
type Config struct {
	Paths    []string
	Debounce time.Duration
}

// Watcher reports changes to a fixed set of files.
type Watcher struct {
	fs        *fsnotify.Watcher
	files     map[string]struct{}
	debounce  time.Duration
	changes   chan string
	errs      chan error
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// New creates a watcher. Directories of the listed files are watched so
// editors that replace files on save are still noticed.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("watch: no paths given")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		fs:       fsw,
		files:    make(map[string]struct{}, len(cfg.Paths)),
		debounce: debounce,
		changes:  make(chan string, 1),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}

	dirs := make(map[string]struct{})
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch: resolve %s: %w", p, err)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch: add %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run delivers the path of the last changed file once events settle. It
// blocks until ctx is done or Close is called.
func (w *Watcher) Run(ctx context.Context, onChange func(path string) error) error {
	go w.loop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case err := <-w.errs:
			return fmt.Errorf("watch: %w", err)
		case path := <-w.changes:
			if err := onChange(path); err != nil {
				return err
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.closeErr = w.fs.Close()
	})
	return w.closeErr
}

func (w *Watcher) loop() {
	var (
		timer *time.Timer
		fire  <-chan time.Time
		last  string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			last = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case w.changes <- last:
			default:
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}
