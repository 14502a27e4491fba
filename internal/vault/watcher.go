package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrEventsLost is reported on Watcher.Errors when the operating system
// dropped notifications. The vault has to be rescanned to catch up.
var ErrEventsLost = errors.New("vault events were lost")

// Op is the kind of change a vault Event reports.
type Op int

const (
	// Created means a file appeared, including files moved into the vault.
	Created Op = iota
	// Removed means a file was deleted or moved away.
	Removed
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	switch op {
	case Created:
		return "created"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is a change to a vault path.
type Event struct {
	Path      string // vault-relative path
	Op        Op
	Timestamp time.Time
}

// Watcher converts fsnotify notifications under a vault root into Events.
// It watches recursively, follows newly created folders and ignores hidden
// ones such as the binmeta config directory.
type Watcher struct {
	vault   *FS
	watcher *fsnotify.Watcher
	events  chan Event
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewWatcher starts watching v. Events are buffered and never dropped by the
// watcher itself: when the buffer is full it waits for the consumer.
func NewWatcher(v *FS) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		vault:   v,
		watcher: fsw,
		events:  make(chan Event, 256),
		errors:  make(chan error, 16),
		done:    make(chan struct{}),
	}

	if err := w.addRecursive(v.Root(), false); err != nil {
		fsw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.processEvents()

	return w, nil
}

// addRecursive watches dir and its visible subfolders. When announce is set,
// files already inside them are reported as Created; this covers folders that
// were moved into the vault in one step.
func (w *Watcher) addRecursive(dir string, announce bool) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) || os.IsPermission(err) {
				return nil
			}
			return err
		}

		if d.IsDir() {
			if p != w.vault.Root() && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			if err := w.watcher.Add(p); err != nil && !os.IsPermission(err) {
				return err
			}
			return nil
		}

		if announce && d.Type().IsRegular() && !isHidden(d.Name()) {
			w.send(p, Created)
		}
		return nil
	})
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.reportLost(err)
				continue
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if isHidden(filepath.Base(event.Name)) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if err := w.addRecursive(event.Name, true); err != nil {
				select {
				case w.errors <- err:
				default:
				}
			}
			return
		}
		if info.Mode().IsRegular() {
			w.send(event.Name, Created)
		}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.send(event.Name, Removed)
	}
}

func (w *Watcher) send(abs string, op Op) {
	rel, err := w.vault.Rel(abs)
	if err != nil {
		return
	}

	select {
	case w.events <- Event{Path: rel, Op: op, Timestamp: time.Now()}:
	case <-w.done:
	}
}

// reportLost waits until the consumer sees the overflow or the watcher closes.
func (w *Watcher) reportLost(err error) {
	select {
	case w.errors <- fmt.Errorf("%w: %w", ErrEventsLost, err):
	case <-w.done:
	}
}

// Events returns the channel of vault events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
