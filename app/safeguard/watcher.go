package safeguard

import (
	"github.com/fsnotify/fsnotify"

	"github.com/fleetwatch/sentinel/app/log"
)

// Watcher forwards fsnotify events for the watched config file into a
// buffered, non-blocking channel. It is a pure accelerant: a goroutine
// over fsw.Events/fsw.Errors filtering Write|Create|Rename into a single
// pending flag, used only to skip redundant hashing when idle.
type Watcher struct {
	fsw    *fsnotify.Watcher
	events chan struct{}
}

// NewWatcher starts watching configPath. Returns nil, err if the
// underlying OS watch cannot be established; callers should treat that as
// EnvironmentMissing and fall back to unconditional per-tick hashing.
func NewWatcher(configPath string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsw.Add(configPath); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		events: make(chan struct{}, 1),
	}

	go w.run()

	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			select {
			case w.events <- struct{}{}:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warnf("config watcher error: %v", err)
		}
	}
}

// Pending reports and clears whether a relevant event has landed since the
// last call.
func (w *Watcher) Pending() bool {
	select {
	case <-w.events:
		return true
	default:
		return false
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
