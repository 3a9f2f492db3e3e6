package catalog

import (
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher triggers an index reload when catalog source files change on disk.
// Events are debounced so a bulk file copy causes one rebuild, not dozens.
type Watcher struct {
	fsw      *fsnotify.Watcher
	reload   func() error
	debounce time.Duration
	done     chan struct{}
}

// NewWatcher watches dataDir and calls reload after changes settle.
func NewWatcher(dataDir string, reload func() error) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dataDir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		reload:   reload,
		debounce: 500 * time.Millisecond,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			if filepath.Ext(ev.Name) != ".json" {
				continue
			}
			log.Printf("[WATCH] Catalog source changed: %s", ev.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				// Drain a tick that fired between selects so Reset
				// cannot deliver it early.
				if !timer.Stop() {
					select {
					case <-timerC:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.reload(); err != nil {
				log.Printf("[WATCH] Reload failed, keeping previous index: %v", err)
			} else {
				log.Printf("[WATCH] Index reloaded")
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("[WATCH] Watcher error: %v", err)

		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
