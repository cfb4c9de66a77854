package model

import (
	"fmt"
	"log"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Source supplies the current model parameters to the detector.
type Source interface {
	Parameters() (*Parameters, error)
}

// Static is a Source with fixed parameters, used by tests and by callers
// that manage the artifact themselves.
type Static struct {
	P *Parameters
}

func (s Static) Parameters() (*Parameters, error) {
	if s.P == nil {
		return nil, ErrNoModel
	}
	return s.P, nil
}

// Loader reads the parameters artifact from a JSON file and can watch it
// for changes, swapping the table atomically on reload.
type Loader struct {
	path    string
	mu      sync.RWMutex
	current *Parameters
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	p, err := Load(path)
	if err != nil {
		return nil, err
	}
	l.current = p
	return l, nil
}

// Parameters returns the latest loaded parameter table.
func (l *Loader) Parameters() (*Parameters, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return nil, ErrNoModel
	}
	return l.current, nil
}

// Watch starts a background goroutine that hot-reloads the artifact on file
// changes. A reload failure keeps the previous table. Call the returned stop
// function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("model watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("model watcher add %s: %w", l.path, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					p, err := Load(l.path)
					if err != nil {
						log.Printf("model: reload failed, keeping previous parameters: %v", err)
						continue
					}
					l.mu.Lock()
					l.current = p
					l.mu.Unlock()
					log.Printf("model: reloaded parameters from %s", l.path)
				}
			case <-w.Errors:
				// Ignore watcher errors.
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }, nil
}
