// Package control provides out-of-band run control via the .cadre
// directory. A stop signal file written by another process ends the
// current run by cancelling its context; the orchestrator itself has no
// cancellation hooks, so the context is the only lever.
package control

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const stopSignalName = "stop"

// SignalManager watches the .cadre/signals directory for a stop file and
// cancels the run context when one appears.
type SignalManager struct {
	cadreDir string
	cancel   context.CancelFunc

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewSignalManager creates a signal manager rooted at the given
// directory and returns a derived context that is cancelled when a stop
// signal arrives. If the file watcher cannot be set up, the manager
// still works through on-demand stat checks via Stopped.
func NewSignalManager(ctx context.Context, rootDir string) (*SignalManager, context.Context, error) {
	cadreDir := filepath.Join(rootDir, ".cadre")
	signalsDir := filepath.Join(cadreDir, "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	sm := &SignalManager{
		cadreDir: cadreDir,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	// A stop file left over from a previous run counts immediately.
	if sm.Stopped() {
		cancel()
		return sm, runCtx, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return sm, runCtx, nil
	}
	sm.watcher = watcher

	if err := watcher.Add(signalsDir); err != nil {
		watcher.Close()
		sm.watcher = nil
		return sm, runCtx, nil
	}

	go sm.watchSignals()

	return sm, runCtx, nil
}

// watchSignals monitors the signals directory for the stop file.
func (sm *SignalManager) watchSignals() {
	for {
		select {
		case <-sm.done:
			return
		case event, ok := <-sm.watcher.Events:
			if !ok {
				return
			}
			base := filepath.Base(event.Name)
			if base == stopSignalName && (event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0) {
				sm.cancel()
			}
		case <-sm.watcher.Errors:
			// Ignore errors, keep watching
		}
	}
}

// Stopped reports whether a stop signal file exists.
func (sm *SignalManager) Stopped() bool {
	stopPath := filepath.Join(sm.cadreDir, "signals", stopSignalName)
	_, err := os.Stat(stopPath)
	return err == nil
}

// SendStop creates the stop signal file.
func (sm *SignalManager) SendStop() error {
	path := filepath.Join(sm.cadreDir, "signals", stopSignalName)
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// ClearSignals removes the stop signal file.
func (sm *SignalManager) ClearSignals() {
	os.Remove(filepath.Join(sm.cadreDir, "signals", stopSignalName))
}

// CadreDir returns the path to the .cadre directory.
func (sm *SignalManager) CadreDir() string {
	return sm.cadreDir
}

// Close shuts down the signal manager. The run context stays valid
// unless a stop signal already cancelled it.
func (sm *SignalManager) Close() {
	close(sm.done)
	if sm.watcher != nil {
		sm.watcher.Close()
	}
}
