package shader

import (
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/ggedit/internal/gpucore"
)

// DefaultReloadDebounce is the default debounce interval for shader edits.
const DefaultReloadDebounce = 200 * time.Millisecond

// Watcher monitors custom effect files and collects the names of effects
// whose source changed. It never touches the device: the render goroutine
// drains [Watcher.Pending] and recompiles through [Library.Reload].
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	files    map[string]string // absolute path -> effect name

	mu      sync.Mutex
	pending map[string]bool
	running bool

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewWatcher watches the given effect files (name -> path).
// Directories are watched instead of files so that editors which save by
// renaming are still seen.
func NewWatcher(files map[string]string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultReloadDebounce
	}

	w := &Watcher{
		watcher:   fw,
		debounce:  debounce,
		files:     make(map[string]string, len(files)),
		pending:   make(map[string]bool),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	dirs := make(map[string]bool)
	for name, path := range files {
		abs, err := filepath.Abs(path)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[abs] = name
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Start begins watching in a goroutine.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.loop()
}

// Stop stops watching and waits for the goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		w.watcher.Close()
		return
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.stoppedCh
}

// Pending returns and clears the names of changed effects, sorted.
func (w *Watcher) Pending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	names := make([]string, 0, len(w.pending))
	for n := range w.pending {
		names = append(names, n)
	}
	clear(w.pending)
	sort.Strings(names)
	return names
}

// mark records a change for the file at path, if it is watched.
func (w *Watcher) mark(path string) bool {
	abs, _ := filepath.Abs(path)
	name, ok := w.files[abs]
	if !ok {
		return false
	}
	w.mu.Lock()
	w.pending[name] = true
	w.mu.Unlock()
	return true
}

func (w *Watcher) loop() {
	defer close(w.stoppedCh)
	defer w.watcher.Close()

	changed := make(map[string]bool)
	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			changed[event.Name] = true

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.debounce)
			debounceCh = debounceTimer.C

		case <-debounceCh:
			for path := range changed {
				if w.mark(path) {
					gpucore.Logger().Debug("shader: effect source changed", "path", path)
				}
			}
			clear(changed)
			debounceTimer = nil
			debounceCh = nil

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			gpucore.Logger().Warn("shader: watch error", "err", err)
		}
	}
}

// ReloadPending recompiles every effect the watcher reports as changed.
// It must run on the render goroutine. Failed reloads keep the previous
// program and are reported once through Diagnostics.
func (l *Library) ReloadPending(w *Watcher) []string {
	if w == nil {
		return nil
	}
	var reloaded []string
	for _, name := range w.Pending() {
		if err := l.Reload(name); err == nil {
			reloaded = append(reloaded, name)
		}
	}
	return reloaded
}
