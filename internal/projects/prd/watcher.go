package prd

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/domain"
)

const debounceDelay = 200 * time.Millisecond

// Watcher reports changes to the PRD status files of tracked projects.
// Parent directories are watched because editors usually replace files
// rather than write them in place.
type Watcher struct {
	fs       *fsnotify.Watcher
	onChange func(projectID string)

	mu     sync.Mutex
	files  map[string]string // absolute status path -> project id
	timers map[string]*time.Timer
	done   chan struct{}
}

func NewWatcher(onChange func(projectID string)) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fs:       fs,
		onChange: onChange,
		files:    map[string]string{},
		timers:   map[string]*time.Timer{},
		done:     make(chan struct{}),
	}, nil
}

// Track starts watching the status files of every project that has one.
// It returns the number of files being watched.
func (w *Watcher) Track(projects []domain.Project) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, p := range projects {
		if p.Path == "" || p.PRDStatusPath == "" {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(p.Path, p.PRDStatusPath))
		if err != nil {
			continue
		}
		if _, ok := w.files[abs]; ok {
			continue
		}
		if err := w.fs.Add(filepath.Dir(abs)); err != nil {
			log.Printf("[prd] watch %s: %v", abs, err)
			continue
		}
		w.files[abs] = p.ID
	}
	return len(w.files)
}

// Run processes filesystem events until Close is called.
func (w *Watcher) Run() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(event.Name)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Printf("[prd] watcher error: %v", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) schedule(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	projectID, ok := w.files[abs]
	if !ok {
		return
	}
	if t := w.timers[abs]; t != nil {
		t.Stop()
	}
	w.timers[abs] = time.AfterFunc(debounceDelay, func() {
		w.onChange(projectID)
	})
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.mu.Unlock()

	select {
	case <-w.done:
	default:
		close(w.done)
	}
	return w.fs.Close()
}
