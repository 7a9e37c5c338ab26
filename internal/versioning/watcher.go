package versioning

import (
	"context"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher watches .git/HEAD for out-of-band branch changes, adapted
// from the teacher's internal/vcs/watcher.go: branch changes here are
// reported to the onBranchChange callback rather than published onto
// an event bus.
type Watcher struct {
	watcher       *fsnotify.Watcher
	workDir       string
	currentBranch string
	onBranchChange func(oldBranch, newBranch string)
	stopCh        chan struct{}
	doneCh        chan struct{}
	started       bool
	mu            sync.RWMutex
}

// NewWatcher creates a watcher for workDir. Returns (nil, nil) if the
// directory is not a git repository.
func NewWatcher(ctx context.Context, workDir string, onBranchChange func(oldBranch, newBranch string)) (*Watcher, error) {
	if !IsRepo(ctx, workDir) {
		return nil, nil
	}

	gitDir, err := gitDirFor(ctx, workDir)
	if err != nil || gitDir == "" {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(gitDir); err != nil {
		fw.Close()
		return nil, err
	}

	branch, _ := CurrentBranch(ctx, workDir)

	return &Watcher{
		watcher:        fw,
		workDir:        workDir,
		currentBranch:  branch,
		onBranchChange: onBranchChange,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}, nil
}

// Start begins watching for branch changes in the background.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 && strings.Contains(ev.Name, "HEAD") {
				w.checkBranchChange()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("versioning watcher error")
		}
	}
}

func (w *Watcher) checkBranchChange() {
	newBranch, err := CurrentBranch(context.Background(), w.workDir)
	if err != nil {
		return
	}

	w.mu.Lock()
	oldBranch := w.currentBranch
	changed := newBranch != oldBranch
	if changed {
		w.currentBranch = newBranch
	}
	w.mu.Unlock()

	if changed && w.onBranchChange != nil {
		w.onBranchChange(oldBranch, newBranch)
	}
}

// CurrentBranch returns the last observed branch name.
func (w *Watcher) CurrentBranch() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.currentBranch
}

// Stop stops the watcher and releases its resources.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()

	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}

	if started {
		<-w.doneCh
	}
	return w.watcher.Close()
}

func gitDirFor(ctx context.Context, workDir string) (string, error) {
	r := run(ctx, workDir, "rev-parse", "--git-dir")
	if !r.ok() {
		return "", nil
	}
	dir := strings.TrimSpace(r.output)
	if !strings.HasPrefix(dir, "/") {
		dir = workDir + "/" + dir
	}
	return dir, nil
}
