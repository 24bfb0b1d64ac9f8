package fs

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change is a debounced file event for an included path.
type Change struct {
	Path    string
	Removed bool
}

// Watcher reports changes to included files under a root. fsnotify is not
// recursive, so every non-excluded directory is watched individually,
// including ones created later.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	walker   *Walker
	debounce time.Duration
}

func NewWatcher(root string, walker *Walker, debounce time.Duration) (*Watcher, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fsw: fsw, root: root, walker: walker, debounce: debounce}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, _ := filepath.Rel(w.root, path); rel != "." && w.walker.excluded(filepath.ToSlash(rel)+"/") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Run delivers batches of changes to handle until ctx is done. Events for
// the same path within the debounce window collapse into one Change.
func (w *Watcher) Run(ctx context.Context, handle func([]Change)) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						return err
					}
					continue
				}
			}
			rel, err := filepath.Rel(w.root, event.Name)
			if err != nil || !w.walker.Match(rel) {
				continue
			}
			switch {
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				pending[event.Name] = true
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				pending[event.Name] = false
			default:
				continue
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			changes := make([]Change, 0, len(pending))
			for path, removed := range pending {
				changes = append(changes, Change{Path: path, Removed: removed})
			}
			sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
			pending = make(map[string]bool)
			handle(changes)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}
