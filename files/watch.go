package files

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"github.com/pjxcog/mojap-metadata/internal/log"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultDebounce is how long a Watcher waits for changes to settle
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports changes to the metadata files beneath a set of paths.
//
// Directories are watched as they exist when the Watcher is created;
// directories created afterwards are not watched.
type Watcher struct {
	w        *fsnotify.Watcher
	explicit map[string]bool // files named explicitly, rather than found in a directory
	dirs     map[string]bool // directories being walked
	log      zerolog.Logger
}

// NewWatcher begins watching the given files and directories.
func NewWatcher(paths []string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "could not create file watcher")
	}

	w := &Watcher{
		w:        fw,
		explicit: make(map[string]bool),
		dirs:     make(map[string]bool),
		log:      log.WithComponent("watch"),
	}

	for _, path := range paths {
		if err := w.add(filepath.Clean(path)); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "cannot watch %s", path)
	}

	// Editors often replace files rather than writing them, so a file is
	// watched through its directory
	if !info.IsDir() {
		w.explicit[path] = true
		return w.watchDir(filepath.Dir(path), false)
	}

	return fsWalk(path, func(ospath string, e *godirwalk.Dirent) (bool, error) {
		if !e.IsDir() {
			return dontGoDeeper, nil
		}
		if ospath != path && strings.HasPrefix(e.Name(), ".") {
			return dontGoDeeper, nil
		}
		return goDeeper, w.watchDir(ospath, true)
	})
}

func (w *Watcher) watchDir(dir string, walked bool) error {
	if walked {
		w.dirs[dir] = true
	}
	if err := w.w.Add(dir); err != nil {
		return errors.Wrapf(err, "cannot watch %s", dir)
	}
	return nil
}

// relevant determines whether a change to the named file should be reported
func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	if w.explicit[name] {
		return true
	}
	return w.dirs[filepath.Dir(name)] && IsMetadataFile(name)
}

// Run reports changed files to f until the context is done.  Changes are
// batched: f is called once events have stopped arriving for the debounce
// interval, with the sorted names of every file changed in that time.
func (w *Watcher) Run(ctx context.Context, debounce time.Duration, f func(changed []string)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			w.log.Debug().
				Str("event", "watch.change").
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("metadata file changed")

			pending[filepath.Clean(event.Name)] = true
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)
			f(changed)

		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Str("event", "watch.error").Msg("file watcher error")
		}
	}
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.w.Close()
}
