package styles

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce collapses the bursts of events editors emit for one save.
const watchDebounce = 50 * time.Millisecond

// ThemeWatcher reloads a theme file whenever it changes on disk.
type ThemeWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(*ColorPalette, error)
}

// NewThemeWatcher watches path. onChange is called from the watcher's
// goroutine with the new palette, or with the error that made loading fail.
//
// The parent directory is watched rather than the file itself so that
// editors that save by renaming over the file keep being noticed.
func NewThemeWatcher(path string, onChange func(*ColorPalette, error)) (*ThemeWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}

	return &ThemeWatcher{
		path:     abs,
		watcher:  w,
		onChange: onChange,
	}, nil
}

// Run processes filesystem events until ctx is cancelled, then closes the
// underlying watcher.
func (tw *ThemeWatcher) Run(ctx context.Context) error {
	defer func() { _ = tw.watcher.Close() }()

	debounce := time.NewTimer(0)
	<-debounce.C
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-tw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != tw.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(watchDebounce)

		case <-debounce.C:
			theme, err := LoadThemeFile(tw.path)
			if err != nil {
				tw.onChange(nil, err)
				continue
			}
			tw.onChange(theme.ToPalette(), nil)

		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return nil
			}
			tw.onChange(nil, err)
		}
	}
}
