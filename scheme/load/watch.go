package load

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/AlexeyBerezhnoy/mixer/scheme"

	"github.com/fsnotify/fsnotify"
)

// Watch loads the given documents into the registry and reloads each one
// when it changes on disk. Re-registering a scheme invalidates its cached
// descriptor, so later blends see the new definition. onReload, if not nil,
// is called after every reload attempt. Watch blocks until ctx is done.
func Watch(ctx context.Context, r *scheme.Registry, onReload func(names []string, err error), paths ...string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("load: watch: %w", err)
	}
	defer w.Close()
	files := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("load: watch: %w", err)
		}
		files[abs] = struct{}{}
		// Editors replace files on save; watch the directory to see the new one.
		dir := filepath.Dir(abs)
		if _, ok := dirs[dir]; !ok {
			if err := w.Add(dir); err != nil {
				return fmt.Errorf("load: watch %s: %w", dir, err)
			}
			dirs[dir] = struct{}{}
		}
	}
	for path := range files {
		doc, err := File(path)
		if err != nil {
			return err
		}
		doc.Register(r)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			path, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			if _, ok := files[path]; !ok {
				continue
			}
			doc, err := File(path)
			var names []string
			if err == nil {
				names = doc.Register(r)
			}
			if onReload != nil {
				onReload(names, err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if onReload != nil {
				onReload(nil, fmt.Errorf("load: watch: %w", err))
			}
		}
	}
}
