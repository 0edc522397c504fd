package logging

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Follow streams entries appended to the log file at path, calling emit for
// each one that passes f, until ctx is done. Entries already in the file are
// skipped. When the file is rotated away and recreated, following continues
// from the start of the new file. The file need not exist yet.
func Follow(ctx context.Context, path string, f Filter, emit func(Entry)) error {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Rotation replaces the file, so watch its directory instead.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	t := &tailer{path: path, filter: f, emit: emit}
	defer t.close()
	if err := t.open(io.SeekEnd); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			switch {
			case event.Has(fsnotify.Create):
				t.close()
				if err := t.open(io.SeekStart); err != nil && !errors.Is(err, os.ErrNotExist) {
					return err
				}
				t.drain()
			case event.Has(fsnotify.Write):
				if t.file == nil {
					if err := t.open(io.SeekStart); err != nil {
						continue
					}
				}
				t.drain()
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				t.drain()
				t.close()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
}

// tailer reads complete lines from the end of a growing file.
type tailer struct {
	path    string
	filter  Filter
	emit    func(Entry)
	file    *os.File
	reader  *bufio.Reader
	partial string
}

func (t *tailer) open(whence int) error {
	file, err := os.Open(t.path)
	if err != nil {
		return err
	}
	if _, err := file.Seek(0, whence); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to seek %s: %w", t.path, err)
	}
	t.file = file
	t.reader = bufio.NewReader(file)
	t.partial = ""
	return nil
}

func (t *tailer) close() {
	if t.file != nil {
		_ = t.file.Close()
	}
	t.file = nil
	t.reader = nil
	t.partial = ""
}

// drain emits every complete line written since the last call. A trailing
// line without its newline is held until the rest arrives.
func (t *tailer) drain() {
	if t.reader == nil {
		return
	}
	for {
		chunk, err := t.reader.ReadString('\n')
		t.partial += chunk
		if err != nil {
			return
		}
		line := strings.TrimSpace(t.partial)
		t.partial = ""
		if line == "" {
			continue
		}
		e, perr := ParseEntry(line)
		if perr != nil || !t.filter.Match(e) {
			continue
		}
		t.emit(e)
	}
}
