package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pinkpixel/gumdrop/export"
)

// dirFiles is the file-system persistence for the dispatcher. Files live
// in one directory; next names the file the following open or save_as
// uses, as a file dialog would.
type dirFiles struct {
	dir  string
	next string
}

func (f *dirFiles) path(name string) string {
	return filepath.Join(f.dir, filepath.Base(name))
}

func (f *dirFiles) take(fallback string) string {
	name := f.next
	f.next = ""
	if name == "" {
		name = fallback
	}
	return name
}

func (f *dirFiles) Open(context.Context) (string, []byte, error) {
	name := f.take("")
	if name == "" {
		return "", nil, errors.New("open: no file name given")
	}
	data, err := os.ReadFile(f.path(name))
	if err != nil {
		return "", nil, err
	}
	return name, data, nil
}

func (f *dirFiles) Save(_ context.Context, name string, data []byte) error {
	return writeFile(f.path(name), data)
}

func (f *dirFiles) SaveAs(_ context.Context, suggested string, data []byte) (string, error) {
	name := f.take(suggested)
	if filepath.Ext(name) == "" {
		name += export.JSON.Extension()
	}
	return name, writeFile(f.path(name), data)
}

func (f *dirFiles) Export(_ context.Context, suggested string, _ export.Format, data []byte) error {
	return writeFile(f.path(f.take(suggested)), data)
}

// writeFile replaces path atomically.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".gumdrop-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// fileBackend keeps the project store in one JSON file.
type fileBackend struct {
	path string
}

func (b fileBackend) Get(context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (b fileBackend) Set(_ context.Context, data []byte) error {
	return writeFile(b.path, data)
}
