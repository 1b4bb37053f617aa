// Package fsutil holds the small filesystem helpers shared by the catalog
// and the setup flow.
package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Exists reports whether path exists. Permission errors count as present so
// callers never overwrite something they cannot inspect.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ListDirs returns the names of the subdirectories of root in lexicographic
// order. A missing root yields an empty result.
func ListDirs(root string) ([]string, error) {
	return listEntries(root, true)
}

// ListFiles returns the names of the regular files directly under root.
func ListFiles(root string) ([]string, error) {
	return listEntries(root, false)
}

func listEntries(root string, dirs bool) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() != dirs {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

func ReadText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteText writes content to path, creating parent directories as needed.
func WriteText(path, content string) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// writeString is swapped in tests to simulate a failing disk.
var writeString = (*os.File).WriteString

// WriteNew creates path and writes content, failing with fs.ErrExist when the
// file is already there. A failed write removes the partial file.
func WriteNew(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	_, err = writeString(f, content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}
