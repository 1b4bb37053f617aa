package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"leetcli/internal/fsutil"
)

const unknownLanguage = "Other"

// CreateSolution writes a new solution file for language under
// problemDir/<language>/. The directory is created first, then the target
// is checked, then the template is written; an existing file is never
// replaced.
func (r *Repository) CreateSolution(problemDir, language, filename string) (string, error) {
	lang, ok := r.langs.Lookup(language)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return "", fmt.Errorf("file name is required: %w", ErrInvalidInput)
	}
	if unsafeName(filename) {
		return "", fmt.Errorf("file name %q: %w", filename, ErrInvalidInput)
	}
	if err := dirExists(problemDir); err != nil {
		return "", err
	}

	langDir := filepath.Join(problemDir, lang.ID)
	if err := fsutil.EnsureDir(langDir); err != nil {
		return "", fmt.Errorf("create %s: %w: %v", langDir, ErrWrite, err)
	}
	if !strings.HasSuffix(filename, lang.Extension) {
		filename += lang.Extension
	}
	path := filepath.Join(langDir, filename)
	if fsutil.Exists(path) {
		return "", fmt.Errorf("%w: %s", ErrDuplicateFile, filename)
	}
	if err := fsutil.WriteNew(path, lang.Template); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrDuplicateFile, filename)
		}
		return "", fmt.Errorf("write %s: %w: %v", path, ErrWrite, err)
	}
	return path, nil
}

// ListSolutions returns the files at the top of problemDir (except the
// README) and the files one level down in each subdirectory, ordered by
// language.
func (r *Repository) ListSolutions(problemDir string) ([]Solution, error) {
	if err := dirExists(problemDir); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(problemDir)
	if err != nil {
		return nil, fmt.Errorf("list solutions: %w", err)
	}

	var out []Solution
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !e.IsDir() {
			if strings.EqualFold(name, SidecarName) {
				continue
			}
			out = append(out, r.solution(filepath.Join(problemDir, name), name, unknownLanguage))
			continue
		}
		sub := filepath.Join(problemDir, name)
		files, err := fsutil.ListFiles(sub)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", sub, err)
		}
		for _, f := range files {
			if strings.HasPrefix(f, ".") {
				continue
			}
			out = append(out, r.solution(filepath.Join(sub, f), name+"/"+f, name))
		}
	}

	coll := newCollator()
	sort.SliceStable(out, func(i, j int) bool {
		return coll.CompareString(out[i].Language, out[j].Language) < 0
	})
	return out, nil
}

func (r *Repository) solution(path, display, fallback string) Solution {
	ext := strings.ToLower(filepath.Ext(path))
	s := Solution{
		Language:  fallback,
		Path:      path,
		Filename:  display,
		Extension: ext,
	}
	if name := r.langs.DisplayName(ext); name != "" {
		s.Language = name
	}
	if info, err := os.Stat(path); err == nil {
		s.Size = info.Size()
		s.ModTime = info.ModTime()
	}
	return s
}

// ReadSolution returns the source text of a solution file.
func (r *Repository) ReadSolution(path string) (string, error) {
	text, err := fsutil.ReadText(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return text, nil
}
