package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"leetcli/internal/fsutil"
	"leetcli/internal/templates"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var problemDirPattern = regexp.MustCompile(`^(\d+)-(.+)$`)

// Repository reads and writes the problems/ and categories/ trees.
type Repository struct {
	problemsDir   string
	categoriesDir string
	langs         *templates.Registry
	writeNew      func(path, content string) error
}

func NewRepository(problemsDir, categoriesDir string, langs *templates.Registry) *Repository {
	if langs == nil {
		langs = templates.Default()
	}
	return &Repository{
		problemsDir:   problemsDir,
		categoriesDir: categoriesDir,
		langs:         langs,
		writeNew:      fsutil.WriteNew,
	}
}

func (r *Repository) ProblemsDir() string   { return r.problemsDir }
func (r *Repository) CategoriesDir() string { return r.categoriesDir }
func (r *Repository) Languages() *templates.Registry {
	return r.langs
}

// EnsureLayout creates the problems and categories roots and returns the
// ones that did not exist before.
func (r *Repository) EnsureLayout() ([]string, error) {
	var created []string
	for _, dir := range []string{r.problemsDir, r.categoriesDir} {
		if fsutil.IsDir(dir) {
			continue
		}
		if err := fsutil.EnsureDir(dir); err != nil {
			return created, fmt.Errorf("create %s: %w: %v", dir, ErrWrite, err)
		}
		created = append(created, dir)
	}
	return created, nil
}

// ListProblems scans the problems root. A missing root is an empty catalog.
// Problems sort by numeric id; non-numeric ids count as 0 and the sort is
// stable over the lexicographic directory order.
func (r *Repository) ListProblems() ([]Problem, error) {
	names, err := fsutil.ListDirs(r.problemsDir)
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	problems := make([]Problem, 0, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			continue
		}
		p := problemFromDir(r.problemsDir, name)
		if text, err := fsutil.ReadText(filepath.Join(p.Dir, SidecarName)); err == nil {
			p.Categories = ParseSidecar(text).Categories
		}
		problems = append(problems, p)
	}
	sort.SliceStable(problems, func(i, j int) bool { return problems[i].Number() < problems[j].Number() })
	return problems, nil
}

func problemFromDir(root, name string) Problem {
	p := Problem{ID: name, Title: name, Dir: filepath.Join(root, name), DirName: name}
	if m := problemDirPattern.FindStringSubmatch(name); m != nil {
		p.ID = m[1]
		p.Title = strings.ReplaceAll(m[2], "-", " ")
	}
	return p
}

// GetProblemDetails resolves id to its directory and parses its README.
// Unlike listing, a missing root, directory or README is an error.
// When several directories match, the lexicographically first wins.
func (r *Repository) GetProblemDetails(id string) (Details, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Details{}, fmt.Errorf("problem id is empty: %w", ErrInvalidInput)
	}
	if !fsutil.IsDir(r.problemsDir) {
		return Details{}, fmt.Errorf("problems directory %s: %w", r.problemsDir, ErrNotFound)
	}
	name, err := r.findProblemDir(id)
	if err != nil {
		return Details{}, err
	}
	p := problemFromDir(r.problemsDir, name)
	sidecarPath := filepath.Join(p.Dir, SidecarName)
	text, err := fsutil.ReadText(sidecarPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Details{}, fmt.Errorf("%s for problem %s: %w", SidecarName, id, ErrNotFound)
		}
		return Details{}, fmt.Errorf("read %s: %w", sidecarPath, err)
	}
	s := ParseSidecar(text)
	p.Categories = s.Categories
	if s.Title != "" {
		p.Title = s.Title
	} else {
		p.Title = "Problem " + id
	}
	d := Details{
		Problem:     p,
		Difficulty:  s.Difficulty,
		Languages:   s.Languages,
		Description: s.Description,
		SidecarPath: sidecarPath,
	}
	if d.Description == "" {
		d.Description = DefaultDescription
	}
	return d, nil
}

// ProblemDir resolves id to its directory without reading the README, so it
// also works for problems that have none. Besides the id rules it accepts an
// exact directory name, which is the id of a directory without a number.
func (r *Repository) ProblemDir(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("problem id is empty: %w", ErrInvalidInput)
	}
	if !unsafeName(id) && fsutil.IsDir(filepath.Join(r.problemsDir, id)) {
		return filepath.Join(r.problemsDir, id), nil
	}
	name, err := r.findProblemDir(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(r.problemsDir, name), nil
}

func (r *Repository) findProblemDir(id string) (string, error) {
	names, err := fsutil.ListDirs(r.problemsDir)
	if err != nil {
		return "", fmt.Errorf("list problems: %w", err)
	}
	for _, name := range names {
		if matchesID(name, id) {
			return name, nil
		}
	}
	return "", fmt.Errorf("problem %s: %w", id, ErrNotFound)
}

// matchesID accepts "<id>-..." directly, and also a padded or unpadded
// variant of a numeric id so "7" finds "0007-Two Sum".
func matchesID(dirName, id string) bool {
	if strings.HasPrefix(dirName, id+"-") {
		return true
	}
	if !isDigits(id) {
		return false
	}
	m := problemDirPattern.FindStringSubmatch(dirName)
	return m != nil && trimZeros(m[1]) == trimZeros(id)
}

func trimZeros(id string) string {
	if t := strings.TrimLeft(id, "0"); t != "" {
		return t
	}
	return "0"
}

// ListCategories enumerates the category directories, sorted by display name.
func (r *Repository) ListCategories() ([]Category, error) {
	names, err := fsutil.ListDirs(r.categoriesDir)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]Category, 0, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			continue
		}
		out = append(out, Category{Name: name, DisplayName: humanize(name)})
	}
	coll := newCollator()
	sort.SliceStable(out, func(i, j int) bool {
		return coll.CompareString(out[i].DisplayName, out[j].DisplayName) < 0
	})
	return out, nil
}

// FilterByCategory keeps the problems tagged with category. An empty
// category is no filter and returns problems unchanged.
func FilterByCategory(problems []Problem, category string) []Problem {
	if category == "" {
		return problems
	}
	out := make([]Problem, 0, len(problems))
	for _, p := range problems {
		if p.HasCategory(category) {
			out = append(out, p)
		}
	}
	return out
}

// CreateProblem lays out problems/<padded>-<title>/<language>/ with a README
// and an empty solution stub.
func (r *Repository) CreateProblem(req NewProblem) (Created, error) {
	id := strings.TrimSpace(req.ID)
	if !isDigits(id) {
		return Created{}, fmt.Errorf("problem id %q must be numeric: %w", req.ID, ErrInvalidInput)
	}
	id = trimZeros(id)
	lang, ok := r.langs.Lookup(req.Language)
	if !ok {
		return Created{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, req.Language)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Problem-" + id
	}
	if unsafeName(title) {
		return Created{}, fmt.Errorf("title %q: %w", title, ErrInvalidInput)
	}
	category := strings.TrimSpace(req.Category)
	if category != "" && unsafeName(category) {
		return Created{}, fmt.Errorf("category %q: %w", category, ErrInvalidInput)
	}

	existing, err := fsutil.ListDirs(r.problemsDir)
	if err != nil {
		return Created{}, fmt.Errorf("list problems: %w", err)
	}
	for _, name := range existing {
		if matchesID(name, id) {
			return Created{}, fmt.Errorf("%s is taken by %s: %w", id, name, ErrDuplicateProblem)
		}
	}

	dir := filepath.Join(r.problemsDir, padID(id)+"-"+title)
	if err := fsutil.EnsureDir(filepath.Join(dir, lang.ID)); err != nil {
		_ = os.RemoveAll(dir)
		return Created{}, fmt.Errorf("create %s: %w: %v", dir, ErrWrite, err)
	}

	sidecar := Sidecar{
		HeadingID:   id,
		Title:       title,
		Difficulty:  strings.TrimSpace(req.Difficulty),
		Languages:   []string{lang.ID},
		Description: strings.TrimSpace(req.Description),
	}
	if category != "" {
		sidecar.Categories = []string{category}
	}
	created := Created{
		Dir:     dir,
		Sidecar: filepath.Join(dir, SidecarName),
		Stub:    filepath.Join(dir, lang.ID, "solution"+lang.Extension),
	}
	// A half-written problem would hold its number, so drop it on failure.
	if err := r.writeNew(created.Sidecar, FormatSidecar(sidecar)); err != nil {
		_ = os.RemoveAll(dir)
		return Created{}, fmt.Errorf("write %s: %w: %v", created.Sidecar, ErrWrite, err)
	}
	if err := r.writeNew(created.Stub, ""); err != nil {
		_ = os.RemoveAll(dir)
		return Created{}, fmt.Errorf("write %s: %w: %v", created.Stub, ErrWrite, err)
	}
	return created, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func unsafeName(s string) bool {
	return strings.ContainsAny(s, `/\`) || strings.Contains(s, "..") || strings.HasPrefix(s, ".")
}

func newCollator() *collate.Collator {
	return collate.New(language.Und, collate.IgnoreCase)
}

// dirExists reports whether dir is present, wrapping ErrNotFound otherwise.
func dirExists(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", dir, ErrNotFound)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %w", dir, ErrNotFound)
	}
	return nil
}
