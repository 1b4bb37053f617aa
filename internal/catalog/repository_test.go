package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"leetcli/internal/fsutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*Repository, string) {
	t.Helper()
	root := t.TempDir()
	return NewRepository(filepath.Join(root, "problems"), filepath.Join(root, "categories"), nil), root
}

func mkdirs(t *testing.T, base string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.MkdirAll(filepath.Join(base, n), 0o755))
	}
}

func TestListProblemsMissingRootIsEmpty(t *testing.T) {
	repo, _ := newTestRepo(t)
	got, err := repo.ListProblems()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListProblemsSortsNonNumericIDsFirst(t *testing.T) {
	repo, _ := newTestRepo(t)
	mkdirs(t, repo.ProblemsDir(), "0010-b", "2-a", "weird-name")

	got, err := repo.ListProblems()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "weird-name", got[0].ID)
	assert.Equal(t, "weird-name", got[0].Title)
	assert.Equal(t, "2", got[1].ID)
	assert.Equal(t, "a", got[1].Title)
	assert.Equal(t, "0010", got[2].ID)
	assert.Equal(t, 10, got[2].Number())
	assert.Equal(t, "0002", got[1].DisplayID())
}

func TestListProblemsReadsCategoriesAndTitleFromDirName(t *testing.T) {
	repo, _ := newTestRepo(t)
	dir := filepath.Join(repo.ProblemsDir(), "0001-two-sum")
	require.NoError(t, fsutil.WriteText(filepath.Join(dir, SidecarName), "# 1. Two Sum\nCategorias: [arrays, hash-table]\n"))

	got, err := repo.ListProblems()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "two sum", got[0].Title)
	assert.Equal(t, []string{"arrays", "hash-table"}, got[0].Categories)
}

func TestCreateProblemEndToEnd(t *testing.T) {
	repo, _ := newTestRepo(t)
	created, err := repo.CreateProblem(NewProblem{ID: "7", Title: "Two Sum", Category: "arrays", Language: "python"})
	require.NoError(t, err)

	dir := filepath.Join(repo.ProblemsDir(), "0007-Two Sum")
	assert.Equal(t, dir, created.Dir)
	assert.True(t, fsutil.IsDir(filepath.Join(dir, "python")))
	assert.FileExists(t, filepath.Join(dir, "python", "solution.py"))

	text, err := fsutil.ReadText(filepath.Join(dir, SidecarName))
	require.NoError(t, err)
	assert.Contains(t, text, "# 7. Two Sum\n")

	stub, err := fsutil.ReadText(created.Stub)
	require.NoError(t, err)
	assert.Empty(t, stub)
}

func TestCreateProblemThenDetailsRoundTrips(t *testing.T) {
	cases := []NewProblem{
		{ID: "7", Title: "Two Sum", Category: "arrays", Language: "python"},
		{ID: "42", Title: "Trapping Rain Water", Category: "two-pointers", Language: "go"},
		{ID: "1234", Title: "Edge", Category: "graphs", Language: "csharp"},
	}
	for _, tc := range cases {
		t.Run(tc.ID, func(t *testing.T) {
			repo, _ := newTestRepo(t)
			_, err := repo.CreateProblem(tc)
			require.NoError(t, err)

			d, err := repo.GetProblemDetails(tc.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.Title, d.Title)
			assert.Equal(t, []string{tc.Category}, d.Categories)
			assert.Equal(t, []string{tc.Language}, d.Languages)
			assert.Equal(t, DefaultDescription, d.Description)
		})
	}
}

func TestCreateProblemDefaultsTitleAndUsesFullExtensionTable(t *testing.T) {
	repo, _ := newTestRepo(t)
	created, err := repo.CreateProblem(NewProblem{ID: "3", Language: "ruby"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(repo.ProblemsDir(), "0003-Problem-3"), created.Dir)
	assert.Equal(t, filepath.Join(created.Dir, "ruby", "solution.rb"), created.Stub)
}

func TestCreateProblemRejectsBadInput(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.CreateProblem(NewProblem{ID: "abc", Title: "x", Language: "python"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = repo.CreateProblem(NewProblem{ID: "1", Title: "../escape", Language: "python"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = repo.CreateProblem(NewProblem{ID: "1", Title: "x", Language: "cobol"})
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestCreateProblemRejectsDuplicateID(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.CreateProblem(NewProblem{ID: "7", Title: "Two Sum", Language: "python"})
	require.NoError(t, err)

	_, err = repo.CreateProblem(NewProblem{ID: "0007", Title: "Other", Language: "python"})
	assert.ErrorIs(t, err, ErrDuplicateProblem)
}

func TestGetProblemDetailsErrors(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.GetProblemDetails("1")
	assert.ErrorIs(t, err, ErrNotFound, "missing root")

	mkdirs(t, repo.ProblemsDir(), "0001-no-readme")
	_, err = repo.GetProblemDetails("2")
	assert.ErrorIs(t, err, ErrNotFound, "missing directory")

	_, err = repo.GetProblemDetails("1")
	assert.ErrorIs(t, err, ErrNotFound, "missing readme")
}

func TestGetProblemDetailsTieBreakIsLexicographic(t *testing.T) {
	repo, _ := newTestRepo(t)
	require.NoError(t, fsutil.WriteText(filepath.Join(repo.ProblemsDir(), "5-zeta", SidecarName), "# 5. Zeta\n"))
	require.NoError(t, fsutil.WriteText(filepath.Join(repo.ProblemsDir(), "5-alpha", SidecarName), "# 5. Alpha\n"))

	d, err := repo.GetProblemDetails("5")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", d.Title)
	assert.Equal(t, "5-alpha", d.DirName)
}

func TestGetProblemDetailsParsesSidecar(t *testing.T) {
	repo, _ := newTestRepo(t)
	readme := "# 1. Two Sum\n\nDificuldade: Fácil\nCategorias: [arrays]\nLinguagens: [python, go]\n\n## Descrição\n\nFind two numbers.\n\n## Notas\nignored\n"
	require.NoError(t, fsutil.WriteText(filepath.Join(repo.ProblemsDir(), "0001-two-sum", SidecarName), readme))

	d, err := repo.GetProblemDetails("0001")
	require.NoError(t, err)
	assert.Equal(t, "Two Sum", d.Title)
	assert.Equal(t, "Fácil", d.Difficulty)
	assert.Equal(t, []string{"python", "go"}, d.Languages)
	assert.Equal(t, "Find two numbers.", d.Description)
}

func TestListCategoriesSortedByDisplayName(t *testing.T) {
	repo, _ := newTestRepo(t)
	got, err := repo.ListCategories()
	require.NoError(t, err)
	assert.Empty(t, got)

	mkdirs(t, repo.CategoriesDir(), "two-pointers", "arrays", "Backtracking", "dynamic-programming")
	got, err = repo.ListCategories()
	require.NoError(t, err)
	names := make([]string, len(got))
	for i, c := range got {
		names[i] = c.DisplayName
	}
	assert.Equal(t, []string{"Arrays", "Backtracking", "Dynamic Programming", "Two Pointers"}, names)
	assert.Equal(t, "two-pointers", got[3].Name)
}

func TestFilterByCategory(t *testing.T) {
	problems := []Problem{
		{ID: "1", Categories: []string{"arrays"}},
		{ID: "2", Categories: []string{"graphs"}},
		{ID: "3", Categories: []string{"arrays", "graphs"}},
	}
	same := FilterByCategory(problems, "")
	require.Len(t, same, len(problems))
	assert.Same(t, &problems[0], &same[0])

	got := FilterByCategory(problems, "graphs")
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	assert.Empty(t, FilterByCategory(problems, "trees"))
}

func TestCreateSolutionRefusesDuplicates(t *testing.T) {
	repo, _ := newTestRepo(t)
	created, err := repo.CreateProblem(NewProblem{ID: "1", Title: "Two Sum", Language: "python"})
	require.NoError(t, err)

	path, err := repo.CreateSolution(created.Dir, "go", "fast")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(created.Dir, "go", "fast.go"), path)
	body, err := repo.ReadSolution(path)
	require.NoError(t, err)
	assert.Contains(t, body, "package main")

	_, err = repo.CreateSolution(created.Dir, "go", "fast")
	assert.ErrorIs(t, err, ErrDuplicateFile)
	_, err = repo.CreateSolution(created.Dir, "go", "fast.go")
	assert.ErrorIs(t, err, ErrDuplicateFile)

	// The stub written by CreateProblem is also protected.
	_, err = repo.CreateSolution(created.Dir, "python", "solution.py")
	assert.ErrorIs(t, err, ErrDuplicateFile)
}

func TestCreateSolutionValidation(t *testing.T) {
	repo, _ := newTestRepo(t)
	dir := filepath.Join(repo.ProblemsDir(), "0001-x")
	mkdirs(t, dir)

	_, err := repo.CreateSolution(dir, "kotlin", "a")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	_, err = repo.CreateSolution(dir, "go", "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = repo.CreateSolution(filepath.Join(repo.ProblemsDir(), "missing"), "go", "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSolutionsFlatAndNested(t *testing.T) {
	repo, _ := newTestRepo(t)
	dir := filepath.Join(repo.ProblemsDir(), "0001-two-sum")
	require.NoError(t, fsutil.WriteText(filepath.Join(dir, SidecarName), "# 1. Two Sum\n"))
	require.NoError(t, fsutil.WriteText(filepath.Join(dir, "main.py"), "print(1)\n"))
	require.NoError(t, fsutil.WriteText(filepath.Join(dir, "go", "solution.go"), "package main\n"))
	require.NoError(t, fsutil.WriteText(filepath.Join(dir, "scratch", "notes.txt"), "x"))
	require.NoError(t, fsutil.WriteText(filepath.Join(dir, ".DS_Store"), "x"))

	got, err := repo.ListSolutions(dir)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Go", got[0].Language)
	assert.Equal(t, "go/solution.go", got[0].Filename)
	assert.Equal(t, "Python", got[1].Language)
	assert.Equal(t, "main.py", got[1].Filename)
	assert.Equal(t, "scratch", got[2].Language)
	assert.Equal(t, ".txt", got[2].Extension)
	assert.EqualValues(t, len("print(1)\n"), got[1].Size)

	_, err = repo.ListSolutions(filepath.Join(repo.ProblemsDir(), "nope"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureLayoutCreatesRootsOnce(t *testing.T) {
	repo, _ := newTestRepo(t)
	created, err := repo.EnsureLayout()
	require.NoError(t, err)
	assert.Len(t, created, 2)

	created, err = repo.EnsureLayout()
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestProblemDirWorksWithoutReadme(t *testing.T) {
	repo, root := newTestRepo(t)
	mkdirs(t, filepath.Join(root, "problems"), "0042-Trap")

	dir, err := repo.ProblemDir("42")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "problems", "0042-Trap"), dir)

	_, err = repo.GetProblemDetails("42")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.ProblemDir("43")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.ProblemDir(" ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestProblemDirResolvesUnnumberedDirectory(t *testing.T) {
	repo, root := newTestRepo(t)
	mkdirs(t, filepath.Join(root, "problems"), "weird-name", "0001-Two Sum")

	problems, err := repo.ListProblems()
	require.NoError(t, err)
	require.Equal(t, "weird-name", problems[0].ID)

	dir, err := repo.ProblemDir(problems[0].ID)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "problems", "weird-name"), dir)

	dir, err = repo.ProblemDir("0001-Two Sum")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "problems", "0001-Two Sum"), dir)

	_, err = repo.ProblemDir("..")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateProblemRemovesDirectoryWhenWriteFails(t *testing.T) {
	for _, failing := range []string{SidecarName, "solution.py"} {
		t.Run(failing, func(t *testing.T) {
			repo, _ := newTestRepo(t)
			repo.writeNew = func(path, content string) error {
				if filepath.Base(path) == failing {
					return errors.New("disk full")
				}
				return fsutil.WriteNew(path, content)
			}

			_, err := repo.CreateProblem(NewProblem{ID: "7", Title: "Two Sum", Language: "python"})
			require.ErrorIs(t, err, ErrWrite)
			assert.NoDirExists(t, filepath.Join(repo.ProblemsDir(), "0007-Two Sum"))

			repo.writeNew = fsutil.WriteNew
			created, err := repo.CreateProblem(NewProblem{ID: "7", Title: "Two Sum", Language: "python"})
			require.NoError(t, err)
			assert.FileExists(t, created.Stub)
		})
	}
}
