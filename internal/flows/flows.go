// Package flows declares the wizards behind the main menu. Each builder call
// returns a fresh wizard.Flow; any state shared between its steps lives in
// that call's closures and dies with the machine.
package flows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leetcli/internal/catalog"
	"leetcli/internal/runner"
	"leetcli/internal/state"
	"leetcli/internal/templates"
	"leetcli/internal/wizard"
)

type Name string

const (
	CreateProblem Name = "create_problem"
	Browse        Name = "browse"
	RunSolution   Name = "run_solution"
	Search        Name = "search"
	Setup         Name = "setup"
)

// Catalog is the slice of catalog.Repository the flows use.
type Catalog interface {
	ProblemsDir() string
	CategoriesDir() string
	Languages() *templates.Registry
	EnsureLayout() ([]string, error)
	ListProblems() ([]catalog.Problem, error)
	ProblemDir(id string) (string, error)
	GetProblemDetails(id string) (catalog.Details, error)
	ListCategories() ([]catalog.Category, error)
	CreateProblem(req catalog.NewProblem) (catalog.Created, error)
	CreateSolution(problemDir, language, filename string) (string, error)
	ListSolutions(problemDir string) ([]catalog.Solution, error)
	ReadSolution(path string) (string, error)
	Search(query string, limit int) ([]catalog.Match, error)
}

type Runner interface {
	Run(ctx context.Context, path string) (runner.Result, error)
	Probe() []runner.Tool
	Timeout() time.Duration
}

// History receives run records and the last opened problem. Failures are
// logged and never reach the user.
type History interface {
	RecordRun(ctx context.Context, run state.SolutionRun) error
	SaveSettings(ctx context.Context, values map[string]string) error
}

type Logger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

type Options struct {
	Catalog   Catalog
	Runner    Runner
	History   History
	Logger    Logger
	SessionID string
	// SearchLimit caps search results. Zero means 20.
	SearchLimit int
}

type Builder struct {
	catalog     Catalog
	runner      Runner
	history     History
	logger      Logger
	sessionID   string
	searchLimit int
}

func New(opts Options) *Builder {
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 20
	}
	return &Builder{
		catalog:     opts.Catalog,
		runner:      opts.Runner,
		history:     opts.History,
		logger:      opts.Logger,
		sessionID:   opts.SessionID,
		searchLimit: opts.SearchLimit,
	}
}

// Flow builds the named flow. Every call returns independent state.
func (b *Builder) Flow(name Name) (wizard.Flow, error) {
	switch name {
	case CreateProblem:
		return b.createProblem(), nil
	case Browse:
		return b.browse(modeBrowse, stepProblems), nil
	case RunSolution:
		return b.browse(modeRun, stepProblems), nil
	case Search:
		return b.browse(modeBrowse, stepSearchQuery), nil
	case Setup:
		return b.setup(), nil
	default:
		return wizard.Flow{}, fmt.Errorf("unknown flow %q", name)
	}
}

func (b *Builder) info(msg string, fields map[string]any) {
	if b.logger != nil {
		b.logger.Info(msg, fields)
	}
}

func (b *Builder) logError(msg string, err error, fields map[string]any) {
	if b.logger == nil {
		return
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields["err"] = err.Error()
	b.logger.Error(msg, fields)
}

func required(label string) func(string) error {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

// difficultyTone colours the usual labels in English and Portuguese.
func difficultyTone(d string) wizard.Tone {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "easy", "fácil", "facil":
		return wizard.ToneGood
	case "medium", "médio", "medio":
		return wizard.ToneWarn
	case "hard", "difícil", "dificil":
		return wizard.ToneBad
	default:
		return wizard.ToneNone
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
