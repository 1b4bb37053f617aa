package flows

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"leetcli/internal/catalog"
	"leetcli/internal/runner"
	"leetcli/internal/state"
	"leetcli/internal/wizard"

	"github.com/dustin/go-humanize"
)

const (
	modeBrowse = "browse"
	modeRun    = "run"
)

const (
	stepProblems         wizard.StepID = "problems"
	stepCategory         wizard.StepID = "category"
	stepDetails          wizard.StepID = "details"
	stepSolutions        wizard.StepID = "solutions"
	stepContent          wizard.StepID = "content"
	stepRun              wizard.StepID = "run"
	stepOutput           wizard.StepID = "output"
	stepRunError         wizard.StepID = "run.error"
	stepSolutionLanguage wizard.StepID = "solution.language"
	stepSolutionFilename wizard.StepID = "solution.filename"
	stepSolutionCreate   wizard.StepID = "solution.create"
	stepSolutionDone     wizard.StepID = "solution.done"
	stepSolutionError    wizard.StepID = "solution.error"
	stepSearchQuery      wizard.StepID = "search.query"
	stepSearchResults    wizard.StepID = "search.results"
)

const (
	fieldMode     = "mode"
	fieldFilter   = "filter"
	fieldProblem  = "problem"
	fieldSolution = "solution"
	fieldFilename = "filename"
	fieldQuery    = "query"
	fieldOutput   = "output"
	fieldAction   = "action"
)

// Option values that are not problems or files. Ids and paths never start
// with '@'.
const (
	optFilter    = "@filter"
	optBack      = "@back"
	optLeave     = "@leave"
	optSolutions = "@solutions"
	optCreate    = "@create"
	optRun       = "@run"
	optQuery     = "@query"
)

// OpenProblem starts the browse flow on one problem's details.
func (b *Builder) OpenProblem(id string) wizard.Flow {
	f := b.browse(modeBrowse, stepDetails)
	f.Answers[fieldProblem] = id
	return f
}

// browse holds every problem-facing screen. Browse, run and search only
// differ in the entry step and the mode answer.
func (b *Builder) browse(mode string, start wizard.StepID) wizard.Flow {
	// The last run of this flow instance. Written by the run action and read
	// by the screens that follow it.
	var last runner.Result

	name := Browse
	switch {
	case mode == modeRun:
		name = RunSolution
	case start == stepSearchQuery:
		name = Search
	}

	steps := []wizard.Step{
		{
			ID:     stepProblems,
			Kind:   wizard.KindSelect,
			Title:  "Problems",
			Field:  fieldProblem,
			Prompt: problemsPrompt,
			Load:   b.loadProblems,
			Next: func(a wizard.Answers, v string) wizard.StepID {
				switch v {
				case optFilter:
					return stepCategory
				case optLeave:
					return wizard.Leave
				}
				if a.Get(fieldMode) == modeRun {
					return stepSolutions
				}
				return stepDetails
			},
		},
		{
			ID:     stepCategory,
			Kind:   wizard.KindSelect,
			Title:  "Filter by category",
			Field:  fieldFilter,
			Nested: true,
			Load:   b.loadFilterCategories,
			Next:   func(wizard.Answers, string) wizard.StepID { return stepProblems },
		},
		{
			ID:     stepDetails,
			Kind:   wizard.KindSelect,
			Title:  "Problem",
			Field:  fieldAction,
			Nested: true,
			Load:   b.loadDetails,
			Next: func(a wizard.Answers, v string) wizard.StepID {
				switch v {
				case optSolutions:
					return stepSolutions
				case optCreate:
					return stepSolutionLanguage
				}
				if a.Get(fieldQuery) != "" {
					return stepSearchResults
				}
				return stepProblems
			},
		},
		{
			ID:     stepSolutions,
			Kind:   wizard.KindSelect,
			Title:  "Solutions",
			Field:  fieldSolution,
			Nested: true,
			Prompt: func(a wizard.Answers) string { return "Solutions for problem " + a.Get(fieldProblem) },
			Load:   b.loadSolutions,
			Next: func(a wizard.Answers, v string) wizard.StepID {
				switch v {
				case optCreate:
					return stepSolutionLanguage
				case optBack:
					if a.Get(fieldMode) == modeRun {
						return stepProblems
					}
					return stepDetails
				}
				return stepContent
			},
		},
		{
			ID:     stepContent,
			Kind:   wizard.KindSelect,
			Title:  "Solution",
			Field:  fieldAction,
			Nested: true,
			Load:   b.loadContent,
			Next: func(_ wizard.Answers, v string) wizard.StepID {
				if v == optRun {
					return stepRun
				}
				return stepSolutions
			},
		},
		{
			ID:      stepRun,
			Kind:    wizard.KindAction,
			Title:   "Running",
			Field:   fieldOutput,
			OnError: stepRunError,
			Prompt: func(a wizard.Answers) string {
				return fmt.Sprintf("Running %s (timeout %s)...", filepath.Base(a.Get(fieldSolution)), b.runner.Timeout())
			},
			Run: func(ctx context.Context, a wizard.Answers) (string, error) {
				res, err := b.runSolution(ctx, a)
				last = res
				if err != nil {
					return "", err
				}
				return formatOutput(res), nil
			},
			Next: func(wizard.Answers, string) wizard.StepID { return stepOutput },
		},
		{
			ID:     stepOutput,
			Kind:   wizard.KindSelect,
			Title:  "Output",
			Field:  fieldAction,
			Nested: true,
			Load: func(a wizard.Answers) (wizard.Screen, error) {
				return wizard.Screen{
					Meta: []wizard.Meta{
						{Label: "File", Value: filepath.Base(a.Get(fieldSolution))},
						{Label: "Exit", Value: strconv.Itoa(last.ExitCode), Tone: wizard.ToneGood},
						{Label: "Time", Value: last.Duration.Round(time.Millisecond).String()},
						{Label: "Command", Value: strings.Join(last.Argv, " ")},
					},
					Body:   a.Get(fieldOutput),
					Format: wizard.BodyPlain,
					Options: []wizard.Option{
						{Label: "Run again", Value: optRun},
						{Label: "Back to code", Value: optBack},
					},
				}, nil
			},
			Next: func(_ wizard.Answers, v string) wizard.StepID {
				if v == optRun {
					return stepRun
				}
				return stepContent
			},
		},
		{
			ID:     stepRunError,
			Kind:   wizard.KindError,
			Title:  "Run failed",
			Return: stepContent,
			Message: func(a wizard.Answers, failure string) string {
				msg := fmt.Sprintf("%s did not run cleanly.\n\n%s", filepath.Base(a.Get(fieldSolution)), failure)
				if last.Stdout != "" {
					msg += "\n\nstdout:\n" + last.Stdout
				}
				return msg
			},
		},
		{
			ID:     stepSolutionLanguage,
			Kind:   wizard.KindSelect,
			Title:  "New solution",
			Field:  fieldLanguage,
			Nested: true,
			Prompt: func(wizard.Answers) string { return "Language" },
			Load:   b.loadLanguages,
		},
		{
			ID:     stepSolutionFilename,
			Kind:   wizard.KindText,
			Title:  "New solution",
			Field:  fieldFilename,
			Nested: true,
			Prompt: func(a wizard.Answers) string {
				ext, _ := b.catalog.Languages().Extension(a.Get(fieldLanguage))
				return fmt.Sprintf("File name (%s is added when missing)", ext)
			},
			Default:  func(wizard.Answers) string { return "solution" },
			Validate: validateFilename,
		},
		{
			ID:      stepSolutionCreate,
			Kind:    wizard.KindAction,
			Title:   "New solution",
			Field:   fieldSolution,
			OnError: stepSolutionError,
			Prompt:  func(wizard.Answers) string { return "Creating solution..." },
			Run:     b.runCreateSolution,
		},
		{
			ID:     stepSolutionDone,
			Kind:   wizard.KindDone,
			Title:  "Solution created",
			Return: stepDetails,
			Message: func(a wizard.Answers, _ string) string {
				return fmt.Sprintf("Created %s\n\nPress enter to open it.", a.Get(fieldSolution))
			},
			Next: func(wizard.Answers, string) wizard.StepID { return stepContent },
		},
		{
			ID:     stepSolutionError,
			Kind:   wizard.KindError,
			Title:  "Could not create solution",
			Return: stepDetails,
		},
		{
			ID:          stepSearchQuery,
			Kind:        wizard.KindText,
			Title:       "Search",
			Field:       fieldQuery,
			Prompt:      func(wizard.Answers) string { return "Search by number or title" },
			Placeholder: "e.g. two sum",
			Validate:    required("search text"),
			Next:        func(wizard.Answers, string) wizard.StepID { return stepSearchResults },
		},
		{
			ID:     stepSearchResults,
			Kind:   wizard.KindSelect,
			Title:  "Search results",
			Field:  fieldProblem,
			Nested: true,
			Load:   b.loadSearchResults,
			Next: func(_ wizard.Answers, v string) wizard.StepID {
				switch v {
				case optQuery:
					return stepSearchQuery
				case optLeave:
					return wizard.Leave
				}
				return stepDetails
			},
		},
		{
			ID:     wizard.DefaultErrorStep,
			Kind:   wizard.KindError,
			Title:  "Error",
			Return: start,
			Message: func(_ wizard.Answers, failure string) string {
				return "Something went wrong.\n\n" + failure
			},
		},
	}
	return wizard.Flow{
		Name:    string(name),
		Steps:   steps,
		Start:   start,
		Answers: wizard.Answers{fieldMode: mode},
	}
}

func problemsPrompt(a wizard.Answers) string {
	verb := "Pick a problem"
	if a.Get(fieldMode) == modeRun {
		verb = "Pick a problem to run"
	}
	if f := a.Get(fieldFilter); f != "" {
		return fmt.Sprintf("%s (category: %s)", verb, f)
	}
	return verb
}

func problemOption(p catalog.Problem) wizard.Option {
	return wizard.Option{
		Label: fmt.Sprintf("%s  %s", p.DisplayID(), p.Title),
		Value: p.ID,
		Hint:  strings.Join(p.Categories, ", "),
	}
}

func (b *Builder) loadProblems(a wizard.Answers) (wizard.Screen, error) {
	all, err := b.catalog.ListProblems()
	if err != nil {
		return wizard.Screen{}, err
	}
	filter := a.Get(fieldFilter)
	problems := catalog.FilterByCategory(all, filter)

	s := wizard.Screen{Meta: []wizard.Meta{{Label: "Problems", Value: strconv.Itoa(len(problems))}}}
	if filter != "" {
		s.Meta = append(s.Meta, wizard.Meta{Label: "Category", Value: filter})
	}
	switch {
	case len(all) == 0:
		s.Body = fmt.Sprintf("No problems in %s yet. Create one from the main menu.", b.catalog.ProblemsDir())
	case len(problems) == 0:
		s.Body = fmt.Sprintf("No problems in category %q.", filter)
	}
	for _, p := range problems {
		s.Options = append(s.Options, problemOption(p))
	}
	s.Options = append(s.Options,
		wizard.Option{Label: "Filter by category", Value: optFilter},
		wizard.Option{Label: "Back to main menu", Value: optLeave},
	)
	return s, nil
}

func (b *Builder) loadFilterCategories(a wizard.Answers) (wizard.Screen, error) {
	cats, err := b.catalog.ListCategories()
	if err != nil {
		return wizard.Screen{}, err
	}
	s := wizard.Screen{Options: []wizard.Option{{Label: "All problems", Value: ""}}}
	if len(cats) == 0 {
		s.Body = "No categories in " + b.catalog.CategoriesDir()
	}
	current := a.Get(fieldFilter)
	for _, c := range cats {
		o := wizard.Option{Label: c.DisplayName, Value: c.Name}
		if c.Name == current {
			o.Hint = "current"
		}
		s.Options = append(s.Options, o)
	}
	return s, nil
}

func (b *Builder) loadDetails(a wizard.Answers) (wizard.Screen, error) {
	id := a.Get(fieldProblem)
	d, err := b.catalog.GetProblemDetails(id)
	if err != nil {
		return wizard.Screen{}, err
	}
	b.remember(id)

	var body strings.Builder
	fmt.Fprintf(&body, "# %s\n\n", d.Title)
	body.WriteString(d.Description)
	return wizard.Screen{
		Meta: []wizard.Meta{
			{Label: "ID", Value: d.DisplayID()},
			{Label: "Difficulty", Value: orDash(d.Difficulty), Tone: difficultyTone(d.Difficulty)},
			{Label: "Categories", Value: orDash(strings.Join(d.Categories, ", "))},
			{Label: "Languages", Value: orDash(strings.Join(d.Languages, ", "))},
		},
		Body:   body.String(),
		Format: wizard.BodyMarkdown,
		Options: []wizard.Option{
			{Label: "View solutions", Value: optSolutions},
			{Label: "Create solution", Value: optCreate},
			{Label: "Back", Value: optBack},
		},
	}, nil
}

func (b *Builder) loadSolutions(a wizard.Answers) (wizard.Screen, error) {
	dir, err := b.catalog.ProblemDir(a.Get(fieldProblem))
	if err != nil {
		return wizard.Screen{}, err
	}
	sols, err := b.catalog.ListSolutions(dir)
	if err != nil {
		return wizard.Screen{}, err
	}
	var s wizard.Screen
	if len(sols) == 0 {
		s.Body = "No solutions yet."
		if a.Get(fieldMode) == modeRun {
			s.Body += " Create one from Browse problems."
		}
	}
	for _, sol := range sols {
		s.Options = append(s.Options, wizard.Option{
			Label: fmt.Sprintf("%-10s %s", sol.Language, sol.Filename),
			Value: sol.Path,
			Hint:  humanize.Bytes(uint64(max(0, sol.Size))) + ", " + humanize.Time(sol.ModTime),
		})
	}
	// Creating from here needs the details screen on the trail to come back
	// to, which run mode skips.
	if a.Get(fieldMode) != modeRun {
		s.Options = append(s.Options, wizard.Option{Label: "Create solution", Value: optCreate})
	}
	s.Options = append(s.Options, wizard.Option{Label: "Back", Value: optBack})
	return s, nil
}

func (b *Builder) loadContent(a wizard.Answers) (wizard.Screen, error) {
	path := a.Get(fieldSolution)
	text, err := b.catalog.ReadSolution(path)
	if err != nil {
		return wizard.Screen{}, err
	}
	ext := filepath.Ext(path)
	return wizard.Screen{
		Meta: []wizard.Meta{
			{Label: "File", Value: filepath.Base(path)},
			{Label: "Language", Value: b.catalog.Languages().DisplayName(ext)},
			{Label: "Problem", Value: a.Get(fieldProblem)},
		},
		Body:     text,
		Format:   wizard.BodyCode,
		Filename: path,
		Options: []wizard.Option{
			{Label: "Run solution", Value: optRun},
			{Label: "Back to solutions", Value: optBack},
		},
	}, nil
}

func (b *Builder) loadSearchResults(a wizard.Answers) (wizard.Screen, error) {
	query := a.Get(fieldQuery)
	matches, err := b.catalog.Search(query, b.searchLimit)
	if err != nil {
		return wizard.Screen{}, err
	}
	s := wizard.Screen{Meta: []wizard.Meta{
		{Label: "Query", Value: query},
		{Label: "Matches", Value: strconv.Itoa(len(matches))},
	}}
	if len(matches) == 0 {
		s.Body = fmt.Sprintf("No problems match %q.", query)
	}
	for _, m := range matches {
		s.Options = append(s.Options, problemOption(m.Problem))
	}
	s.Options = append(s.Options,
		wizard.Option{Label: "New search", Value: optQuery},
		wizard.Option{Label: "Back to main menu", Value: optLeave},
	)
	return s, nil
}

func validateFilename(v string) error {
	if err := required("file name")(v); err != nil {
		return err
	}
	if strings.ContainsAny(v, `/\`) || strings.HasPrefix(v, ".") {
		return errors.New("file name cannot contain path separators or start with a dot")
	}
	return nil
}

func (b *Builder) runCreateSolution(_ context.Context, a wizard.Answers) (string, error) {
	dir, err := b.catalog.ProblemDir(a.Get(fieldProblem))
	if err != nil {
		return "", err
	}
	path, err := b.catalog.CreateSolution(dir, a.Get(fieldLanguage), a.Get(fieldFilename))
	if err != nil {
		b.logError("solution.create_failed", err, map[string]any{"problem": a.Get(fieldProblem), "language": a.Get(fieldLanguage)})
		return "", err
	}
	b.info("solution.created", map[string]any{"problem": a.Get(fieldProblem), "path": path})
	return path, nil
}

// runSolution runs the selected file and records the attempt.
func (b *Builder) runSolution(ctx context.Context, a wizard.Answers) (runner.Result, error) {
	path := a.Get(fieldSolution)
	started := time.Now().UTC()
	res, err := b.runner.Run(ctx, path)

	outcome := state.OutcomePassed
	switch {
	case errors.Is(err, runner.ErrTimeout):
		outcome = state.OutcomeTimeout
	case errors.Is(err, runner.ErrUnsupportedExtension):
		outcome = state.OutcomeUnsupported
	case err != nil:
		outcome = state.OutcomeFailed
	}
	fields := map[string]any{
		"problem":     a.Get(fieldProblem),
		"path":        path,
		"outcome":     string(outcome),
		"exit_code":   res.ExitCode,
		"duration_ms": res.Duration.Milliseconds(),
	}
	if err != nil {
		b.logError("solution.run_failed", err, fields)
	} else {
		b.info("solution.run", fields)
	}
	if b.history != nil {
		rec := state.SolutionRun{
			SessionID:    b.sessionID,
			ProblemID:    a.Get(fieldProblem),
			SolutionPath: path,
			Extension:    filepath.Ext(path),
			Outcome:      outcome,
			ExitCode:     res.ExitCode,
			Duration:     res.Duration,
			StartTS:      started,
		}
		if herr := b.history.RecordRun(ctx, rec); herr != nil {
			b.logError("history.record_failed", herr, map[string]any{"path": path})
		}
	}
	return res, err
}

func (b *Builder) remember(problemID string) {
	if b.history == nil || problemID == "" {
		return
	}
	if err := b.history.SaveSettings(context.Background(), map[string]string{state.SettingLastProblem: problemID}); err != nil {
		b.logError("history.save_failed", err, nil)
	}
}

func formatOutput(res runner.Result) string {
	out := res.Stdout
	if out == "" {
		out = "(no output)"
	}
	if res.Stderr != "" {
		out += "\n\nstderr:\n" + res.Stderr
	}
	return out
}
