package flows

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"leetcli/internal/catalog"
	"leetcli/internal/wizard"
)

const (
	fieldID         = "id"
	fieldTitle      = "title"
	fieldDifficulty = "difficulty"
	fieldCategory   = "category"
	fieldLanguage   = "language"
	fieldCreatedDir = "dir"
)

func (b *Builder) createProblem() wizard.Flow {
	return wizard.Flow{
		Name: string(CreateProblem),
		Steps: []wizard.Step{
			{
				ID:          "id",
				Kind:        wizard.KindText,
				Title:       "New problem",
				Prompt:      func(wizard.Answers) string { return "Problem number" },
				Placeholder: "e.g. 1",
				Validate:    b.validateNewID,
			},
			{
				ID:    "title",
				Kind:  wizard.KindText,
				Title: "New problem",
				Prompt: func(a wizard.Answers) string {
					return fmt.Sprintf("Title (leave empty for Problem-%s)", a.Get(fieldID))
				},
				Placeholder: "e.g. Two Sum",
				Validate:    validateTitle,
			},
			{
				ID:     "difficulty",
				Kind:   wizard.KindSelect,
				Title:  "New problem",
				Prompt: func(wizard.Answers) string { return "Difficulty" },
				Load: func(wizard.Answers) (wizard.Screen, error) {
					return wizard.Screen{Options: []wizard.Option{
						{Label: "Easy", Value: "Easy"},
						{Label: "Medium", Value: "Medium"},
						{Label: "Hard", Value: "Hard"},
						{Label: "Skip", Value: "", Hint: "leave it out of the README"},
					}}, nil
				},
			},
			{
				ID:     "category",
				Kind:   wizard.KindSelect,
				Title:  "New problem",
				Prompt: func(wizard.Answers) string { return "Category" },
				Load:   b.loadCreateCategories,
			},
			{
				ID:     "language",
				Kind:   wizard.KindSelect,
				Title:  "New problem",
				Prompt: func(wizard.Answers) string { return "Language of the first solution" },
				Load:   b.loadLanguages,
			},
			{
				ID:     "create",
				Kind:   wizard.KindAction,
				Title:  "New problem",
				Field:  fieldCreatedDir,
				Prompt: func(a wizard.Answers) string { return fmt.Sprintf("Creating problem %s...", a.Get(fieldID)) },
				Run:    b.runCreateProblem,
			},
			{
				ID:      "done",
				Kind:    wizard.KindDone,
				Title:   "Problem created",
				Message: createdMessage,
			},
			{
				ID:    wizard.DefaultErrorStep,
				Kind:  wizard.KindError,
				Title: "Could not create problem",
				Message: func(_ wizard.Answers, failure string) string {
					return "The problem was not created.\n\n" + failure
				},
			},
		},
	}
}

func (b *Builder) validateNewID(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return errors.New("problem number is required")
	}
	if strings.TrimFunc(v, func(r rune) bool { return r >= '0' && r <= '9' }) != "" {
		return errors.New("use digits only")
	}
	want := trimZeros(v)
	problems, err := b.catalog.ListProblems()
	if err != nil {
		return fmt.Errorf("cannot check existing problems: %w", err)
	}
	for _, p := range problems {
		if p.ID != p.DirName && trimZeros(p.ID) == want {
			return fmt.Errorf("problem %s already exists (%s)", want, p.DirName)
		}
	}
	return nil
}

// trimZeros drops leading zeros so "0007" and "7" compare equal without
// parsing, which keeps numbers of any length comparable.
func trimZeros(id string) string {
	if t := strings.TrimLeft(id, "0"); t != "" {
		return t
	}
	return "0"
}

func validateTitle(v string) error {
	if strings.ContainsAny(v, `/\`) {
		return errors.New("title cannot contain path separators")
	}
	return nil
}

func (b *Builder) loadCreateCategories(wizard.Answers) (wizard.Screen, error) {
	cats, err := b.catalog.ListCategories()
	if err != nil {
		return wizard.Screen{}, err
	}
	s := wizard.Screen{Body: "Categories are the folders in " + b.catalog.CategoriesDir()}
	for _, c := range cats {
		s.Options = append(s.Options, wizard.Option{Label: c.DisplayName, Value: c.Name})
	}
	s.Options = append(s.Options, wizard.Option{Label: "Uncategorized", Value: ""})
	return s, nil
}

func (b *Builder) loadLanguages(wizard.Answers) (wizard.Screen, error) {
	var s wizard.Screen
	for _, l := range b.catalog.Languages().Languages() {
		s.Options = append(s.Options, wizard.Option{Label: l.Label, Value: l.ID, Hint: l.Extension})
	}
	return s, nil
}

func (b *Builder) runCreateProblem(_ context.Context, a wizard.Answers) (string, error) {
	req := catalog.NewProblem{
		ID:         a.Get(fieldID),
		Title:      a.Get(fieldTitle),
		Difficulty: a.Get(fieldDifficulty),
		Category:   a.Get(fieldCategory),
		Language:   a.Get(fieldLanguage),
	}
	created, err := b.catalog.CreateProblem(req)
	if err != nil {
		b.logError("problem.create_failed", err, map[string]any{"id": req.ID, "language": req.Language})
		return "", err
	}
	b.info("problem.created", map[string]any{
		"id":       req.ID,
		"dir":      created.Dir,
		"category": req.Category,
		"language": req.Language,
	})
	return created.Dir, nil
}

func createdMessage(a wizard.Answers, _ string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Created %s\n\n", filepath.Base(a.Get(fieldCreatedDir)))
	fmt.Fprintf(&sb, "  Location:   %s\n", a.Get(fieldCreatedDir))
	fmt.Fprintf(&sb, "  Difficulty: %s\n", orDash(a.Get(fieldDifficulty)))
	fmt.Fprintf(&sb, "  Category:   %s\n", orDash(a.Get(fieldCategory)))
	fmt.Fprintf(&sb, "  Language:   %s\n", a.Get(fieldLanguage))
	return sb.String()
}
