package flows

import (
	"context"
	"fmt"
	"strings"

	"leetcli/internal/wizard"
)

const fieldReport = "report"

// setup creates the workspace roots and reports which run commands can
// actually start on this machine.
func (b *Builder) setup() wizard.Flow {
	return wizard.Flow{
		Name: string(Setup),
		Steps: []wizard.Step{
			{
				ID:     "check",
				Kind:   wizard.KindAction,
				Title:  "Workspace check",
				Field:  fieldReport,
				Prompt: func(wizard.Answers) string { return "Checking workspace and toolchains..." },
				Run:    b.runSetup,
			},
			{
				ID:      "done",
				Kind:    wizard.KindDone,
				Title:   "Workspace check",
				Message: func(a wizard.Answers, _ string) string { return a.Get(fieldReport) },
			},
			{
				ID:    wizard.DefaultErrorStep,
				Kind:  wizard.KindError,
				Title: "Workspace check failed",
			},
		},
	}
}

func (b *Builder) runSetup(context.Context, wizard.Answers) (string, error) {
	created, err := b.catalog.EnsureLayout()
	if err != nil {
		b.logError("workspace.layout_failed", err, nil)
		return "", err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Problems:   %s\n", b.catalog.ProblemsDir())
	fmt.Fprintf(&sb, "Categories: %s\n", b.catalog.CategoriesDir())
	for _, dir := range created {
		fmt.Fprintf(&sb, "  created %s\n", dir)
	}

	tools := b.runner.Probe()
	found := 0
	sb.WriteString("\nRun commands:\n")
	for _, t := range tools {
		status := "missing"
		if t.Found {
			status = t.Path
			found++
		}
		fmt.Fprintf(&sb, "  %-6s %-8s %s\n", t.Extension, t.Program, status)
	}
	fmt.Fprintf(&sb, "\n%d of %d toolchains available.", found, len(tools))
	b.info("workspace.checked", map[string]any{"created": len(created), "toolchains": found})
	return sb.String(), nil
}
