package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcome struct {
	completed []Answers
	cancelled int
}

func start(t *testing.T, flow Flow) (*Machine, *outcome, Effect) {
	t.Helper()
	m, err := New(flow)
	require.NoError(t, err)
	o := &outcome{}
	eff := m.Start(func(a Answers) { o.completed = append(o.completed, a) }, func() { o.cancelled++ })
	return m, o, eff
}

func required(v string) error {
	if v == "" {
		return errors.New("value is required")
	}
	return nil
}

func options(values ...string) func(Answers) (Screen, error) {
	return func(Answers) (Screen, error) {
		s := Screen{}
		for _, v := range values {
			s.Options = append(s.Options, Option{Label: v, Value: v})
		}
		return s, nil
	}
}

// runPending executes the pending action synchronously, like the UI does
// from a command.
func runPending(t *testing.T, m *Machine, eff Effect) Effect {
	t.Helper()
	require.NotNil(t, eff.Action, "expected a pending action")
	out, err := eff.Action.Run(context.Background())
	return m.Handle(ActionDone(eff.Action.Token, out, err))
}

func linearFlow(action func(context.Context, Answers) (string, error)) Flow {
	if action == nil {
		action = func(context.Context, Answers) (string, error) { return "", nil }
	}
	return Flow{
		Name: "create",
		Steps: []Step{
			{ID: "name", Kind: KindText, Validate: required},
			{ID: "lang", Kind: KindSelect, Load: options("go", "python")},
			{ID: "create", Kind: KindAction, Run: action},
			{ID: "done", Kind: KindDone},
		},
	}
}

func TestLinearFlowCompletes(t *testing.T) {
	var seen Answers
	m, o, _ := start(t, linearFlow(func(_ context.Context, a Answers) (string, error) {
		seen = a
		return "created", nil
	}))
	assert.Equal(t, StepID("name"), m.Current().ID)

	m.Handle(Submit("  two-sum "))
	assert.Equal(t, StepID("lang"), m.Current().ID)
	eff := m.Handle(Submit("go"))
	assert.Equal(t, StepID("create"), m.Current().ID)

	runPending(t, m, eff)
	assert.Equal(t, StepID("done"), m.Current().ID)
	assert.Equal(t, "two-sum", seen.Get("name"))
	assert.Equal(t, "go", seen.Get("lang"))

	eff = m.Handle(Confirm())
	assert.True(t, eff.Completed)
	require.Len(t, o.completed, 1)
	assert.Equal(t, "created", o.completed[0].Get("create"))
	assert.True(t, m.Finished())

	// A finished machine ignores everything.
	assert.Equal(t, Effect{}, m.Handle(Cancel()))
	assert.Zero(t, o.cancelled)
}

func TestTextValidationKeepsStep(t *testing.T) {
	m, _, _ := start(t, linearFlow(nil))
	m.Handle(Submit("   "))
	assert.Equal(t, StepID("name"), m.Current().ID)
	assert.Equal(t, "value is required", m.InlineError())

	m.Handle(Submit("ok"))
	assert.Equal(t, StepID("lang"), m.Current().ID)
	assert.Empty(t, m.InlineError())
}

func TestSelectRejectsUnknownValue(t *testing.T) {
	m, _, _ := start(t, linearFlow(nil))
	m.Handle(Submit("x"))
	m.Handle(Submit("rust"))
	assert.Equal(t, StepID("lang"), m.Current().ID)
	assert.NotEmpty(t, m.InlineError())
	assert.NotContains(t, m.Answers(), "lang")
}

func TestCancelOnTopLevelStepLeavesFlow(t *testing.T) {
	m, o, _ := start(t, linearFlow(nil))
	m.Handle(Submit("x"))
	eff := m.Handle(Cancel())
	assert.True(t, eff.Cancelled)
	assert.Equal(t, 1, o.cancelled)
}

func TestActionFailureGoesToErrorStepWithoutRetry(t *testing.T) {
	calls := 0
	m, o, _ := start(t, linearFlow(func(context.Context, Answers) (string, error) {
		calls++
		return "", errors.New("disk full")
	}))
	m.Handle(Submit("x"))
	eff := m.Handle(Submit("go"))
	runPending(t, m, eff)

	cur := m.Current()
	assert.Equal(t, KindError, cur.Kind)
	assert.Equal(t, DefaultErrorStep, cur.ID)
	assert.Equal(t, "disk full", m.Failure())
	assert.Equal(t, "disk full", m.Message())
	assert.Nil(t, m.Pending())

	eff = m.Handle(Confirm())
	assert.True(t, eff.Completed)
	assert.Nil(t, eff.Action)
	assert.Len(t, o.completed, 1)
	assert.Equal(t, 1, calls)
}

func TestStaleAndDuplicateActionResultsIgnored(t *testing.T) {
	m, _, _ := start(t, linearFlow(func(context.Context, Answers) (string, error) { return "ok", nil }))
	m.Handle(Submit("x"))
	eff := m.Handle(Submit("go"))
	token := eff.Action.Token

	m.Handle(ActionDone(token+1, "other", nil))
	assert.Equal(t, StepID("create"), m.Current().ID)

	m.Handle(ActionDone(token, "ok", nil))
	assert.Equal(t, StepID("done"), m.Current().ID)

	m.Handle(ActionDone(token, "again", nil))
	assert.Equal(t, StepID("done"), m.Current().ID)
	assert.Equal(t, "ok", m.Answers().Get("create"))
}

func TestCancelIgnoredWhileActionPending(t *testing.T) {
	m, o, _ := start(t, linearFlow(func(context.Context, Answers) (string, error) { return "ok", nil }))
	m.Handle(Submit("x"))
	eff := m.Handle(Submit("go"))

	m.Handle(Cancel())
	m.Handle(Confirm())
	m.Handle(Submit("zzz"))
	assert.Zero(t, o.cancelled)
	assert.Equal(t, StepID("create"), m.Current().ID)
	assert.NotNil(t, m.Pending())

	runPending(t, m, eff)
	assert.Equal(t, StepID("done"), m.Current().ID)
}

func browseFlow() Flow {
	return Flow{
		Name: "browse",
		Steps: []Step{
			{ID: "list", Kind: KindSelect, Load: options("p1", "filter", "back"), Next: func(_ Answers, v string) StepID {
				if v == "filter" {
					return "category"
				}
				return "details"
			}},
			{ID: "category", Kind: KindSelect, Nested: true, Load: options("arrays", "all"), Next: func(Answers, string) StepID { return "list" }},
			{ID: "details", Kind: KindSelect, Nested: true, Load: options("code", "list"), Next: func(_ Answers, v string) StepID {
				if v == "list" {
					return "list"
				}
				return "code"
			}},
			{ID: "code", Kind: KindSelect, Nested: true, Load: options("back")},
		},
	}
}

func TestNestedCancelGoesBackExactlyOneStep(t *testing.T) {
	m, o, _ := start(t, browseFlow())
	m.Handle(Submit("p1"))
	m.Handle(Submit("code"))
	assert.Equal(t, StepID("code"), m.Current().ID)
	assert.Equal(t, []StepID{"list", "details"}, m.History())

	m.Handle(Cancel())
	assert.Equal(t, StepID("details"), m.Current().ID)
	m.Handle(Cancel())
	assert.Equal(t, StepID("list"), m.Current().ID)
	assert.Zero(t, o.cancelled)

	// list is not nested: cancel leaves the flow.
	m.Handle(Cancel())
	assert.Equal(t, 1, o.cancelled)
}

func TestCategoryFilterCancelReturnsToList(t *testing.T) {
	m, o, _ := start(t, browseFlow())
	m.Handle(Submit("filter"))
	assert.Equal(t, StepID("category"), m.Current().ID)
	m.Handle(Cancel())
	assert.Equal(t, StepID("list"), m.Current().ID)
	assert.Zero(t, o.cancelled)
}

func TestRevisitingStepTruncatesHistory(t *testing.T) {
	m, _, _ := start(t, browseFlow())
	m.Handle(Submit("p1"))
	m.Handle(Submit("list"))
	assert.Equal(t, StepID("list"), m.Current().ID)
	assert.Empty(t, m.History())

	m.Handle(Submit("filter"))
	m.Handle(Submit("arrays"))
	assert.Equal(t, StepID("list"), m.Current().ID)
	assert.Empty(t, m.History())
	assert.Equal(t, "arrays", m.Answers().Get("category"))
}

func TestLoadFailureRoutesToErrorAndBack(t *testing.T) {
	broken := true
	flow := Flow{
		Name: "details",
		Steps: []Step{
			{ID: "list", Kind: KindSelect, Load: options("p1")},
			{ID: "details", Kind: KindSelect, Nested: true, Load: func(Answers) (Screen, error) {
				if broken {
					return Screen{}, errors.New("README.md: not found")
				}
				return Screen{Body: "ok"}, nil
			}},
			{ID: "error", Kind: KindError, Return: "list"},
		},
	}
	m, o, _ := start(t, flow)
	m.Handle(Submit("p1"))
	assert.Equal(t, StepID("error"), m.Current().ID)
	assert.Equal(t, "README.md: not found", m.Message())

	m.Handle(Cancel())
	assert.Equal(t, StepID("list"), m.Current().ID)
	assert.Empty(t, m.Failure())
	assert.Zero(t, o.cancelled)

	broken = false
	m.Handle(Submit("p1"))
	assert.Equal(t, "ok", m.Screen().Body)
}

func TestErrorReturningToFailedStepLeavesFlow(t *testing.T) {
	flow := Flow{
		Name: "broken",
		Steps: []Step{
			{ID: "list", Kind: KindSelect, Load: func(Answers) (Screen, error) { return Screen{}, errors.New("permission denied") }},
			{ID: "error", Kind: KindError, Return: "list"},
		},
	}
	m, o, _ := start(t, flow)
	assert.Equal(t, StepID("error"), m.Current().ID)
	m.Handle(Cancel())
	assert.Equal(t, 1, o.cancelled)
}

func TestOnErrorAndTerminalNext(t *testing.T) {
	fail := true
	flow := Flow{
		Name: "run",
		Steps: []Step{
			{ID: "code", Kind: KindSelect, Load: options("run")},
			{ID: "run", Kind: KindAction, OnError: "run.error", Next: func(Answers, string) StepID { return "output" },
				Run: func(context.Context, Answers) (string, error) {
					if fail {
						return "", errors.New("exit status 1")
					}
					return "42", nil
				}},
			{ID: "output", Kind: KindSelect, Nested: true, Load: options("back")},
			{ID: "error", Kind: KindError},
			{ID: "run.error", Kind: KindError, Return: "code"},
		},
	}
	m, o, _ := start(t, flow)
	runPending(t, m, m.Handle(Submit("run")))
	assert.Equal(t, StepID("run.error"), m.Current().ID)

	m.Handle(Confirm())
	assert.Equal(t, StepID("code"), m.Current().ID)
	assert.Empty(t, o.completed)

	fail = false
	runPending(t, m, m.Handle(Submit("run")))
	assert.Equal(t, StepID("output"), m.Current().ID)
	assert.Equal(t, "42", m.Answers().Get("run"))
	m.Handle(Cancel())
	assert.Equal(t, StepID("code"), m.Current().ID)
}

func TestNewValidatesDefinitions(t *testing.T) {
	_, err := New(Flow{})
	assert.Error(t, err)

	_, err = New(Flow{Steps: []Step{{ID: "a", Kind: KindText}, {ID: "a", Kind: KindText}}})
	assert.Error(t, err)

	_, err = New(Flow{Steps: []Step{{ID: "a", Kind: KindSelect}}})
	assert.Error(t, err)

	_, err = New(Flow{Steps: []Step{{ID: "a", Kind: KindAction}}})
	assert.Error(t, err)

	_, err = New(Flow{Steps: []Step{{ID: "a", Kind: KindDone, Return: "nowhere"}}})
	assert.Error(t, err)

	_, err = New(Flow{Steps: []Step{{ID: "a", Kind: KindText, OnError: "a"}}})
	assert.Error(t, err)

	_, err = New(Flow{Steps: []Step{{ID: "a", Kind: KindText}}, Start: "b"})
	assert.Error(t, err)
}

func TestUnknownNextStepBecomesError(t *testing.T) {
	flow := Flow{
		Name:  "typo",
		Steps: []Step{{ID: "a", Kind: KindText, Next: func(Answers, string) StepID { return "missing" }}},
	}
	m, _, _ := start(t, flow)
	m.Handle(Submit("x"))
	assert.Equal(t, DefaultErrorStep, m.Current().ID)
	assert.Contains(t, m.Failure(), `no step "missing"`)
}

func TestDefaultValueAndPrompt(t *testing.T) {
	flow := Flow{
		Name:    "solution",
		Answers: Answers{"language": "go"},
		Steps: []Step{
			{
				ID:      "filename",
				Kind:    KindText,
				Prompt:  func(a Answers) string { return "File name for " + a.Get("language") },
				Default: func(a Answers) string { return "solution.go" },
			},
		},
	}
	m, _, _ := start(t, flow)
	assert.Equal(t, "File name for go", m.Prompt())
	assert.Equal(t, "solution.go", m.DefaultValue())
	before := m.Visits()
	m.Handle(Submit("fast.go"))
	assert.Greater(t, m.Visits(), before)
}

func TestStartWithActionReturnsPending(t *testing.T) {
	flow := Flow{
		Name: "setup",
		Steps: []Step{
			{ID: "check", Kind: KindAction, Run: func(context.Context, Answers) (string, error) { return "ready", nil }},
			{ID: "done", Kind: KindDone, Message: func(a Answers, _ string) string { return a.Get("check") }},
		},
	}
	m, _, eff := start(t, flow)
	runPending(t, m, eff)
	assert.Equal(t, "ready", m.Message())
}

func TestLeaveFromNextCancelsFlow(t *testing.T) {
	m, o, _ := start(t, Flow{
		Name: "results",
		Steps: []Step{
			{ID: "list", Kind: KindSelect, Load: options("p1", "leave"), Next: func(_ Answers, v string) StepID {
				if v == "leave" {
					return Leave
				}
				return "list"
			}},
		},
	})
	eff := m.Handle(Submit("leave"))
	assert.True(t, eff.Cancelled)
	assert.Equal(t, 1, o.cancelled)
	assert.True(t, m.Finished())
}

func TestTerminalNextCutsTrailBackToReturn(t *testing.T) {
	m, _, _ := start(t, Flow{
		Name: "solution",
		Steps: []Step{
			{ID: "details", Kind: KindSelect, Load: options("create")},
			{ID: "lang", Kind: KindSelect, Nested: true, Load: options("go")},
			{ID: "name", Kind: KindText, Nested: true},
			{ID: "create", Kind: KindAction, Run: func(context.Context, Answers) (string, error) { return "a.go", nil }},
			{ID: "done", Kind: KindDone, Return: "details", Next: func(Answers, string) StepID { return "code" }},
			{ID: "code", Kind: KindSelect, Nested: true, Load: options("back")},
		},
	})
	m.Handle(Submit("create"))
	m.Handle(Submit("go"))
	eff := m.Handle(Submit("a"))
	runPending(t, m, eff)
	require.Equal(t, StepID("done"), m.Current().ID)
	assert.Equal(t, []StepID{"details", "lang", "name"}, m.History())

	m.Handle(Confirm())
	assert.Equal(t, StepID("code"), m.Current().ID)
	assert.Equal(t, []StepID{"details"}, m.History())

	m.Handle(Cancel())
	assert.Equal(t, StepID("details"), m.Current().ID)
}
