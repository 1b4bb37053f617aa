// Package wizard is a small step machine for interactive flows. A flow is a
// list of steps; the machine keeps exactly one step live, collects answers
// and drives at most one pending action at a time. It knows nothing about
// rendering or key handling.
package wizard

import (
	"context"
	"fmt"
)

type StepID string

const (
	// DefaultErrorStep receives failures of steps without OnError. Flows that
	// do not declare it get a bare one.
	DefaultErrorStep StepID = "error"
	// Leave, returned from Next, exits the flow as a cancel would.
	Leave StepID = "\x00leave"
)

type Kind int

const (
	KindText Kind = iota
	KindSelect
	KindAction
	KindDone
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSelect:
		return "select"
	case KindAction:
		return "action"
	case KindDone:
		return "done"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Terminal reports whether a step of this kind ends the flow.
func (k Kind) Terminal() bool {
	return k == KindDone || k == KindError
}

// Answers maps a step's field name to its committed value.
type Answers map[string]string

func (a Answers) Get(field string) string {
	if a == nil {
		return ""
	}
	return a[field]
}

func (a Answers) clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

type Option struct {
	Label string
	Value string
	// Hint is secondary text shown next to the label.
	Hint string
}

// BodyFormat tells the renderer how to present Screen.Body.
type BodyFormat int

const (
	BodyPlain BodyFormat = iota
	BodyMarkdown
	BodyCode
)

type Tone int

const (
	ToneNone Tone = iota
	ToneGood
	ToneWarn
	ToneBad
)

// Meta is a labelled value shown above a screen's body.
type Meta struct {
	Label string
	Value string
	Tone  Tone
}

// Screen is what a select step shows, produced fresh each time the step is
// entered.
type Screen struct {
	Meta   []Meta
	Body   string
	Format BodyFormat
	// Filename lets the renderer pick a highlighter for BodyCode.
	Filename string
	Options  []Option
	// Empty is shown when there are no options.
	Empty string
}

// Step is one unit of a flow. Which fields matter depends on Kind:
//
//	KindText    Prompt, Placeholder, Default, Validate, Next
//	KindSelect  Prompt, Load, Next
//	KindAction  Prompt (shown while running), Run, Next
//	KindDone    Message, Next or Return
//	KindError   Message, Return
type Step struct {
	ID    StepID
	Kind  Kind
	Title string
	// Field names the answer this step commits. Defaults to the step id.
	Field       string
	Prompt      func(Answers) string
	Placeholder string
	Default     func(Answers) string
	Validate    func(string) error
	Load        func(Answers) (Screen, error)
	Run         func(context.Context, Answers) (string, error)
	// Next picks the following step from the committed value. When nil the
	// next declared step follows.
	Next func(Answers, string) StepID
	// Message renders a terminal step. Error steps receive the failure text.
	Message func(Answers, string) string
	// Nested marks a sub-navigation step: cancel goes back one step instead
	// of leaving the flow.
	Nested bool
	// Return is where a terminal step goes on cancel (and on confirm when it
	// has no Next). Empty means leave the flow.
	Return StepID
	// OnError overrides the flow's error step for failures of this step.
	OnError StepID
}

func (s *Step) field() string {
	if s.Field != "" {
		return s.Field
	}
	return string(s.ID)
}

// Flow is a named step list with its entry point.
type Flow struct {
	Name    string
	Steps   []Step
	Start   StepID
	Answers Answers
}
