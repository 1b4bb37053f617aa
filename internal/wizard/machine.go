package wizard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

type EventKind int

const (
	EventSubmit EventKind = iota
	EventCancel
	EventConfirm
	EventActionDone
)

type Event struct {
	Kind  EventKind
	Value string
	// Token and Err are set for EventActionDone.
	Token int
	Err   error
}

func Submit(value string) Event { return Event{Kind: EventSubmit, Value: value} }
func Cancel() Event             { return Event{Kind: EventCancel} }
func Confirm() Event            { return Event{Kind: EventConfirm} }

func ActionDone(token int, output string, err error) Event {
	return Event{Kind: EventActionDone, Token: token, Value: output, Err: err}
}

// Pending is the single outstanding action of a machine. Run it once and
// feed the outcome back with ActionDone(Token, ...).
type Pending struct {
	Token int
	Step  StepID
	Run   func(context.Context) (string, error)
}

// Effect reports what a transition asks of the caller.
type Effect struct {
	Action    *Pending
	Completed bool
	Cancelled bool
}

type handler func(m *Machine, s *Step, ev Event) Effect

// transitions is the whole behaviour of the machine: one row per step kind,
// one cell per event. Missing cells leave the state untouched.
var transitions = map[Kind]map[EventKind]handler{
	KindText: {
		EventSubmit: (*Machine).submitText,
		EventCancel: (*Machine).cancelStep,
	},
	KindSelect: {
		EventSubmit: (*Machine).submitSelect,
		EventCancel: (*Machine).cancelStep,
	},
	KindAction: {
		EventActionDone: (*Machine).finishAction,
	},
	KindDone: {
		EventConfirm: (*Machine).confirmTerminal,
		EventCancel:  (*Machine).cancelTerminal,
	},
	KindError: {
		EventConfirm: (*Machine).confirmTerminal,
		EventCancel:  (*Machine).cancelTerminal,
	},
}

type Machine struct {
	name      string
	steps     map[StepID]*Step
	order     []StepID
	start     StepID
	errorStep StepID

	current  StepID
	answers  Answers
	history  []StepID
	screen   Screen
	inline   string
	failure  string
	pending  *Pending
	failedAt StepID
	token    int
	visits   int
	done     bool

	onComplete func(Answers)
	onCancel   func()
}

// New validates a flow and returns a machine that has not started yet.
func New(flow Flow) (*Machine, error) {
	if len(flow.Steps) == 0 {
		return nil, errors.New("wizard: flow has no steps")
	}
	m := &Machine{
		name:    flow.Name,
		steps:   make(map[StepID]*Step, len(flow.Steps)+1),
		answers: flow.Answers.clone(),
	}
	for i := range flow.Steps {
		s := flow.Steps[i]
		if s.ID == "" {
			return nil, fmt.Errorf("wizard %s: step %d has no id", flow.Name, i)
		}
		if _, dup := m.steps[s.ID]; dup {
			return nil, fmt.Errorf("wizard %s: duplicate step %q", flow.Name, s.ID)
		}
		switch s.Kind {
		case KindSelect:
			if s.Load == nil {
				return nil, fmt.Errorf("wizard %s: select step %q has no Load", flow.Name, s.ID)
			}
		case KindAction:
			if s.Run == nil {
				return nil, fmt.Errorf("wizard %s: action step %q has no Run", flow.Name, s.ID)
			}
		case KindError:
			if m.errorStep == "" || s.ID == DefaultErrorStep {
				m.errorStep = s.ID
			}
		}
		m.steps[s.ID] = &s
		m.order = append(m.order, s.ID)
	}
	if m.errorStep == "" {
		if _, taken := m.steps[DefaultErrorStep]; taken {
			return nil, fmt.Errorf("wizard %s: step %q must be an error step", flow.Name, DefaultErrorStep)
		}
		m.steps[DefaultErrorStep] = &Step{ID: DefaultErrorStep, Kind: KindError, Title: "Error"}
		m.order = append(m.order, DefaultErrorStep)
		m.errorStep = DefaultErrorStep
	}
	for _, id := range m.order {
		s := m.steps[id]
		if r := s.Return; r != "" {
			if _, ok := m.steps[r]; !ok {
				return nil, fmt.Errorf("wizard %s: step %q returns to unknown step %q", flow.Name, id, r)
			}
		}
		if e := s.OnError; e != "" {
			if t, ok := m.steps[e]; !ok || t.Kind != KindError {
				return nil, fmt.Errorf("wizard %s: step %q routes errors to %q, which is not an error step", flow.Name, id, e)
			}
		}
	}
	m.start = flow.Start
	if m.start == "" {
		m.start = m.order[0]
	}
	if _, ok := m.steps[m.start]; !ok {
		return nil, fmt.Errorf("wizard %s: unknown start step %q", flow.Name, m.start)
	}
	return m, nil
}

// Start enters the first step. onComplete fires when a terminal step is
// confirmed, onCancel when the flow is left from a non-nested step.
func (m *Machine) Start(onComplete func(Answers), onCancel func()) Effect {
	m.onComplete = onComplete
	m.onCancel = onCancel
	return m.enter(m.start)
}

// Handle applies one event to the live step.
func (m *Machine) Handle(ev Event) Effect {
	if m.done {
		return Effect{}
	}
	s := m.steps[m.current]
	if s == nil {
		return Effect{}
	}
	h, ok := transitions[s.Kind][ev.Kind]
	if !ok {
		return Effect{}
	}
	return h(m, s, ev)
}

func (m *Machine) submitText(s *Step, ev Event) Effect {
	value := strings.TrimSpace(ev.Value)
	if s.Validate != nil {
		if err := s.Validate(value); err != nil {
			m.inline = err.Error()
			return Effect{}
		}
	}
	m.answers[s.field()] = value
	return m.advance(m.nextAfter(s, value))
}

func (m *Machine) submitSelect(s *Step, ev Event) Effect {
	if !slices.ContainsFunc(m.screen.Options, func(o Option) bool { return o.Value == ev.Value }) {
		m.inline = fmt.Sprintf("unknown option %q", ev.Value)
		return Effect{}
	}
	m.answers[s.field()] = ev.Value
	return m.advance(m.nextAfter(s, ev.Value))
}

// cancelStep leaves the flow, except in a nested step where it steps back
// exactly once.
func (m *Machine) cancelStep(s *Step, _ Event) Effect {
	if s.Nested && len(m.history) > 0 {
		prev := m.history[len(m.history)-1]
		m.history = m.history[:len(m.history)-1]
		return m.enter(prev)
	}
	return m.cancel()
}

func (m *Machine) finishAction(s *Step, ev Event) Effect {
	if m.pending == nil || ev.Token != m.pending.Token {
		return Effect{}
	}
	m.pending = nil
	if ev.Err != nil {
		return m.fail(ev.Err)
	}
	m.answers[s.field()] = ev.Value
	return m.advance(m.nextAfter(s, ev.Value))
}

// confirmTerminal follows Next when the terminal step has one. Return then
// marks where the finished sub-flow was launched from, and the trail is cut
// back to it so the next cancel does not walk through the sub-flow again.
func (m *Machine) confirmTerminal(s *Step, _ Event) Effect {
	if s.Next != nil {
		if i := slices.Index(m.history, s.Return); s.Return != "" && i >= 0 {
			m.history = m.history[:i+1]
		}
		return m.advance(s.Next(m.answers, ""))
	}
	if s.Return != "" && !(s.Kind == KindError && s.Return == m.failedAt) {
		return m.advance(s.Return)
	}
	m.done = true
	if m.onComplete != nil {
		m.onComplete(m.answers.clone())
	}
	return Effect{Completed: true}
}

func (m *Machine) cancelTerminal(s *Step, _ Event) Effect {
	// Returning to the step that just failed would only fail again.
	if s.Return != "" && !(s.Kind == KindError && s.Return == m.failedAt) {
		return m.advance(s.Return)
	}
	return m.cancel()
}

func (m *Machine) cancel() Effect {
	m.done = true
	if m.onCancel != nil {
		m.onCancel()
	}
	return Effect{Cancelled: true}
}

func (m *Machine) nextAfter(s *Step, value string) StepID {
	if s.Next != nil {
		return s.Next(m.answers, value)
	}
	i := slices.Index(m.order, s.ID)
	if i >= 0 && i+1 < len(m.order) {
		return m.order[i+1]
	}
	return ""
}

// advance moves forward, keeping history as a breadcrumb trail of the
// interactive steps. Revisiting a step already on the trail cuts the trail
// back to it.
func (m *Machine) advance(to StepID) Effect {
	if to == Leave {
		return m.cancel()
	}
	if i := slices.Index(m.history, to); i >= 0 {
		m.history = m.history[:i]
	} else if cur := m.steps[m.current]; cur != nil && !cur.Kind.Terminal() && cur.Kind != KindAction && cur.ID != to {
		m.history = append(m.history, cur.ID)
	}
	return m.enter(to)
}

func (m *Machine) enter(id StepID) Effect {
	s, ok := m.steps[id]
	if !ok {
		return m.fail(fmt.Errorf("wizard %s: no step %q", m.name, id))
	}
	m.current = id
	m.inline = ""
	m.visits++
	if s.Kind != KindError {
		m.failure = ""
	}
	m.screen = Screen{}

	switch s.Kind {
	case KindSelect:
		screen, err := s.Load(m.answers)
		if err != nil {
			return m.fail(err)
		}
		m.screen = screen
	case KindAction:
		m.token++
		answers := m.answers.clone()
		run := s.Run
		m.pending = &Pending{
			Token: m.token,
			Step:  id,
			Run:   func(ctx context.Context) (string, error) { return run(ctx, answers) },
		}
		return Effect{Action: m.pending}
	}
	return Effect{}
}

// fail routes to the error step for the live step. Error steps carry the
// message and never retry.
func (m *Machine) fail(err error) Effect {
	target := m.errorStep
	if cur := m.steps[m.current]; cur != nil {
		m.failedAt = cur.ID
		if cur.OnError != "" {
			target = cur.OnError
		}
	}
	m.pending = nil
	m.current = target
	m.inline = ""
	m.failure = err.Error()
	m.screen = Screen{}
	m.visits++
	return Effect{}
}

func (m *Machine) Name() string { return m.name }

func (m *Machine) Answers() Answers { return m.answers.clone() }

func (m *Machine) Screen() Screen { return m.screen }

func (m *Machine) InlineError() string { return m.inline }

func (m *Machine) Failure() string { return m.failure }

func (m *Machine) Pending() *Pending { return m.pending }

func (m *Machine) Finished() bool { return m.done }

// Visits counts step entries. Renderers compare it to notice that a step was
// (re)entered and reset their per-step widgets.
func (m *Machine) Visits() int { return m.visits }

// History returns the breadcrumb trail, oldest first.
func (m *Machine) History() []StepID { return slices.Clone(m.history) }

// Current returns a copy of the live step.
func (m *Machine) Current() Step {
	if s, ok := m.steps[m.current]; ok {
		return *s
	}
	return Step{}
}

// Prompt renders the live step's prompt against the current answers.
func (m *Machine) Prompt() string {
	s := m.steps[m.current]
	if s == nil || s.Prompt == nil {
		return ""
	}
	return s.Prompt(m.answers)
}

// DefaultValue is the initial text for the live text step.
func (m *Machine) DefaultValue() string {
	s := m.steps[m.current]
	if s == nil || s.Kind != KindText {
		return ""
	}
	if v, ok := m.answers[s.field()]; ok && v != "" {
		return v
	}
	if s.Default != nil {
		return s.Default(m.answers)
	}
	return ""
}

// Message renders the live terminal step.
func (m *Machine) Message() string {
	s := m.steps[m.current]
	if s == nil || !s.Kind.Terminal() {
		return ""
	}
	if s.Message != nil {
		return s.Message(m.answers, m.failure)
	}
	return m.failure
}
