package ui

import (
	"context"
	"time"

	"leetcli/internal/wizard"
)

// Action names a main menu entry. Flow actions share their names with the
// flows they mount.
type Action string

const (
	ActionCreateProblem Action = "create_problem"
	ActionRunSolution   Action = "run_solution"
	ActionBrowse        Action = "browse"
	ActionSearch        Action = "search"
	ActionContinue      Action = "continue"
	ActionSetup         Action = "setup"
	ActionStats         Action = "stats"
	ActionHelp          Action = "help"
	ActionQuit          Action = "quit"
)

// Controller is implemented by the app. Flow is called on the UI goroutine
// and must not block; the On* callbacks run on their own goroutine and
// answer through the View setters.
type Controller interface {
	Flow(action Action, arg string) (wizard.Flow, error)
	OnFlowDone(action Action, completed bool)
	OnOpenStats()
	OnQuit()
}

type View interface {
	Run(ctx context.Context) error
	Stop()
	SetController(Controller)
	SetScreen(screen Screen)
	SetMainMenuState(state MainMenuState)
	SetStats(state StatsState)
	FlashStatus(msg string)
}

type Screen int

const (
	ScreenMainMenu Screen = iota
	ScreenWizard
	ScreenHelp
	ScreenStats
)

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutCompact
	LayoutTooSmall
)

type MainMenuState struct {
	ProblemsDir   string
	ProblemCount  int
	CategoryCount int
	SolvedCount   int
	LastProblem   string
	LastRun       *RunRow
	Runs          int
	Passes        int
	// Warning is shown above the overview, e.g. when the workspace could
	// not be read.
	Warning string
}

type StatsState struct {
	Runs     int
	Passes   int
	Failures int
	Timeouts int
	Problems int
	Solved   int
	Recent   []RunRow
	Err      string
}

type RunRow struct {
	ProblemID string
	File      string
	Outcome   string
	ExitCode  int
	Duration  time.Duration
	When      time.Time
}
