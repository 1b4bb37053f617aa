package state

import (
	"context"
	"time"
)

// Store keeps what the user did with the workspace: solution runs and a few
// settings. The problem tree itself is never stored here.
type Store interface {
	EnsureSchema(ctx context.Context) error
	RecordRun(ctx context.Context, run SolutionRun) error
	RecentRuns(ctx context.Context, limit int) ([]SolutionRun, error)
	GetProblemProgressMap(ctx context.Context) (map[string]ProblemProgress, error)
	GetSummary(ctx context.Context) (Summary, error)
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	Close() error
}

type Outcome string

const (
	OutcomePassed      Outcome = "passed"
	OutcomeFailed      Outcome = "failed"
	OutcomeTimeout     Outcome = "timeout"
	OutcomeUnsupported Outcome = "unsupported"
)

type SolutionRun struct {
	RunID        string
	SessionID    string
	ProblemID    string
	SolutionPath string
	Extension    string
	Outcome      Outcome
	ExitCode     int
	Duration     time.Duration
	StartTS      time.Time
}

type Summary struct {
	Runs     int
	Passes   int
	Failures int
	Timeouts int
	Problems int
}

// ProblemProgress aggregates the runs of one problem. A problem counts as
// solved once any of its solutions ran cleanly.
type ProblemProgress struct {
	ProblemID    string
	RunCount     int
	PassCount    int
	BestTimeMS   int64
	LastRunTS    time.Time
	LastPassedTS time.Time
}

func (p ProblemProgress) Solved() bool { return p.PassCount > 0 }

// Setting keys.
const (
	SettingLastProblem = "last_problem"
	SettingTheme       = "theme"
)
