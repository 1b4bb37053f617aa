package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leetcli/internal/catalog"
	"leetcli/internal/state"
	"leetcli/internal/telemetry"
	"leetcli/internal/ui"
)

type fakeView struct {
	mu      sync.Mutex
	menu    []ui.MainMenuState
	stats   []ui.StatsState
	screen  ui.Screen
	stopped int
}

func (v *fakeView) Run(context.Context) error   { return nil }
func (v *fakeView) SetController(ui.Controller) {}
func (v *fakeView) FlashStatus(string)          {}

func (v *fakeView) Stop() {
	v.mu.Lock()
	v.stopped++
	v.mu.Unlock()
}

func (v *fakeView) SetScreen(screen ui.Screen) {
	v.mu.Lock()
	v.screen = screen
	v.mu.Unlock()
}

func (v *fakeView) SetStats(st ui.StatsState) {
	v.mu.Lock()
	v.stats = append(v.stats, st)
	v.mu.Unlock()
}

func (v *fakeView) SetMainMenuState(st ui.MainMenuState) {
	v.mu.Lock()
	v.menu = append(v.menu, st)
	v.mu.Unlock()
}

func (v *fakeView) lastMenu() ui.MainMenuState {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.menu) == 0 {
		return ui.MainMenuState{}
	}
	return v.menu[len(v.menu)-1]
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Root = t.TempDir()
	cfg.DataDir = filepath.Join(cfg.Root, "data")
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestApp(t *testing.T, withStore bool) (*App, *fakeView) {
	t.Helper()
	cfg := testConfig(t)
	logger, err := telemetry.NewJSONLogger(telemetry.Options{})
	require.NoError(t, err)
	var store *state.SQLiteStore
	if withStore {
		store, err = state.NewSQLite(filepath.Join(cfg.DataDir, "history.db"))
		require.NoError(t, err)
		require.NoError(t, store.EnsureSchema(context.Background()))
	}
	view := &fakeView{}
	a := newApp(cfg, logger, store, view, "test-session")
	t.Cleanup(a.Close)
	return a, view
}

func TestMainMenuStateWarnsWithoutProblemsDir(t *testing.T) {
	a, _ := newTestApp(t, false)
	st := a.mainMenuState(context.Background())
	assert.Contains(t, st.Warning, "Environment setup")
	assert.Zero(t, st.ProblemCount)
	assert.Nil(t, st.LastRun)
}

func TestMainMenuStateCountsSolvedProblems(t *testing.T) {
	a, view := newTestApp(t, true)
	_, err := a.repo.EnsureLayout()
	require.NoError(t, err)
	_, err = a.repo.CreateProblem(catalog.NewProblem{ID: "1", Title: "Two Sum", Language: "go"})
	require.NoError(t, err)
	_, err = a.repo.CreateProblem(catalog.NewProblem{ID: "2", Title: "Valid Anagram", Language: "python"})
	require.NoError(t, err)
	problems, err := a.repo.ListProblems()
	require.NoError(t, err)
	require.Len(t, problems, 2)

	ctx := context.Background()
	start := time.Now().Add(-time.Minute)
	require.NoError(t, a.store.RecordRun(ctx, state.SolutionRun{SessionID: "s", ProblemID: problems[0].ID, SolutionPath: "/x/solution.go", Extension: "go", Outcome: state.OutcomePassed, Duration: time.Second, StartTS: start}))
	require.NoError(t, a.store.RecordRun(ctx, state.SolutionRun{SessionID: "s", ProblemID: problems[1].ID, SolutionPath: "/x/solution.py", Extension: "py", Outcome: state.OutcomeFailed, ExitCode: 1, StartTS: start}))
	require.NoError(t, a.store.SaveSettings(ctx, map[string]string{state.SettingLastProblem: problems[1].ID}))

	a.OnFlowDone(ui.ActionRunSolution, true)
	st := view.lastMenu()
	assert.Empty(t, st.Warning)
	assert.Equal(t, 2, st.ProblemCount)
	assert.Equal(t, 1, st.SolvedCount)
	assert.Equal(t, 2, st.Runs)
	assert.Equal(t, 1, st.Passes)
	assert.Equal(t, problems[1].ID, st.LastProblem)
	require.NotNil(t, st.LastRun)
	assert.Equal(t, "solution.py", st.LastRun.File)
	assert.Equal(t, "failed", st.LastRun.Outcome)
}

func TestStatsWithoutHistoryExplains(t *testing.T) {
	a, view := newTestApp(t, false)
	a.OnOpenStats()
	require.Len(t, view.stats, 1)
	assert.Contains(t, view.stats[0].Err, "history is disabled")
}

func TestStatsListRecentRuns(t *testing.T) {
	a, view := newTestApp(t, true)
	ctx := context.Background()
	for i, outcome := range []state.Outcome{state.OutcomePassed, state.OutcomeTimeout} {
		require.NoError(t, a.store.RecordRun(ctx, state.SolutionRun{
			SessionID: "s", ProblemID: "0001", SolutionPath: "/p/solution.go", Extension: "go",
			Outcome: outcome, StartTS: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}
	a.OnOpenStats()
	require.Len(t, view.stats, 1)
	st := view.stats[0]
	assert.Empty(t, st.Err)
	assert.Equal(t, 2, st.Runs)
	assert.Equal(t, 1, st.Timeouts)
	assert.Equal(t, 1, st.Solved)
	require.Len(t, st.Recent, 2)
	assert.Equal(t, "timeout", st.Recent[0].Outcome)
}

func TestFlowMapsMenuActions(t *testing.T) {
	a, _ := newTestApp(t, false)
	for _, action := range []ui.Action{ui.ActionCreateProblem, ui.ActionRunSolution, ui.ActionBrowse, ui.ActionSearch, ui.ActionSetup} {
		flow, err := a.Flow(action, "")
		require.NoError(t, err, action)
		assert.NotEmpty(t, flow.Steps, action)
	}

	_, err := a.Flow(ui.ActionContinue, "")
	assert.Error(t, err)
	flow, err := a.Flow(ui.ActionContinue, "0007")
	require.NoError(t, err)
	assert.NotEmpty(t, flow.Start)

	_, err = a.Flow(ui.ActionStats, "")
	assert.Error(t, err)
}

func TestOnQuitStopsView(t *testing.T) {
	a, view := newTestApp(t, false)
	a.OnQuit()
	assert.Equal(t, 1, view.stopped)
}
