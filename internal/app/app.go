package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"leetcli/internal/catalog"
	"leetcli/internal/flows"
	"leetcli/internal/fsutil"
	"leetcli/internal/runner"
	"leetcli/internal/state"
	"leetcli/internal/telemetry"
	"leetcli/internal/templates"
	"leetcli/internal/ui"
	"leetcli/internal/wizard"
)

const recentRunsShown = 10

// App glues the problem repository, the runner and the run history to the
// UI. It is the ui.Controller.
type App struct {
	cfg Config

	logger *telemetry.JSONLogger
	// store is nil when history is disabled.
	store  *state.SQLiteStore
	repo   *catalog.Repository
	runner *runner.Runner
	flows  *flows.Builder

	view      ui.View
	sessionID string
}

func New(cfg Config) (*App, error) {
	sessionID := uuid.NewString()
	logger, err := telemetry.NewJSONLogger(telemetry.Options{Path: cfg.LogPath, SessionID: sessionID, Debug: cfg.Debug})
	if err != nil {
		return nil, err
	}

	var store *state.SQLiteStore
	if cfg.History {
		store, err = state.NewSQLite(filepath.Join(cfg.DataDir, "history.db"))
		if err == nil {
			err = store.EnsureSchema(context.Background())
		}
		if err != nil {
			// History is an extra; the tool works without it.
			logger.Error("history.open_failed", map[string]any{"err": err.Error(), "data_dir": cfg.DataDir})
			if store != nil {
				_ = store.Close()
			}
			store = nil
		}
	}

	uiOpts := ui.Options{
		ASCIIOnly:    cfg.ASCIIOnly,
		Debug:        cfg.Debug,
		StyleVariant: cfg.UI.StyleVariant,
		MotionLevel:  cfg.UI.MotionLevel,
	}
	if cfg.LogPath != "" {
		uiOpts.Logger = logger.Component("ui")
	}
	view := ui.New(uiOpts)

	a := newApp(cfg, logger, store, view, sessionID)
	view.SetController(a)
	return a, nil
}

func newApp(cfg Config, logger *telemetry.JSONLogger, store *state.SQLiteStore, view ui.View, sessionID string) *App {
	repo := catalog.NewRepository(cfg.ProblemsDir, cfg.CategoriesDir, templates.Default())
	run := runner.New(runner.Options{Timeout: cfg.RunTimeout})

	var history flows.History
	if store != nil {
		history = store
	}
	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		repo:      repo,
		runner:    run,
		view:      view,
		sessionID: sessionID,
	}
	a.flows = flows.New(flows.Options{
		Catalog:   repo,
		Runner:    run,
		History:   history,
		Logger:    logger,
		SessionID: sessionID,
	})
	return a
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app.start", map[string]any{
		"problems_dir": a.cfg.ProblemsDir,
		"history":      a.store != nil,
		"run_timeout":  a.cfg.RunTimeout.String(),
	})
	a.view.SetMainMenuState(a.mainMenuState(ctx))
	a.view.SetScreen(ui.ScreenMainMenu)
	err := a.view.Run(ctx)
	a.logger.Info("app.stop", nil)
	return err
}

func (a *App) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	_ = a.logger.Close()
}

// Flow implements ui.Controller.
func (a *App) Flow(action ui.Action, arg string) (wizard.Flow, error) {
	a.logger.Info("flow.mount", map[string]any{"flow": string(action), "arg": arg})
	if action == ui.ActionContinue {
		if arg == "" {
			return wizard.Flow{}, errors.New("no problem to continue with")
		}
		return a.flows.OpenProblem(arg), nil
	}
	return a.flows.Flow(flows.Name(action))
}

func (a *App) OnFlowDone(action ui.Action, completed bool) {
	a.logger.Debug("flow.done", map[string]any{"flow": string(action), "completed": completed})
	a.view.SetMainMenuState(a.mainMenuState(context.Background()))
}

func (a *App) OnOpenStats() {
	a.view.SetStats(a.statsState(context.Background()))
}

func (a *App) OnQuit() {
	a.view.Stop()
}

func (a *App) mainMenuState(ctx context.Context) ui.MainMenuState {
	st := ui.MainMenuState{ProblemsDir: a.repo.ProblemsDir()}
	problems, err := a.repo.ListProblems()
	switch {
	case err != nil:
		st.Warning = "Cannot read problems: " + err.Error()
	case !fsutil.IsDir(a.repo.ProblemsDir()):
		st.Warning = fmt.Sprintf("No problems folder at %s yet. Run Environment setup to create it.", a.repo.ProblemsDir())
	}
	st.ProblemCount = len(problems)
	if cats, err := a.repo.ListCategories(); err == nil {
		st.CategoryCount = len(cats)
	}
	if a.store == nil {
		return st
	}

	if progress, err := a.store.GetProblemProgressMap(ctx); err == nil {
		for _, p := range problems {
			if pp, ok := progress[p.ID]; ok && pp.Solved() {
				st.SolvedCount++
			}
		}
	}
	if summary, err := a.store.GetSummary(ctx); err == nil {
		st.Runs = summary.Runs
		st.Passes = summary.Passes
	}
	if recent, err := a.store.RecentRuns(ctx, 1); err == nil && len(recent) > 0 {
		row := runRow(recent[0])
		st.LastRun = &row
	}
	if settings, err := a.store.LoadSettings(ctx); err == nil {
		st.LastProblem = settings[state.SettingLastProblem]
	}
	return st
}

func (a *App) statsState(ctx context.Context) ui.StatsState {
	if a.store == nil {
		return ui.StatsState{Err: "Run history is disabled. Set history: true in the config to record runs."}
	}
	summary, err := a.store.GetSummary(ctx)
	if err != nil {
		return ui.StatsState{Err: "Failed to load stats: " + err.Error()}
	}
	st := ui.StatsState{
		Runs:     summary.Runs,
		Passes:   summary.Passes,
		Failures: summary.Failures,
		Timeouts: summary.Timeouts,
		Problems: summary.Problems,
	}
	if progress, err := a.store.GetProblemProgressMap(ctx); err == nil {
		for _, p := range progress {
			if p.Solved() {
				st.Solved++
			}
		}
	}
	recent, err := a.store.RecentRuns(ctx, recentRunsShown)
	if err != nil {
		st.Err = "Failed to load recent runs: " + err.Error()
		return st
	}
	for _, run := range recent {
		st.Recent = append(st.Recent, runRow(run))
	}
	return st
}

func runRow(run state.SolutionRun) ui.RunRow {
	return ui.RunRow{
		ProblemID: run.ProblemID,
		File:      filepath.Base(run.SolutionPath),
		Outcome:   string(run.Outcome),
		ExitCode:  run.ExitCode,
		Duration:  run.Duration,
		When:      run.StartTS,
	}
}

var _ ui.Controller = (*App)(nil)
