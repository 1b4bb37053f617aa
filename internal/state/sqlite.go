package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS solution_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			session_id TEXT NOT NULL,
			problem_id TEXT NOT NULL,
			solution_path TEXT NOT NULL,
			extension TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			exit_code INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			start_ts TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS solution_runs_problem ON solution_runs(problem_id);`,
		`CREATE TABLE IF NOT EXISTS problem_progress (
			problem_id TEXT PRIMARY KEY,
			run_count INTEGER NOT NULL DEFAULT 0,
			pass_count INTEGER NOT NULL DEFAULT 0,
			best_time_ms INTEGER NOT NULL DEFAULT 0,
			last_run_ts TEXT NOT NULL DEFAULT '',
			last_passed_ts TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// RecordRun stores one run and folds it into the problem's progress row in
// the same transaction.
func (s *SQLiteStore) RecordRun(ctx context.Context, run SolutionRun) (err error) {
	problemID := strings.TrimSpace(run.ProblemID)
	if problemID == "" {
		return errors.New("record run: missing problem id")
	}
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.StartTS.IsZero() {
		run.StartTS = time.Now().UTC()
	}
	passed := run.Outcome == OutcomePassed
	durationMS := max(0, run.Duration.Milliseconds())
	startTS := run.StartTS.UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO solution_runs(run_id, session_id, problem_id, solution_path, extension, outcome, exit_code, duration_ms, start_ts)
		VALUES(?,?,?,?,?,?,?,?,?)
	`,
		run.RunID,
		run.SessionID,
		problemID,
		run.SolutionPath,
		strings.ToLower(run.Extension),
		string(run.Outcome),
		run.ExitCode,
		durationMS,
		startTS,
	); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	passTS, bestMS := "", int64(0)
	if passed {
		passTS, bestMS = startTS, durationMS
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO problem_progress(problem_id, run_count, pass_count, best_time_ms, last_run_ts, last_passed_ts)
		VALUES(?, 1, ?, ?, ?, ?)
		ON CONFLICT(problem_id) DO UPDATE SET
			run_count = problem_progress.run_count + 1,
			pass_count = problem_progress.pass_count + excluded.pass_count,
			best_time_ms = CASE
				WHEN excluded.pass_count > 0 AND (problem_progress.best_time_ms = 0 OR excluded.best_time_ms < problem_progress.best_time_ms) THEN excluded.best_time_ms
				ELSE problem_progress.best_time_ms
			END,
			last_run_ts = excluded.last_run_ts,
			last_passed_ts = CASE
				WHEN excluded.last_passed_ts <> '' THEN excluded.last_passed_ts
				ELSE problem_progress.last_passed_ts
			END
	`,
		problemID,
		ifThen(passed, 1, 0),
		bestMS,
		startTS,
		passTS,
	); err != nil {
		return fmt.Errorf("record progress: %w", err)
	}
	return tx.Commit()
}

// RecentRuns returns the newest runs first.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]SolutionRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, session_id, problem_id, solution_path, extension, outcome, exit_code, duration_ms, start_ts
		FROM solution_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SolutionRun
	for rows.Next() {
		var (
			run        SolutionRun
			outcome    string
			durationMS int64
			startRaw   string
		)
		if err := rows.Scan(&run.RunID, &run.SessionID, &run.ProblemID, &run.SolutionPath, &run.Extension, &outcome, &run.ExitCode, &durationMS, &startRaw); err != nil {
			return nil, err
		}
		run.Outcome = Outcome(outcome)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		if t, err := time.Parse(timeLayout, startRaw); err == nil {
			run.StartTS = t
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) GetProblemProgressMap(ctx context.Context) (map[string]ProblemProgress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT problem_id, run_count, pass_count, best_time_ms, last_run_ts, last_passed_ts
		FROM problem_progress
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]ProblemProgress{}
	for rows.Next() {
		var (
			p          ProblemProgress
			lastRun    string
			lastPassed string
		)
		if err := rows.Scan(&p.ProblemID, &p.RunCount, &p.PassCount, &p.BestTimeMS, &lastRun, &lastPassed); err != nil {
			return nil, err
		}
		if t, err := time.Parse(timeLayout, lastRun); err == nil {
			p.LastRunTS = t
		}
		if t, err := time.Parse(timeLayout, lastPassed); err == nil {
			p.LastPassedTS = t
		}
		out[p.ProblemID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) GetSummary(ctx context.Context) (Summary, error) {
	var out Summary
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) AS runs,
			COALESCE(SUM(outcome = ?), 0) AS passes,
			COALESCE(SUM(outcome = ?), 0) AS failures,
			COALESCE(SUM(outcome = ?), 0) AS timeouts,
			COUNT(DISTINCT problem_id) AS problems
		FROM solution_runs
	`, string(OutcomePassed), string(OutcomeFailed), string(OutcomeTimeout))
	if err := row.Scan(&out.Runs, &out.Passes, &out.Failures, &out.Timeouts, &out.Problems); err != nil {
		return Summary{}, err
	}
	return out, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, values map[string]string) (err error) {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for key, value := range values {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO app_settings(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func ifThen(cond bool, yes, no int) int {
	if cond {
		return yes
	}
	return no
}
