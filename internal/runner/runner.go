// Package runner executes solution files with the interpreter or compiler
// registered for their extension.
//
// Nothing here is sandboxed: a solution runs with the same privileges as the
// tool itself.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	shlex "github.com/anmitsu/go-shlex"
)

var (
	ErrUnsupportedExtension = errors.New("unsupported extension")
	ErrExecution            = errors.New("execution failed")
	ErrTimeout              = errors.New("execution timed out")
)

const DefaultTimeout = 10 * time.Second

// CommandFunc builds the process for a run. Tests swap it to observe spawns.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

type Options struct {
	Commands map[string]string
	Timeout  time.Duration
	Shell    string
	Command  CommandFunc
}

type Runner struct {
	commands map[string]string
	timeout  time.Duration
	shell    string
	command  CommandFunc
}

// Result is what a finished run produced.
type Result struct {
	Argv     []string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

func New(opts Options) *Runner {
	cmds := opts.Commands
	if cmds == nil {
		cmds = DefaultCommands
	}
	normalized := make(map[string]string, len(cmds))
	for ext, tmpl := range cmds {
		normalized[strings.ToLower(ext)] = tmpl
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Shell == "" {
		opts.Shell = "sh"
	}
	if opts.Command == nil {
		opts.Command = exec.CommandContext
	}
	return &Runner{commands: normalized, timeout: opts.Timeout, shell: opts.Shell, command: opts.Command}
}

func (r *Runner) Timeout() time.Duration { return r.timeout }

// Supports reports whether ext has a run command.
func (r *Runner) Supports(ext string) bool {
	_, ok := r.commands[strings.ToLower(ext)]
	return ok
}

// Argv resolves the command line for path without running anything.
// Templates that chain commands go through the shell with the path quoted;
// everything else is split and executed directly.
func (r *Runner) Argv(path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	tmpl, ok := r.commands[ext]
	if !ok {
		if ext == "" {
			ext = "(none)"
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExtension, ext)
	}
	if !strings.Contains(tmpl, FilePlaceholder) {
		tmpl += " " + FilePlaceholder
	}
	if strings.ContainsAny(tmpl, "&|;><") {
		script := strings.ReplaceAll(tmpl, FilePlaceholder, shellQuote(path))
		return []string{r.shell, "-c", script}, nil
	}
	words, err := shlex.Split(tmpl, true)
	if err != nil {
		return nil, fmt.Errorf("parse run command %q: %w", tmpl, err)
	}
	for i, w := range words {
		words[i] = strings.ReplaceAll(w, FilePlaceholder, path)
	}
	return words, nil
}

// Run executes the solution at path and waits for it, up to the configured
// timeout. An unknown extension fails before any process is created.
func (r *Runner) Run(ctx context.Context, path string) (Result, error) {
	argv, err := r.Argv(path)
	if err != nil {
		return Result{}, err
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := r.command(runCtx, argv[0], argv[1:]...)
	cmd.Dir = filepath.Dir(path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	started := time.Now()
	err = cmd.Run()
	res := Result{
		Argv:     argv,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(started),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("%w after %s%s", ErrTimeout, r.timeout, stderrSuffix(res.Stderr))
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return res, fmt.Errorf("%w: exit status %d%s", ErrExecution, res.ExitCode, stderrSuffix(res.Stderr))
		}
		return res, fmt.Errorf("%w: %v%s", ErrExecution, err, stderrSuffix(res.Stderr))
	}
	return res, nil
}

// Tool is one entry of a Probe report.
type Tool struct {
	Extension string
	Program   string
	Path      string
	Found     bool
}

// Probe checks which run commands have their program on PATH.
func (r *Runner) Probe() []Tool {
	exts := make([]string, 0, len(r.commands))
	for ext := range r.commands {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	out := make([]Tool, 0, len(exts))
	for _, ext := range exts {
		words, err := shlex.Split(r.commands[ext], true)
		if err != nil || len(words) == 0 {
			out = append(out, Tool{Extension: ext})
			continue
		}
		t := Tool{Extension: ext, Program: words[0]}
		if p, err := exec.LookPath(words[0]); err == nil {
			t.Path = p
			t.Found = true
		}
		out = append(out, t)
	}
	return out
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func stderrSuffix(stderr string) string {
	if stderr == "" {
		return ""
	}
	return "\n" + stderr
}
