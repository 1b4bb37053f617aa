package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"leetcli/internal/app"
)

var version = "dev"

type flags struct {
	config        string
	root          string
	problemsDir   string
	categoriesDir string
	dataDir       string
	logPath       string
	debug         bool
	ascii         bool
	noHistory     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "leetcli:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "leetcli",
		Short:         "Practice coding problems from the terminal",
		Long:          "leetcli keeps numbered coding problems in a folder tree, scaffolds solutions in several languages and runs them.",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
				return errors.New("an interactive terminal is required")
			}
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(cmd.Context())
		},
	}
	pf := cmd.Flags()
	pf.StringVar(&f.config, "config", "", "path to a YAML config file")
	pf.StringVar(&f.root, "root", "", "workspace root holding problems/ and categories/")
	pf.StringVar(&f.problemsDir, "problems-dir", "", "problems directory (default <root>/problems)")
	pf.StringVar(&f.categoriesDir, "categories-dir", "", "categories directory (default <root>/categories)")
	pf.StringVar(&f.dataDir, "data-dir", "", "where run history is kept")
	pf.StringVar(&f.logPath, "log", "", "write JSON logs to this file")
	pf.BoolVar(&f.debug, "debug", false, "verbose logs and layout info")
	pf.BoolVar(&f.ascii, "ascii", false, "draw with ASCII only")
	pf.BoolVar(&f.noHistory, "no-history", false, "do not record solution runs")
	return cmd
}

// loadConfig layers defaults, the config file, LEETCLI_* variables and then
// any flag the user actually set.
func loadConfig(cmd *cobra.Command, f flags) (app.Config, error) {
	cfg := app.DefaultConfig()
	switch {
	case f.config != "":
		if err := cfg.LoadFile(f.config); err != nil {
			return cfg, err
		}
	default:
		if path := app.DefaultConfigPath(); path != "" {
			if err := cfg.LoadFile(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return cfg, err
			}
		}
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return cfg, err
	}

	set := cmd.Flags().Changed
	if set("root") {
		cfg.Root = f.root
	}
	if set("problems-dir") {
		cfg.ProblemsDir = f.problemsDir
	}
	if set("categories-dir") {
		cfg.CategoriesDir = f.categoriesDir
	}
	if set("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if set("log") {
		cfg.LogPath = f.logPath
	}
	if set("debug") {
		cfg.Debug = f.debug
	}
	if set("ascii") {
		cfg.ASCIIOnly = f.ascii
	}
	if set("no-history") {
		cfg.History = !f.noHistory
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
