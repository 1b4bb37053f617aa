package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"leetcli/internal/runner"
)

// EnvPrefix is prepended to every environment override, e.g.
// LEETCLI_RUN_TIMEOUT=5s or LEETCLI_UI_MOTION_LEVEL=off.
const EnvPrefix = "LEETCLI_"

// Config controls runtime behavior for the TUI app. Sources apply in order:
// defaults, config file, environment, flags.
type Config struct {
	Root          string        `yaml:"root" env:"ROOT"`
	ProblemsDir   string        `yaml:"problems_dir" env:"PROBLEMS_DIR"`
	CategoriesDir string        `yaml:"categories_dir" env:"CATEGORIES_DIR"`
	DataDir       string        `yaml:"data_dir" env:"DATA_DIR"`
	LogPath       string        `yaml:"log_path" env:"LOG_PATH"`
	RunTimeout    time.Duration `yaml:"run_timeout" env:"RUN_TIMEOUT"`
	// History keeps run outcomes in DataDir/history.db.
	History   bool     `yaml:"history" env:"HISTORY"`
	Debug     bool     `yaml:"debug" env:"DEBUG"`
	ASCIIOnly bool     `yaml:"ascii_only" env:"ASCII_ONLY"`
	UI        UIConfig `yaml:"ui" envPrefix:"UI_"`
}

type UIConfig struct {
	StyleVariant string `yaml:"style_variant" env:"STYLE_VARIANT"`
	MotionLevel  string `yaml:"motion_level" env:"MOTION_LEVEL"`
}

func DefaultConfig() Config {
	return Config{
		Root:       ".",
		RunTimeout: runner.DefaultTimeout,
		History:    true,
		UI: UIConfig{
			StyleVariant: "modern_arcade",
			MotionLevel:  "full",
		},
	}
}

// DefaultConfigPath is read when no --config is given and the file exists.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "leetcli", "config.yaml")
}

// LoadFile overlays the YAML file at path onto c. Keys missing from the file
// keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays LEETCLI_* variables from environ onto c. A nil environ
// reads the process environment.
func (c *Config) ApplyEnv(environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.UI.StyleVariant {
	case "", "modern_arcade", "cozy_clean", "retro_terminal":
	default:
		return fmt.Errorf("invalid ui style variant %q", c.UI.StyleVariant)
	}
	if c.UI.StyleVariant == "" {
		c.UI.StyleVariant = "modern_arcade"
	}
	switch c.UI.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return fmt.Errorf("invalid ui motion level %q", c.UI.MotionLevel)
	}
	if c.UI.MotionLevel == "" {
		c.UI.MotionLevel = "full"
	}
	if c.RunTimeout < 0 {
		return fmt.Errorf("invalid run timeout %s", c.RunTimeout)
	}
	if c.RunTimeout == 0 {
		c.RunTimeout = runner.DefaultTimeout
	}

	root := strings.TrimSpace(c.Root)
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root %q: %w", root, err)
	}
	c.Root = abs
	c.ProblemsDir = underRoot(c.Root, c.ProblemsDir, "problems")
	c.CategoriesDir = underRoot(c.Root, c.CategoriesDir, "categories")

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "leetcli")
	}
	return nil
}

func underRoot(root, dir, fallback string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = fallback
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}
