package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFlagsBeatFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("root: "+dir+"\ndata_dir: "+dir+"\nascii_only: false\n"), 0o644))
	t.Setenv("LEETCLI_PROBLEMS_DIR", "from-env")
	t.Setenv("LEETCLI_ASCII_ONLY", "false")

	cmd := newRootCmd()
	require.NoError(t, cmd.Flags().Set("ascii", "true"))
	require.NoError(t, cmd.Flags().Set("no-history", "true"))

	cfg, err := loadConfig(cmd, flags{config: path, ascii: true, noHistory: true})
	require.NoError(t, err)
	assert.True(t, cfg.ASCIIOnly)
	assert.False(t, cfg.History)
	assert.Equal(t, filepath.Join(dir, "from-env"), cfg.ProblemsDir)
	assert.Equal(t, filepath.Join(dir, "categories"), cfg.CategoriesDir)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	cmd := newRootCmd()
	_, err := loadConfig(cmd, flags{config: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestRootCommandRejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"extra"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	assert.Error(t, cmd.Execute())
}
