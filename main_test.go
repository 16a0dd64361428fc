package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LostLucidity/lucid-ai-sub002/config"
	"github.com/LostLucidity/lucid-ai-sub002/plan"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	configPath = ""
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPlanValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "two-rax.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`title: Two Rax
race: terran
steps:
  - {supply: 14, action: Supply Depot}
  - {supply: 16, action: Barracks x2}
  - {supply: 19, action: Battlecruiser Rush Plan}
`), 0o644))

	out, err := execute(t, "plan", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ two-rax (terran, Two Rax): 3 steps")
	assert.Contains(t, out, `unresolved supply 19: "Battlecruiser Rush Plan"`)
}

func TestPlanValidateRejectsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: x\nrace: elf\nsteps: []\n"), 0o644))

	_, err := execute(t, "plan", "validate", path)
	assert.Error(t, err)
}

func TestPlanShow(t *testing.T) {
	out, err := execute(t, "plan", "show", "terran", "terran-bunker")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Greater(t, len(lines), 3)
	assert.True(t, strings.HasPrefix(lines[0], "terran-bunker: "))
	assert.Contains(t, lines[1], "selector: ")
	assert.Contains(t, lines[2], "SCV")
}

func TestPlanShowUnknown(t *testing.T) {
	_, err := execute(t, "plan", "show", "zerg", "terran-bunker")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zerg-roach")

	_, err = execute(t, "plan", "show", "elf", "x")
	assert.ErrorIs(t, err, plan.ErrUndefinedRace)
}

func TestNewLoggerJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lucid.log")
	logger, closer, err := newLogger(config.LoggingConfig{Level: "debug", Format: "json", Output: "file", FilePath: path})
	require.NoError(t, err)

	logger.Debug("pass planned", "commands", 2)
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(raw), &line))
	assert.Equal(t, "pass planned", line["msg"])
	assert.Equal(t, "DEBUG", line["level"])
	assert.EqualValues(t, 2, line["commands"])
}

func TestNewLoggerRejectsLevel(t *testing.T) {
	_, _, err := newLogger(config.LoggingConfig{Level: "loud", Format: "text", Output: "stdout"})
	assert.Error(t, err)
}

func TestBuildLibraryOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zerg-roach.yaml"), []byte(`title: Pool First
race: zerg
steps:
  - {supply: 17, action: Spawning Pool}
`), 0o644))

	cfg := config.PlanConfig{Dir: dir}
	c, err := catalogSource(cfg)()
	require.NoError(t, err)
	lib, err := buildLibrary(cfg)(c)
	require.NoError(t, err)

	o, ok := lib.Get("zerg-roach")
	require.True(t, ok)
	assert.Equal(t, "Pool First", o.Title)
	assert.Len(t, lib.Keys(), 4)
}
