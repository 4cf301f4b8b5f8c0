package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command against a fresh SQLite store in dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("STORE_PATH", filepath.Join(dir, "cli.db"))
	t.Setenv("REMOTE_DRIVER", "")
	t.Setenv("MYHEALTH_TOKEN", "")

	// Flag values persist across executions of the package-level commands
	syncToken, weightUser, weightDate, weightRange, statsMetric = "", "guest", "", "Week", "weight"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", dir}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Structure(t *testing.T) {
	assert.Equal(t, "myhealth", rootCmd.Use)

	names := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Subset(t, names, []string{"serve", "sync", "stats", "weight"})

	sub := make([]string, 0)
	for _, cmd := range weightCmd.Commands() {
		sub = append(sub, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"add", "latest", "chart"}, sub)
}

func TestArgsValidation(t *testing.T) {
	assert.Error(t, statsCmd.Args(statsCmd, []string{}))
	assert.NoError(t, statsCmd.Args(statsCmd, []string{"Squat"}))
	assert.Error(t, weightAddCmd.Args(weightAddCmd, []string{}))
	assert.Error(t, weightLatestCmd.Args(weightLatestCmd, []string{"x"}))
	assert.Error(t, syncCmd.Args(syncCmd, []string{"x"}))
}

func TestWeightCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "weight", "latest")
	require.NoError(t, err)
	assert.Contains(t, out, "No body weight recorded")

	out, err = run(t, dir, "weight", "add", "72.5", "--date", "2025-02-03")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded 72.5 kg on 2025-02-03")

	out, err = run(t, dir, "weight", "latest")
	require.NoError(t, err)
	assert.Contains(t, out, "72.5 kg")

	_, err = run(t, dir, "weight", "add", "heavy")
	assert.Error(t, err)

	_, err = run(t, dir, "weight", "chart", "--range", "Decade")
	assert.Error(t, err)
}

func TestStatsCommand_EmptyHistory(t *testing.T) {
	out, err := run(t, t.TempDir(), "stats", "Squat")
	require.NoError(t, err)
	assert.Contains(t, out, "max weight:   0")
	assert.NotContains(t, out, "PR date")
}

func TestSyncCommand(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "sync")
	assert.ErrorContains(t, err, "session token is required")

	_, err = run(t, dir, "sync", "--token", "garbage")
	assert.ErrorContains(t, err, "sign in")
}
