package commands

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phaseplane/odekit/internal/cli/output"
	"github.com/phaseplane/odekit/internal/state"
)

// seedRunHistory records a completed run in a file-backed store.
func seedRunHistory(t *testing.T, statePath string, kind state.RunKind, modelPath string) {
	t.Helper()

	store := state.NewSQLiteStore()
	require.NoError(t, store.Open(statePath))
	require.NoError(t, store.Migrate())
	run, err := store.CreateRun(kind, modelPath)
	require.NoError(t, err)
	require.NoError(t, store.CompleteRun(run.ID, state.RunStatusSuccess, 4001, ""))
	require.NoError(t, store.Close())
}

func TestHistoryEmpty(t *testing.T) {
	t.Setenv("ODEKIT_STATE_PATH", state.MemoryPath)

	stdout, _, err := execCommand(t, NewHistoryCommand())
	require.NoError(t, err)
	assert.Contains(t, stdout, "no runs recorded yet")
}

func TestHistoryListsRuns(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.db")
	t.Setenv("ODEKIT_STATE_PATH", statePath)
	seedRunHistory(t, statePath, state.RunKindRun, "fhn.ode")

	stdout, _, err := execCommand(t, NewHistoryCommand())
	require.NoError(t, err)
	assert.Contains(t, stdout, "fhn.ode")
	assert.Contains(t, stdout, "success")
	assert.Contains(t, stdout, "4001")
	assert.Contains(t, stdout, "(1 runs)")
}

func TestHistoryJSON(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.db")
	t.Setenv("ODEKIT_STATE_PATH", statePath)
	t.Setenv("ODEKIT_OUTPUT", "json")
	seedRunHistory(t, statePath, state.RunKindSweep, "fhn.ode")

	stdout, _, err := execCommand(t, NewHistoryCommand())
	require.NoError(t, err)

	var runs []state.Run
	require.NoError(t, json.Unmarshal([]byte(stdout), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, state.RunKindSweep, runs[0].Kind)
	assert.Equal(t, state.RunStatusSuccess, runs[0].Status)
	assert.Equal(t, int64(4001), runs[0].Rows)
	assert.NotNil(t, runs[0].CompletedAt)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0123abcd", shortID("0123abcd-ffff-eeee"))
	assert.Equal(t, "tiny", shortID("tiny"))
}

func TestStatusStyle(t *testing.T) {
	s := output.DefaultStyles()
	assert.Equal(t, s.Success, statusStyle(s, state.RunStatusSuccess))
	assert.Equal(t, s.Error, statusStyle(s, state.RunStatusError))
	assert.Equal(t, s.Info, statusStyle(s, state.RunStatusRunning))
}
