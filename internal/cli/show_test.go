package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sigtrack/internal/engine"
	"github.com/roach88/sigtrack/internal/track"
)

func TestShow(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(t, "commit", env.extract(t, "d1.yaml", "07/03/2024", "A", "B"))
	require.NoError(t, err)

	for _, arg := range []string{"2024-03-07", "07/03/2024"} {
		t.Run(arg, func(t *testing.T) {
			out, _, err := env.run(t, "show", arg)
			require.NoError(t, err)
			assert.Contains(t, out, "2024-03-07 ")
			assert.Contains(t, out, "by engine "+track.EngineVersion+", 2 items")
			assert.Contains(t, out, "  + A  U1/T1  1d")
			assert.Contains(t, out, "Units:\n  U1  total=2 new=2 removed=0 persisting=0\n")
		})
	}
}

func TestShow_JSONMatchesCommit(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.run(t, "commit", env.extract(t, "d1.yaml", "07/03/2024", "A", "B"), "--format", "json")
	require.NoError(t, err)
	var committed engine.CommitResult
	decodeResponse(t, out, &committed)

	out, _, err = env.run(t, "show", "2024-03-07", "--format", "json")
	require.NoError(t, err)
	var report engine.DayReport
	resp := decodeResponse(t, out, &report)

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, committed.RunID, report.Run.RunID)
	assert.Equal(t, committed.Changes, report.Changes)
	assert.Equal(t, committed.Summaries, report.Summaries)
}

func TestShow_NotCommitted(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(t, "commit", env.extract(t, "d1.yaml", "07/03/2024", "A"))
	require.NoError(t, err)

	out, _, err := env.run(t, "show", "2024-03-08")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [DAY_NOT_COMMITTED]")
}

func TestShow_InvalidDate(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(t, "commit", env.extract(t, "d1.yaml", "07/03/2024", "A"))
	require.NoError(t, err)

	_, _, err = env.run(t, "show", "tomorrow")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid date")
}

func TestShow_MissingDatabase(t *testing.T) {
	env := newTestEnv(t)
	env.db = filepath.Join(env.dir, "missing.db")

	out, _, err := env.run(t, "show", "2024-03-07")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "database not found")
}
