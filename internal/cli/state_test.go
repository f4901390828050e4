package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sigtrack/internal/track"
)

func setupTwoDays(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t)
	_, _, err := env.run(t, "commit", env.extract(t, "d1.yaml", "07/03/2024", "A", "B"))
	require.NoError(t, err)
	_, _, err = env.run(t, "commit", env.extract(t, "d2.yaml", "08/03/2024", "B"))
	require.NoError(t, err)
	return env
}

func TestState_All(t *testing.T) {
	env := setupTwoDays(t)

	out, _, err := env.run(t, "state")
	require.NoError(t, err)
	assert.Equal(t,
		"A  ENDED  1d  first=2024-03-07 last=2024-03-07\n"+
			"B  ACTIVE  2d  first=2024-03-07 last=2024-03-08\n",
		out)
}

func TestState_Active(t *testing.T) {
	env := setupTwoDays(t)

	out, _, err := env.run(t, "state", "--active")
	require.NoError(t, err)
	assert.Equal(t, "B  ACTIVE  2d  first=2024-03-07 last=2024-03-08\n", out)
}

func TestState_Key(t *testing.T) {
	env := setupTwoDays(t)

	out, _, err := env.run(t, "state", "B", "--format", "json")
	require.NoError(t, err)

	var state track.TrackingState
	resp := decodeResponse(t, out, &state)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "B", state.Key)
	assert.Equal(t, 2, state.ConsecutiveDays)
	assert.Equal(t, track.StatusActive, state.Status)
}

func TestState_UnknownKey(t *testing.T) {
	env := setupTwoDays(t)

	out, _, err := env.run(t, "state", "Z")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [NOT_FOUND]")
}

func TestState_Empty(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(t, "commit", env.extract(t, "d1.yaml", "07/03/2024"))
	require.NoError(t, err)

	out, _, err := env.run(t, "state")
	require.NoError(t, err)
	assert.Equal(t, "No tracked keys.\n", out)
}
