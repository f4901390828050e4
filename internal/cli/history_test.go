package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sigtrack/internal/track"
)

func TestHistory(t *testing.T) {
	env := setupTwoDays(t)

	out, _, err := env.run(t, "history", "A")
	require.NoError(t, err)
	assert.Equal(t,
		"2024-03-07  + NEW        1d  U1/T1\n"+
			"2024-03-08  - REMOVED    1d  U1/T1\n",
		out)
}

func TestHistory_JSON(t *testing.T) {
	env := setupTwoDays(t)

	out, _, err := env.run(t, "history", "B", "--format", "json")
	require.NoError(t, err)

	var history []track.ChangeRecord
	decodeResponse(t, out, &history)
	require.Len(t, history, 2)
	assert.Equal(t, track.CategoryNew, history[0].Category)
	assert.Equal(t, track.CategoryPersisting, history[1].Category)
}

func TestHistory_UnknownKey(t *testing.T) {
	env := setupTwoDays(t)

	out, _, err := env.run(t, "history", "Z")
	require.NoError(t, err)
	assert.Equal(t, "No history for Z.\n", out)
}
