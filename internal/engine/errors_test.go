package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *RuntimeError
		want string
	}{
		{
			name: "input",
			err:  NewInputError("report date", errors.New("bad")),
			want: "INVALID_INPUT: report date: bad",
		},
		{
			name: "inconsistency",
			err:  NewInconsistencyError("2024-03-08", "B", "PERSISTING key has no tracking state"),
			want: "STREAK_INCONSISTENT: PERSISTING key has no tracking state (date=2024-03-08, key=B)",
		},
		{
			name: "later day",
			err:  NewLaterDayError("2024-03-07", "2024-03-08"),
			want: "LATER_DAY_COMMITTED: day 2024-03-08 is already committed (date=2024-03-07)",
		},
		{
			name: "commit",
			err:  NewCommitError("2024-03-07", errors.New("disk full")),
			want: "COMMIT_FAILED: transaction rolled back (date=2024-03-07): disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestRuntimeError_Predicates(t *testing.T) {
	inconsistent := NewInconsistencyError("2024-03-08", "B", "x")
	wrapped := fmt.Errorf("commit: %w", inconsistent)
	underCommit := NewCommitError("2024-03-08", inconsistent)

	assert.True(t, IsInconsistencyError(inconsistent))
	assert.True(t, IsInconsistencyError(wrapped))
	assert.True(t, IsInconsistencyError(underCommit), "looks through COMMIT_FAILED")
	assert.True(t, IsCommitError(underCommit))

	assert.False(t, IsInputError(inconsistent))
	assert.False(t, IsLaterDayError(wrapped))
	assert.False(t, IsCommitError(errors.New("plain")))
	assert.False(t, IsInputError(nil))

	assert.True(t, IsLaterDayError(NewLaterDayError("a", "b")))
	assert.True(t, IsInputError(NewInputError("x", nil)))
}

func TestRuntimeError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	err := NewCommitError("2024-03-07", cause)
	assert.ErrorIs(t, err, cause)
}
