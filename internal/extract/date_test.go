package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sigtrack/internal/track"
)

func TestParseReportDate_DayFirst(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"03/04/2026", "2026-04-03"},
		{"3/4/2026", "2026-04-03"},
		{"03-04-2026", "2026-04-03"},
		{"03.04.2026", "2026-04-03"},
		{"2026-04-03", "2026-04-03"},
		{" 03/04/2026 07:15:00 ", "2026-04-03"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			d, err := ParseReportDate(tt.raw, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, track.FormatDate(d))
		})
	}
}

func TestParseReportDate_Empty(t *testing.T) {
	_, err := ParseReportDate("  ", nil)
	assert.ErrorIs(t, err, ErrNoDate)
}

func TestParseReportDate_Unparsable(t *testing.T) {
	_, err := ParseReportDate("31/02/2026", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unparsable report date")

	_, err = ParseReportDate("yesterday", nil)
	assert.Error(t, err)
}

func TestParseReportDate_CustomLayouts(t *testing.T) {
	d, err := ParseReportDate("20261014", []string{"20060102"})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-14", track.FormatDate(d))

	_, err = ParseReportDate("14/10/2026", []string{"20060102"})
	assert.Error(t, err)
}
