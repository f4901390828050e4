package extract

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/sigtrack/internal/track"
)

// DefaultDateLayouts are tried in order when parsing an extract date.
// Extract dates are day-first.
var DefaultDateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"2006-01-02",
}

// ErrNoDate is returned when the extract carries no report date at all.
var ErrNoDate = errors.New("extract has no report date")

// ParseReportDate parses a day-first extract date using the given layouts,
// or DefaultDateLayouts when layouts is empty. A trailing time component
// separated by a space is ignored.
func ParseReportDate(raw string, layouts []string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrNoDate
	}
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return track.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable report date %q (tried %s)", raw, strings.Join(layouts, ", "))
}
