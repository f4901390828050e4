package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sigtrack/internal/config"
	"github.com/roach88/sigtrack/internal/extract"
	"github.com/roach88/sigtrack/internal/track"
)

// DefaultNow is the scenario clock when Now is not set.
const DefaultNow = "2024-01-01T09:00:00Z"

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Now is the RFC 3339 wall clock seen by the engine, used for date
	// fallback and ledger timestamps.
	Now string `yaml:"now,omitempty"`

	// StrictDates makes an unusable raw date an input error.
	StrictDates bool `yaml:"strict_dates,omitempty"`

	// Baseline supplies managed populations for summary ratios.
	Baseline *config.Baseline `yaml:"baseline,omitempty"`

	// Directory maps technician to org unit for rows with a blank unit.
	Directory map[string]string `yaml:"directory,omitempty"`

	// Days are committed in order.
	Days []DayStep `yaml:"days"`

	// Assertions validate the final store.
	// Supported types: category, streak, summary, history, run_count
	Assertions []Assertion `yaml:"assertions"`
}

// DayStep is one CommitDay call.
type DayStep struct {
	// Date is the report date as YYYY-MM-DD.
	Date string `yaml:"date,omitempty"`

	// RawDate is an extract-style date, parsed like a real extract.
	// Used when Date is empty.
	RawDate string `yaml:"raw_date,omitempty"`

	// Force re-runs an already committed day.
	Force bool `yaml:"force,omitempty"`

	// Items is the day's full extract.
	Items []extract.RawRecord `yaml:"items"`

	// Expect validates the commit outcome. Nil fields are not checked.
	Expect *DayExpect `yaml:"expect,omitempty"`
}

// DayExpect specifies the expected outcome of one commit.
type DayExpect struct {
	Mode         string `yaml:"mode,omitempty"`
	Error        string `yaml:"error,omitempty"` // RuntimeError code
	New          *int   `yaml:"new,omitempty"`
	Removed      *int   `yaml:"removed,omitempty"`
	Persisting   *int   `yaml:"persisting,omitempty"`
	Skipped      *int   `yaml:"skipped,omitempty"`
	StaleClosed  *int   `yaml:"stale_closed,omitempty"`
	InputChanged *bool  `yaml:"input_changed,omitempty"`
	DateFallback *bool  `yaml:"date_fallback,omitempty"`
}

// Assertion validates the final store.
type Assertion struct {
	// Type specifies the assertion type:
	// - "category": the key's change record on Date has Category
	// - "streak": the key's tracking state matches Days, Status, FirstSeen
	// - "summary": the (OrgUnit, Technician) summary on Date matches Expect
	// - "history": the key's categories across days equal Categories
	// - "run_count": exactly Count days are committed
	Type string `yaml:"type"`

	Date       string `yaml:"date,omitempty"`
	Key        string `yaml:"key,omitempty"`
	Category   string `yaml:"category,omitempty"`
	Days       int    `yaml:"days,omitempty"`
	Status     string `yaml:"status,omitempty"`
	FirstSeen  string `yaml:"first_seen,omitempty"`
	OrgUnit    string `yaml:"org_unit,omitempty"`
	Technician string `yaml:"technician,omitempty"`

	// Expect holds summary fields (used by summary):
	// current_total, new_count, removed_count, persisting_count,
	// managed_population.
	Expect map[string]int `yaml:"expect,omitempty"`

	// Categories is the expected category sequence (used by history).
	Categories []string `yaml:"categories,omitempty"`

	// Count is the expected number of committed days (used by run_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertCategory = "category"
	AssertStreak   = "streak"
	AssertSummary  = "summary"
	AssertHistory  = "history"
	AssertRunCount = "run_count"
)

var summaryFields = map[string]bool{
	"current_total":      true,
	"new_count":          true,
	"removed_count":      true,
	"persisting_count":   true,
	"managed_population": true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// clock returns the parsed Now, or DefaultNow.
func (s *Scenario) clock() (time.Time, error) {
	now := s.Now
	if now == "" {
		now = DefaultNow
	}
	return time.Parse(time.RFC3339, now)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := s.clock(); err != nil {
		return fmt.Errorf("now: %w", err)
	}
	if len(s.Days) == 0 {
		return fmt.Errorf("days list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, d := range s.Days {
		if d.Date != "" && d.RawDate != "" {
			return fmt.Errorf("days[%d]: date and raw_date are mutually exclusive", i)
		}
		if d.Date != "" {
			if _, err := track.ParseDate(d.Date); err != nil {
				return fmt.Errorf("days[%d]: %w", i, err)
			}
		}
		if d.Expect != nil && d.Expect.Mode != "" &&
			d.Expect.Mode != string(track.ModeWrite) && d.Expect.Mode != string(track.ModeReplay) {
			return fmt.Errorf("days[%d].expect: unknown mode %q", i, d.Expect.Mode)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needDate := func() error {
		if a.Date == "" {
			return fmt.Errorf("assertions[%d]: date is required for %s", index, a.Type)
		}
		if _, err := track.ParseDate(a.Date); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		return nil
	}

	switch a.Type {
	case AssertCategory:
		if err := needDate(); err != nil {
			return err
		}
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for category", index)
		}
		if !track.Category(a.Category).Valid() {
			return fmt.Errorf("assertions[%d]: unknown category %q", index, a.Category)
		}
	case AssertStreak:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for streak", index)
		}
		if a.Status != "" && a.Status != string(track.StatusActive) && a.Status != string(track.StatusEnded) {
			return fmt.Errorf("assertions[%d]: unknown status %q", index, a.Status)
		}
	case AssertSummary:
		if err := needDate(); err != nil {
			return err
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for summary", index)
		}
		for field := range a.Expect {
			if !summaryFields[field] {
				return fmt.Errorf("assertions[%d]: unknown summary field %q", index, field)
			}
		}
	case AssertHistory:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for history", index)
		}
	case AssertRunCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for run_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
