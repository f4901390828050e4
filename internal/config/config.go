package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "sigtrack.cue"

// Config is a validated sigtrack configuration.
type Config struct {
	Database    string   `json:"database"`
	StrictDates bool     `json:"strict_dates"`
	DateLayouts []string `json:"date_layouts"`
	Baseline    Baseline `json:"baseline"`
	Directory   string   `json:"directory,omitempty"`
	MetricsFile string   `json:"metrics_file,omitempty"`

	// Source is the file the config was loaded from; empty for Default.
	Source string `json:"-"`
}

// Baseline holds managed populations. It satisfies engine.Baseline.
type Baseline struct {
	Units       map[string]int            `json:"units" yaml:"units"`
	Technicians map[string]map[string]int `json:"technicians" yaml:"technicians"`
}

// UnitPopulation returns the configured population of an org unit.
func (b Baseline) UnitPopulation(orgUnit string) (int, bool) {
	n, ok := b.Units[orgUnit]
	return n, ok
}

// TechnicianPopulation returns the configured population of one technician
// within an org unit.
func (b Baseline) TechnicianPopulation(orgUnit, technician string) (int, bool) {
	techs, ok := b.Technicians[orgUnit]
	if !ok {
		return 0, false
	}
	n, ok := techs[technician]
	return n, ok
}

// Error is a configuration error with the CUE position, if known.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Default returns the schema defaults.
func Default() (*Config, error) {
	return Parse(nil, "")
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// LoadOrDefault loads path, falling back to Default when path is the
// implicit DefaultPath and does not exist.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	if !explicit {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return Default()
		}
	}
	return Load(path)
}

// Parse validates CUE source against the schema. filename is used in error
// positions. A nil data yields the defaults.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err, "schema.cue")
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := def
	if data != nil {
		user := ctx.CompileBytes(data, cue.Filename(filename))
		if err := user.Err(); err != nil {
			return nil, formatCUEError(err, filename)
		}
		value = def.Unify(user)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, filename)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, formatCUEError(err, filename)
	}
	cfg.Source = filename

	if err := cfg.validate(value); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate checks what the schema cannot express.
func (c *Config) validate(v cue.Value) error {
	layouts := v.LookupPath(cue.ParsePath("date_layouts"))
	if len(c.DateLayouts) == 0 {
		return &Error{Field: "date_layouts", Message: "at least one layout is required", Pos: layouts.Pos()}
	}

	ref := time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)
	for i, layout := range c.DateLayouts {
		parsed, err := time.Parse(layout, ref.Format(layout))
		if err != nil || !parsed.Equal(ref) {
			elem := layouts.LookupPath(cue.MakePath(cue.Index(i)))
			return &Error{
				Field:   "date_layouts",
				Message: fmt.Sprintf("layout %q does not identify a calendar day", layout),
				Pos:     elem.Pos(),
			}
		}
	}

	if c.Database == "" {
		return &Error{Field: "database", Message: "path must not be empty", Pos: v.LookupPath(cue.ParsePath("database")).Pos()}
	}
	return nil
}

// formatCUEError extracts position info from CUE errors, preferring a
// position in the named file over one in the schema.
func formatCUEError(err error, filename string) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) == 0 {
		return &Error{Field: "cue", Message: first.Error()}
	}

	pos := positions[0]
	for _, p := range positions {
		if p.Filename() == filename {
			pos = p
			break
		}
	}
	return &Error{
		Field:   "cue",
		Message: first.Error(),
		Pos:     pos,
	}
}
