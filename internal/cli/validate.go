package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sigtrack/internal/config"
	"github.com/roach88/sigtrack/internal/extract"
)

// ValidationResult holds the outcome of a config check.
type ValidationResult struct {
	Valid            bool     `json:"valid"`
	Source           string   `json:"source,omitempty"`
	Database         string   `json:"database"`
	StrictDates      bool     `json:"strict_dates"`
	DateLayouts      []string `json:"date_layouts"`
	BaselineUnits    int      `json:"baseline_units"`
	BaselineTechs    int      `json:"baseline_technicians"`
	DirectoryEntries int      `json:"directory_entries,omitempty"`
}

// ValidationDetail locates a config error.
type ValidationDetail struct {
	Field  string `json:"field,omitempty"`
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long: `Check the CUE configuration against the schema without touching the
database. The technician directory, if configured, is loaded as well.

Exit codes:
  0 - Config valid
  1 - Config invalid
  2 - Command error

Examples:
  sigtrack validate
  sigtrack validate --config ./prod.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		var details any
		var cfgErr *config.Error
		if errors.As(err, &cfgErr) {
			detail := ValidationDetail{Field: cfgErr.Field}
			if cfgErr.Pos.IsValid() {
				detail.File = cfgErr.Pos.Filename()
				detail.Line = cfgErr.Pos.Line()
				detail.Column = cfgErr.Pos.Column()
			}
			details = detail
		}
		_ = f.Error(ErrCodeConfig, err.Error(), details)
		return WrapExitError(ExitFailure, "validation failed", err)
	}
	f.VerboseLog("Loaded config from %q", cfg.Source)

	result := ValidationResult{
		Valid:         true,
		Source:        cfg.Source,
		Database:      databasePath(opts, cfg),
		StrictDates:   cfg.StrictDates,
		DateLayouts:   cfg.DateLayouts,
		BaselineUnits: len(cfg.Baseline.Units),
	}
	for _, techs := range cfg.Baseline.Technicians {
		result.BaselineTechs += len(techs)
	}

	if cfg.Directory != "" {
		n, err := extract.NewDirectory(configPath(cfg, cfg.Directory)).Len()
		if err != nil {
			_ = f.Error(ErrCodeConfig, err.Error(), &ValidationDetail{Field: "directory"})
			return WrapExitError(ExitFailure, "validation failed", err)
		}
		result.DirectoryEntries = n
	}

	if f.JSON() {
		return f.Success(result)
	}

	source := result.Source
	if source == "" {
		source = "defaults"
	}
	fmt.Fprintf(f.Writer, "\u2713 Config valid (%s)\n", source)
	fmt.Fprintf(f.Writer, "  database: %s\n", result.Database)
	fmt.Fprintf(f.Writer, "  strict dates: %t\n", result.StrictDates)
	fmt.Fprintf(f.Writer, "  date layouts: %v\n", result.DateLayouts)
	fmt.Fprintf(f.Writer, "  baseline: %s, %s\n",
		plural(result.BaselineUnits, "unit"), plural(result.BaselineTechs, "technician"))
	if cfg.Directory != "" {
		fmt.Fprintf(f.Writer, "  directory: %d entries\n", result.DirectoryEntries)
	}
	return nil
}
