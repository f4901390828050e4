package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/sigtrack/internal/engine"
	"github.com/roach88/sigtrack/internal/track"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <date>",
		Short: "Show the recorded results of a committed day",
		Long: `Print a committed day's change records, summaries and per-unit rollups
exactly as they were written. Nothing is recomputed.

The date is YYYY-MM-DD or any configured extract layout.

Examples:
  sigtrack show 2024-03-07
  sigtrack show 07/03/2024 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runShow(opts *RootOptions, arg string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	sess, err := openSession(f, opts, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	date, err := parseDay(arg, sess.cfg.DateLayouts)
	if err != nil {
		return f.FailWith(ErrCodeGeneric, ExitCommandError, err.Error())
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := sess.engine.Report(ctx, date)
	if err != nil {
		return f.Fail("show failed", err)
	}

	if f.JSON() {
		return f.Success(report)
	}
	printReport(f.Writer, report)
	return nil
}

func printReport(w io.Writer, r engine.DayReport) {
	fmt.Fprintf(w, "%s %s\n", track.FormatDate(r.Run.ReportDate), r.Run.RunID)
	fmt.Fprintf(w, "  committed %s by engine %s, %s\n",
		r.Run.CommittedAt.UTC().Format("2006-01-02T15:04:05Z"), r.Run.EngineVersion, plural(r.Run.ItemCount, "item"))
	fmt.Fprintf(w, "  new %d, removed %d, persisting %d\n", r.Counts.New, r.Counts.Removed, r.Counts.Persisting)
	if len(r.Changes) > 0 {
		fmt.Fprintln(w)
		printChanges(w, r.Changes)
	}
	printSummaries(w, r.Summaries)
	printUnits(w, r.Units)
}
