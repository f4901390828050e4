package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/sigtrack/internal/engine"
	"github.com/roach88/sigtrack/internal/extract"
	"github.com/roach88/sigtrack/internal/track"
)

// CommitOptions holds flags for the commit command.
type CommitOptions struct {
	*RootOptions
	Date  string // overrides the extract's report date
	Force bool

	// Clock and RunIDs override the engine defaults (for testing).
	Clock  engine.Clock
	RunIDs engine.RunIDGenerator
}

// NewCommitCommand creates the commit command.
func NewCommitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CommitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "commit <extract>",
		Short: "Commit one day's extract",
		Long: `Classify every signature in the extract as NEW, PERSISTING or REMOVED
against the previous day, update streaks and summaries, and record the day
in the run ledger. All of it is written in one transaction.

Committing a day that is already in the ledger writes nothing and prints the
recorded results. Use --force to re-run the most recent day.

The extract is YAML, JSON or CSV. Its report date is day-first
(e.g. 07/03/2024); --date overrides it.

Exit codes:
  0 - Day committed or replayed
  1 - Commit failed (inconsistent state, later day committed, database error)
  2 - Command error (unreadable extract, invalid date in strict mode, bad config)

Examples:
  sigtrack commit ./extract-2024-03-07.yaml
  sigtrack commit ./extract.csv --date 07/03/2024
  sigtrack commit ./extract.yaml --force --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Date, "date", "", "report date, overriding the extract's")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "re-run an already committed day")

	return cmd
}

func runCommit(opts *CommitOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	ex, err := extract.Load(path)
	if err != nil {
		return f.FailWith(ErrCodeExtract, ExitCommandError, err.Error())
	}
	f.VerboseLog("Loaded %d row(s) from %s", len(ex.Records), path)

	var extra []engine.Option
	if opts.Clock != nil {
		extra = append(extra, engine.WithClock(opts.Clock))
	}
	if opts.RunIDs != nil {
		extra = append(extra, engine.WithRunIDGenerator(opts.RunIDs))
	}
	sess, err := openSession(f, opts.RootOptions, false, extra...)
	if err != nil {
		return err
	}
	defer sess.Close()

	normalizer := extract.DefaultNormalizer{}
	if sess.cfg.Directory != "" {
		normalizer.Directory = extract.NewDirectory(configPath(sess.cfg, sess.cfg.Directory))
	}
	items, err := extract.NormalizeAll(normalizer, ex.Records)
	if err != nil {
		return f.FailWith(ErrCodeExtract, ExitCommandError, err.Error())
	}

	// An explicit --date never falls back to today; only the extract's own
	// date field does.
	req := engine.CommitRequest{
		RawDate: ex.ReportDate,
		Items:   items,
		Force:   opts.Force,
	}
	if opts.Date != "" {
		date, err := parseDay(opts.Date, sess.cfg.DateLayouts)
		if err != nil {
			return f.FailWith(ErrCodeDate, ExitCommandError, err.Error())
		}
		req.ReportDate = date
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := sess.engine.CommitDay(ctx, req)
	writeMetrics(sess)
	if err != nil {
		return f.Fail("commit failed", err)
	}

	if f.JSON() {
		return f.Success(res)
	}
	printCommit(f.Writer, res)
	return nil
}

// writeMetrics exports the session's metrics when a textfile is configured.
// Export failures are logged and never fail the command.
func writeMetrics(sess *session) {
	if sess.cfg.MetricsFile == "" {
		return
	}
	path := configPath(sess.cfg, sess.cfg.MetricsFile)
	if err := sess.metrics.WriteTextfile(path); err != nil {
		slog.Warn("failed to write metrics textfile", "path", path, "error", err)
	}
}

func printCommit(w io.Writer, res engine.CommitResult) {
	fmt.Fprintf(w, "%s %s %s\n", track.FormatDate(res.ReportDate), res.Mode, res.RunID)
	fmt.Fprintf(w, "  new %d, removed %d, persisting %d\n", res.Counts.New, res.Counts.Removed, res.Counts.Persisting)
	for _, sk := range res.Skipped {
		if sk.Key != "" {
			fmt.Fprintf(w, "  skipped row %d (%s): %s\n", sk.Row, sk.Key, sk.Reason)
		} else {
			fmt.Fprintf(w, "  skipped row %d: %s\n", sk.Row, sk.Reason)
		}
	}
	if res.StaleClosed > 0 {
		fmt.Fprintf(w, "  closed %s after a missing day\n", plural(res.StaleClosed, "stale streak"))
	}
	if res.DateFallback {
		fmt.Fprintln(w, "  note: report date unusable, committed as today")
	}
	if res.InputChanged {
		fmt.Fprintln(w, "  note: extract differs from the committed one; use --force to re-run")
	}
	if len(res.Changes) > 0 {
		fmt.Fprintln(w)
		printChanges(w, res.Changes)
	}
	printSummaries(w, res.Summaries)
}
