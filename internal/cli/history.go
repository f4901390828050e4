package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sigtrack/internal/track"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <key>",
		Short: "List every change record of a key",
		Long: `List a key's change records in date order.

Examples:
  sigtrack history SIG-1042
  sigtrack history SIG-1042 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runHistory(opts *RootOptions, key string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	sess, err := openSession(f, opts, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	history, err := sess.engine.History(ctx, key)
	if err != nil {
		return f.Fail("history failed", err)
	}

	if f.JSON() {
		return f.Success(history)
	}
	if len(history) == 0 {
		fmt.Fprintf(f.Writer, "No history for %s.\n", key)
		return nil
	}
	for _, rec := range history {
		fmt.Fprintf(f.Writer, "%s  %s %-10s %dd  %s/%s\n",
			track.FormatDate(rec.ReportDate), categoryMarker(rec.Category), rec.Category,
			rec.ConsecutiveDays, rec.Item.OrgUnit, rec.Item.Technician)
	}
	return nil
}
