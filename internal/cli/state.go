package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sigtrack/internal/track"
)

// StateOptions holds flags for the state command.
type StateOptions struct {
	*RootOptions
	Active bool
}

// NewStateCommand creates the state command.
func NewStateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "state [key]",
		Short: "Show streak state",
		Long: `Show the current streak of one key, or of every tracked key.

Examples:
  sigtrack state
  sigtrack state --active
  sigtrack state SIG-1042 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			return runState(opts, key, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Active, "active", false, "only keys with an ACTIVE streak")

	return cmd
}

func runState(opts *StateOptions, key string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	sess, err := openSession(f, opts.RootOptions, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if key != "" {
		state, ok, err := sess.engine.Tracking(ctx, key)
		if err != nil {
			return f.Fail("state failed", err)
		}
		if !ok {
			return f.FailWith(ErrCodeNotFound, ExitFailure, fmt.Sprintf("key %q has never been seen", key))
		}
		if f.JSON() {
			return f.Success(state)
		}
		printTracking(f.Writer, state)
		return nil
	}

	var status track.Status
	if opts.Active {
		status = track.StatusActive
	}
	states, err := sess.engine.ListTracking(ctx, status)
	if err != nil {
		return f.Fail("state failed", err)
	}

	if f.JSON() {
		return f.Success(states)
	}
	if len(states) == 0 {
		fmt.Fprintln(f.Writer, "No tracked keys.")
		return nil
	}
	for _, s := range states {
		printTracking(f.Writer, s)
	}
	return nil
}
