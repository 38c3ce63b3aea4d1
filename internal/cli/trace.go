package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avialog/partregistry/internal/journal"
	"github.com/avialog/partregistry/internal/registry"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Part uint64 // optional - filter to one part
}

// TraceEvent is one journaled event in the printed timeline.
type TraceEvent struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Part    uint64         `json:"part"`
	Actor   string         `json:"actor"`
	Seq     int64          `json:"seq"`
	Payload map[string]any `json:"payload"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Timeline []TraceEvent `json:"timeline"`
	Total    int          `json:"total"`
	LastSeq  int64        `json:"last_seq"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <journal.db>",
		Short: "Print a journal's event timeline",
		Long: `Print the event timeline recorded in a journal database.

Events are shown in emission order. Use --part to restrict the
timeline to one identifier.

Exit codes:
  0 - Timeline printed
  2 - Command error (database not found, unreadable journal)

Examples:
  partreg trace ./events.db
  partreg trace ./events.db --part 7
  partreg trace ./events.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.Part, "part", 0, "restrict timeline to one part identifier")

	return cmd
}

func runTrace(opts *TraceOptions, dbPath string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	if _, err := os.Stat(dbPath); err != nil {
		return WrapExitError(ExitCommandError, "journal database not found", err)
	}

	j, err := journal.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open journal", err)
	}
	defer j.Close()

	ctx := cmd.Context()
	var entries []journal.Entry
	if opts.Part != 0 {
		entries, err = j.ReadPartTrace(ctx, registry.PartID(opts.Part))
	} else {
		entries, err = j.ReadTrace(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "read trace", err)
	}

	result := TraceResult{Timeline: make([]TraceEvent, 0, len(entries))}
	for _, e := range entries {
		result.Timeline = append(result.Timeline, TraceEvent{
			ID:      e.ID,
			Name:    e.Name,
			Part:    uint64(e.Part),
			Actor:   string(e.Actor),
			Seq:     e.Seq,
			Payload: e.Payload,
		})
		if e.Seq > result.LastSeq {
			result.LastSeq = e.Seq
		}
	}
	result.Total = len(result.Timeline)

	if opts.Format == "json" {
		return out.Success(result)
	}

	var buf strings.Builder
	for _, ev := range result.Timeline {
		if ev.Part != 0 {
			fmt.Fprintf(&buf, "[%d] %-22s part=%d actor=%s\n", ev.Seq, ev.Name, ev.Part, ev.Actor)
		} else {
			fmt.Fprintf(&buf, "[%d] %-22s actor=%s\n", ev.Seq, ev.Name, ev.Actor)
		}
	}
	fmt.Fprintf(&buf, "%d event(s), last seq %d", result.Total, result.LastSeq)
	return out.Success(buf.String())
}
