package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DennisN22042003/H3imd3ll/internal/fact"
	"github.com/DennisN22042003/H3imd3ll/internal/query"
)

// factSummary is the JSON projection of one log record.
type factSummary struct {
	Seq       int64       `json:"seq"`
	Timestamp int64       `json:"ts"`
	Kind      string      `json:"kind"`
	Payload   interface{} `json:"payload"`
}

func summarize(facts []fact.Fact) []factSummary {
	out := make([]factSummary, 0, len(facts))
	for _, f := range facts {
		out = append(out, factSummary{
			Seq:       f.Seq,
			Timestamp: f.Timestamp,
			Kind:      string(f.Kind),
			Payload:   f.Payload,
		})
	}
	return out
}

func printFacts(cmd *cobra.Command, facts []fact.Fact) {
	w := cmd.OutOrStdout()
	if len(facts) == 0 {
		fmt.Fprintln(w, "no facts")
		return
	}
	for _, f := range facts {
		fmt.Fprintf(w, "%6d  %13d  %s\n", f.Seq, f.Timestamp, f.Kind)
	}
}

// TimelineOptions holds flags for the timeline command.
type TimelineOptions struct {
	*RootOptions
	EntityID string
	From     int64
	To       int64
}

// NewTimelineCommand creates the timeline command.
func NewTimelineCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TimelineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "List facts involving an entity in chronological order",
		Long: `List the facts recorded about an entity, in log order. Relationship
facts count when the entity is one of the endpoints. --from/--to bound
the fact timestamps.

Examples:
  h3imd3ll timeline --entity alice
  h3imd3ll timeline --entity alice --from 1700000000000 --to 1710000000000`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.EntityID, "entity", "", "entity id (required)")
	_ = cmd.MarkFlagRequired("entity")
	cmd.Flags().Int64Var(&opts.From, "from", 0, "earliest fact timestamp, unix millis")
	cmd.Flags().Int64Var(&opts.To, "to", 0, "latest fact timestamp, unix millis")

	return cmd
}

func runTimeline(opts *TimelineOptions, cmd *cobra.Command) error {
	eng, err := openEngine(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer eng.Close(cmd.Context())

	q := query.TimelineQuery{EntityID: opts.EntityID}
	if cmd.Flags().Changed("from") {
		q.From = &opts.From
	}
	if cmd.Flags().Changed("to") {
		q.To = &opts.To
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	facts, err := eng.Timeline(cmd.Context(), q)
	if err != nil {
		return failOp(f, "timeline", err)
	}

	if opts.Format == "json" {
		return f.SuccessJSON(summarize(facts))
	}
	printFacts(cmd, facts)
	return nil
}

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	FromSeq int64
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Dump the fact log",
		Long: `Dump the append-only fact log in sequence order, optionally starting
at a given seq.

Examples:
  h3imd3ll log
  h3imd3ll log --from-seq 100 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.FromSeq, "from-seq", 1, "first seq to include")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	eng, err := openEngine(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer eng.Close(cmd.Context())

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	facts, err := eng.Timeline(cmd.Context(), query.TimelineQuery{})
	if err != nil {
		return failOp(f, "log", err)
	}
	if opts.FromSeq > 1 {
		trimmed := facts[:0]
		for _, rec := range facts {
			if rec.Seq >= opts.FromSeq {
				trimmed = append(trimmed, rec)
			}
		}
		facts = trimmed
	}

	if opts.Format == "json" {
		return f.SuccessJSON(summarize(facts))
	}
	printFacts(cmd, facts)
	return nil
}
