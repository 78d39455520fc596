package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/DennisN22042003/H3imd3ll/internal/query"
)

// asOfOrNow defaults a zero as-of flag to the current time.
func asOfOrNow(t int64) int64 {
	if t == 0 {
		return time.Now().UnixMilli()
	}
	return t
}

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Value     string
	Attr      string
	Kind      string
	Threshold float64
	AsOf      int64
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <value>",
		Short: "Search entities by attribute value",
		Long: `Search entities whose attribute matches a value, exactly or fuzzily.
Exact matches rank first; fuzzy matches follow ordered by similarity.

Examples:
  h3imd3ll search "Alice Smith"
  h3imd3ll search Alise --threshold 0.7
  h3imd3ll search Acme --attr name --kind organization --as-of 1700000000000`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Value = args[0]
			return runSearch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Attr, "attr", "name", "attribute to match")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "restrict to one entity kind")
	cmd.Flags().Float64Var(&opts.Threshold, "threshold", -1, "minimum fuzzy similarity in (0,1] (default from config)")
	cmd.Flags().Int64Var(&opts.AsOf, "as-of", 0, "view time, unix millis (default now)")

	return cmd
}

func runSearch(opts *SearchOptions, cmd *cobra.Command) error {
	eng, err := openEngine(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer eng.Close(cmd.Context())

	threshold := opts.Threshold
	if threshold < 0 {
		threshold = opts.cfg.Query.SimilarityThreshold
	}

	matches := eng.Search(asOfOrNow(opts.AsOf), query.SearchQuery{
		Attr:      opts.Attr,
		Value:     opts.Value,
		Kind:      opts.Kind,
		Threshold: threshold,
	})

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		type jsonMatch struct {
			EntityID string  `json:"entity_id"`
			Kind     string  `json:"kind"`
			Name     string  `json:"name,omitempty"`
			Score    float64 `json:"score"`
			Exact    bool    `json:"exact"`
		}
		out := make([]jsonMatch, 0, len(matches))
		for _, m := range matches {
			out = append(out, jsonMatch{
				EntityID: m.Node.ID,
				Kind:     m.Node.Kind,
				Name:     m.Node.Name,
				Score:    m.Score,
				Exact:    m.Exact,
			})
		}
		return f.SuccessJSON(out)
	}

	w := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintln(w, "no matches")
		return nil
	}
	for _, m := range matches {
		marker := " "
		if m.Exact {
			marker = "="
		}
		fmt.Fprintf(w, "%s %.3f  %s  %s  %s\n", marker, m.Score, m.Node.ID, m.Node.Kind, m.Node.Name)
	}
	return nil
}

// PathOptions holds flags for the path command.
type PathOptions struct {
	*RootOptions
	Source string
	Target string
	AsOf   int64
}

// NewPathCommand creates the path command.
func NewPathCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PathOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "path <source-id> <target-id>",
		Short: "Find a shortest path between two entities",
		Long: `Find a shortest path between two entities over relationships valid
at the as-of time. The result is the sequence of relationship ids.

Exit codes:
  0 - path found
  1 - no path exists
  2 - command error

Examples:
  h3imd3ll path alice bob
  h3imd3ll path alice bob --as-of 1700000000000`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Source, opts.Target = args[0], args[1]
			return runPath(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.AsOf, "as-of", 0, "view time, unix millis (default now)")

	return cmd
}

func runPath(opts *PathOptions, cmd *cobra.Command) error {
	eng, err := openEngine(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer eng.Close(cmd.Context())

	path := eng.ShortestPath(asOfOrNow(opts.AsOf), opts.Source, opts.Target)

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	if path == nil {
		if outErr := f.Error("NO_PATH", "no path between the given entities", nil); outErr != nil {
			return outErr
		}
		return NewExitError(ExitFailure, "no path")
	}

	if opts.Format == "json" {
		return f.SuccessJSON(map[string]interface{}{"hops": len(path), "relationship_ids": path})
	}
	w := cmd.OutOrStdout()
	if len(path) == 0 {
		fmt.Fprintln(w, "source and target are the same entity")
		return nil
	}
	fmt.Fprintf(w, "%d hop(s): %s\n", len(path), strings.Join(path, " -> "))
	return nil
}

// EgoOptions holds flags for the ego command.
type EgoOptions struct {
	*RootOptions
	EntityID string
	Depth    int
	AsOf     int64
}

// NewEgoCommand creates the ego command.
func NewEgoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EgoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ego <entity-id>",
		Short: "Extract the neighborhood subgraph around an entity",
		Long: `Extract the induced subgraph of everything reachable from an entity
within a number of hops, over relationships valid at the as-of time.

Examples:
  h3imd3ll ego alice --depth 2
  h3imd3ll ego alice --depth 1 --as-of 1700000000000 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.EntityID = args[0]
			return runEgo(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Depth, "depth", 1, "maximum hops from the center")
	cmd.Flags().Int64Var(&opts.AsOf, "as-of", 0, "view time, unix millis (default now)")

	return cmd
}

func runEgo(opts *EgoOptions, cmd *cobra.Command) error {
	eng, err := openEngine(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer eng.Close(cmd.Context())

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	sub, err := eng.EgoNetwork(asOfOrNow(opts.AsOf), opts.EntityID, opts.Depth)
	if err != nil {
		return failOp(f, "ego", err)
	}

	if opts.Format == "json" {
		type jsonNode struct {
			ID   string `json:"id"`
			Kind string `json:"kind"`
			Name string `json:"name,omitempty"`
		}
		type jsonEdge struct {
			ID     string `json:"id"`
			Source string `json:"source"`
			Target string `json:"target"`
			Type   string `json:"type"`
		}
		nodes := make([]jsonNode, 0, len(sub.Nodes))
		for _, n := range sub.Nodes {
			nodes = append(nodes, jsonNode{ID: n.ID, Kind: n.Kind, Name: n.Name})
		}
		edges := make([]jsonEdge, 0, len(sub.Edges))
		for _, r := range sub.Edges {
			edges = append(edges, jsonEdge{ID: r.ID, Source: r.SourceID, Target: r.TargetID, Type: r.Type})
		}
		return f.SuccessJSON(map[string]interface{}{"center": sub.Center, "nodes": nodes, "edges": edges})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "ego network of %s: %d node(s), %d edge(s)\n", sub.Center, len(sub.Nodes), len(sub.Edges))
	for _, n := range sub.Nodes {
		fmt.Fprintf(w, "  node %s  %s  %s\n", n.ID, n.Kind, n.Name)
	}
	for _, r := range sub.Edges {
		arrow := "--"
		if r.Directed {
			arrow = "->"
		}
		fmt.Fprintf(w, "  edge %s: %s %s %s (%s)\n", r.ID, r.SourceID, arrow, r.TargetID, r.Type)
	}
	return nil
}

// TimeSliceOptions holds flags for the timeslice command.
type TimeSliceOptions struct {
	*RootOptions
	EntityID string
	Start    int64
	End      int64
}

// NewTimeSliceCommand creates the timeslice command.
func NewTimeSliceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TimeSliceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "timeslice <entity-id>",
		Short: "List an entity's relationships active during a time window",
		Long: `List the relationships incident to an entity whose validity interval
intersects [--start, --end).

Examples:
  h3imd3ll timeslice alice --start 1700000000000 --end 1710000000000`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.EntityID = args[0]
			return runTimeSlice(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Start, "start", 0, "window start, unix millis (required)")
	_ = cmd.MarkFlagRequired("start")
	cmd.Flags().Int64Var(&opts.End, "end", 0, "window end, unix millis, exclusive (required)")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func runTimeSlice(opts *TimeSliceOptions, cmd *cobra.Command) error {
	eng, err := openEngine(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer eng.Close(cmd.Context())

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	rels, err := eng.TimeSlice(opts.EntityID, opts.Start, opts.End)
	if err != nil {
		return failOp(f, "timeslice", err)
	}

	if opts.Format == "json" {
		type jsonRel struct {
			ID        string `json:"id"`
			Source    string `json:"source"`
			Target    string `json:"target"`
			Type      string `json:"type"`
			ValidFrom int64  `json:"valid_from"`
			ValidTo   *int64 `json:"valid_to,omitempty"`
		}
		out := make([]jsonRel, 0, len(rels))
		for _, r := range rels {
			out = append(out, jsonRel{
				ID: r.ID, Source: r.SourceID, Target: r.TargetID, Type: r.Type,
				ValidFrom: r.ValidFrom, ValidTo: r.ValidTo,
			})
		}
		return f.SuccessJSON(out)
	}

	w := cmd.OutOrStdout()
	if len(rels) == 0 {
		fmt.Fprintln(w, "no relationships in window")
		return nil
	}
	for _, r := range rels {
		end := "open"
		if r.ValidTo != nil {
			end = fmt.Sprintf("%d", *r.ValidTo)
		}
		fmt.Fprintf(w, "%s  %s -> %s  %s  [%d, %s)\n", r.ID, r.SourceID, r.TargetID, r.Type, r.ValidFrom, end)
	}
	return nil
}
