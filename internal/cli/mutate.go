package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// parseAttrs turns repeated key=value flags into an attribute map.
func parseAttrs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	attrs := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid attribute %q: expected key=value", p)
		}
		attrs[k] = v
	}
	return attrs, nil
}

// AddEntityOptions holds flags for the add-entity command.
type AddEntityOptions struct {
	*RootOptions
	ID        string
	Kind      string
	Name      string
	Attrs     []string
	ValidFrom int64
	At        int64
}

// NewAddEntityCommand creates the add-entity command.
func NewAddEntityCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddEntityOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add-entity",
		Short: "Register a new entity",
		Long: `Register a new entity with an initial attribute version.

The entity id is generated when --id is omitted. --valid-from is the
validity start of the first version in unix milliseconds; --at stamps the
fact's wall-clock time (defaults to now).

Examples:
  h3imd3ll add-entity --kind person --name "Alice Smith" --attr role=analyst
  h3imd3ll add-entity --id alice --kind person --name Alice --valid-from 1700000000000`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddEntity(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "entity id (generated when omitted)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "entity kind from the schema (required)")
	_ = cmd.MarkFlagRequired("kind")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringArrayVar(&opts.Attrs, "attr", nil, "attribute key=value (repeatable)")
	cmd.Flags().Int64Var(&opts.ValidFrom, "valid-from", 0, "validity start, unix millis")
	cmd.Flags().Int64Var(&opts.At, "at", 0, "fact timestamp, unix millis (default now)")

	return cmd
}

func runAddEntity(opts *AddEntityOptions, cmd *cobra.Command) error {
	attrs, err := parseAttrs(opts.Attrs)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	eng, err := openEngine(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer eng.Close(cmd.Context())

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	id, seq, err := eng.CreateEntity(cmd.Context(), opts.At, opts.ID, opts.Kind, opts.Name, attrs, opts.ValidFrom)
	if err != nil {
		return failOp(f, "add-entity", err)
	}

	if opts.Format == "json" {
		return f.SuccessJSON(map[string]interface{}{"entity_id": id, "seq": seq})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created entity %s (seq %d)\n", id, seq)
	return nil
}

// SetAttrsOptions holds flags for the set-attrs command.
type SetAttrsOptions struct {
	*RootOptions
	EntityID  string
	Attrs     []string
	ValidFrom int64
	At        int64
}

// NewSetAttrsCommand creates the set-attrs command.
func NewSetAttrsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetAttrsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set-attrs <entity-id>",
		Short: "Record a new attribute version for an entity",
		Long: `Record a new attribute version. Given attributes merge over the
entity's latest version; --valid-from must not precede the latest
version's validity start.

Examples:
  h3imd3ll set-attrs alice --attr role=lead --valid-from 1700000000000`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.EntityID = args[0]
			return runSetAttrs(opts, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Attrs, "attr", nil, "attribute key=value (repeatable, at least one)")
	cmd.Flags().Int64Var(&opts.ValidFrom, "valid-from", 0, "validity start, unix millis")
	cmd.Flags().Int64Var(&opts.At, "at", 0, "fact timestamp, unix millis (default now)")

	return cmd
}

func runSetAttrs(opts *SetAttrsOptions, cmd *cobra.Command) error {
	attrs, err := parseAttrs(opts.Attrs)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	eng, err := openEngine(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer eng.Close(cmd.Context())

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	seq, err := eng.AddVersion(cmd.Context(), opts.At, opts.EntityID, attrs, opts.ValidFrom)
	if err != nil {
		return failOp(f, "set-attrs", err)
	}

	if opts.Format == "json" {
		return f.SuccessJSON(map[string]interface{}{"entity_id": opts.EntityID, "seq": seq})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "versioned entity %s (seq %d)\n", opts.EntityID, seq)
	return nil
}

// RelateOptions holds flags for the relate command.
type RelateOptions struct {
	*RootOptions
	ID        string
	Source    string
	Target    string
	Type      string
	Attrs     []string
	ValidFrom int64
	ValidTo   int64
	At        int64
}

// NewRelateCommand creates the relate command.
func NewRelateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RelateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "relate",
		Short: "Create a relationship between two entities",
		Long: `Create a typed relationship. Directedness comes from the schema's
declaration of the type. The validity interval is [--valid-from,
--valid-to); omit --valid-to to leave it open.

Examples:
  h3imd3ll relate --source alice --target acme --type works_at --valid-from 1700000000000
  h3imd3ll relate --source alice --target bob --type knows`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "relationship id (generated when omitted)")
	cmd.Flags().StringVar(&opts.Source, "source", "", "source entity id (required)")
	_ = cmd.MarkFlagRequired("source")
	cmd.Flags().StringVar(&opts.Target, "target", "", "target entity id (required)")
	_ = cmd.MarkFlagRequired("target")
	cmd.Flags().StringVar(&opts.Type, "type", "", "relationship type from the schema (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringArrayVar(&opts.Attrs, "attr", nil, "attribute key=value (repeatable)")
	cmd.Flags().Int64Var(&opts.ValidFrom, "valid-from", 0, "validity start, unix millis")
	cmd.Flags().Int64Var(&opts.ValidTo, "valid-to", 0, "validity end, unix millis (0 = open)")
	cmd.Flags().Int64Var(&opts.At, "at", 0, "fact timestamp, unix millis (default now)")

	return cmd
}

func runRelate(opts *RelateOptions, cmd *cobra.Command) error {
	attrs, err := parseAttrs(opts.Attrs)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	eng, err := openEngine(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer eng.Close(cmd.Context())

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	var validTo *int64
	if cmd.Flags().Changed("valid-to") {
		validTo = &opts.ValidTo
	}

	id, seq, err := eng.Relate(cmd.Context(), opts.At, opts.ID, opts.Source, opts.Target, opts.Type, attrs, opts.ValidFrom, validTo)
	if err != nil {
		return failOp(f, "relate", err)
	}

	if opts.Format == "json" {
		return f.SuccessJSON(map[string]interface{}{"relationship_id": id, "seq": seq})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created relationship %s (seq %d)\n", id, seq)
	return nil
}

// EndRelationOptions holds flags for the end-relation command.
type EndRelationOptions struct {
	*RootOptions
	RelID   string
	ValidTo int64
	At      int64
}

// NewEndRelationCommand creates the end-relation command.
func NewEndRelationCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EndRelationOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "end-relation <relationship-id>",
		Short: "Close a relationship's validity interval",
		Long: `Close an open relationship's validity interval at --valid-to.
Ending an already closed relationship is rejected.

Examples:
  h3imd3ll end-relation 7f3c... --valid-to 1710000000000`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.RelID = args[0]
			return runEndRelation(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.ValidTo, "valid-to", 0, "validity end, unix millis (required)")
	_ = cmd.MarkFlagRequired("valid-to")
	cmd.Flags().Int64Var(&opts.At, "at", 0, "fact timestamp, unix millis (default now)")

	return cmd
}

// SetRelAttrsOptions holds flags for the set-rel-attrs command.
type SetRelAttrsOptions struct {
	*RootOptions
	RelID string
	Attrs []string
	At    int64
}

// NewSetRelAttrsCommand creates the set-rel-attrs command.
func NewSetRelAttrsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetRelAttrsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set-rel-attrs <relationship-id>",
		Short: "Merge attributes onto a relationship",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.RelID = args[0]
			return runSetRelAttrs(opts, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Attrs, "attr", nil, "attribute key=value (repeatable, at least one)")
	cmd.Flags().Int64Var(&opts.At, "at", 0, "fact timestamp, unix millis (default now)")

	return cmd
}

func runSetRelAttrs(opts *SetRelAttrsOptions, cmd *cobra.Command) error {
	attrs, err := parseAttrs(opts.Attrs)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	eng, err := openEngine(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer eng.Close(cmd.Context())

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	seq, err := eng.SetRelationshipAttrs(cmd.Context(), opts.At, opts.RelID, attrs)
	if err != nil {
		return failOp(f, "set-rel-attrs", err)
	}

	if opts.Format == "json" {
		return f.SuccessJSON(map[string]interface{}{"relationship_id": opts.RelID, "seq": seq})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "updated relationship %s (seq %d)\n", opts.RelID, seq)
	return nil
}

func runEndRelation(opts *EndRelationOptions, cmd *cobra.Command) error {
	eng, err := openEngine(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer eng.Close(cmd.Context())

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	seq, err := eng.EndRelationship(cmd.Context(), opts.At, opts.RelID, opts.ValidTo)
	if err != nil {
		return failOp(f, "end-relation", err)
	}

	if opts.Format == "json" {
		return f.SuccessJSON(map[string]interface{}{"relationship_id": opts.RelID, "seq": seq})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ended relationship %s (seq %d)\n", opts.RelID, seq)
	return nil
}
