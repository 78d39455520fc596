// Package cli implements the h3imd3ll command line. Every command opens the
// engine, performs one operation and renders the result in text or JSON.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/DennisN22042003/H3imd3ll/internal/config"
	"github.com/DennisN22042003/H3imd3ll/internal/engine"
	"github.com/DennisN22042003/H3imd3ll/internal/schema"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	Database   string // overrides config when set
	SchemaFile string // overrides config when set

	cfg *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the h3imd3ll CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "h3imd3ll",
		Short: "h3imd3ll - temporal graph engine for investigations",
		Long: `An event-sourced temporal graph engine: every change is an appended
fact, current state is a deterministic fold of the fact log, and queries
can target any point in time.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			cfg, err := config.Load(opts.ConfigFile)
			if err != nil {
				return err
			}
			if opts.Database != "" {
				cfg.Database.Path = opts.Database
			}
			if opts.SchemaFile != "" {
				cfg.Schema.Path = opts.SchemaFile
			}
			opts.cfg = cfg

			setupLogging(cfg, opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the ledger database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.SchemaFile, "schema", "", "path to a CUE schema file (overrides config)")

	cmd.AddCommand(NewAddEntityCommand(opts))
	cmd.AddCommand(NewSetAttrsCommand(opts))
	cmd.AddCommand(NewSetRelAttrsCommand(opts))
	cmd.AddCommand(NewRelateCommand(opts))
	cmd.AddCommand(NewEndRelationCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewPathCommand(opts))
	cmd.AddCommand(NewEgoCommand(opts))
	cmd.AddCommand(NewTimeSliceCommand(opts))
	cmd.AddCommand(NewTimelineCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewCaseCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewSnapshotCommand(opts))
	cmd.AddCommand(NewVerifyReplayCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// setupLogging configures the process-wide slog default from config.
// --verbose forces debug level regardless of config.
func setupLogging(cfg *config.Config, verbose bool) {
	level := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	ho := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(os.Stderr, ho)
	} else {
		h = slog.NewTextHandler(os.Stderr, ho)
	}
	slog.SetDefault(slog.New(h))
}

// openEngine loads the schema and opens the engine against the configured
// database.
func openEngine(cmd *cobra.Command, opts *RootOptions) (*engine.Engine, error) {
	var (
		sch *schema.Schema
		err error
	)
	if opts.cfg.Schema.Path != "" {
		sch, err = schema.LoadFile(opts.cfg.Schema.Path)
	} else {
		sch, err = schema.Default()
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load schema", err)
	}

	eng, err := engine.Open(cmd.Context(), opts.cfg.Database.Path, sch, engine.Options{
		SnapshotInterval: opts.cfg.Snapshot.Interval,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return eng, nil
}
