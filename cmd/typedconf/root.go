package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/typedconf/internal/config/loader"
	"github.com/dshills/typedconf/internal/config/override"
	"github.com/dshills/typedconf/internal/config/parser"
	"github.com/dshills/typedconf/internal/config/registry"
	"github.com/dshills/typedconf/internal/logging"
)

// cli holds the state shared by all commands.
type cli struct {
	out    io.Writer
	errOut io.Writer

	// Global flags
	logLevel  string
	logFormat string
	rcPath    string

	log zerolog.Logger
	rc  *loader.RCFile
	env *loader.EnvSettings
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{out: stdout, errOut: stderr, log: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "typedconf",
		Short: "Load, check and watch schema-typed config files",
		Long: `typedconf parses config files written in the typed config language
against schema documents, applies overrides and prints, validates or
watches the result.

Settings come from flags, TYPEDCONF_* environment variables and the
.typedconfrc.toml rc file, in that order of precedence.`,
		Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return c.setup(cmd) },
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "log format (text or json)")
	rootCmd.PersistentFlags().StringVar(&c.rcPath, "rc", loader.DefaultRCFile, "rc file path")

	rootCmd.AddCommand(newPrintCommand(c))
	rootCmd.AddCommand(newValidateCommand(c))
	rootCmd.AddCommand(newWatchCommand(c))
	rootCmd.AddCommand(newSchemaCommand(c))

	return rootCmd
}

// setup reads the rc file and the environment and builds the logger.
func (c *cli) setup(cmd *cobra.Command) error {
	rc, err := loader.LoadRCFile(nil, c.rcPath)
	if err != nil {
		return err
	}
	if rc == nil && cmd.Flags().Changed("rc") {
		return fmt.Errorf("rc file %s not found", c.rcPath)
	}
	c.rc = rc

	if c.env, err = loader.NewEnvLoader(loader.EnvPrefix).Load(); err != nil {
		return err
	}

	opts := logging.Options{Level: c.logLevel, Format: c.logFormat, Output: c.errOut}
	if rc != nil {
		if opts.Level == "" {
			opts.Level = rc.LogLevel
		}
		if opts.Format == "" {
			opts.Format = rc.LogFormat
		}
	}
	if opts.Level == "" {
		opts.Level = "warn"
	}
	c.log, err = logging.Setup(opts)
	return err
}

// inputFlags are the flags of commands that read config files.
type inputFlags struct {
	schema      []string
	assignments []string
	strict      bool
}

func (f *inputFlags) register(cmd *cobra.Command, overrides bool) {
	cmd.Flags().StringArrayVarP(&f.schema, "schema", "I", nil, "schema document (.yaml, .yml, .toml); repeatable")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "fail on unknown fields, types and enum values")
	if overrides {
		cmd.Flags().StringArrayVarP(&f.assignments, "override", "P", nil, "override as path=value; repeatable")
	}
}

// settings are the effective inputs after combining flags, environment
// and rc file.
type settings struct {
	schema    []string
	strict    bool
	overrides *override.Overrides[string]
}

func (c *cli) settings(cmd *cobra.Command, f *inputFlags) (*settings, error) {
	s := &settings{overrides: override.New[string]()}

	seen := make(map[string]bool)
	add := func(paths []string) {
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				s.schema = append(s.schema, p)
			}
		}
	}

	if c.rc != nil {
		add(c.rc.Schema)
		if c.rc.Strict != nil {
			s.strict = *c.rc.Strict
		}
		rcOverrides, err := c.rc.OverrideMap()
		if err != nil {
			return nil, err
		}
		s.overrides.PutAll(override.FromMap(rcOverrides))
	}

	if c.env != nil {
		add(c.env.Schema)
		if c.env.Strict != nil {
			s.strict = *c.env.Strict
		}
		s.overrides.PutAll(override.FromMap(c.env.Overrides))
	}

	add(f.schema)
	if cmd.Flags().Changed("strict") {
		s.strict = f.strict
	}
	flagOverrides, err := override.ParseAssignments(f.assignments)
	if err != nil {
		return nil, err
	}
	s.overrides.PutAll(flagOverrides)

	return s, nil
}

// registry loads the schema documents.
func (s *settings) registry() (*registry.Registry, error) {
	if len(s.schema) == 0 {
		return nil, errors.New("no schema documents; use -I, TYPEDCONF_SCHEMA or the rc file")
	}
	reg := registry.New()
	if err := loader.NewSchemaLoader(nil).Load(reg, s.schema...); err != nil {
		return nil, err
	}
	return reg, nil
}

func (c *cli) parser(reg *registry.Registry, s *settings) *parser.Parser {
	return parser.New(reg,
		parser.WithStrict(s.strict),
		parser.WithLogger(logging.Component(c.log, "parser")),
	)
}
