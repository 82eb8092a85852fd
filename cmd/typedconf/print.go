package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/typedconf/internal/config/codec"
	"github.com/dshills/typedconf/internal/config/override"
	"github.com/dshills/typedconf/internal/config/value"
)

// Output formats.
const (
	formatConfig = "config"
	formatJSON   = "json"
)

func newPrintCommand(c *cli) *cobra.Command {
	var (
		in     inputFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "print FILE",
		Short: "Parse a config file and print the resulting record",
		Example: `  # Print a config with one override
  typedconf print -I schema/app.yaml -P db.port=5433 app.cfg

  # Print as JSON
  typedconf print -I schema/app.yaml --format json app.cfg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatConfig && format != formatJSON {
				return fmt.Errorf("unknown format %q, expected %s or %s", format, formatConfig, formatJSON)
			}
			s, err := c.settings(cmd, &in)
			if err != nil {
				return err
			}
			reg, err := s.registry()
			if err != nil {
				return err
			}

			res, err := c.parser(reg, s).ParseFile(args[0], nil)
			if err != nil {
				return err
			}
			m, err := override.ApplyStrings(res.Message, s.overrides, s.strict)
			if err != nil {
				return err
			}
			return writeRecord(c.out, m, format)
		},
	}

	in.register(cmd, true)
	cmd.Flags().StringVar(&format, "format", formatConfig, "output format (config or json)")

	return cmd
}

func writeRecord(w io.Writer, m *value.Message, format string) error {
	if format == formatJSON {
		data, err := codec.EncodeJSON(m, true)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	_, err := io.WriteString(w, value.FormatConfig(m))
	return err
}
