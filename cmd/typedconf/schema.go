package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/typedconf/internal/config/convert"
	"github.com/dshills/typedconf/internal/config/registry"
	"github.com/dshills/typedconf/internal/config/schema"
	"github.com/dshills/typedconf/internal/config/value"
)

func newSchemaCommand(c *cli) *cobra.Command {
	var (
		in      inputFlags
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "List the types declared by the schema documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.settings(cmd, &in)
			if err != nil {
				return err
			}
			reg, err := s.registry()
			if err != nil {
				return err
			}
			return listTypes(c.out, reg, verbose)
		},
	}

	cmd.Flags().StringArrayVarP(&in.schema, "schema", "I", nil, "schema document (.yaml, .yml, .toml); repeatable")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show fields and enum values")

	return cmd
}

func listTypes(w io.Writer, reg *registry.Registry, verbose bool) error {
	for _, name := range reg.Names() {
		d, err := reg.Lookup(name)
		if err != nil {
			return err
		}

		switch t := d.(type) {
		case *schema.EnumDescriptor:
			fmt.Fprintf(w, "enum %s\n", name)
			if verbose {
				for _, it := range t.Items() {
					fmt.Fprintf(w, "  %s = %d\n", it.Name, it.ID)
				}
			}
		case *schema.MessageDescriptor:
			fmt.Fprintf(w, "%s %s\n", t.Variant(), name)
			if verbose {
				for _, f := range t.Fields() {
					fmt.Fprintf(w, "  %d: %s %s (%s)", f.ID, f.Name, f.Type.QualifiedName(), f.Requirement)
					if def, err := convert.Default(f); err == nil && f.Default != nil {
						fmt.Fprintf(w, " = %s", value.Format(def))
					}
					fmt.Fprintln(w)
				}
			}
		}
	}
	return nil
}
