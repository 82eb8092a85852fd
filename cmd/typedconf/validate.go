package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errValidation = errors.New("validation failed")

func newValidateCommand(c *cli) *cobra.Command {
	var in inputFlags

	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check that config files parse and set every required field",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.settings(cmd, &in)
			if err != nil {
				return err
			}
			reg, err := s.registry()
			if err != nil {
				return err
			}
			p := c.parser(reg, s)

			failed := 0
			for _, path := range args {
				res, err := p.ParseFile(path, nil)
				if err == nil {
					err = res.Message.Validate()
				}
				if err != nil {
					failed++
					fmt.Fprintf(c.errOut, "%s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(c.out, "%s: ok\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d files", errValidation, failed, len(args))
			}
			return nil
		},
	}

	in.register(cmd, false)
	return cmd
}
