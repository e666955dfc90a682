package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenNSW/customs/internal/officeconfig"
)

func newOfficesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offices",
		Short: "Inspect office pool files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "validate [file]",
		Short:   "Validate an office pool file",
		Example: "  customs offices validate ./offices.toml\n  OFFICES_FILE=./offices.toml customs offices validate",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := os.Getenv("OFFICES_FILE")
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return errors.New("no offices file given and OFFICES_FILE is not set")
			}

			f, err := officeconfig.Load(path)
			if err != nil {
				return err
			}
			offices, err := f.Build()
			if err != nil {
				return err
			}
			inspectors := 0
			for _, o := range offices {
				inspectors += len(o.Inspectors())
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-24s %s  fee=%s\n",
					o.ID(), o.Profile().Name, o.Profile().WorkHours, o.Params().Fee)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d offices, %d inspectors\n", path, len(offices), inspectors)
			return nil
		},
	})
	return cmd
}
