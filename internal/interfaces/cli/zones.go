package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newZonesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "List the active domains of the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			zones, err := s.orch.LoadZones(cmd.Context())
			if err != nil {
				return err
			}
			if len(zones) == 0 {
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tID\tTYPE")
			for _, z := range zones {
				fmt.Fprintf(w, "%s\t%s\t%s\n", z.Name, z.ID, z.Type)
			}
			return w.Flush()
		},
	}
}
