package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/waste3d/cfproxyhub/internal/application"
	"github.com/waste3d/cfproxyhub/internal/domain"
	"github.com/waste3d/cfproxyhub/internal/logger"
	"github.com/waste3d/cfproxyhub/internal/preview"
	"github.com/waste3d/cfproxyhub/internal/store"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the public hostnames of the tunnel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			err = s.orch.Refresh(cmd.Context())
			printRecords(cmd.OutOrStdout(), s.orch.Store())
			return err
		},
	}
}

func printRecords(out io.Writer, st *store.RecordStore) {
	if st.View() != store.Populated {
		fmt.Fprintln(out, "No public hostnames configured")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HOSTNAME\tSERVICE\tPATH\tSTATUS")
	for _, r := range st.Records() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Hostname, r.Service, r.DisplayPath(), r.DisplayStatus())
	}
	w.Flush()
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var ff formFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a public hostname to the tunnel",
		Example: `  cfproxyhub add -s api -d example.com -u localhost:8080
  cfproxyhub add -s ssh --manual-domain lab.example.net --type tcp -u 10.0.0.5:22`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.prepare(cmd); err != nil {
				logger.Logger.WithError(err).Debug("adding without the current record list")
			}
			form := domain.Reduce(domain.NewForm(), domain.OpenAdd{})
			form = ff.apply(cmd, form, s.orch.ZoneNames())
			return s.save(cmd, form)
		},
	}
	ff.register(cmd)
	_ = cmd.MarkFlagRequired("subdomain")
	_ = cmd.MarkFlagRequired("service")
	cmd.MarkFlagsOneRequired("domain", "manual-domain")
	cmd.MarkFlagsMutuallyExclusive("domain", "manual-domain")
	return cmd
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var ff formFlags

	cmd := &cobra.Command{
		Use:   "edit <hostname>",
		Short: "Change a public hostname of the tunnel",
		Long:  `Change a public hostname. Only the given flags change; the record keeps its other fields. Changing the subdomain or domain renames the record.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.prepare(cmd); err != nil {
				return err
			}
			record, ok := s.orch.Store().Find(args[0])
			if !ok {
				return fmt.Errorf("hostname %s not found in tunnel %s", args[0], s.cfg.TunnelID)
			}

			form := domain.Reduce(domain.NewForm(), domain.OpenEdit{Record: record, Zones: s.orch.ZoneNames()})
			form = ff.apply(cmd, form, s.orch.ZoneNames())
			return s.save(cmd, form)
		},
	}
	ff.register(cmd)
	cmd.MarkFlagsMutuallyExclusive("domain", "manual-domain")
	return cmd
}

// prepare loads the records and zones the editor validates against. A failed
// record load is returned; zones are best effort.
func (s *session) prepare(cmd *cobra.Command) error {
	err := s.orch.Refresh(cmd.Context())
	if _, zerr := s.orch.LoadZones(cmd.Context()); zerr != nil {
		logger.Logger.WithError(zerr).Debug("continuing without zones")
	}
	return err
}

func (s *session) save(cmd *cobra.Command, form domain.FormState) error {
	switch form.ServiceType {
	case domain.ServiceHTTP, domain.ServiceHTTPS, domain.ServiceTCP:
	default:
		return fmt.Errorf("unsupported service type %q: use http, https or tcp", form.ServiceType)
	}

	res := s.orch.Evaluate(form)
	fmt.Fprintf(cmd.OutOrStdout(), "Public hostname: %s\n", preview.ForResult(form.TrimmedSubdomain(), form.DomainValue(), res))

	if _, err := s.orch.Save(cmd.Context(), form); err != nil {
		return err
	}
	printRecords(cmd.OutOrStdout(), s.orch.Store())
	return nil
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <hostname>",
		Aliases: []string{"rm"},
		Short:   "Delete a public hostname from the tunnel",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			confirm := func(hostname string) bool {
				if yes {
					return true
				}
				return askYesNo(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Are you sure you want to delete the hostname %q?", hostname))
			}

			err = s.orch.Delete(cmd.Context(), args[0], confirm)
			if errors.Is(err, application.ErrDeleteCancelled) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			if err != nil {
				return err
			}
			printRecords(cmd.OutOrStdout(), s.orch.Store())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking for confirmation")
	return cmd
}
