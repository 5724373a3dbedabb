package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/waste3d/cfproxyhub/internal/domain"
	"github.com/waste3d/cfproxyhub/internal/logger"
	"github.com/waste3d/cfproxyhub/internal/preview"
	"github.com/waste3d/cfproxyhub/internal/validation"
)

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var subdomain, domainName string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the public hostname a subdomain and domain compose to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			frag := preview.Build(strings.TrimSpace(subdomain), strings.TrimSpace(domainName))
			fmt.Fprintln(cmd.OutOrStdout(), frag)
			return nil
		},
	}
	cmd.Flags().StringVarP(&subdomain, "subdomain", "s", "", "Subdomain")
	cmd.Flags().StringVarP(&domainName, "domain", "d", "", "Domain")
	return cmd
}

var fieldOrder = []validation.Field{
	validation.FieldSubdomain,
	validation.FieldDomain,
	validation.FieldServiceType,
	validation.FieldServiceURL,
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var ff formFlags
	var offline bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a hostname form without saving it",
		Long:  `Check a hostname form without saving it. Unless --offline is given the tunnel's records and zones are loaded so duplicates are reported too.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form := domain.Reduce(domain.NewForm(), domain.OpenAdd{})
			strict := validation.Options{Strict: opts.clientConfig().StrictValidation}

			var res validation.Result
			if offline {
				form = ff.apply(cmd, form, nil)
				res = validation.Evaluate(form, nil, strict)
			} else {
				s, err := opts.newSession(cmd)
				if err != nil {
					return err
				}
				defer s.Close()
				if err := s.prepare(cmd); err != nil {
					logger.Logger.WithError(err).Debug("validating without the current record list")
				}
				form = ff.apply(cmd, form, s.orch.ZoneNames())
				res = s.orch.Evaluate(form)
			}

			printResult(cmd, form, res)
			if !res.SubmitEnabled {
				return &validation.Error{Messages: res.Errors()}
			}
			return nil
		},
	}
	ff.register(cmd)
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the duplicate check and do not contact the server")
	cmd.MarkFlagsMutuallyExclusive("domain", "manual-domain")
	return cmd
}

func printResult(cmd *cobra.Command, form domain.FormState, res validation.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Public hostname: %s\n", preview.ForResult(form.TrimmedSubdomain(), form.DomainValue(), res))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, f := range fieldOrder {
		st := res.Fields[f]
		status := st.Status.String()
		switch st.Status {
		case validation.Valid:
			status = color.GreenString(status)
		case validation.Invalid:
			status = color.RedString(status)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", f, status, st.Message)
	}
	w.Flush()

	if res.SubmitEnabled {
		fmt.Fprintln(out, "Ready to save.")
	} else {
		fmt.Fprintln(out, "Not ready to save.")
	}
}
