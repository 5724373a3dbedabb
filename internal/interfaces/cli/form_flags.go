package cli

import (
	"slices"

	"github.com/spf13/cobra"
	"github.com/waste3d/cfproxyhub/internal/domain"
)

// formFlags are the editor fields exposed as flags.
type formFlags struct {
	subdomain    string
	domain       string
	manualDomain string
	serviceType  string
	serviceURL   string
	path         string
}

func (f *formFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.subdomain, "subdomain", "s", "", "Subdomain, e.g. api")
	cmd.Flags().StringVarP(&f.domain, "domain", "d", "", "Domain from the account's active zones")
	cmd.Flags().StringVar(&f.manualDomain, "manual-domain", "", "Domain typed by hand instead of picked from the zones")
	cmd.Flags().StringVar(&f.serviceType, "type", string(domain.ServiceHTTP), "Service type: http, https or tcp")
	cmd.Flags().StringVarP(&f.serviceURL, "service", "u", "", "Service URL, e.g. localhost:8080")
	cmd.Flags().StringVarP(&f.path, "path", "p", "/", "Path prefix")
}

// apply turns the flags the user set into form events and folds them into
// form. zones are the active zone names; a --domain outside them goes to the
// manual input.
func (f *formFlags) apply(cmd *cobra.Command, form domain.FormState, zones []string) domain.FormState {
	changed := func(name string) bool {
		return cmd.Flags().Changed(name) || form.Mode == domain.ModeAdd
	}

	if changed("subdomain") {
		form = domain.Reduce(form, domain.SetSubdomain{Value: f.subdomain})
	}

	switch {
	case cmd.Flags().Changed("manual-domain"):
		form = useManual(form, true)
		form = domain.Reduce(form, domain.SetManualDomain{Value: f.manualDomain})
	case cmd.Flags().Changed("domain"):
		if slices.Contains(zones, f.domain) {
			form = useManual(form, false)
			form = domain.Reduce(form, domain.SetDomain{Value: f.domain})
		} else {
			form = useManual(form, true)
			form = domain.Reduce(form, domain.SetManualDomain{Value: f.domain})
		}
	}

	if changed("type") {
		form = domain.Reduce(form, domain.SetServiceType{Value: domain.ServiceType(f.serviceType)})
	}
	if changed("service") {
		form = domain.Reduce(form, domain.SetServiceURL{Value: f.serviceURL})
	}
	if changed("path") {
		form = domain.Reduce(form, domain.SetPath{Value: f.path})
	}
	return form
}

func useManual(form domain.FormState, manual bool) domain.FormState {
	if form.ManualMode != manual {
		form = domain.Reduce(form, domain.ToggleManualDomain{})
	}
	return form
}
