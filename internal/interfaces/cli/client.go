package cli

import (
	"errors"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/waste3d/cfproxyhub/internal/apiclient"
	"github.com/waste3d/cfproxyhub/internal/application"
	"github.com/waste3d/cfproxyhub/internal/config"
	"github.com/waste3d/cfproxyhub/internal/notify"
	"github.com/waste3d/cfproxyhub/internal/store"
	"github.com/waste3d/cfproxyhub/internal/validation"
)

// session is one command's view of a tunnel: the orchestrator driving the
// API client and record store, and the presenter reporting its outcomes.
type session struct {
	cfg       config.ClientConfig
	presenter *notify.Presenter
	orch      *application.HostnameOrchestrator
}

func (o *rootOptions) clientConfig() config.ClientConfig {
	return config.Client(o.v)
}

func newAPIClient(cfg config.ClientConfig) *apiclient.Client {
	return apiclient.New(cfg.APIServer,
		apiclient.WithToken(cfg.APIToken),
		apiclient.WithTimeout(cfg.RequestTimeout),
	)
}

func (o *rootOptions) newSession(cmd *cobra.Command) (*session, error) {
	cfg := o.clientConfig()
	if !cfg.Scope().Valid() {
		return nil, errors.New("account and tunnel are required: pass --account and --tunnel or set account_id and tunnel_id in the config")
	}
	if cfg.APIToken == "" {
		return nil, errors.New("not logged in. Please run 'cfproxyhub login' first")
	}

	api := newAPIClient(cfg)
	presenter := notify.NewPresenter(cmd.ErrOrStderr(), clockwork.NewRealClock(), cfg.NotifyDismiss)
	st := store.NewRecordStore(cfg.Scope())
	orch := application.NewHostnameOrchestrator(api, st, presenter, validation.Options{Strict: cfg.StrictValidation})

	return &session{
		cfg:       cfg,
		presenter: presenter,
		orch:      orch,
	}, nil
}

func (s *session) Close() {
	s.presenter.Close()
}
