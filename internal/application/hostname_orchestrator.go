package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/waste3d/cfproxyhub/internal/apiclient"
	"github.com/waste3d/cfproxyhub/internal/domain"
	"github.com/waste3d/cfproxyhub/internal/logger"
	"github.com/waste3d/cfproxyhub/internal/store"
	"github.com/waste3d/cfproxyhub/internal/validation"
)

const (
	MsgHostnamesLoaded    = "Loaded %d hostnames"
	MsgNoHostnames        = "No hostnames found for this tunnel"
	MsgLoadFailed         = "Failed to load hostnames"
	MsgNoActiveDomains    = "No active domains found for this account"
	MsgZonesNotFound      = "Zones API endpoint not found"
	MsgZonesUnauthorized  = "Unauthorized access to zones"
	MsgZonesServerError   = "Server error while loading zones"
	MsgZonesFailed        = "Failed to load domains"
	MsgFixValidation      = "Please fix the validation errors before saving"
	MsgCreated            = "Hostname created successfully"
	MsgUpdated            = "Hostname updated successfully"
	MsgDeleted            = "Hostname deleted successfully"
	MsgSaveFailed         = "Failed to save hostname"
	MsgDeleteFailed       = "Failed to delete hostname"
	MsgHostnameTaken      = "A hostname with this name already exists"
	MsgInvalidHostname    = "Invalid hostname configuration"
	MsgDomainUnauthorized = "Unauthorized access to this domain"
)

var (
	// ErrBusy is returned when the same trigger already has a request in
	// flight. No request is sent.
	ErrBusy = errors.New("operation already in progress")
	// ErrDeleteCancelled is returned when the user declines the delete
	// confirmation.
	ErrDeleteCancelled = errors.New("delete cancelled")
)

// HostnameAPI is the remote side of the hostname workflow.
type HostnameAPI interface {
	ListHostnames(ctx context.Context, scope domain.TunnelScope) (apiclient.HostnameList, error)
	CreateHostname(ctx context.Context, scope domain.TunnelScope, in domain.HostnameInput) (apiclient.CreateResult, error)
	UpdateHostname(ctx context.Context, scope domain.TunnelScope, original string, in domain.HostnameInput) (apiclient.UpdateResult, error)
	DeleteHostname(ctx context.Context, scope domain.TunnelScope, hostname string) (apiclient.DeleteResult, error)
	ListZones(ctx context.Context, accountID string, q apiclient.ZoneQuery) (apiclient.ZoneList, error)
}

type Notifier interface {
	Success(message string)
	Error(message string)
	Warning(message string)
	Info(message string)
}

// Control is the advisory in-flight flag of one trigger. It only stops the
// same trigger from firing twice; different triggers may still race.
type Control struct {
	busy atomic.Bool
}

func (c *Control) acquire() bool {
	return c.busy.CompareAndSwap(false, true)
}

func (c *Control) release() {
	c.busy.Store(false)
}

func (c *Control) Busy() bool {
	return c.busy.Load()
}

// HostnameOrchestrator runs the create, update, delete and refresh flows for
// one tunnel and keeps the record store in step with the server by
// refetching after every successful mutation.
type HostnameOrchestrator struct {
	api      HostnameAPI
	store    *store.RecordStore
	notifier Notifier
	opts     validation.Options

	RefreshControl Control
	SaveControl    Control
	DeleteControl  Control

	zonesMu sync.RWMutex
	zones   []domain.Zone
}

func NewHostnameOrchestrator(api HostnameAPI, st *store.RecordStore, notifier Notifier, opts validation.Options) *HostnameOrchestrator {
	return &HostnameOrchestrator{
		api:      api,
		store:    st,
		notifier: notifier,
		opts:     opts,
	}
}

func (o *HostnameOrchestrator) Scope() domain.TunnelScope {
	return o.store.Scope()
}

func (o *HostnameOrchestrator) Store() *store.RecordStore {
	return o.store
}

func (o *HostnameOrchestrator) log() *logrus.Entry {
	scope := o.Scope()
	return logger.Logger.WithFields(logrus.Fields{
		"account_id": scope.AccountID,
		"tunnel_id":  scope.TunnelID,
	})
}

// Refresh refetches the full record list.
func (o *HostnameOrchestrator) Refresh(ctx context.Context) error {
	if !o.RefreshControl.acquire() {
		return ErrBusy
	}
	defer o.RefreshControl.release()
	return o.refresh(ctx)
}

func (o *HostnameOrchestrator) refresh(ctx context.Context) error {
	o.store.BeginLoad()

	list, err := o.api.ListHostnames(ctx, o.Scope())
	if err != nil {
		o.store.Fail()
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.Envelope {
			o.notifier.Info(MsgNoHostnames)
		} else {
			o.notifier.Error(MsgLoadFailed)
		}
		o.log().WithError(err).Warn("could not load hostnames")
		return fmt.Errorf("list hostnames: %w", err)
	}

	o.store.Replace(list.Hostnames)
	if n := len(list.Hostnames); n > 0 {
		o.notifier.Success(fmt.Sprintf(MsgHostnamesLoaded, n))
	}
	return nil
}

// LoadZones fetches the domain dropdown and keeps only active zones.
func (o *HostnameOrchestrator) LoadZones(ctx context.Context) ([]domain.Zone, error) {
	list, err := o.api.ListZones(ctx, o.Scope().AccountID, apiclient.DropdownQuery)
	if err != nil {
		o.setZones(nil)
		o.notifier.Error(zonesErrorMessage(err))
		o.log().WithError(err).Warn("could not load zones")
		return nil, fmt.Errorf("list zones: %w", err)
	}

	active := domain.ActiveZones(list.Zones)
	o.setZones(active)
	if len(active) == 0 {
		o.notifier.Warning(MsgNoActiveDomains)
	}
	return active, nil
}

func (o *HostnameOrchestrator) setZones(zones []domain.Zone) {
	o.zonesMu.Lock()
	defer o.zonesMu.Unlock()
	o.zones = zones
}

// ZoneNames returns the active zone names of the last LoadZones call.
func (o *HostnameOrchestrator) ZoneNames() []string {
	o.zonesMu.RLock()
	defer o.zonesMu.RUnlock()
	return domain.ZoneNames(o.zones)
}

func zonesErrorMessage(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode < 200 || apiErr.StatusCode > 299) {
		switch apiErr.StatusCode {
		case http.StatusNotFound:
			return MsgZonesNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			return MsgZonesUnauthorized
		case http.StatusInternalServerError:
			return MsgZonesServerError
		}
	}
	if msg := err.Error(); msg != "" {
		return MsgZonesFailed + ": " + msg
	}
	return MsgZonesFailed
}

// Evaluate validates form against the current record store.
func (o *HostnameOrchestrator) Evaluate(form domain.FormState) validation.Result {
	return validation.Evaluate(form, o.store.Hostnames(), o.opts)
}

// Create adds a new record and refetches the list on success.
func (o *HostnameOrchestrator) Create(ctx context.Context, in domain.HostnameInput) error {
	if !o.SaveControl.acquire() {
		return ErrBusy
	}
	defer o.SaveControl.release()

	if _, err := o.api.CreateHostname(ctx, o.Scope(), in); err != nil {
		o.notifier.Error(saveErrorMessage(err))
		o.log().WithError(err).WithField("hostname", in.Hostname).Warn("could not create hostname")
		return fmt.Errorf("create hostname: %w", err)
	}

	o.notifier.Success(MsgCreated)
	o.refreshAfterMutation(ctx)
	return nil
}

// Update replaces the record currently named original with in. The request
// is addressed by original even when in.Hostname renames the record.
func (o *HostnameOrchestrator) Update(ctx context.Context, original string, in domain.HostnameInput) error {
	if !o.SaveControl.acquire() {
		return ErrBusy
	}
	defer o.SaveControl.release()

	if _, err := o.api.UpdateHostname(ctx, o.Scope(), original, in); err != nil {
		o.notifier.Error(saveErrorMessage(err))
		o.log().WithError(err).WithField("hostname", original).Warn("could not update hostname")
		return fmt.Errorf("update hostname: %w", err)
	}

	o.notifier.Success(MsgUpdated)
	o.refreshAfterMutation(ctx)
	return nil
}

// Delete removes hostname after confirm approves it. A nil confirm or a
// declined confirmation sends nothing.
func (o *HostnameOrchestrator) Delete(ctx context.Context, hostname string, confirm func(hostname string) bool) error {
	if hostname == "" {
		return errors.New("hostname is required")
	}
	if confirm == nil || !confirm(hostname) {
		return ErrDeleteCancelled
	}
	if !o.DeleteControl.acquire() {
		return ErrBusy
	}
	defer o.DeleteControl.release()

	if _, err := o.api.DeleteHostname(ctx, o.Scope(), hostname); err != nil {
		msg := err.Error()
		if msg == "" {
			msg = MsgDeleteFailed
		}
		o.notifier.Error(msg)
		o.log().WithError(err).WithField("hostname", hostname).Warn("could not delete hostname")
		return fmt.Errorf("delete hostname: %w", err)
	}

	o.notifier.Success(MsgDeleted)
	o.refreshAfterMutation(ctx)
	return nil
}

// Save submits the editor. On success it returns the reset form; on failure
// it returns form unchanged so the editor stays open.
func (o *HostnameOrchestrator) Save(ctx context.Context, form domain.FormState) (domain.FormState, error) {
	if err := validation.Check(form, o.store.Hostnames(), o.opts); err != nil {
		o.notifier.Error(MsgFixValidation)
		return form, err
	}

	in := form.Input()
	var err error
	if form.Mode == domain.ModeEdit {
		err = o.Update(ctx, form.OriginalHostname, in)
	} else {
		err = o.Create(ctx, in)
	}
	if err != nil {
		return form, err
	}
	return domain.Reduce(form, domain.Close{}), nil
}

func (o *HostnameOrchestrator) refreshAfterMutation(ctx context.Context) {
	if err := o.refresh(ctx); err != nil {
		o.log().WithError(err).Debug("refresh after mutation failed")
	}
}

func saveErrorMessage(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "already exists"):
		return MsgHostnameTaken
	case strings.Contains(msg, "invalid"):
		return MsgInvalidHostname
	case strings.Contains(msg, "unauthorized"):
		return MsgDomainUnauthorized
	case msg != "":
		return msg
	}
	return MsgSaveFailed
}
