package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waste3d/cfproxyhub/internal/apiclient"
	"github.com/waste3d/cfproxyhub/internal/domain"
	"github.com/waste3d/cfproxyhub/internal/store"
	"github.com/waste3d/cfproxyhub/internal/validation"
)

var testScope = domain.TunnelScope{AccountID: "acc", TunnelID: "tun"}

type updateCall struct {
	original string
	input    domain.HostnameInput
}

// fakeAPI is an in-memory server double that records every call.
type fakeAPI struct {
	mu      sync.Mutex
	records []domain.HostnameRecord
	zones   []domain.Zone

	listErr   error
	createErr error
	updateErr error
	deleteErr error
	zonesErr  error

	// block, when set, holds mutations until it is closed.
	block chan struct{}

	listCalls   int
	createCalls []domain.HostnameInput
	updateCalls []updateCall
	deleteCalls []string
}

func (f *fakeAPI) ListHostnames(ctx context.Context, scope domain.TunnelScope) (apiclient.HostnameList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return apiclient.HostnameList{}, f.listErr
	}
	cp := append([]domain.HostnameRecord{}, f.records...)
	return apiclient.HostnameList{Hostnames: cp, Total: len(cp)}, nil
}

func (f *fakeAPI) wait() {
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeAPI) CreateHostname(ctx context.Context, scope domain.TunnelScope, in domain.HostnameInput) (apiclient.CreateResult, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, in)
	if f.createErr != nil {
		return apiclient.CreateResult{}, f.createErr
	}
	f.records = append(f.records, domain.HostnameRecord{Hostname: in.Hostname, Service: in.Service, Path: in.Path})
	return apiclient.CreateResult{Hostname: in.Hostname}, nil
}

func (f *fakeAPI) UpdateHostname(ctx context.Context, scope domain.TunnelScope, original string, in domain.HostnameInput) (apiclient.UpdateResult, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls = append(f.updateCalls, updateCall{original: original, input: in})
	if f.updateErr != nil {
		return apiclient.UpdateResult{}, f.updateErr
	}
	for i, r := range f.records {
		if r.Hostname == original {
			f.records[i] = domain.HostnameRecord{Hostname: in.Hostname, Service: in.Service, Path: in.Path}
		}
	}
	return apiclient.UpdateResult{TargetHostname: original, NewHostname: in.Hostname}, nil
}

func (f *fakeAPI) DeleteHostname(ctx context.Context, scope domain.TunnelScope, hostname string) (apiclient.DeleteResult, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, hostname)
	if f.deleteErr != nil {
		return apiclient.DeleteResult{}, f.deleteErr
	}
	kept := f.records[:0]
	for _, r := range f.records {
		if r.Hostname != hostname {
			kept = append(kept, r)
		}
	}
	f.records = kept
	return apiclient.DeleteResult{DeletedHostname: hostname}, nil
}

func (f *fakeAPI) ListZones(ctx context.Context, accountID string, q apiclient.ZoneQuery) (apiclient.ZoneList, error) {
	if f.zonesErr != nil {
		return apiclient.ZoneList{}, f.zonesErr
	}
	return apiclient.ZoneList{Zones: f.zones, Total: len(f.zones)}, nil
}

func (f *fakeAPI) lists() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

type note struct {
	severity string
	message  string
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (n *recordingNotifier) add(sev, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note{sev, msg})
}

func (n *recordingNotifier) Success(msg string) { n.add("success", msg) }
func (n *recordingNotifier) Error(msg string)   { n.add("error", msg) }
func (n *recordingNotifier) Warning(msg string) { n.add("warning", msg) }
func (n *recordingNotifier) Info(msg string)    { n.add("info", msg) }

func (n *recordingNotifier) last() note {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notes) == 0 {
		return note{}
	}
	return n.notes[len(n.notes)-1]
}

func (n *recordingNotifier) has(sev, msg string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, x := range n.notes {
		if x.severity == sev && x.message == msg {
			return true
		}
	}
	return false
}

func newOrchestrator(api *fakeAPI) (*HostnameOrchestrator, *recordingNotifier) {
	n := &recordingNotifier{}
	return NewHostnameOrchestrator(api, store.NewRecordStore(testScope), n, validation.Options{}), n
}

func TestRefresh(t *testing.T) {
	tests := []struct {
		name     string
		records  []domain.HostnameRecord
		listErr  error
		wantView store.ViewState
		wantNote note
		wantErr  bool
	}{
		{
			name:     "populated",
			records:  []domain.HostnameRecord{{Hostname: "a.example.com"}, {Hostname: "b.example.com"}},
			wantView: store.Populated,
			wantNote: note{"success", "Loaded 2 hostnames"},
		},
		{
			name:     "empty list has no notification",
			records:  []domain.HostnameRecord{},
			wantView: store.Empty,
		},
		{
			name:     "error envelope",
			listErr:  &apiclient.APIError{StatusCode: http.StatusNotFound, Message: "tunnel not found", Envelope: true},
			wantView: store.Empty,
			wantNote: note{"info", MsgNoHostnames},
			wantErr:  true,
		},
		{
			name:     "transport failure",
			listErr:  &apiclient.TransportError{Op: "GET", Err: errors.New("connection refused")},
			wantView: store.Empty,
			wantNote: note{"error", MsgLoadFailed},
			wantErr:  true,
		},
		{
			name:     "plain http failure",
			listErr:  &apiclient.APIError{StatusCode: http.StatusBadGateway},
			wantView: store.Empty,
			wantNote: note{"error", MsgLoadFailed},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{records: tt.records, listErr: tt.listErr}
			o, n := newOrchestrator(api)

			err := o.Refresh(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantView, o.Store().View())
			assert.Equal(t, tt.wantNote, n.last())
			assert.False(t, o.RefreshControl.Busy())
		})
	}
}

func TestCreate_RefetchesExactlyOnce(t *testing.T) {
	api := &fakeAPI{records: []domain.HostnameRecord{}}
	o, n := newOrchestrator(api)
	require.NoError(t, o.Refresh(context.Background()))
	before := api.lists()

	err := o.Create(context.Background(), domain.HostnameInput{Hostname: "api.example.com", Service: "http://localhost:8080", Path: "/"})
	require.NoError(t, err)

	assert.Equal(t, before+1, api.lists())
	assert.True(t, n.has("success", MsgCreated))
	assert.True(t, o.Store().Contains("api.example.com"))
}

func TestUpdate_OldKeyNewBody(t *testing.T) {
	api := &fakeAPI{records: []domain.HostnameRecord{{Hostname: "old.example.com", Service: "http://localhost:8080"}}}
	o, n := newOrchestrator(api)
	require.NoError(t, o.Refresh(context.Background()))
	before := api.lists()

	form := domain.ReduceAll(domain.NewForm(),
		domain.OpenEdit{Record: api.records[0], Zones: []string{"example.com"}},
		domain.SetSubdomain{Value: "new"},
	)
	next, err := o.Save(context.Background(), form)
	require.NoError(t, err)

	require.Len(t, api.updateCalls, 1)
	assert.Equal(t, "old.example.com", api.updateCalls[0].original)
	assert.Equal(t, "new.example.com", api.updateCalls[0].input.Hostname)
	assert.Empty(t, api.createCalls)
	assert.Equal(t, before+1, api.lists())
	assert.True(t, n.has("success", MsgUpdated))
	assert.Equal(t, domain.NewForm(), next)
	assert.Equal(t, []string{"new.example.com"}, o.Store().Hostnames())
}

func TestSave_KeepsOwnNameInEditMode(t *testing.T) {
	api := &fakeAPI{records: []domain.HostnameRecord{{Hostname: "api.example.com", Service: "http://localhost:8080"}}}
	o, _ := newOrchestrator(api)
	require.NoError(t, o.Refresh(context.Background()))

	form := domain.ReduceAll(domain.NewForm(),
		domain.OpenEdit{Record: api.records[0], Zones: []string{"example.com"}},
		domain.SetServiceURL{Value: "localhost:9090"},
	)
	_, err := o.Save(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9090", api.updateCalls[0].input.Service)
}

func TestSave_ValidationFailureSendsNothing(t *testing.T) {
	api := &fakeAPI{records: []domain.HostnameRecord{{Hostname: "api.example.com"}}}
	o, n := newOrchestrator(api)
	require.NoError(t, o.Refresh(context.Background()))
	before := api.lists()

	form := domain.ReduceAll(domain.NewForm(),
		domain.SetSubdomain{Value: "api"},
		domain.SetDomain{Value: "example.com"},
		domain.SetServiceURL{Value: "localhost:8080"},
	)
	got, err := o.Save(context.Background(), form)

	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, form, got)
	assert.Empty(t, api.createCalls)
	assert.Equal(t, before, api.lists())
	assert.Equal(t, note{"error", MsgFixValidation}, n.last())
}

func TestSave_ServerFailureKeepsForm(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"duplicate", &apiclient.APIError{StatusCode: 409, Message: "A hostname with this name already exists", Envelope: true}, MsgHostnameTaken},
		{"invalid", &apiclient.APIError{StatusCode: 400, Message: "invalid hostname configuration: service", Envelope: true}, MsgInvalidHostname},
		{"unauthorized", &apiclient.APIError{StatusCode: 403, Message: "unauthorized", Envelope: true}, MsgDomainUnauthorized},
		{"other message", &apiclient.APIError{StatusCode: 500, Message: "Cloudflare is down", Envelope: true}, "Cloudflare is down"},
		{"status only", &apiclient.APIError{StatusCode: 502}, "HTTP error! status: 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{records: []domain.HostnameRecord{}, createErr: tt.err}
			o, n := newOrchestrator(api)
			require.NoError(t, o.Refresh(context.Background()))
			before := api.lists()

			form := domain.ReduceAll(domain.NewForm(),
				domain.SetSubdomain{Value: "api"},
				domain.SetDomain{Value: "example.com"},
				domain.SetServiceURL{Value: "localhost:8080"},
			)
			got, err := o.Save(context.Background(), form)

			assert.Error(t, err)
			assert.Equal(t, form, got)
			assert.Equal(t, note{"error", tt.wantMsg}, n.last())
			assert.Equal(t, before, api.lists())
			assert.False(t, o.SaveControl.Busy())
		})
	}
}

func TestSaveErrorMessage_Fallback(t *testing.T) {
	assert.Equal(t, MsgSaveFailed, saveErrorMessage(errors.New("")))
}

func TestDelete(t *testing.T) {
	api := &fakeAPI{records: []domain.HostnameRecord{{Hostname: "a.example.com"}, {Hostname: "b.example.com"}}}
	o, n := newOrchestrator(api)
	require.NoError(t, o.Refresh(context.Background()))
	before := api.lists()

	err := o.Delete(context.Background(), "a.example.com", func(string) bool { return false })
	assert.ErrorIs(t, err, ErrDeleteCancelled)
	assert.ErrorIs(t, o.Delete(context.Background(), "a.example.com", nil), ErrDeleteCancelled)
	assert.Empty(t, api.deleteCalls)

	var asked string
	err = o.Delete(context.Background(), "a.example.com", func(h string) bool { asked = h; return true })
	require.NoError(t, err)
	assert.Equal(t, "a.example.com", asked)
	assert.Equal(t, []string{"a.example.com"}, api.deleteCalls)
	assert.Equal(t, before+1, api.lists())
	assert.True(t, n.has("success", MsgDeleted))
	assert.Equal(t, []string{"b.example.com"}, o.Store().Hostnames())
}

func TestDelete_Failure(t *testing.T) {
	api := &fakeAPI{deleteErr: &apiclient.APIError{StatusCode: 404, Message: "hostname a.example.com not found in tunnel tun", Envelope: true}}
	o, n := newOrchestrator(api)

	err := o.Delete(context.Background(), "a.example.com", func(string) bool { return true })
	assert.Error(t, err)
	assert.Equal(t, note{"error", "hostname a.example.com not found in tunnel tun"}, n.last())
	assert.Equal(t, 0, api.lists())
}

func TestSaveGuard_RejectsSecondTrigger(t *testing.T) {
	api := &fakeAPI{records: []domain.HostnameRecord{}, block: make(chan struct{})}
	o, _ := newOrchestrator(api)

	in := domain.HostnameInput{Hostname: "api.example.com", Service: "http://localhost:8080"}
	done := make(chan error, 1)
	go func() { done <- o.Create(context.Background(), in) }()

	require.Eventually(t, o.SaveControl.Busy, time.Second, time.Millisecond)
	assert.ErrorIs(t, o.Create(context.Background(), in), ErrBusy)
	assert.ErrorIs(t, o.Update(context.Background(), "x.example.com", in), ErrBusy)

	// a different trigger is not blocked
	assert.NoError(t, o.Refresh(context.Background()))

	close(api.block)
	require.NoError(t, <-done)
	assert.Len(t, api.createCalls, 1)
	assert.False(t, o.SaveControl.Busy())
}

func TestLoadZones(t *testing.T) {
	api := &fakeAPI{zones: []domain.Zone{
		{ID: "1", Name: "example.com", Status: "active"},
		{ID: "2", Name: "pending.io", Status: "pending"},
	}}
	o, n := newOrchestrator(api)

	zones, err := o.LoadZones(context.Background())
	require.NoError(t, err)
	assert.Len(t, zones, 1)
	assert.Equal(t, []string{"example.com"}, o.ZoneNames())
	assert.Equal(t, note{}, n.last())
}

func TestLoadZones_NoneActive(t *testing.T) {
	api := &fakeAPI{zones: []domain.Zone{{ID: "2", Name: "pending.io", Status: "pending"}}}
	o, n := newOrchestrator(api)

	zones, err := o.LoadZones(context.Background())
	require.NoError(t, err)
	assert.Empty(t, zones)
	assert.Equal(t, note{"warning", MsgNoActiveDomains}, n.last())
}

func TestLoadZones_Errors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&apiclient.APIError{StatusCode: 404}, MsgZonesNotFound},
		{&apiclient.APIError{StatusCode: 401}, MsgZonesUnauthorized},
		{&apiclient.APIError{StatusCode: 403, Message: "nope", Envelope: true}, MsgZonesUnauthorized},
		{&apiclient.APIError{StatusCode: 500}, MsgZonesServerError},
		{&apiclient.APIError{StatusCode: 200, Message: "Invalid response format", Envelope: true}, "Failed to load domains: Invalid response format"},
		{&apiclient.TransportError{Op: "GET", Err: errors.New("refused")}, "Failed to load domains: GET: refused"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.err), func(t *testing.T) {
			api := &fakeAPI{zonesErr: tt.err}
			o, n := newOrchestrator(api)

			_, err := o.LoadZones(context.Background())
			assert.Error(t, err)
			assert.Equal(t, note{"error", tt.want}, n.last())
			assert.Empty(t, o.ZoneNames())
		})
	}
}
