package domain

import "strings"

type FormMode int

const (
	ModeAdd FormMode = iota
	ModeEdit
)

func (m FormMode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "add"
}

// FormState is the transient state of the add/edit hostname editor.
type FormState struct {
	Mode             FormMode
	OriginalHostname string

	Subdomain    string
	Domain       string
	ManualDomain string
	ManualMode   bool
	ServiceType  ServiceType
	ServiceURL   string
	Path         string
}

// NewForm returns the editor defaults.
func NewForm() FormState {
	return FormState{
		Mode:        ModeAdd,
		ServiceType: ServiceHTTP,
		Path:        "/",
	}
}

// DomainValue returns the domain from whichever input is active.
func (f FormState) DomainValue() string {
	if f.ManualMode {
		return strings.TrimSpace(f.ManualDomain)
	}
	return f.Domain
}

func (f FormState) TrimmedSubdomain() string  { return strings.TrimSpace(f.Subdomain) }
func (f FormState) TrimmedServiceURL() string { return strings.TrimSpace(f.ServiceURL) }

// FullHostname is subdomain.domain, or "" while either part is missing.
func (f FormState) FullHostname() string {
	sub, dom := f.TrimmedSubdomain(), f.DomainValue()
	if sub == "" || dom == "" {
		return ""
	}
	return sub + "." + dom
}

// Input builds the request body submitted for this form.
func (f FormState) Input() HostnameInput {
	path := strings.TrimSpace(f.Path)
	if path == "" {
		path = "/"
	}
	return HostnameInput{
		Hostname: f.FullHostname(),
		Service:  JoinService(f.ServiceType, f.TrimmedServiceURL()),
		Path:     path,
	}
}

// Event is a user action on the editor.
type Event interface {
	isFormEvent()
}

type (
	OpenAdd  struct{}
	OpenEdit struct {
		Record HostnameRecord
		// Zones are the dropdown's domain names; an edited domain outside
		// this list is shown in the manual input.
		Zones []string
	}
	SetSubdomain       struct{ Value string }
	SetDomain          struct{ Value string }
	SetManualDomain    struct{ Value string }
	ToggleManualDomain struct{}
	SetServiceType     struct{ Value ServiceType }
	SetServiceURL      struct{ Value string }
	SetPath            struct{ Value string }
	Close              struct{}
)

func (OpenAdd) isFormEvent()            {}
func (OpenEdit) isFormEvent()           {}
func (SetSubdomain) isFormEvent()       {}
func (SetDomain) isFormEvent()          {}
func (SetManualDomain) isFormEvent()    {}
func (ToggleManualDomain) isFormEvent() {}
func (SetServiceType) isFormEvent()     {}
func (SetServiceURL) isFormEvent()      {}
func (SetPath) isFormEvent()            {}
func (Close) isFormEvent()              {}

// Reduce applies ev to f and returns the new state. It has no side effects.
func Reduce(f FormState, ev Event) FormState {
	switch e := ev.(type) {
	case OpenAdd, Close:
		return NewForm()
	case OpenEdit:
		return editForm(e)
	case SetSubdomain:
		f.Subdomain = e.Value
	case SetDomain:
		f.Domain = e.Value
	case SetManualDomain:
		f.ManualDomain = e.Value
	case ToggleManualDomain:
		if f.ManualMode {
			f.ManualDomain = ""
		}
		f.ManualMode = !f.ManualMode
	case SetServiceType:
		f.ServiceType = e.Value
	case SetServiceURL:
		f.ServiceURL = e.Value
	case SetPath:
		f.Path = e.Value
	}
	return f
}

// ReduceAll folds events over f in order.
func ReduceAll(f FormState, events ...Event) FormState {
	for _, ev := range events {
		f = Reduce(f, ev)
	}
	return f
}

func editForm(e OpenEdit) FormState {
	f := NewForm()
	f.Mode = ModeEdit
	f.OriginalHostname = e.Record.Hostname

	sub, dom := SplitHostname(e.Record.Hostname)
	f.Subdomain = sub
	if containsString(e.Zones, dom) {
		f.Domain = dom
	} else {
		f.ManualMode = true
		f.ManualDomain = dom
	}

	f.ServiceType, f.ServiceURL = SplitService(e.Record.Service)
	f.Path = e.Record.DisplayPath()
	return f
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
