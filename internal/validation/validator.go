// Package validation holds the hostname editor rules: per-field checks,
// full-hostname composition, uniqueness and the submit decision.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/waste3d/cfproxyhub/internal/domain"
)

const (
	subdomainPrefix = "Invalid subdomain format. "

	MsgSubdomainTooLong  = subdomainPrefix + "Must be 63 characters or less."
	MsgSubdomainHyphen   = subdomainPrefix + "Cannot start or end with a hyphen."
	MsgSubdomainCharset  = subdomainPrefix + "Only letters, numbers, and hyphens allowed."
	MsgSubdomainBoundary = subdomainPrefix + "Must start and end with a letter or number."

	MsgInvalidDomain     = "Invalid domain format."
	MsgInvalidServiceURL = "Invalid service URL format. Examples: localhost:8080, 192.168.1.10:3000, http://localhost:8080"
	MsgDuplicate         = "Hostname already exists"
)

var (
	subdomainPattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)
	subdomainCharset = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
	domainPattern    = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

	servicePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[a-zA-Z0-9.-]+:\d+$`),
		regexp.MustCompile(`^[a-zA-Z0-9.-]+$`),
		regexp.MustCompile(`^https?://[a-zA-Z0-9.-]+(:\d+)?$`),
	}
)

type Field string

const (
	FieldSubdomain   Field = "subdomain"
	FieldDomain      Field = "domain"
	FieldServiceType Field = "service_type"
	FieldServiceURL  Field = "service_url"
)

type Status int

const (
	Neutral Status = iota
	Valid
	Invalid
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	}
	return "neutral"
}

// FieldState is the annotation shown next to one input.
type FieldState struct {
	Status  Status
	Message string
}

func neutral() FieldState           { return FieldState{Status: Neutral} }
func valid() FieldState             { return FieldState{Status: Valid} }
func invalid(msg string) FieldState { return FieldState{Status: Invalid, Message: msg} }

// SubdomainReason returns "" for a valid subdomain, otherwise the message for
// the first failed rule: length, edge hyphen, character set, boundary.
func SubdomainReason(subdomain string) string {
	if subdomainPattern.MatchString(subdomain) {
		return ""
	}
	switch {
	case utf8.RuneCountInString(subdomain) > 63:
		return MsgSubdomainTooLong
	case strings.HasPrefix(subdomain, "-") || strings.HasSuffix(subdomain, "-"):
		return MsgSubdomainHyphen
	case !subdomainCharset.MatchString(subdomain):
		return MsgSubdomainCharset
	}
	return MsgSubdomainBoundary
}

func ValidateSubdomain(subdomain string) FieldState {
	subdomain = strings.TrimSpace(subdomain)
	if subdomain == "" {
		return neutral()
	}
	if reason := SubdomainReason(subdomain); reason != "" {
		return invalid(reason)
	}
	return valid()
}

func ValidateManualDomain(domainName string) FieldState {
	domainName = strings.TrimSpace(domainName)
	if domainName == "" {
		return neutral()
	}
	if !domainPattern.MatchString(domainName) {
		return invalid(MsgInvalidDomain)
	}
	return valid()
}

func ValidateServiceURL(serviceURL string) FieldState {
	serviceURL = strings.TrimSpace(serviceURL)
	if serviceURL == "" {
		return neutral()
	}
	if !ServiceURLMatches(serviceURL) {
		return invalid(MsgInvalidServiceURL)
	}
	return valid()
}

// ServiceURLMatches reports whether s is host:port, a bare host or IP, or an
// http(s) URL with an optional port.
func ServiceURLMatches(s string) bool {
	for _, p := range servicePatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// FullHostname joins subdomain and domain, or returns "" if either is empty.
func FullHostname(subdomain, domainName string) string {
	if subdomain == "" || domainName == "" {
		return ""
	}
	return subdomain + "." + domainName
}

// IsUnique reports whether candidate may be saved given the existing
// hostnames. In edit mode the record being edited may keep its own name.
func IsUnique(candidate string, existing []string, mode domain.FormMode, original string) bool {
	if mode == domain.ModeEdit && candidate == original {
		return true
	}
	for _, h := range existing {
		if h == candidate {
			return false
		}
	}
	return true
}

type Options struct {
	// Strict also requires the manual domain pattern and the full service
	// URL pattern before submit is enabled.
	Strict bool
}

type Result struct {
	SubmitEnabled bool
	FullHostname  string
	Duplicate     bool
	Fields        map[Field]FieldState
}

// Errors lists the messages of every invalid field.
func (r Result) Errors() []string {
	var msgs []string
	for _, f := range []Field{FieldSubdomain, FieldDomain, FieldServiceType, FieldServiceURL} {
		if st, ok := r.Fields[f]; ok && st.Status == Invalid && st.Message != "" {
			msgs = append(msgs, st.Message)
		}
	}
	if r.Duplicate {
		msgs = append(msgs, MsgDuplicate)
	}
	return msgs
}

// Evaluate runs every rule against the form and decides whether it may be
// submitted. existing is the hostname list of the record store.
func Evaluate(f domain.FormState, existing []string, opts Options) Result {
	sub := f.TrimmedSubdomain()
	dom := f.DomainValue()
	svc := f.TrimmedServiceURL()

	res := Result{
		FullHostname: FullHostname(sub, dom),
		Fields: map[Field]FieldState{
			FieldSubdomain:  ValidateSubdomain(sub),
			FieldServiceURL: ValidateServiceURL(svc),
		},
	}

	if f.ManualMode {
		res.Fields[FieldDomain] = ValidateManualDomain(dom)
	} else if dom != "" {
		res.Fields[FieldDomain] = valid()
	} else {
		res.Fields[FieldDomain] = neutral()
	}

	if f.ServiceType == "" {
		res.Fields[FieldServiceType] = neutral()
	} else {
		res.Fields[FieldServiceType] = valid()
	}

	unique := false
	if res.FullHostname != "" {
		unique = IsUnique(res.FullHostname, existing, f.Mode, f.OriginalHostname)
		res.Duplicate = !unique
	}

	required := sub != "" && dom != "" && f.ServiceType != "" && svc != ""
	res.SubmitEnabled = required &&
		subdomainPattern.MatchString(sub) &&
		!strings.ContainsFunc(svc, unicode.IsSpace) &&
		unique

	if opts.Strict && res.SubmitEnabled {
		res.SubmitEnabled = domainPattern.MatchString(dom) && ServiceURLMatches(svc)
	}
	return res
}

// Error is returned when a form is submitted while invalid. No request is
// issued for it.
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Messages, "; "))
}

// Check returns a *Error when the form may not be submitted.
func Check(f domain.FormState, existing []string, opts Options) error {
	res := Evaluate(f, existing, opts)
	if res.SubmitEnabled {
		return nil
	}
	msgs := res.Errors()
	if len(msgs) == 0 {
		msgs = []string{"all fields are required"}
	}
	return &Error{Messages: msgs}
}

// ValidateHostnameInput checks a create or update body on the server side.
// Failures wrap domain.ErrInvalidHostname.
func ValidateHostnameInput(in domain.HostnameInput) error {
	hostname := strings.TrimSpace(in.Hostname)
	if hostname == "" || !strings.Contains(hostname, ".") || !domainPattern.MatchString(hostname) {
		return fmt.Errorf("%w: hostname %q", domain.ErrInvalidHostname, in.Hostname)
	}

	service := strings.TrimSpace(in.Service)
	scheme, rest := domain.SplitService(service)
	if !strings.Contains(service, "://") || rest == "" {
		return fmt.Errorf("%w: service %q must include a scheme", domain.ErrInvalidHostname, in.Service)
	}
	switch scheme {
	case domain.ServiceHTTP, domain.ServiceHTTPS, domain.ServiceTCP:
	default:
		return fmt.Errorf("%w: unsupported service scheme %q", domain.ErrInvalidHostname, scheme)
	}
	if strings.ContainsFunc(rest, unicode.IsSpace) {
		return fmt.Errorf("%w: service %q contains whitespace", domain.ErrInvalidHostname, in.Service)
	}

	if in.Path != "" && !strings.HasPrefix(in.Path, "/") {
		return fmt.Errorf("%w: path %q must start with /", domain.ErrInvalidHostname, in.Path)
	}
	return nil
}
