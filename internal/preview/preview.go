// Package preview renders the hostname shown above the editor while the
// user types.
package preview

import "github.com/waste3d/cfproxyhub/internal/validation"

type Kind int

const (
	Empty Kind = iota
	Full
	MissingDomain
	MissingSubdomain
	Conflict
)

const (
	DomainPlaceholder    = "[select domain]"
	SubdomainPlaceholder = "[enter subdomain]"
	Instructions         = "Enter subdomain and select domain..."
)

type Fragment struct {
	Kind Kind
	Text string
}

func (f Fragment) String() string {
	return f.Text
}

// Build derives the preview from the trimmed subdomain and domain values.
func Build(subdomain, domain string) Fragment {
	switch {
	case subdomain != "" && domain != "":
		return Fragment{Kind: Full, Text: subdomain + "." + domain}
	case subdomain != "":
		return Fragment{Kind: MissingDomain, Text: subdomain + "." + DomainPlaceholder}
	case domain != "":
		return Fragment{Kind: MissingSubdomain, Text: SubdomainPlaceholder + "." + domain}
	}
	return Fragment{Kind: Empty, Text: Instructions}
}

// ConflictNotice replaces the preview when the full hostname is taken.
func ConflictNotice() Fragment {
	return Fragment{Kind: Conflict, Text: validation.MsgDuplicate}
}

// ForResult picks the conflict notice over the built preview when the
// evaluated form reports a duplicate.
func ForResult(subdomain, domain string, res validation.Result) Fragment {
	if res.Duplicate {
		return ConflictNotice()
	}
	return Build(subdomain, domain)
}
