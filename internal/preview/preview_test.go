package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/waste3d/cfproxyhub/internal/validation"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name      string
		subdomain string
		domain    string
		wantKind  Kind
		wantText  string
	}{
		{"both present", "api", "example.com", Full, "api.example.com"},
		{"subdomain only", "api", "", MissingDomain, "api.[select domain]"},
		{"domain only", "", "example.com", MissingSubdomain, "[enter subdomain].example.com"},
		{"neither", "", "", Empty, "Enter subdomain and select domain..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(tt.subdomain, tt.domain)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantText, got.String())
		})
	}
}

func TestForResult(t *testing.T) {
	dup := validation.Result{Duplicate: true}
	got := ForResult("api", "example.com", dup)
	assert.Equal(t, Conflict, got.Kind)
	assert.Equal(t, "Hostname already exists", got.Text)

	got = ForResult("api", "example.com", validation.Result{})
	assert.Equal(t, Full, got.Kind)
}
