package domain

import (
	"strings"
	"time"
)

// TunnelScope identifies the record set a client is working on.
type TunnelScope struct {
	AccountID string
	TunnelID  string
}

func (s TunnelScope) Valid() bool {
	return s.AccountID != "" && s.TunnelID != ""
}

type RecordStatus string

const (
	StatusActive RecordStatus = "active"
	StatusPaused RecordStatus = "paused"
	StatusError  RecordStatus = "error"
)

type ServiceType string

const (
	ServiceHTTP  ServiceType = "http"
	ServiceHTTPS ServiceType = "https"
	ServiceTCP   ServiceType = "tcp"
)

// HostnameRecord maps one public hostname of a tunnel to a backend service.
// Hostname is the record's key within a tunnel.
type HostnameRecord struct {
	Hostname  string       `json:"hostname"`
	Service   string       `json:"service"`
	Path      string       `json:"path,omitempty"`
	Status    RecordStatus `json:"status,omitempty"`
	CreatedAt *time.Time   `json:"created_at,omitempty"`
}

// DisplayStatus treats a missing status as active.
func (r HostnameRecord) DisplayStatus() RecordStatus {
	status := RecordStatus(strings.ToLower(string(r.Status)))
	if status == "" {
		return StatusActive
	}
	return status
}

// DisplayPath returns the record's path, "/" when unset.
func (r HostnameRecord) DisplayPath() string {
	if r.Path == "" {
		return "/"
	}
	return r.Path
}

// HostnameInput is the body of create and update requests.
type HostnameInput struct {
	Hostname string `json:"hostname"`
	Service  string `json:"service"`
	Path     string `json:"path,omitempty"`
}

// SplitService separates a service URI into its scheme and the remainder.
// Services without a scheme are reported as http.
func SplitService(service string) (ServiceType, string) {
	switch {
	case strings.HasPrefix(service, "https://"):
		return ServiceHTTPS, strings.TrimPrefix(service, "https://")
	case strings.HasPrefix(service, "http://"):
		return ServiceHTTP, strings.TrimPrefix(service, "http://")
	case strings.HasPrefix(service, "tcp://"):
		return ServiceTCP, strings.TrimPrefix(service, "tcp://")
	case strings.Contains(service, "://"):
		parts := strings.SplitN(service, "://", 2)
		return ServiceType(parts[0]), parts[1]
	}
	return ServiceHTTP, service
}

// JoinService prefixes url with the scheme of t unless it already carries it.
func JoinService(t ServiceType, url string) string {
	if t == "" {
		return url
	}
	prefix := string(t) + "://"
	if strings.HasPrefix(url, prefix) {
		return url
	}
	return prefix + url
}

// SplitHostname treats the first label as the subdomain and the rest as the
// domain. Names without a dot yield two empty strings.
func SplitHostname(hostname string) (subdomain, domain string) {
	if !strings.Contains(hostname, ".") {
		return "", ""
	}
	parts := strings.SplitN(hostname, ".", 2)
	return parts[0], parts[1]
}

// TunnelTarget is the CNAME target Cloudflare routes a tunnel's hostnames to.
func TunnelTarget(tunnelID string) string {
	return tunnelID + ".cfargotunnel.com"
}
