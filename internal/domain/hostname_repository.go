package domain

import "context"

// HostnameRepository stores the hostname records of every tunnel.
// Implementations return ErrHostnameTaken on duplicate hostnames within a
// scope and ErrHostnameNotFound when the target of Replace or Delete is missing.
type HostnameRepository interface {
	List(ctx context.Context, scope TunnelScope) ([]HostnameRecord, error)
	Insert(ctx context.Context, scope TunnelScope, record HostnameRecord) error
	Replace(ctx context.Context, scope TunnelScope, target string, record HostnameRecord) (HostnameRecord, error)
	Delete(ctx context.Context, scope TunnelScope, hostname string) error
}
