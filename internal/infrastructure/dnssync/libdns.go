// Package dnssync points public hostnames at their tunnel through a libdns
// provider and lists the zones the provider manages.
package dnssync

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/libdns/cloudflare"
	"github.com/libdns/libdns"
	"github.com/sirupsen/logrus"
	"github.com/waste3d/cfproxyhub/internal/domain"
	"github.com/waste3d/cfproxyhub/internal/logger"
)

const (
	defaultTimeout = 30 * time.Second
	defaultTTL     = 300 * time.Second
)

// Provider is the subset of libdns a provider must implement.
type Provider interface {
	libdns.RecordGetter
	libdns.RecordSetter
	libdns.RecordDeleter
}

// LibdnsAdapter keeps tunnel CNAMEs in sync. Zone listing is used when the
// provider implements libdns.ZoneLister, otherwise the configured zones are
// served.
type LibdnsAdapter struct {
	name     string
	provider Provider
	timeout  time.Duration
	ttl      time.Duration

	mu    sync.RWMutex
	zones []string
}

// NewCloudflare builds an adapter over the Cloudflare libdns provider.
func NewCloudflare(apiToken string, zones []string) *LibdnsAdapter {
	provider := &cloudflare.Provider{
		APIToken: apiToken,
	}
	return NewLibdnsAdapter("cloudflare", provider, zones)
}

func NewLibdnsAdapter(name string, provider Provider, zones []string) *LibdnsAdapter {
	a := &LibdnsAdapter{
		name:     name,
		provider: provider,
		timeout:  defaultTimeout,
		ttl:      defaultTTL,
	}
	a.setZones(zones)
	return a
}

func (a *LibdnsAdapter) log() *logrus.Entry {
	return logger.Logger.WithField("dns_provider", a.name)
}

func (a *LibdnsAdapter) setZones(zones []string) {
	names := make([]string, 0, len(zones))
	for _, z := range zones {
		if z = strings.TrimSuffix(strings.TrimSpace(z), "."); z != "" {
			names = append(names, z)
		}
	}
	a.mu.Lock()
	a.zones = names
	a.mu.Unlock()
}

// ListZones implements domain.ZoneSource. The account is implied by the API
// token.
func (a *LibdnsAdapter) ListZones(ctx context.Context, accountID string) ([]domain.Zone, error) {
	lister, ok := a.provider.(libdns.ZoneLister)
	if !ok {
		a.mu.RLock()
		defer a.mu.RUnlock()
		if len(a.zones) == 0 {
			return nil, fmt.Errorf("provider %s does not support zone listing and no zones are configured", a.name)
		}
		return toZones(a.zones), nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.log().Debug("listing zones")
	libZones, err := lister.ListZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}

	names := make([]string, 0, len(libZones))
	for _, z := range libZones {
		names = append(names, z.Name)
	}
	a.setZones(names)

	a.mu.RLock()
	defer a.mu.RUnlock()
	return toZones(a.zones), nil
}

func toZones(names []string) []domain.Zone {
	zones := make([]domain.Zone, 0, len(names))
	for _, n := range names {
		zones = append(zones, domain.Zone{ID: n + ".", Name: n, Status: domain.ZoneStatusActive, Type: "full"})
	}
	return zones
}

// EnsureCNAME points hostname at target, leaving a matching record alone.
func (a *LibdnsAdapter) EnsureCNAME(ctx context.Context, hostname, target string) error {
	zone := a.zoneFor(hostname)
	rel := relativeName(hostname, zone)
	fqdnTarget := strings.TrimSuffix(target, ".") + "."
	log := a.log().WithFields(logrus.Fields{"hostname": hostname, "zone": zone, "target": target})

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	current, err := a.provider.GetRecords(ctx, zone+".")
	if err != nil {
		log.WithError(err).Debug("could not read records, writing anyway")
	}
	for _, r := range current {
		rr := r.RR()
		if rr.Name == rel && rr.Type == "CNAME" && strings.TrimSuffix(rr.Data, ".") == strings.TrimSuffix(fqdnTarget, ".") {
			log.Debug("CNAME already set")
			return nil
		}
	}

	_, err = a.provider.SetRecords(ctx, zone+".", []libdns.Record{
		libdns.CNAME{
			Name:   rel,
			TTL:    a.ttl,
			Target: fqdnTarget,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to set CNAME for %s: %w", hostname, err)
	}
	log.Debug("CNAME set")
	return nil
}

// RemoveCNAME deletes the CNAME of hostname whatever its target.
func (a *LibdnsAdapter) RemoveCNAME(ctx context.Context, hostname string) error {
	zone := a.zoneFor(hostname)
	rel := relativeName(hostname, zone)

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	_, err := a.provider.DeleteRecords(ctx, zone+".", []libdns.Record{
		libdns.RR{
			Name: rel,
			Type: "CNAME",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete CNAME for %s: %w", hostname, err)
	}
	a.log().WithFields(logrus.Fields{"hostname": hostname, "zone": zone}).Debug("CNAME deleted")
	return nil
}

// zoneFor picks the longest known zone that hostname belongs to, falling back
// to its last two labels.
func (a *LibdnsAdapter) zoneFor(hostname string) string {
	hostname = strings.TrimSuffix(hostname, ".")

	a.mu.RLock()
	defer a.mu.RUnlock()
	best := ""
	for _, z := range a.zones {
		if (hostname == z || strings.HasSuffix(hostname, "."+z)) && len(z) > len(best) {
			best = z
		}
	}
	if best != "" {
		return best
	}
	return apexDomain(hostname)
}

func apexDomain(hostname string) string {
	labels := strings.Split(hostname, ".")
	if len(labels) >= 2 {
		return strings.Join(labels[len(labels)-2:], ".")
	}
	return hostname
}

func relativeName(hostname, zone string) string {
	hostname = strings.TrimSuffix(hostname, ".")
	zone = strings.TrimSuffix(zone, ".")
	if hostname == zone {
		return "@"
	}
	return strings.TrimSuffix(hostname, "."+zone)
}
