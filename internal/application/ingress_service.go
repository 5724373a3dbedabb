package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/waste3d/cfproxyhub/internal/domain"
	"github.com/waste3d/cfproxyhub/internal/logger"
	"github.com/waste3d/cfproxyhub/internal/validation"
)

const (
	DefaultZoneLimit = 50
	MaxZoneLimit     = 100
)

// DNSSyncer keeps the CNAME records of public hostnames pointed at their
// tunnel.
type DNSSyncer interface {
	EnsureCNAME(ctx context.Context, hostname, target string) error
	RemoveCNAME(ctx context.Context, hostname string) error
}

// ZoneFilter is the query of the domain dropdown.
type ZoneFilter struct {
	ActiveOnly bool
	Limit      int
	Search     string
}

// IngressService is the server side of the hostname API: it stores the
// public hostnames of each tunnel and mirrors them into DNS.
type IngressService struct {
	repo  domain.HostnameRepository
	zones domain.ZoneSource
	dns   DNSSyncer
	now   func() time.Time
}

// NewIngressService wires the service. dns may be nil, in which case DNS is
// left untouched.
func NewIngressService(repo domain.HostnameRepository, zones domain.ZoneSource, dns DNSSyncer) *IngressService {
	return &IngressService{repo: repo, zones: zones, dns: dns, now: time.Now}
}

func (s *IngressService) ListHostnames(ctx context.Context, scope domain.TunnelScope) ([]domain.HostnameRecord, error) {
	records, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list hostnames: %w", err)
	}
	if records == nil {
		records = []domain.HostnameRecord{}
	}
	return records, nil
}

func (s *IngressService) CreateHostname(ctx context.Context, scope domain.TunnelScope, in domain.HostnameInput) (domain.HostnameRecord, error) {
	in = normalize(in)
	if err := validation.ValidateHostnameInput(in); err != nil {
		return domain.HostnameRecord{}, err
	}

	now := s.now().UTC()
	record := domain.HostnameRecord{
		Hostname:  in.Hostname,
		Service:   in.Service,
		Path:      in.Path,
		Status:    domain.StatusActive,
		CreatedAt: &now,
	}
	if err := s.repo.Insert(ctx, scope, record); err != nil {
		return domain.HostnameRecord{}, fmt.Errorf("failed to create hostname: %w", err)
	}

	s.ensureDNS(ctx, scope, record.Hostname)
	return record, nil
}

// UpdateHostname replaces the record named target. in.Hostname may differ from
// target, which renames the record.
func (s *IngressService) UpdateHostname(ctx context.Context, scope domain.TunnelScope, target string, in domain.HostnameInput) (domain.HostnameRecord, error) {
	in = normalize(in)
	if err := validation.ValidateHostnameInput(in); err != nil {
		return domain.HostnameRecord{}, err
	}

	record := domain.HostnameRecord{
		Hostname: in.Hostname,
		Service:  in.Service,
		Path:     in.Path,
		Status:   domain.StatusActive,
	}
	updated, err := s.repo.Replace(ctx, scope, target, record)
	if err != nil {
		return domain.HostnameRecord{}, fmt.Errorf("failed to update hostname: %w", err)
	}

	if updated.Hostname != target {
		s.removeDNS(ctx, target)
	}
	s.ensureDNS(ctx, scope, updated.Hostname)
	return updated, nil
}

func (s *IngressService) DeleteHostname(ctx context.Context, scope domain.TunnelScope, hostname string) error {
	if err := s.repo.Delete(ctx, scope, hostname); err != nil {
		return fmt.Errorf("failed to delete hostname: %w", err)
	}
	s.removeDNS(ctx, hostname)
	return nil
}

// ListZones returns the dropdown zones for an account. A zero limit means
// DefaultZoneLimit; larger limits are capped at MaxZoneLimit.
func (s *IngressService) ListZones(ctx context.Context, accountID string, f ZoneFilter) ([]domain.Zone, error) {
	zones, err := s.zones.ListZones(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultZoneLimit
	}
	if limit > MaxZoneLimit {
		limit = MaxZoneLimit
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]domain.Zone, 0, len(zones))
	for _, z := range zones {
		if f.ActiveOnly && !z.Active() {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(z.Name), search) {
			continue
		}
		out = append(out, z)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *IngressService) ensureDNS(ctx context.Context, scope domain.TunnelScope, hostname string) {
	if s.dns == nil {
		return
	}
	target := domain.TunnelTarget(scope.TunnelID)
	log := logger.Logger.WithFields(logrus.Fields{"hostname": hostname, "target": target})
	if err := s.dns.EnsureCNAME(ctx, hostname, target); err != nil {
		log.WithError(err).Warn("hostname saved but DNS record could not be created")
		return
	}
	log.Info("DNS record points at tunnel")
}

func (s *IngressService) removeDNS(ctx context.Context, hostname string) {
	if s.dns == nil {
		return
	}
	log := logger.Logger.WithField("hostname", hostname)
	if err := s.dns.RemoveCNAME(ctx, hostname); err != nil {
		log.WithError(err).Warn("hostname removed but DNS record could not be deleted")
		return
	}
	log.Info("DNS record removed")
}

func normalize(in domain.HostnameInput) domain.HostnameInput {
	in.Hostname = strings.TrimSpace(in.Hostname)
	in.Service = strings.TrimSpace(in.Service)
	in.Path = strings.TrimSpace(in.Path)
	if in.Path == "" {
		in.Path = "/"
	}
	return in
}
