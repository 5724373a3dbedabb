package persistence

import (
	"context"

	"github.com/waste3d/cfproxyhub/internal/domain"
)

// StaticZoneSource serves a fixed zone list, the same for every account.
type StaticZoneSource struct {
	zones []domain.Zone
}

func NewStaticZoneSource(zones []domain.Zone) *StaticZoneSource {
	cp := make([]domain.Zone, len(zones))
	copy(cp, zones)
	for i := range cp {
		if cp[i].ID == "" {
			cp[i].ID = cp[i].Name
		}
		if cp[i].Status == "" {
			cp[i].Status = domain.ZoneStatusActive
		}
	}
	return &StaticZoneSource{zones: cp}
}

func (s *StaticZoneSource) ListZones(ctx context.Context, accountID string) ([]domain.Zone, error) {
	out := make([]domain.Zone, len(s.zones))
	copy(out, s.zones)
	return out, nil
}
