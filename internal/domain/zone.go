package domain

import "context"

const ZoneStatusActive = "active"

// Zone is a DNS zone summary as offered in the domain dropdown.
type Zone struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Type   string `json:"type,omitempty"`
}

func (z Zone) Active() bool {
	return z.Status == ZoneStatusActive
}

// ActiveZones keeps only zones whose status is active, preserving order.
func ActiveZones(zones []Zone) []Zone {
	active := make([]Zone, 0, len(zones))
	for _, z := range zones {
		if z.Active() {
			active = append(active, z)
		}
	}
	return active
}

// ZoneNames returns the names of zones in order.
func ZoneNames(zones []Zone) []string {
	names := make([]string, 0, len(zones))
	for _, z := range zones {
		names = append(names, z.Name)
	}
	return names
}

type ZoneSource interface {
	ListZones(ctx context.Context, accountID string) ([]Zone, error)
}
