package otp

import (
	"time"

	coreconfig "github.com/m3rciful/otpbot/core/config"
)

// Service is one entry of the immutable OTP service catalog.
type Service struct {
	ID     string
	Name   string
	Expiry time.Duration
}

// Catalog holds the configured services, ordered by id for stable rendering.
type Catalog struct {
	ordered []Service
	byID    map[string]Service
}

// NewCatalog builds a catalog from normalized service configuration.
func NewCatalog(cfgs []coreconfig.ServiceConfig) *Catalog {
	cat := &Catalog{
		ordered: make([]Service, 0, len(cfgs)),
		byID:    make(map[string]Service, len(cfgs)),
	}
	for _, sc := range cfgs {
		svc := Service{
			ID:     sc.ID,
			Name:   sc.Name,
			Expiry: time.Duration(sc.ExpirySeconds) * time.Second,
		}
		cat.ordered = append(cat.ordered, svc)
		cat.byID[svc.ID] = svc
	}
	return cat
}

// Get returns the service for id.
func (c *Catalog) Get(id string) (Service, bool) {
	svc, ok := c.byID[id]
	return svc, ok
}

// List returns services in catalog order. Callers must not mutate the slice.
func (c *Catalog) List() []Service {
	return c.ordered
}

// Len returns the number of configured services.
func (c *Catalog) Len() int {
	return len(c.ordered)
}
