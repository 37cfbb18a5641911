package tenant

import (
	"regexp"
	"strings"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
)

// TenantStatus represents whether a tenant may use the platform
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
	TenantStatusCancelled TenantStatus = "cancelled"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Tenant is one distributor organization on the platform. All business
// data is partitioned by tenant ID.
type Tenant struct {
	shared.BaseAggregateRoot
	Name     string
	Slug     string
	Status   TenantStatus
	Settings map[string]string
}

// NewTenant provisions an active tenant. The slug is the URL-safe
// identifier and must be unique across the platform.
func NewTenant(name, slug string) (*Tenant, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Tenant name cannot be empty")
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !slugPattern.MatchString(slug) {
		return nil, shared.NewDomainError("INVALID_SLUG", "Slug must be lowercase letters, digits and hyphens")
	}
	t := &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		Slug:              slug,
		Status:            TenantStatusActive,
		Settings:          make(map[string]string),
	}
	t.AddDomainEvent(NewTenantProvisionedEvent(t))
	return t, nil
}

// Suspend blocks all tenant traffic, typically for non-payment
func (t *Tenant) Suspend() error {
	if t.Status != TenantStatusActive {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot suspend a tenant in status %s", t.Status)
	}
	t.Status = TenantStatusSuspended
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Reactivate restores a suspended tenant
func (t *Tenant) Reactivate() error {
	if t.Status != TenantStatusSuspended {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot reactivate a tenant in status %s", t.Status)
	}
	t.Status = TenantStatusActive
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel permanently closes the tenant account
func (t *Tenant) Cancel() error {
	if t.Status == TenantStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Tenant is already cancelled")
	}
	t.Status = TenantStatusCancelled
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// IsActive reports whether the tenant may serve requests
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// SetSetting stores a per-tenant configuration value
func (t *Tenant) SetSetting(key, value string) error {
	if strings.TrimSpace(key) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Setting key cannot be empty")
	}
	if t.Settings == nil {
		t.Settings = make(map[string]string)
	}
	t.Settings[key] = value
	t.UpdatedAt = time.Now().UTC()
	return nil
}
