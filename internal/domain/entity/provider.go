package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProviderState ciclo de vida de un proveedor.
type ProviderState string

const (
	ProviderStateActive   ProviderState = "ACTIVE"
	ProviderStateInactive ProviderState = "INACTIVE"
)

// Provider proveedor al que se envían órdenes de compra.
type Provider struct {
	ID            string
	Name          string
	Email         string
	Phone         string
	State         ProviderState
	DeactivatedAt *time.Time
	CreatedAt     time.Time
}

// IsActive indica si el proveedor está dado de alta.
func (p *Provider) IsActive() bool {
	return p.State == "" || p.State == ProviderStateActive
}

// ProviderLink relación producto-proveedor con las condiciones de compra.
// Como máximo un vínculo por producto tiene IsDefault = true.
type ProviderLink struct {
	ID            string
	ProductID     string
	ProviderID    string
	UnitCost      *decimal.Decimal
	LeadTimeDays  *int
	ShippingCost  *decimal.Decimal // costo por pedido
	IsDefault     bool
	State         ProviderState
	DeactivatedAt *time.Time
}

// IsActive indica si el vínculo sigue vigente.
func (l *ProviderLink) IsActive() bool {
	return l.State == "" || l.State == ProviderStateActive
}

// Price precio unitario del vínculo (cero si no está definido).
func (l *ProviderLink) Price() decimal.Decimal {
	if l == nil || l.UnitCost == nil {
		return decimal.Zero
	}
	return *l.UnitCost
}

// Clone copia profunda.
func (l *ProviderLink) Clone() *ProviderLink {
	if l == nil {
		return nil
	}
	c := *l
	c.UnitCost = cloneDecimal(l.UnitCost)
	c.ShippingCost = cloneDecimal(l.ShippingCost)
	c.LeadTimeDays = cloneInt(l.LeadTimeDays)
	if l.DeactivatedAt != nil {
		t := *l.DeactivatedAt
		c.DeactivatedAt = &t
	}
	return &c
}
