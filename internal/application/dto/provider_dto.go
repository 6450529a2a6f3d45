package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/reposicion-api/internal/domain/entity"
)

// CreateProviderRequest entrada para dar de alta un proveedor.
type CreateProviderRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ProviderResponse salida de un proveedor.
type ProviderResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	State         string     `json:"state"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// CreateProviderLinkRequest vincula un proveedor a un producto con sus condiciones de compra.
type CreateProviderLinkRequest struct {
	ProviderID   string           `json:"provider_id" validate:"required"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
	LeadTimeDays *int             `json:"lead_time_days"`
	ShippingCost *decimal.Decimal `json:"shipping_cost"`
	IsDefault    bool             `json:"is_default"`
}

// UpdateProviderLinkRequest condiciones de compra. Campos nil no cambian.
type UpdateProviderLinkRequest struct {
	UnitCost     *decimal.Decimal `json:"unit_cost"`
	LeadTimeDays *int             `json:"lead_time_days"`
	ShippingCost *decimal.Decimal `json:"shipping_cost"`
}

// SetDefaultProviderRequest body para fijar el proveedor predeterminado de un producto.
type SetDefaultProviderRequest struct {
	ProviderID string `json:"provider_id" validate:"required"`
}

// ProviderLinkResponse salida de un vínculo producto-proveedor.
type ProviderLinkResponse struct {
	ID            string           `json:"id"`
	ProductID     string           `json:"product_id"`
	ProviderID    string           `json:"provider_id"`
	UnitCost      *decimal.Decimal `json:"unit_cost"`
	LeadTimeDays  *int             `json:"lead_time_days"`
	ShippingCost  *decimal.Decimal `json:"shipping_cost"`
	IsDefault     bool             `json:"is_default"`
	State         string           `json:"state"`
	DeactivatedAt *time.Time       `json:"deactivated_at,omitempty"`
}

// NewProviderResponse mapea la entidad.
func NewProviderResponse(p *entity.Provider) ProviderResponse {
	return ProviderResponse{
		ID:            p.ID,
		Name:          p.Name,
		Email:         p.Email,
		Phone:         p.Phone,
		State:         string(p.State),
		DeactivatedAt: p.DeactivatedAt,
		CreatedAt:     p.CreatedAt,
	}
}

// NewProviderLinkResponse mapea la entidad.
func NewProviderLinkResponse(l *entity.ProviderLink) ProviderLinkResponse {
	return ProviderLinkResponse{
		ID:            l.ID,
		ProductID:     l.ProductID,
		ProviderID:    l.ProviderID,
		UnitCost:      l.UnitCost,
		LeadTimeDays:  l.LeadTimeDays,
		ShippingCost:  l.ShippingCost,
		IsDefault:     l.IsDefault,
		State:         string(l.State),
		DeactivatedAt: l.DeactivatedAt,
	}
}
