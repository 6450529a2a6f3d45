package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/reposicion-api/internal/domain/entity"
)

// PolicyRequest política de inventario del producto. Kind: FIXED_LOT | FIXED_INTERVAL.
// ReviewIntervalDays solo aplica a FIXED_INTERVAL.
type PolicyRequest struct {
	Kind               string `json:"kind" validate:"required,oneof=FIXED_LOT FIXED_INTERVAL"`
	SafetyStock        *int   `json:"safety_stock"`
	ReviewIntervalDays *int   `json:"review_interval_days,omitempty"`
}

// CreateProductRequest entrada para dar de alta un producto con su política.
type CreateProductRequest struct {
	Code         string           `json:"code" validate:"required"`
	Description  string           `json:"description"`
	CurrentStock int              `json:"current_stock" validate:"min=0"`
	AnnualDemand *decimal.Decimal `json:"annual_demand"`
	StorageCost  *decimal.Decimal `json:"storage_cost"`
	Policy       PolicyRequest    `json:"policy"`
}

// UpdateDemandRequest demanda anual y costo de almacenamiento. Campos nil no cambian.
type UpdateDemandRequest struct {
	AnnualDemand *decimal.Decimal `json:"annual_demand"`
	StorageCost  *decimal.Decimal `json:"storage_cost"`
}

// PolicyResponse política con sus campos derivados.
type PolicyResponse struct {
	Kind               string  `json:"kind"`
	SafetyStock        *int    `json:"safety_stock"`
	OptimalLotSize     *int    `json:"optimal_lot_size,omitempty"`
	ReorderPoint       *int    `json:"reorder_point,omitempty"`
	ReviewIntervalDays *int    `json:"review_interval_days,omitempty"`
	MaxInventoryLevel  *int    `json:"max_inventory_level,omitempty"`
	LastReviewDate     *string `json:"last_review_date,omitempty"` // YYYY-MM-DD
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID            string           `json:"id"`
	Code          string           `json:"code"`
	Description   string           `json:"description"`
	CurrentStock  int              `json:"current_stock"`
	AnnualDemand  *decimal.Decimal `json:"annual_demand"`
	StorageCost   *decimal.Decimal `json:"storage_cost"`
	TotalCost     *decimal.Decimal `json:"total_cost"`
	Policy        *PolicyResponse  `json:"policy"`
	State         string           `json:"state"`
	DeactivatedAt *time.Time       `json:"deactivated_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// SkippedFieldResponse campo derivado no recalculado y el dato que faltó.
type SkippedFieldResponse struct {
	Field   string `json:"field"`
	Missing string `json:"missing"`
}

// RecomputeResponse producto tras recalcular sus campos derivados.
type RecomputeResponse struct {
	Product ProductResponse        `json:"product"`
	Updated []string               `json:"updated"`
	Skipped []SkippedFieldResponse `json:"skipped"`
}

// RecomputeAllResponse resumen del recálculo masivo.
type RecomputeAllResponse struct {
	Processed int               `json:"processed"`
	Updated   int               `json:"updated"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// ProductAlertResponse producto en un reporte de alertas de stock.
type ProductAlertResponse struct {
	ProductID    string `json:"product_id"`
	Code         string `json:"code"`
	Description  string `json:"description"`
	Policy       string `json:"policy"`
	CurrentStock int    `json:"current_stock"`
	SafetyStock  *int   `json:"safety_stock,omitempty"`
	ReorderPoint *int   `json:"reorder_point,omitempty"`
}

// NewProductResponse mapea la entidad a la salida HTTP.
func NewProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Code:          p.Code,
		Description:   p.Description,
		CurrentStock:  p.CurrentStock,
		AnnualDemand:  p.AnnualDemand,
		StorageCost:   p.StorageCost,
		TotalCost:     p.TotalCost,
		Policy:        newPolicyResponse(p.Policy),
		State:         string(p.State),
		DeactivatedAt: p.DeactivatedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func newPolicyResponse(policy entity.InventoryPolicy) *PolicyResponse {
	switch p := policy.(type) {
	case *entity.FixedLotPolicy:
		return &PolicyResponse{
			Kind:           string(entity.PolicyFixedLot),
			SafetyStock:    p.SafetyStock,
			OptimalLotSize: p.OptimalLotSize,
			ReorderPoint:   p.ReorderPoint,
		}
	case *entity.FixedIntervalPolicy:
		out := &PolicyResponse{
			Kind:               string(entity.PolicyFixedInterval),
			SafetyStock:        p.SafetyStock,
			ReviewIntervalDays: p.ReviewIntervalDays,
			MaxInventoryLevel:  p.MaxInventoryLevel,
		}
		if p.LastReviewDate != nil {
			d := p.LastReviewDate.Format(time.DateOnly)
			out.LastReviewDate = &d
		}
		return out
	}
	return nil
}

// NewProductAlertResponse mapea un producto a una fila de alerta.
func NewProductAlertResponse(p *entity.Product) ProductAlertResponse {
	out := ProductAlertResponse{
		ProductID:    p.ID,
		Code:         p.Code,
		Description:  p.Description,
		Policy:       string(p.PolicyKind()),
		CurrentStock: p.CurrentStock,
	}
	if p.Policy != nil {
		out.SafetyStock = p.Policy.Safety()
	}
	if lot, ok := p.FixedLot(); ok {
		out.ReorderPoint = lot.ReorderPoint
	}
	return out
}
