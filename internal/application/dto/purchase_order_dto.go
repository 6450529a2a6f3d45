package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/reposicion-api/internal/domain/entity"
)

// PurchaseOrderLineRequest producto y cantidad de una línea.
type PurchaseOrderLineRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

// PurchaseOrderRequest body para crear o editar una orden. El precio sale del vínculo
// del proveedor con cada producto.
type PurchaseOrderRequest struct {
	ProviderID string                     `json:"provider_id" validate:"required"`
	Lines      []PurchaseOrderLineRequest `json:"lines" validate:"required,min=1"`
}

// PurchaseOrderLineResponse línea de la orden.
type PurchaseOrderLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// PurchaseOrderResponse salida de una orden de compra.
type PurchaseOrderResponse struct {
	ID         string                      `json:"id"`
	ProviderID string                      `json:"provider_id"`
	State      string                      `json:"state"`
	CreatedAt  time.Time                   `json:"created_at"`
	SentAt     *time.Time                  `json:"sent_at,omitempty"`
	ReceivedAt *time.Time                  `json:"received_at,omitempty"`
	Total      decimal.Decimal             `json:"total"`
	Lines      []PurchaseOrderLineResponse `json:"lines"`
}

// PurchaseOrderListResponse lista paginada de órdenes.
type PurchaseOrderListResponse struct {
	Items []PurchaseOrderResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}

// NewPurchaseOrderResponse mapea la entidad.
func NewPurchaseOrderResponse(o *entity.PurchaseOrder) PurchaseOrderResponse {
	lines := make([]PurchaseOrderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, PurchaseOrderLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Price,
			Subtotal:  l.Subtotal,
		})
	}
	return PurchaseOrderResponse{
		ID:         o.ID,
		ProviderID: o.ProviderID,
		State:      string(o.State),
		CreatedAt:  o.CreatedAt,
		SentAt:     o.SentAt,
		ReceivedAt: o.ReceivedAt,
		Total:      o.Total,
		Lines:      lines,
	}
}
