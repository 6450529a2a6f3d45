package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLineRequest línea de una venta.
type SaleLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"min=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// RegisterSaleRequest body para POST /api/sales.
type RegisterSaleRequest struct {
	Lines []SaleLineRequest `json:"lines" validate:"required,min=1"`
}

// SaleLineResponse línea registrada.
type SaleLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SaleResponse venta registrada y el resultado de la reposición que disparó.
type SaleResponse struct {
	ID            string                    `json:"id"`
	Date          time.Time                 `json:"date"`
	Total         decimal.Decimal           `json:"total"`
	Lines         []SaleLineResponse        `json:"lines"`
	Replenishment *ReplenishmentRunResponse `json:"replenishment,omitempty"`
}
