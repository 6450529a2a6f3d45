package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale venta completada. Total = Σ Subtotal.
type Sale struct {
	ID    string
	Date  time.Time
	Total decimal.Decimal
	Lines []SaleLine
}

// SaleLine detalle de venta.
type SaleLine struct {
	ID        string
	SaleID    string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// Reductions convierte las líneas en el lote de salidas de stock.
func (s *Sale) Reductions() StockReductionBatch {
	items := make([]StockReduction, 0, len(s.Lines))
	for _, l := range s.Lines {
		items = append(items, StockReduction{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return StockReductionBatch{SaleID: s.ID, Items: items, OccurredAt: s.Date}
}
