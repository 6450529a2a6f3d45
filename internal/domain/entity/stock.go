package entity

import "time"

// AdjustmentReason origen de un ajuste de stock.
type AdjustmentReason string

const (
	AdjustmentSale          AdjustmentReason = "SALE"           // delta negativo
	AdjustmentPurchaseOrder AdjustmentReason = "PURCHASE_ORDER" // delta positivo, al finalizar
)

// StockAdjustment evento saliente hacia el libro de stock.
type StockAdjustment struct {
	ProductID  string           `json:"product_id"`
	Delta      int              `json:"delta"`
	Reason     AdjustmentReason `json:"reason"`
	Reference  string           `json:"reference"` // ID de la venta o de la orden
	OccurredAt time.Time        `json:"occurred_at"`
}

// StockReduction salida de stock de un producto por una venta.
type StockReduction struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// StockReductionBatch evento entrante: se emite cuando una venta se completa.
type StockReductionBatch struct {
	SaleID     string           `json:"sale_id"`
	Items      []StockReduction `json:"items"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// ProductIDs devuelve los productos afectados sin repetir, en orden de aparición.
func (b StockReductionBatch) ProductIDs() []string {
	seen := make(map[string]struct{}, len(b.Items))
	ids := make([]string, 0, len(b.Items))
	for _, it := range b.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}
