package purchasing

import (
	"context"

	"github.com/jhoicas/reposicion-api/internal/domain/entity"
)

// OrderDocument datos para imprimir una orden de compra.
type OrderDocument struct {
	Order    *entity.PurchaseOrder
	Provider *entity.Provider
	Products map[string]*entity.Product // por ID
}

// PDFGenerator genera el PDF de una orden de compra para enviar al proveedor.
type PDFGenerator interface {
	PurchaseOrderPDF(ctx context.Context, doc OrderDocument) ([]byte, error)
}
