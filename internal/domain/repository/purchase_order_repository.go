package repository

import (
	"context"

	"github.com/jhoicas/reposicion-api/internal/domain/entity"
)

// PurchaseOrderFilter filtros de listado de órdenes.
type PurchaseOrderFilter struct {
	State      entity.PurchaseOrderState // vacío = todos
	ProviderID string
	Limit      int
	Offset     int
}

// PurchaseOrderRepository define el puerto de persistencia para órdenes de compra y sus líneas.
type PurchaseOrderRepository interface {
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// GetForUpdate bloquea la cabecera de la orden hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// FindPending devuelve la orden Pending más antigua del proveedor, o (nil, nil) si no hay.
	FindPending(ctx context.Context, providerID string) (*entity.PurchaseOrder, error)
	// LockPendingSlot serializa las escrituras sobre "la orden Pending del proveedor" hasta el
	// fin de la transacción. Debe llamarse antes de FindPending.
	LockPendingSlot(ctx context.Context, providerID string) error
	// LockProductSlots serializa, producto por producto, a quienes agregan ese producto a una
	// orden activa. Los toma en orden de ID y se liberan al fin de la transacción. Debe
	// llamarse antes de ExistsActiveWithProduct y antes de LockPendingSlot.
	LockProductSlots(ctx context.Context, productIDs []string) error
	// Save inserta o actualiza la cabecera y reemplaza sus líneas.
	Save(ctx context.Context, order *entity.PurchaseOrder) error
	// ExistsActiveWithProduct indica si el producto figura en una orden Pending o Sent
	// distinta de excludeOrderID (vacío = ninguna excluida).
	ExistsActiveWithProduct(ctx context.Context, productID, excludeOrderID string) (bool, error)
	// HasActiveForProvider indica si el proveedor tiene órdenes Pending o Sent.
	HasActiveForProvider(ctx context.Context, providerID string) (bool, error)
	List(ctx context.Context, filter PurchaseOrderFilter) ([]*entity.PurchaseOrder, error)
}
