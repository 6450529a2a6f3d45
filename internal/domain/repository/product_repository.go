package repository

import (
	"context"

	"github.com/jhoicas/reposicion-api/internal/domain/entity"
)

// ProductFilter filtros de listado de productos.
type ProductFilter struct {
	Policy     entity.PolicyKind // vacío = todas
	OnlyActive bool
	Limit      int
	Offset     int
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// El stock no se escribe con Update; ver StockRepository.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// Update persiste política, demanda, costos derivados y estado.
	Update(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, error)

	// ListFixedIntervalForUpdate productos activos de intervalo fijo, bloqueados y ordenados por ID.
	ListFixedIntervalForUpdate(ctx context.Context) ([]*entity.Product, error)
	// ListBelowSafetyStock productos activos con stock menor a su stock de seguridad.
	ListBelowSafetyStock(ctx context.Context) ([]*entity.Product, error)
	// ListBelowReorderPointWithoutActiveOrder productos de lote fijo bajo su punto de pedido
	// que no figuran en ninguna orden Pending o Sent.
	ListBelowReorderPointWithoutActiveOrder(ctx context.Context) ([]*entity.Product, error)
}
