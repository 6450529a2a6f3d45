package repository

import (
	"context"

	"github.com/jhoicas/reposicion-api/internal/domain/entity"
)

// ProviderRepository define el puerto de persistencia para Provider.
type ProviderRepository interface {
	Create(ctx context.Context, provider *entity.Provider) error
	GetByID(ctx context.Context, id string) (*entity.Provider, error)
	Update(ctx context.Context, provider *entity.Provider) error
	// IsDefaultForAnyProduct indica si el proveedor es el predeterminado (vínculo activo) de algún producto.
	IsDefaultForAnyProduct(ctx context.Context, providerID string) (bool, error)
}

// ProviderLinkRepository define el puerto para los vínculos producto-proveedor.
type ProviderLinkRepository interface {
	Create(ctx context.Context, link *entity.ProviderLink) error
	GetByID(ctx context.Context, id string) (*entity.ProviderLink, error)
	// GetDefault devuelve el vínculo predeterminado activo del producto, o (nil, nil) si no tiene.
	GetDefault(ctx context.Context, productID string) (*entity.ProviderLink, error)
	// GetByProductAndProvider devuelve el vínculo activo, o (nil, nil) si el proveedor no abastece el producto.
	GetByProductAndProvider(ctx context.Context, productID, providerID string) (*entity.ProviderLink, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.ProviderLink, error)
	Update(ctx context.Context, link *entity.ProviderLink) error
	// SetDefault marca el vínculo como predeterminado y desmarca los demás del producto.
	SetDefault(ctx context.Context, productID, linkID string) error
}
