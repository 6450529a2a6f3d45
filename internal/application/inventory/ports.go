package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/reposicion-api/internal/domain/entity"
	"github.com/jhoicas/reposicion-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace rollback de todo. La implementación puede reintentar fn
// completa ante domain.ErrConcurrentWrite, por lo que fn no debe tener efectos fuera de la tx.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repos) error) error
}

// AdjustmentPublisher publica los StockAdjustment hacia el libro de stock.
// Se llama después del commit.
type AdjustmentPublisher interface {
	Publish(ctx context.Context, adjustments []entity.StockAdjustment) error
}

// SweepLocker candado entre réplicas para que el barrido diario corra en una sola instancia.
// Acquire devuelve (nil, false, nil) si otra instancia tiene el candado.
type SweepLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// Clock fuente de la hora actual.
type Clock func() time.Time

// NopPublisher descarta los ajustes (sin Redis configurado).
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, []entity.StockAdjustment) error { return nil }
