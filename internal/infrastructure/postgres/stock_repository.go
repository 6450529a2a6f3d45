package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/reposicion-api/internal/domain"
	"github.com/jhoicas/reposicion-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Adjust suma delta al stock en una sola sentencia. Si el resultado sería negativo no
// modifica la fila y devuelve ErrInsufficientStock.
func (r *StockRepo) Adjust(ctx context.Context, productID string, delta int) (int, error) {
	var stock int
	err := r.q.QueryRow(ctx, `
		UPDATE products SET current_stock = current_stock + $2, updated_at = now()
		WHERE id = $1 AND current_stock + $2 >= 0
		RETURNING current_stock`, productID, delta).Scan(&stock)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, mapError("adjust stock", err)
	}

	// Sin fila: o el producto no existe o el ajuste dejaba stock negativo.
	err = r.q.QueryRow(ctx, `SELECT current_stock FROM products WHERE id = $1`, productID).Scan(&stock)
	if err != nil {
		return 0, mapError("get stock", err)
	}
	return stock, domain.ErrInsufficientStock
}
