package repository

import "context"

// StockRepository define el puerto para mover el stock de un producto.
// Usado dentro de transacciones; la lectura-modificación-escritura es atómica por fila.
type StockRepository interface {
	// Adjust suma delta al stock actual y devuelve el stock resultante.
	// Si el resultado fuera negativo devuelve domain.ErrInsufficientStock y no modifica nada.
	Adjust(ctx context.Context, productID string, delta int) (int, error)
}
