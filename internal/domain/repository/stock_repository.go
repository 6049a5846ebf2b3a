package repository

import "context"

// StockLedger es la única autoridad sobre el stock disponible de cada producto.
// Toda mutación es un read-modify-write atómico sobre la fila del producto; usable con pool o tx.
type StockLedger interface {
	// TryDecrement descuenta amount solo si quantity >= amount, en una sola operación atómica.
	// Devuelve false (sin error) cuando el stock no alcanza; domain.NotFoundError si el producto no existe.
	TryDecrement(ctx context.Context, productID string, amount int64) (bool, error)
	// Increment suma amount sin condición; domain.NotFoundError si el producto no existe.
	Increment(ctx context.Context, productID string, amount int64) error
	// NeedsRestock indica quantity <= min_stock (solo lectura).
	NeedsRestock(ctx context.Context, productID string) (bool, error)
}
