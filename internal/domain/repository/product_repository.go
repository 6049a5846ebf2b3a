package repository

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// ProductRepository define el puerto de lectura de productos (DIP).
// La cantidad en stock no se modifica aquí: solo vía StockLedger.
type ProductRepository interface {
	// GetByID devuelve domain.NotFoundError si el producto no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	Create(ctx context.Context, product *entity.Product) error
	// ListBelowMinStock devuelve productos con quantity <= min_stock, mayor déficit primero.
	ListBelowMinStock(ctx context.Context, limit int) ([]*entity.Product, error)
}
