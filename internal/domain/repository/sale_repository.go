package repository

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para ventas y sus líneas.
type SaleRepository interface {
	// Create inserta la cabecera y completa sale.ID y sale.CreatedAt con los valores generados.
	// Devuelve domain.ErrDuplicate si la clave de idempotencia ya existe.
	Create(ctx context.Context, sale *entity.Sale) error
	// CreateItem inserta una línea y completa item.ID.
	CreateItem(ctx context.Context, item *entity.SaleItem) error
	// GetByID devuelve la venta con sus ítems; domain.NotFoundError si no existe.
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// GetByIdempotencyKey devuelve (nil, nil) si no hay venta con esa clave.
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.Sale, error)
}
