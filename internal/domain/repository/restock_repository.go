package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// RestockRepository define el puerto de persistencia para solicitudes de reposición.
type RestockRepository interface {
	// Create inserta la solicitud y completa ID, CreatedAt y UpdatedAt.
	Create(ctx context.Context, req *entity.RestockRequest) error
	// GetByID devuelve domain.NotFoundError si no existe.
	GetByID(ctx context.Context, id string) (*entity.RestockRequest, error)
	// GetForUpdate igual que GetByID pero bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.RestockRequest, error)
	// UpdateStatus cambia el estado; resolvedAt se guarda cuando el estado es terminal.
	UpdateStatus(ctx context.Context, id string, status entity.RestockStatus, at time.Time) error
	// ListByStatus devuelve las solicitudes en ese estado, más antiguas primero.
	ListByStatus(ctx context.Context, status entity.RestockStatus, limit int) ([]*entity.RestockRequest, error)
}
