package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.RestockRepository = (*RestockRepo)(nil)

const restockColumns = `id, product_id, quantity_requested, status, requested_by, created_at, updated_at, resolved_at`

// RestockRepo persistencia de solicitudes de reposición (usable con pool o tx).
type RestockRepo struct {
	q Querier
}

// NewRestockRepository construye el repositorio. Pasar pool o tx (Querier).
func NewRestockRepository(q Querier) *RestockRepo {
	return &RestockRepo{q: q}
}

// Create inserta la solicitud.
func (r *RestockRepo) Create(ctx context.Context, req *entity.RestockRequest) error {
	if req.Status == "" {
		req.Status = entity.RestockStatusPending
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO restock_requests (product_id, quantity_requested, status, requested_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		req.ProductID, req.QuantityRequested, string(req.Status), req.RequestedBy,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewNotFound("producto", req.ProductID)
		}
		if isCheckViolation(err) {
			return domain.NewInvalidQuantity(req.QuantityRequested)
		}
		return fmt.Errorf("insert restock request: %w", err)
	}
	return nil
}

// GetByID solicitud por ID.
func (r *RestockRepo) GetByID(ctx context.Context, id string) (*entity.RestockRequest, error) {
	return r.get(ctx, `SELECT `+restockColumns+` FROM restock_requests WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila hasta el fin de la transacción: dos transiciones
// concurrentes de la misma solicitud se serializan.
func (r *RestockRepo) GetForUpdate(ctx context.Context, id string) (*entity.RestockRequest, error) {
	return r.get(ctx, `SELECT `+restockColumns+` FROM restock_requests WHERE id = $1 FOR UPDATE`, id)
}

// UpdateStatus cambia el estado; resolved_at se fija solo en estados terminales.
func (r *RestockRepo) UpdateStatus(ctx context.Context, id string, status entity.RestockStatus, at time.Time) error {
	var resolved *time.Time
	if status.IsTerminal() {
		resolved = &at
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE restock_requests SET status = $2, updated_at = $3, resolved_at = $4
		WHERE id = $1`, id, string(status), at, resolved)
	if err != nil {
		return fmt.Errorf("update restock status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("solicitud de reposición", id)
	}
	return nil
}

// ListByStatus solicitudes en el estado dado, más antiguas primero.
func (r *RestockRepo) ListByStatus(ctx context.Context, status entity.RestockStatus, limit int) ([]*entity.RestockRequest, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+restockColumns+` FROM restock_requests
		WHERE status = $1 ORDER BY created_at, id LIMIT $2`, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list restock requests: %w", err)
	}
	defer rows.Close()

	var list []*entity.RestockRequest
	for rows.Next() {
		req, err := scanRestock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan restock request: %w", err)
		}
		list = append(list, req)
	}
	return list, rows.Err()
}

func (r *RestockRepo) get(ctx context.Context, query, id string) (*entity.RestockRequest, error) {
	req, err := scanRestock(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFound("solicitud de reposición", id)
		}
		return nil, fmt.Errorf("get restock request: %w", err)
	}
	return req, nil
}

func scanRestock(row pgx.Row) (*entity.RestockRequest, error) {
	var req entity.RestockRequest
	var status string
	if err := row.Scan(&req.ID, &req.ProductID, &req.QuantityRequested, &status,
		&req.RequestedBy, &req.CreatedAt, &req.UpdatedAt, &req.ResolvedAt); err != nil {
		return nil, err
	}
	req.Status = entity.RestockStatus(status)
	return &req, nil
}
