package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo persistencia de ventas y sus líneas (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el repositorio. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta la cabecera; id y created_at los genera la base.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO sales (cashier_id, idempotency_key, total_price)
		VALUES ($1, NULLIF($2, ''), $3)
		RETURNING id, created_at`,
		sale.CashierID, sale.IdempotencyKey, sale.TotalPrice,
	).Scan(&sale.ID, &sale.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// CreateItem inserta una línea de venta.
func (r *SaleRepo) CreateItem(ctx context.Context, item *entity.SaleItem) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		item.SaleID, item.ProductID, item.Quantity, item.UnitPrice, item.LineTotal,
	).Scan(&item.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewNotFound("producto", item.ProductID)
		}
		return fmt.Errorf("insert sale item: %w", err)
	}
	return nil
}

// GetByID venta con sus líneas en orden de inserción.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	var s entity.Sale
	var key *string
	err := r.q.QueryRow(ctx, `
		SELECT id, cashier_id, idempotency_key, total_price, created_at
		FROM sales WHERE id = $1`, id,
	).Scan(&s.ID, &s.CashierID, &key, &s.TotalPrice, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFound("venta", id)
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	if key != nil {
		s.IdempotencyKey = *key
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, product_id, quantity, unit_price, line_total
		FROM sale_items WHERE sale_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("get sale items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		s.Items = append(s.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale items: %w", err)
	}
	return &s, nil
}

// GetByIdempotencyKey venta confirmada con esa clave, o nil si no existe.
func (r *SaleRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.Sale, error) {
	var id string
	err := r.q.QueryRow(ctx, `SELECT id FROM sales WHERE idempotency_key = $1`, key).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale by idempotency key: %w", err)
	}
	return r.GetByID(ctx, id)
}
