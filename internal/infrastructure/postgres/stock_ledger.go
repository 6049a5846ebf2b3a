package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.StockLedger = (*StockLedgerRepo)(nil)

// StockLedgerRepo implementa StockLedger con UPDATEs condicionales sobre products.quantity
// (usable con pool o tx). El lock de fila del UPDATE serializa ventas concurrentes.
type StockLedgerRepo struct {
	q Querier
}

// NewStockLedger construye el ledger. Pasar pool o tx (Querier).
func NewStockLedger(q Querier) *StockLedgerRepo {
	return &StockLedgerRepo{q: q}
}

// TryDecrement descuenta solo si alcanza, en una única sentencia.
func (r *StockLedgerRepo) TryDecrement(ctx context.Context, productID string, amount int64) (bool, error) {
	if amount <= 0 {
		return false, domain.NewInvalidQuantity(amount)
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE products SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND quantity >= $2`, productID, amount)
	if err != nil {
		if isCheckViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	// 0 filas: stock insuficiente o producto inexistente.
	if err := r.exists(ctx, productID); err != nil {
		return false, err
	}
	return false, nil
}

// Increment suma sin condición.
func (r *StockLedgerRepo) Increment(ctx context.Context, productID string, amount int64) error {
	if amount <= 0 {
		return domain.NewInvalidQuantity(amount)
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE products SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1`, productID, amount)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("producto", productID)
	}
	return nil
}

// NeedsRestock quantity <= min_stock.
func (r *StockLedgerRepo) NeedsRestock(ctx context.Context, productID string) (bool, error) {
	var needs bool
	err := r.q.QueryRow(ctx, `SELECT quantity <= min_stock FROM products WHERE id = $1`, productID).Scan(&needs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.NewNotFound("producto", productID)
		}
		return false, fmt.Errorf("needs restock: %w", err)
	}
	return needs, nil
}

func (r *StockLedgerRepo) exists(ctx context.Context, productID string) error {
	var one int
	err := r.q.QueryRow(ctx, `SELECT 1 FROM products WHERE id = $1`, productID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NewNotFound("producto", productID)
		}
		return fmt.Errorf("check product: %w", err)
	}
	return nil
}
