package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/pos-api/internal/application/restock"
	"github.com/jhoicas/pos-api/internal/application/sales"
	"github.com/jhoicas/pos-api/internal/domain/repository"
	"github.com/jhoicas/pos-api/pkg/logger"
)

var (
	_ sales.SaleTxRunner       = (*TxRunner)(nil)
	_ restock.RestockTxRunner = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Deadlocks (40P01) y fallas de serialización (40001) reejecutan la transacción completa
// hasta maxAttempts veces.
type TxRunner struct {
	pool        *pgxpool.Pool
	maxAttempts int
	log         *logger.Logger
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, maxAttempts int, log *logger.Logger) *TxRunner {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &TxRunner{pool: pool, maxAttempts: maxAttempts, log: log.Component("postgres.tx")}
}

// RunSale transacción con el ledger de stock y el repositorio de ventas atados a la tx.
func (r *TxRunner) RunSale(ctx context.Context, fn func(
	ledger repository.StockLedger,
	sales repository.SaleRepository,
) error) error {
	return r.run(ctx, "sale", func(tx pgx.Tx) error {
		return fn(NewStockLedger(tx), NewSaleRepository(tx))
	})
}

// RunRestock transacción con el ledger de stock y el repositorio de reposiciones.
func (r *TxRunner) RunRestock(ctx context.Context, fn func(
	ledger repository.StockLedger,
	requests repository.RestockRepository,
) error) error {
	return r.run(ctx, "restock", func(tx pgx.Tx) error {
		return fn(NewStockLedger(tx), NewRestockRepository(tx))
	})
}

func (r *TxRunner) run(ctx context.Context, name string, fn func(tx pgx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err = r.once(ctx, fn)
		if err == nil || !isRetryable(err) || attempt == r.maxAttempts {
			return err
		}
		r.log.Warn().Err(err).Str("tx", name).Int("attempt", attempt).Msg("reintentando transacción")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
		}
	}
	return err
}

// once una transacción. El Rollback diferido cubre error, retorno temprano y panic
// (tras un Commit exitoso es no-op).
func (r *TxRunner) once(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
