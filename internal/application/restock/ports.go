package restock

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// RestockTxRunner ejecuta fn en una unidad de trabajo con el ledger y el repositorio de
// solicitudes atados a ella. Error o panic en fn → rollback completo.
type RestockTxRunner interface {
	RunRestock(ctx context.Context, fn func(
		ledger repository.StockLedger,
		requests repository.RestockRepository,
	) error) error
}

// ProductCacheInvalidator descarta entradas de caché de productos cuyo stock cambió.
type ProductCacheInvalidator interface {
	Invalidate(ctx context.Context, productIDs ...string) error
}
