package sales

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// SaleTxRunner ejecuta fn dentro de una unidad de trabajo con el ledger y el repositorio
// de ventas atados a ella. Si fn devuelve error (o hace panic) todo se revierte.
type SaleTxRunner interface {
	RunSale(ctx context.Context, fn func(
		ledger repository.StockLedger,
		sales repository.SaleRepository,
	) error) error
}

// ProductCacheInvalidator descarta entradas de caché de productos cuyo stock cambió.
type ProductCacheInvalidator interface {
	Invalidate(ctx context.Context, productIDs ...string) error
}

// ReceiptGenerator genera la representación imprimible (PDF) de una venta.
type ReceiptGenerator interface {
	GenerateReceiptPDF(ctx context.Context, sale *entity.Sale, lines []ReceiptLine) ([]byte, error)
}

// ReceiptLine línea de recibo con el nombre del producto resuelto.
type ReceiptLine struct {
	Item        entity.SaleItem
	ProductName string
}
