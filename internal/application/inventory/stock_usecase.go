package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

const (
	defaultLowStockLimit = 50
	maxLowStockLimit     = 500
)

// idealFactor stock ideal = stock mínimo × 1.5
var idealFactor = decimal.NewFromFloat(1.5)

// StockUseCase consultas de stock: umbral de reposición y lista de productos bajo mínimo.
type StockUseCase struct {
	products repository.ProductRepository
	ledger   repository.StockLedger
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(products repository.ProductRepository, ledger repository.StockLedger) *StockUseCase {
	return &StockUseCase{products: products, ledger: ledger}
}

// GetProduct lectura directa (sin caché) de un producto.
func (uc *StockUseCase) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.products.GetByID(ctx, id)
}

// NeedsRestock indica si el producto está en o bajo su stock mínimo.
func (uc *StockUseCase) NeedsRestock(ctx context.Context, productID string) (bool, error) {
	if productID == "" {
		return false, domain.ErrInvalidInput
	}
	return uc.ledger.NeedsRestock(ctx, productID)
}

// LowStock devuelve los productos con quantity <= min_stock y la cantidad sugerida para
// volver al stock ideal, ordenados por mayor déficit.
func (uc *StockUseCase) LowStock(ctx context.Context, limit int) ([]dto.LowStockItemDTO, error) {
	if limit <= 0 {
		limit = defaultLowStockLimit
	}
	if limit > maxLowStockLimit {
		limit = maxLowStockLimit
	}
	products, err := uc.products.ListBelowMinStock(ctx, limit)
	if err != nil {
		return nil, err
	}

	items := make([]dto.LowStockItemDTO, 0, len(products))
	for _, p := range products {
		if !p.NeedsRestock() {
			continue
		}
		ideal := IdealStock(p.MinStock)
		suggested := ideal - p.Quantity
		if suggested < 0 {
			suggested = 0
		}
		items = append(items, dto.LowStockItemDTO{
			ProductID:         p.ID,
			Name:              p.Name,
			Category:          p.Category,
			Quantity:          p.Quantity,
			MinStock:          p.MinStock,
			IdealStock:        ideal,
			SuggestedQuantity: suggested,
		})
	}

	// Mayor déficit bajo el mínimo primero; empate por nombre para un orden estable.
	sort.SliceStable(items, func(i, j int) bool {
		defA := items[i].MinStock - items[i].Quantity
		defB := items[j].MinStock - items[j].Quantity
		if defA != defB {
			return defA > defB
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

// IdealStock ceil(minStock × 1.5).
func IdealStock(minStock int64) int64 {
	if minStock <= 0 {
		return 0
	}
	return decimal.NewFromInt(minStock).Mul(idealFactor).Ceil().IntPart()
}
