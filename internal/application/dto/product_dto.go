package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// ProductResponse salida de un producto (lectura; el stock se modifica vía ventas y reposiciones).
type ProductResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	MinStock  int64           `json:"min_stock"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NeedsRestockResponse salida de GET /api/products/:id/needs-restock.
type NeedsRestockResponse struct {
	ProductID    string `json:"product_id"`
	NeedsRestock bool   `json:"needs_restock"`
}

// LowStockItemDTO producto en o bajo su stock mínimo con la cantidad sugerida de reposición.
type LowStockItemDTO struct {
	ProductID         string `json:"product_id"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	Quantity          int64  `json:"quantity"`
	MinStock          int64  `json:"min_stock"`
	IdealStock        int64  `json:"ideal_stock"`        // ceil(MinStock * 1.5)
	SuggestedQuantity int64  `json:"suggested_quantity"` // IdealStock - Quantity
}

// ToProductResponse convierte la entidad a DTO.
func ToProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Price:     p.Price,
		Quantity:  p.Quantity,
		MinStock:  p.MinStock,
		UpdatedAt: p.UpdatedAt,
	}
}
