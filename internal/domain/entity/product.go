package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del punto de venta.
// Quantity es el stock disponible (nunca negativo) y solo se modifica vía StockLedger.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"` // precio de venta, nunca negativo
	Quantity  int64           `json:"quantity"`
	MinStock  int64           `json:"min_stock"` // umbral de reposición
	Category  string          `json:"category"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NeedsRestock indica si el stock llegó al umbral mínimo (quantity <= min_stock).
func (p *Product) NeedsRestock() bool {
	return p.Quantity <= p.MinStock
}
