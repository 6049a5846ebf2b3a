package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// AddCartItemRequest body para POST /api/cart/items.
type AddCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// UpdateCartItemRequest body para PUT /api/cart/items/:productId.
type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// CartLineResponse una línea del carrito.
type CartLineResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartResponse estado del carrito de la sesión.
type CartResponse struct {
	Lines      []CartLineResponse `json:"lines"`
	TotalPrice decimal.Decimal    `json:"total_price"`
}

// SaleItemResponse línea de venta confirmada.
type SaleItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// SaleResponse venta confirmada con sus líneas.
type SaleResponse struct {
	ID         string             `json:"id"`
	CashierID  string             `json:"cashier_id,omitempty"`
	TotalPrice decimal.Decimal    `json:"total_price"`
	CreatedAt  time.Time          `json:"created_at"`
	Items      []SaleItemResponse `json:"items"`
}

// LowStockEvent payload del evento stock.low.
type LowStockEvent struct {
	ProductID string `json:"product_id"`
	SaleID    string `json:"sale_id,omitempty"`
}

// ToSaleResponse convierte la entidad a DTO.
func ToSaleResponse(s *entity.Sale) SaleResponse {
	resp := SaleResponse{
		ID:         s.ID,
		CashierID:  s.CashierID,
		TotalPrice: s.TotalPrice,
		CreatedAt:  s.CreatedAt,
		Items:      make([]SaleItemResponse, 0, len(s.Items)),
	}
	for _, it := range s.Items {
		resp.Items = append(resp.Items, SaleItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}
	return resp
}
