package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale cabecera de una venta confirmada. ID y CreatedAt los asigna el almacenamiento al insertar.
// TotalPrice es inmutable y siempre igual a la suma de LineTotal de sus ítems.
type Sale struct {
	ID             string
	CashierID      string
	IdempotencyKey string // opcional; único cuando está presente
	TotalPrice     decimal.Decimal
	CreatedAt      time.Time
	Items          []SaleItem
}

// SaleItem línea de una venta (inmutable, creada junto con la cabecera).
type SaleItem struct {
	ID        string
	SaleID    string
	ProductID string
	Quantity  int64
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// NewSaleItem construye la línea calculando LineTotal = Quantity × UnitPrice.
func NewSaleItem(productID string, quantity int64, unitPrice decimal.Decimal) SaleItem {
	return SaleItem{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		LineTotal: unitPrice.Mul(decimal.NewFromInt(quantity)),
	}
}

// ItemsTotal suma LineTotal de los ítems cargados.
func (s *Sale) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.LineTotal)
	}
	return total
}
