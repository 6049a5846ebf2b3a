// Package cart implementa el carrito de una sesión de caja: staging optimista de líneas
// validadas contra un snapshot del stock. Nunca modifica el stock autoritativo; la
// validación definitiva ocurre al confirmar la venta.
package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// ProductReader servicio de lectura de productos usado para revalidar el stock.
type ProductReader interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}

// Line una línea del carrito. UnitPrice es el precio capturado al agregar el producto.
type Line struct {
	ProductID string
	Name      string
	Quantity  int64
	UnitPrice decimal.Decimal
}

// Subtotal devuelve UnitPrice × Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// Cart carrito de una sesión. Seguro para uso concurrente; el lock nunca se mantiene
// durante una lectura de stock.
type Cart struct {
	mu     sync.Mutex
	lines  []Line // orden de inserción
	reader ProductReader
}

// New construye un carrito vacío. reader se usa para releer el stock en UpdateQuantity.
func New(reader ProductReader) *Cart {
	return &Cart{reader: reader}
}

// AddItem agrega quantity unidades de product. Si el producto ya está en el carrito la
// cantidad se suma y el total combinado se valida contra product.Quantity; si falla,
// el carrito queda sin cambios.
func (c *Cart) AddItem(product entity.Product, quantity int64) error {
	if quantity <= 0 {
		return domain.NewInvalidQuantity(quantity)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(product.ID)
	combined := quantity
	if idx >= 0 {
		combined += c.lines[idx].Quantity
	}
	if combined > product.Quantity {
		return &domain.InsufficientStockError{
			ProductID: product.ID,
			Requested: combined,
			Available: product.Quantity,
		}
	}
	if idx >= 0 {
		c.lines[idx].Quantity = combined
		return nil
	}
	c.lines = append(c.lines, Line{
		ProductID: product.ID,
		Name:      product.Name,
		Quantity:  quantity,
		UnitPrice: product.Price,
	})
	return nil
}

// UpdateQuantity fija la cantidad de la línea del producto. newQuantity <= 0 equivale a
// RemoveItem. En otro caso relee el stock actual (no el snapshot de AddItem) y falla con
// InsufficientStockError si no alcanza.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, newQuantity int64) error {
	if newQuantity <= 0 {
		c.RemoveItem(productID)
		return nil
	}
	if !c.Contains(productID) {
		return domain.NewNotFound("línea de carrito", productID)
	}

	// Lectura fuera del lock: no bloquear el carrito mientras se espera I/O.
	product, err := c.reader.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOf(productID)
	if idx < 0 {
		return domain.NewNotFound("línea de carrito", productID)
	}
	if newQuantity > product.Quantity {
		return &domain.InsufficientStockError{
			ProductID: productID,
			Requested: newQuantity,
			Available: product.Quantity,
		}
	}
	c.lines[idx].Quantity = newQuantity
	return nil
}

// RemoveItem quita la línea del producto (sin efecto si no existe).
func (c *Cart) RemoveItem(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexOf(productID); idx >= 0 {
		c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	}
}

// TotalPrice suma UnitPrice × Quantity de todas las líneas.
func (c *Cart) TotalPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Clear vacía el carrito (después de confirmar la venta o al cancelar).
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Deduct descuenta cantidades ya vendidas; las líneas que llegan a cero se eliminan.
// Lo agregado al carrito mientras se confirmaba la venta se conserva.
func (c *Cart) Deduct(sold []Line) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range sold {
		idx := c.indexOf(s.ProductID)
		if idx < 0 {
			continue
		}
		if c.lines[idx].Quantity <= s.Quantity {
			c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
			continue
		}
		c.lines[idx].Quantity -= s.Quantity
	}
}

// Lines devuelve una copia de las líneas en orden de inserción.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Contains indica si el producto tiene una línea en el carrito.
func (c *Cart) Contains(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexOf(productID) >= 0
}

// Len número de líneas.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// IsEmpty indica si no hay líneas.
func (c *Cart) IsEmpty() bool {
	return c.Len() == 0
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}
