package sales

import (
	"context"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/cart"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// CheckoutUseCase operaciones de caja sobre el carrito de una sesión y su confirmación.
type CheckoutUseCase struct {
	sessions    *CartSessions
	catalog     cart.ProductReader
	coordinator *Coordinator
}

// NewCheckoutUseCase construye el caso de uso. catalog es la lectura (posiblemente en caché)
// usada para el snapshot de AddItem.
func NewCheckoutUseCase(sessions *CartSessions, catalog cart.ProductReader, coordinator *Coordinator) *CheckoutUseCase {
	return &CheckoutUseCase{sessions: sessions, catalog: catalog, coordinator: coordinator}
}

// AddItem agrega un producto al carrito de la sesión validando contra el stock observado.
func (uc *CheckoutUseCase) AddItem(ctx context.Context, sessionID string, in dto.AddCartItemRequest) (*dto.CartResponse, error) {
	if in.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Quantity <= 0 {
		return nil, domain.NewInvalidQuantity(in.Quantity)
	}
	product, err := uc.catalog.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	c := uc.sessions.Get(sessionID)
	if err := c.AddItem(*product, in.Quantity); err != nil {
		return nil, err
	}
	return toCartResponse(c), nil
}

// UpdateItem fija la cantidad de una línea; <= 0 la elimina.
func (uc *CheckoutUseCase) UpdateItem(ctx context.Context, sessionID, productID string, quantity int64) (*dto.CartResponse, error) {
	c := uc.sessions.Get(sessionID)
	if err := c.UpdateQuantity(ctx, productID, quantity); err != nil {
		return nil, err
	}
	return toCartResponse(c), nil
}

// RemoveItem quita una línea del carrito.
func (uc *CheckoutUseCase) RemoveItem(sessionID, productID string) *dto.CartResponse {
	c := uc.sessions.Get(sessionID)
	c.RemoveItem(productID)
	return toCartResponse(c)
}

// GetCart estado actual del carrito.
func (uc *CheckoutUseCase) GetCart(sessionID string) *dto.CartResponse {
	return toCartResponse(uc.sessions.Get(sessionID))
}

// ClearCart cancela el carrito de la sesión.
func (uc *CheckoutUseCase) ClearCart(sessionID string) {
	uc.sessions.Get(sessionID).Clear()
}

// Checkout confirma el carrito de la sesión como venta. Se descuentan del carrito solo las
// cantidades vendidas; ante cualquier error se conserva para reintentar o corregir.
// Con idempotencyKey, un reintento sobre el carrito ya vaciado devuelve la venta original.
func (uc *CheckoutUseCase) Checkout(ctx context.Context, sessionID, cashierID, idempotencyKey string) (*entity.Sale, error) {
	c := uc.sessions.Get(sessionID)
	lines := c.Lines()
	if len(lines) == 0 {
		sale, err := uc.coordinator.FindByIdempotencyKey(ctx, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if sale == nil {
			return nil, domain.ErrEmptyCart
		}
		return sale, nil
	}

	in := CommitInput{
		Lines:          make([]CommitLine, 0, len(lines)),
		CashierID:      cashierID,
		IdempotencyKey: idempotencyKey,
	}
	for _, l := range lines {
		in.Lines = append(in.Lines, CommitLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	sale, err := uc.coordinator.Commit(ctx, in)
	if err != nil {
		return nil, err
	}
	c.Deduct(lines)
	return sale, nil
}

func toCartResponse(c *cart.Cart) *dto.CartResponse {
	lines := c.Lines()
	resp := &dto.CartResponse{
		Lines:      make([]dto.CartLineResponse, 0, len(lines)),
		TotalPrice: c.TotalPrice(),
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, dto.CartLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal(),
		})
	}
	return resp
}
