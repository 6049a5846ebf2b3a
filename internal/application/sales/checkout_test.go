package sales_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/application/sales"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

func newCheckout(f *fixture) (*sales.CheckoutUseCase, *sales.CartSessions) {
	sessions := sales.NewCartSessions(f.store)
	return sales.NewCheckoutUseCase(sessions, f.store, f.coord), sessions
}

// ──────────────────────────────────────────────────────────────────────────────
// Carrito por sesión
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckout_AgregarYConfirmarVaciaElCarrito(t *testing.T) {
	f := newFixture()
	uc, _ := newCheckout(f)
	ctx := context.Background()

	_, err := uc.AddItem(ctx, "caja-1", dto.AddCartItemRequest{ProductID: "p1", Quantity: 4})
	require.NoError(t, err)
	cart, err := uc.AddItem(ctx, "caja-1", dto.AddCartItemRequest{ProductID: "p1", Quantity: 3})
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(7), cart.Lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(17500).Equal(cart.TotalPrice))

	sale, err := uc.Checkout(ctx, "caja-1", "cajero-1", "")
	require.NoError(t, err)
	assert.Equal(t, "cajero-1", sale.CashierID)
	assert.Equal(t, int64(3), f.quantity("p1"))
	assert.Empty(t, uc.GetCart("caja-1").Lines, "el carrito se vacía tras confirmar")
}

func TestCheckout_CarritosAisladosPorSesion(t *testing.T) {
	f := newFixture()
	uc, sessions := newCheckout(f)
	ctx := context.Background()

	_, err := uc.AddItem(ctx, "caja-1", dto.AddCartItemRequest{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)

	assert.Empty(t, uc.GetCart("caja-2").Lines)
	assert.Len(t, uc.GetCart("caja-1").Lines, 1)
	assert.Equal(t, 2, sessions.Len())
}

func TestCheckout_AddItemValidaEntrada(t *testing.T) {
	f := newFixture()
	uc, _ := newCheckout(f)
	ctx := context.Background()

	_, err := uc.AddItem(ctx, "s", dto.AddCartItemRequest{Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.AddItem(ctx, "s", dto.AddCartItemRequest{ProductID: "p1", Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = uc.AddItem(ctx, "s", dto.AddCartItemRequest{ProductID: "nada", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.AddItem(ctx, "s", dto.AddCartItemRequest{ProductID: "p2", Quantity: 6})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Empty(t, uc.GetCart("s").Lines)
}

func TestCheckout_CarritoVacio(t *testing.T) {
	f := newFixture()
	uc, _ := newCheckout(f)

	_, err := uc.Checkout(context.Background(), "s", "c", "")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

// Escenario: el stock cambia entre el add y la confirmación; el carrito se conserva.
func TestCheckout_StockConsumidoPorOtraCajaConservaCarrito(t *testing.T) {
	f := newFixture()
	uc, _ := newCheckout(f)
	ctx := context.Background()

	_, err := uc.AddItem(ctx, "caja-1", dto.AddCartItemRequest{ProductID: "p2", Quantity: 4})
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, "caja-2", dto.AddCartItemRequest{ProductID: "p2", Quantity: 3})
	require.NoError(t, err)

	_, err = uc.Checkout(ctx, "caja-2", "cajero-2", "")
	require.NoError(t, err)

	_, err = uc.Checkout(ctx, "caja-1", "cajero-1", "")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(2), f.quantity("p2"))
	assert.Len(t, uc.GetCart("caja-1").Lines, 1, "el carrito rechazado se conserva para corregirlo")

	cart, err := uc.UpdateItem(ctx, "caja-1", "p2", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cart.Lines[0].Quantity)
	_, err = uc.Checkout(ctx, "caja-1", "cajero-1", "")
	require.NoError(t, err)
	assert.Zero(t, f.quantity("p2"))
}

func TestCheckout_UpdateRemoveYClear(t *testing.T) {
	f := newFixture()
	uc, _ := newCheckout(f)
	ctx := context.Background()

	_, err := uc.AddItem(ctx, "s", dto.AddCartItemRequest{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, "s", dto.AddCartItemRequest{ProductID: "p2", Quantity: 1})
	require.NoError(t, err)

	_, err = uc.UpdateItem(ctx, "s", "p1", 11)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	cart := uc.RemoveItem("s", "p2")
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "p1", cart.Lines[0].ProductID)
	assert.True(t, decimal.NewFromInt(2500).Equal(cart.Lines[0].Subtotal))

	uc.ClearCart("s")
	assert.Empty(t, uc.GetCart("s").Lines)
}

func TestCheckout_IdempotenciaDesdeElCarrito(t *testing.T) {
	f := newFixture()
	uc, _ := newCheckout(f)
	ctx := context.Background()

	_, err := uc.AddItem(ctx, "s", dto.AddCartItemRequest{ProductID: "p1", Quantity: 2})
	require.NoError(t, err)
	first, err := uc.Checkout(ctx, "s", "c", "k-1")
	require.NoError(t, err)

	// Se perdió la respuesta: el cliente reintenta con la misma clave y el carrito ya vacío.
	second, err := uc.Checkout(ctx, "s", "c", "k-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(8), f.quantity("p1"))
	assert.Len(t, f.publisher.ofType(entity.EventSaleCommitted), 1)
	assert.Empty(t, uc.GetCart("s").Lines)
	salesCount, _, _ := f.store.Counts()
	assert.Equal(t, 1, salesCount)
}

func TestCheckout_ReintentoConElMismoCarrito(t *testing.T) {
	f := newFixture()
	uc, _ := newCheckout(f)
	ctx := context.Background()

	_, err := uc.AddItem(ctx, "s", dto.AddCartItemRequest{ProductID: "p1", Quantity: 2})
	require.NoError(t, err)
	first, err := uc.Checkout(ctx, "s", "c", "k-1")
	require.NoError(t, err)

	// El cliente reconstruye el mismo carrito antes de reintentar.
	_, err = uc.AddItem(ctx, "s", dto.AddCartItemRequest{ProductID: "p1", Quantity: 2})
	require.NoError(t, err)
	second, err := uc.Checkout(ctx, "s", "c", "k-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(8), f.quantity("p1"))
	assert.Empty(t, uc.GetCart("s").Lines)
}

func TestCheckout_ClaveReutilizadaConOtroCarrito(t *testing.T) {
	f := newFixture()
	uc, _ := newCheckout(f)
	ctx := context.Background()

	_, err := uc.AddItem(ctx, "s", dto.AddCartItemRequest{ProductID: "p1", Quantity: 2})
	require.NoError(t, err)
	_, err = uc.Checkout(ctx, "s", "c", "k-1")
	require.NoError(t, err)

	_, err = uc.AddItem(ctx, "s", dto.AddCartItemRequest{ProductID: "p2", Quantity: 3})
	require.NoError(t, err)
	_, err = uc.Checkout(ctx, "s", "c", "k-1")
	assert.ErrorIs(t, err, domain.ErrIdempotencyConflict)

	lines := uc.GetCart("s").Lines
	require.Len(t, lines, 1, "el carrito nuevo no se pierde")
	assert.Equal(t, "p2", lines[0].ProductID)
	assert.Equal(t, int64(3), lines[0].Quantity)
	assert.Equal(t, int64(5), f.quantity("p2"))
	assert.Equal(t, int64(8), f.quantity("p1"))
}

func TestCheckout_CarritoVacioConClaveDesconocida(t *testing.T) {
	f := newFixture()
	uc, _ := newCheckout(f)

	_, err := uc.Checkout(context.Background(), "s", "c", "k-nueva")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	_, err = uc.Checkout(context.Background(), "s", "c", "")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

// ──────────────────────────────────────────────────────────────────────────────
// Expiración de sesiones
// ──────────────────────────────────────────────────────────────────────────────

func TestCartSessions_SweepDescartaInactivos(t *testing.T) {
	f := newFixture()
	now := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	sessions := sales.NewCartSessions(f.store).WithClock(func() time.Time { return now })

	require.NoError(t, sessions.Get("vieja").AddItem(entity.Product{ID: "p1", Quantity: 10}, 1))
	now = now.Add(90 * time.Minute)
	sessions.Get("reciente")
	now = now.Add(45 * time.Minute)

	removed := sessions.Sweep(time.Hour)

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, sessions.Len())
	assert.True(t, sessions.Get("vieja").IsEmpty(), "una sesión expirada empieza con carrito nuevo")
}

func TestCartSessions_SweepSinTTL(t *testing.T) {
	sessions := sales.NewCartSessions(newFixture().store)
	sessions.Get("a")
	assert.Zero(t, sessions.Sweep(0))
	assert.Equal(t, 1, sessions.Len())

	sessions.Drop("a")
	assert.Zero(t, sessions.Len())
}
