package cart_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/cart"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// stubReader lector de productos con stock modificable entre llamadas.
type stubReader struct {
	mu       sync.Mutex
	products map[string]entity.Product
	calls    int
	err      error
}

func newStubReader(products ...entity.Product) *stubReader {
	r := &stubReader{products: make(map[string]entity.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *stubReader) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.products[id]
	if !ok {
		return nil, domain.NewNotFound("producto", id)
	}
	return &p, nil
}

func (r *stubReader) setQuantity(id string, q int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.products[id]
	p.Quantity = q
	r.products[id] = p
}

func product(id string, price string, qty int64) entity.Product {
	return entity.Product{ID: id, Name: "Producto " + id, Price: decimal.RequireFromString(price), Quantity: qty, MinStock: 1}
}

// ──────────────────────────────────────────────────────────────────────────────
// AddItem
// ──────────────────────────────────────────────────────────────────────────────

func TestAddItem_CoalesceLineasDelMismoProducto(t *testing.T) {
	p1 := product("p1", "2500", 10)
	c := cart.New(newStubReader(p1))

	require.NoError(t, c.AddItem(p1, 4))
	require.NoError(t, c.AddItem(p1, 3))

	lines := c.Lines()
	require.Len(t, lines, 1, "el mismo producto debe quedar en una sola línea")
	assert.Equal(t, int64(7), lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(17500).Equal(c.TotalPrice()))
}

func TestAddItem_StockInsuficienteDejaCarritoVacio(t *testing.T) {
	p2 := product("p2", "1000", 5)
	c := cart.New(newStubReader(p2))

	err := c.AddItem(p2, 6)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "p2", stockErr.ProductID)
	assert.Equal(t, int64(6), stockErr.Requested)
	assert.Equal(t, int64(5), stockErr.Available)
	assert.True(t, c.IsEmpty(), "un add fallido no debe dejar líneas")
}

func TestAddItem_TotalCombinadoExcedidoNoModificaLinea(t *testing.T) {
	p1 := product("p1", "1000", 5)
	c := cart.New(newStubReader(p1))
	require.NoError(t, c.AddItem(p1, 3))

	err := c.AddItem(p1, 3)

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(3), c.Lines()[0].Quantity, "la línea existente queda intacta")
}

func TestAddItem_CantidadNoPositiva(t *testing.T) {
	p1 := product("p1", "1000", 5)
	c := cart.New(newStubReader(p1))

	for _, q := range []int64{0, -1} {
		err := c.AddItem(p1, q)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	}
	assert.True(t, c.IsEmpty())
}

func TestAddItem_CapturaPrecioAlAgregar(t *testing.T) {
	p1 := product("p1", "1000", 10)
	c := cart.New(newStubReader(p1))
	require.NoError(t, c.AddItem(p1, 1))

	p1.Price = decimal.RequireFromString("9999")
	require.NoError(t, c.AddItem(p1, 1))

	assert.True(t, decimal.RequireFromString("1000").Equal(c.Lines()[0].UnitPrice),
		"el precio capturado en el primer add no cambia")
}

// ──────────────────────────────────────────────────────────────────────────────
// UpdateQuantity / RemoveItem / Clear
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdateQuantity_ReleeStockActual(t *testing.T) {
	p1 := product("p1", "1000", 10)
	reader := newStubReader(p1)
	c := cart.New(reader)
	require.NoError(t, c.AddItem(p1, 2))

	// Otra venta consumió stock después del add.
	reader.setQuantity("p1", 3)

	err := c.UpdateQuantity(context.Background(), "p1", 5)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(3), stockErr.Available, "debe validar contra el stock releído, no el snapshot")
	assert.Equal(t, int64(2), c.Lines()[0].Quantity)

	require.NoError(t, c.UpdateQuantity(context.Background(), "p1", 3))
	assert.Equal(t, int64(3), c.Lines()[0].Quantity)
	assert.Equal(t, 2, reader.calls)
}

func TestUpdateQuantity_CeroEliminaLinea(t *testing.T) {
	p1 := product("p1", "1000", 10)
	reader := newStubReader(p1)
	c := cart.New(reader)
	require.NoError(t, c.AddItem(p1, 2))

	require.NoError(t, c.UpdateQuantity(context.Background(), "p1", 0))
	assert.True(t, c.IsEmpty())
	assert.Zero(t, reader.calls, "eliminar no requiere leer stock")
}

func TestUpdateQuantity_LineaInexistente(t *testing.T) {
	c := cart.New(newStubReader())
	err := c.UpdateQuantity(context.Background(), "nada", 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateQuantity_PropagaErrorDelLector(t *testing.T) {
	p1 := product("p1", "1000", 10)
	reader := newStubReader(p1)
	c := cart.New(reader)
	require.NoError(t, c.AddItem(p1, 1))

	boom := errors.New("db caída")
	reader.err = boom
	assert.ErrorIs(t, c.UpdateQuantity(context.Background(), "p1", 2), boom)
	assert.Equal(t, int64(1), c.Lines()[0].Quantity)
}

func TestRemoveItemYClear(t *testing.T) {
	p1, p2 := product("p1", "1000", 10), product("p2", "500", 10)
	c := cart.New(newStubReader(p1, p2))
	require.NoError(t, c.AddItem(p1, 1))
	require.NoError(t, c.AddItem(p2, 2))

	c.RemoveItem("p1")
	c.RemoveItem("inexistente")
	require.Equal(t, 1, c.Len())
	assert.False(t, c.Contains("p1"))
	assert.True(t, decimal.NewFromInt(1000).Equal(c.TotalPrice()))

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.True(t, decimal.Zero.Equal(c.TotalPrice()))
}

func TestDeduct_ConservaLoAgregadoDespuesDeLaFoto(t *testing.T) {
	p1, p2, p3 := product("p1", "1000", 10), product("p2", "500", 10), product("p3", "200", 10)
	c := cart.New(newStubReader(p1, p2, p3))
	require.NoError(t, c.AddItem(p1, 2))
	require.NoError(t, c.AddItem(p2, 1))

	sold := c.Lines()
	// Mientras se confirma la venta otra petición agrega al mismo carrito.
	require.NoError(t, c.AddItem(p1, 3))
	require.NoError(t, c.AddItem(p3, 4))

	c.Deduct(append(sold, cart.Line{ProductID: "inexistente", Quantity: 1}))

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "p1", lines[0].ProductID)
	assert.Equal(t, int64(3), lines[0].Quantity)
	assert.Equal(t, "p3", lines[1].ProductID)
	assert.Equal(t, int64(4), lines[1].Quantity)
	assert.False(t, c.Contains("p2"), "la línea vendida completa se elimina")
}

func TestDeduct_SinCambiosConcurrentesVaciaElCarrito(t *testing.T) {
	p1 := product("p1", "1000", 10)
	c := cart.New(newStubReader(p1))
	require.NoError(t, c.AddItem(p1, 2))

	c.Deduct(c.Lines())
	assert.True(t, c.IsEmpty())

	c.Deduct([]cart.Line{{ProductID: "p1", Quantity: 1}})
	assert.True(t, c.IsEmpty())
}

func TestLines_DevuelveCopiaEnOrdenDeInsercion(t *testing.T) {
	p1, p2 := product("p1", "1000", 10), product("p2", "500", 10)
	c := cart.New(newStubReader(p1, p2))
	require.NoError(t, c.AddItem(p2, 1))
	require.NoError(t, c.AddItem(p1, 1))

	lines := c.Lines()
	assert.Equal(t, "p2", lines[0].ProductID)
	assert.Equal(t, "p1", lines[1].ProductID)

	lines[0].Quantity = 99
	assert.Equal(t, int64(1), c.Lines()[0].Quantity, "modificar la copia no afecta el carrito")
}

func TestCarrito_UsoConcurrente(t *testing.T) {
	p1 := product("p1", "1", 1000)
	c := cart.New(newStubReader(p1))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.AddItem(p1, 1)
			_ = c.TotalPrice()
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), c.Lines()[0].Quantity)
}
