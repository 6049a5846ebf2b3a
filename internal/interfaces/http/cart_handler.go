package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/application/sales"
)

// HeaderIdempotencyKey clave opcional del cliente para reintentos seguros del checkout.
const HeaderIdempotencyKey = "Idempotency-Key"

// CartHandler carrito de la sesión de caja y confirmación de la venta.
// La sesión es el usuario autenticado: un carrito por cajero.
type CartHandler struct {
	uc *sales.CheckoutUseCase
}

// NewCartHandler construye el handler.
func NewCartHandler(uc *sales.CheckoutUseCase) *CartHandler {
	return &CartHandler{uc: uc}
}

// Get godoc
// @Summary      Estado del carrito
// @Tags         cart
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CartResponse
// @Router       /api/cart [get]
func (h *CartHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.uc.GetCart(GetUserID(c)))
}

// AddItem godoc
// @Summary      Agregar producto al carrito
// @Tags         cart
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AddCartItemRequest  true  "Producto y cantidad"
// @Success      200   {object}  dto.CartResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/cart/items [post]
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var in dto.AddCartItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AddItem(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateItem godoc
// @Summary      Fijar cantidad de una línea (<= 0 la elimina)
// @Tags         cart
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        productId  path  string                     true  "ID del producto"
// @Param        body       body  dto.UpdateCartItemRequest  true  "Nueva cantidad"
// @Success      200        {object}  dto.CartResponse
// @Failure      404        {object}  dto.ErrorResponse
// @Failure      409        {object}  dto.ErrorResponse
// @Router       /api/cart/items/{productId} [put]
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	var in dto.UpdateCartItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateItem(c.UserContext(), GetUserID(c), c.Params("productId"), in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RemoveItem godoc
// @Summary      Quitar una línea del carrito
// @Tags         cart
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200        {object}  dto.CartResponse
// @Router       /api/cart/items/{productId} [delete]
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	return c.JSON(h.uc.RemoveItem(GetUserID(c), c.Params("productId")))
}

// Clear godoc
// @Summary      Cancelar el carrito
// @Tags         cart
// @Security     Bearer
// @Success      204
// @Router       /api/cart [delete]
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	h.uc.ClearCart(GetUserID(c))
	return c.SendStatus(fiber.StatusNoContent)
}

// Checkout godoc
// @Summary      Confirmar el carrito como venta
// @Description  Todo o nada: si algún producto no tiene stock suficiente no se registra la venta y el carrito se conserva.
// @Tags         cart
// @Security     Bearer
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave para reintentos seguros"
// @Success      201  {object}  dto.SaleResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/cart/checkout [post]
func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	userID := GetUserID(c)
	key := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
	sale, err := h.uc.Checkout(c.UserContext(), userID, userID, key)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToSaleResponse(sale))
}
