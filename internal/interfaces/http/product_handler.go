package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/application/inventory"
)

// ProductHandler consultas de producto y stock (protegido).
type ProductHandler struct {
	uc *inventory.StockUseCase
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *inventory.StockUseCase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	p, err := h.uc.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToProductResponse(p))
}

// NeedsRestock godoc
// @Summary      Indica si el producto está en o bajo su stock mínimo
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.NeedsRestockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/needs-restock [get]
func (h *ProductHandler) NeedsRestock(c *fiber.Ctx) error {
	id := c.Params("id")
	needs, err := h.uc.NeedsRestock(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NeedsRestockResponse{ProductID: id, NeedsRestock: needs})
}

// LowStock godoc
// @Summary      Productos bajo stock mínimo con cantidad sugerida de reposición
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Límite"  default(50)
// @Success      200    {object}  dto.ListResponse[dto.LowStockItemDTO]
// @Router       /api/products/low-stock [get]
func (h *ProductHandler) LowStock(c *fiber.Ctx) error {
	items, err := h.uc.LowStock(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewListResponse(items))
}
