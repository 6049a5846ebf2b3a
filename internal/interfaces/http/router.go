package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-api/internal/application/inventory"
	"github.com/jhoicas/pos-api/internal/application/restock"
	"github.com/jhoicas/pos-api/internal/application/sales"
	"github.com/jhoicas/pos-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Stock     *inventory.StockUseCase
	Checkout  *sales.CheckoutUseCase
	Sales     *sales.SaleQueryUseCase
	Restocks  *restock.Workflow
	JWTSecret string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	products := api.Group("/products")
	productHandler := NewProductHandler(deps.Stock)
	products.Get("/low-stock", productHandler.LowStock)
	products.Get("/:id", productHandler.GetByID)
	products.Get("/:id/needs-restock", productHandler.NeedsRestock)

	cart := api.Group("/cart")
	cartHandler := NewCartHandler(deps.Checkout)
	cart.Get("/", cartHandler.Get)
	cart.Delete("/", cartHandler.Clear)
	cart.Post("/items", cartHandler.AddItem)
	cart.Put("/items/:productId", cartHandler.UpdateItem)
	cart.Delete("/items/:productId", cartHandler.RemoveItem)
	cart.Post("/checkout", cartHandler.Checkout)

	salesGroup := api.Group("/sales")
	saleHandler := NewSaleHandler(deps.Sales)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Get("/:id/receipt", saleHandler.Receipt)

	restocks := api.Group("/restocks")
	restockHandler := NewRestockHandler(deps.Restocks)
	restocks.Post("/", restockHandler.Create)
	restocks.Get("/pending", restockHandler.ListPending)
	restocks.Get("/:id", restockHandler.GetByID)
	restocks.Patch("/:id/status", RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero), restockHandler.SetStatus)
}
